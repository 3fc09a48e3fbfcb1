package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/postgresql"
	leaveService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/leave"
	payrollService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
	))

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), database.PoolConfig{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	txManager := postgresql.NewTransactionManager(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	leavePolicyRepo := postgresql.NewLeavePolicyRepository(db)
	leavePeriodRepo := postgresql.NewLeavePeriodRepository(db)
	leaveAllocationRepo := postgresql.NewLeaveAllocationRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	salaryComponentRepo := postgresql.NewSalaryComponentRepository(db)
	salaryMasterRepo := postgresql.NewSalaryMasterRepository(db)
	salaryGenerationRepo := postgresql.NewSalaryGenerationRepository(db)

	leaveSvc := leaveService.NewService(txManager, leaveService.Repositories{
		LeaveType:  leaveTypeRepo,
		Policy:     leavePolicyRepo,
		Period:     leavePeriodRepo,
		Allocation: leaveAllocationRepo,
		Request:    leaveRequestRepo,
		Employee:   employeeRepo,
	}, leaveService.Options{WorkerPoolSize: cfg.Engine.WorkerPoolSize, Now: now})

	payrollSvc := payrollService.NewPayrollService(txManager, payrollService.Repositories{
		Employee:   employeeRepo,
		Attendance: attendanceRepo,
		LeaveType:  leaveTypeRepo,
		Component:  salaryComponentRepo,
		Master:     salaryMasterRepo,
		Generation: salaryGenerationRepo,
	}, payrollService.Options{WorkerPoolSize: cfg.Engine.WorkerPoolSize, Now: now})

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	leaveHandler := appHTTP.NewLeaveHandler(leaveSvc)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)
	router := appHTTP.NewRouter(cfg, JWTService, leaveHandler, payrollHandler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := cron.NewScheduler()
	cron.NewLeaveJobs(leaveSvc, leavePeriodRepo, now).
		RegisterJobs(scheduler, cfg.Engine.RolloverInterval, cfg.Engine.AccrualInterval)
	scheduler.Start(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	scheduler.Stop()
	slog.Info("Server stopped")
}
