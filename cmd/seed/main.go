package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/config"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/fixtures"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/postgresql"
	leaveService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/leave"
	payrollService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/payroll"
)

// Seeds the default leave types, policies, leave period and salary
// components for one company.
//
//	go run ./cmd/seed -company <uuid> [-year 2026]
func main() {
	companyID := flag.String("company", "", "company ID to seed")
	year := flag.Int("year", 0, "leave period year (defaults to the current year)")
	flag.Parse()

	if *companyID == "" {
		fmt.Fprintln(os.Stderr, "-company is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})).With(
		slog.String("app", cfg.App.Name),
		slog.String("cmd", "seed"),
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
	if *year == 0 {
		*year = now().Year()
	}

	txManager := postgresql.NewTransactionManager(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)

	leaveSvc := leaveService.NewService(txManager, leaveService.Repositories{
		LeaveType:  leaveTypeRepo,
		Policy:     postgresql.NewLeavePolicyRepository(db),
		Period:     postgresql.NewLeavePeriodRepository(db),
		Allocation: postgresql.NewLeaveAllocationRepository(db),
		Request:    postgresql.NewLeaveRequestRepository(db),
		Employee:   employeeRepo,
	}, leaveService.Options{WorkerPoolSize: cfg.Engine.WorkerPoolSize, Now: now})

	payrollSvc := payrollService.NewPayrollService(txManager, payrollService.Repositories{
		Employee:   employeeRepo,
		Attendance: postgresql.NewAttendanceRepository(db),
		LeaveType:  leaveTypeRepo,
		Component:  postgresql.NewSalaryComponentRepository(db),
		Master:     postgresql.NewSalaryMasterRepository(db),
		Generation: postgresql.NewSalaryGenerationRepository(db),
	}, payrollService.Options{WorkerPoolSize: cfg.Engine.WorkerPoolSize, Now: now})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ids, err := fixtures.NewSeeder(leaveSvc, payrollSvc).Seed(ctx, *companyID, *year)
	if err != nil {
		slog.Error("Seeding failed", "company_id", *companyID, "error", err)
		os.Exit(1)
	}

	slog.Info("Seeding completed",
		"company_id", *companyID,
		"leave_period_id", ids.LeavePeriodID,
		"leave_types", len(ids.LeaveTypeIDs),
		"salary_components", len(ids.ComponentIDs),
	)
}
