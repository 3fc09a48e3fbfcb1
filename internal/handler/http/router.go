package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/config"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(cfg *config.Config, JWTService jwt.Service, leaveHandler LeaveHandler, payrollHandler PayrollHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel(),
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

		r.Route("/leave", func(r chi.Router) {
			r.Route("/periods", func(r chi.Router) {
				r.Get("/", leaveHandler.ListPeriods)
				r.Get("/active", leaveHandler.GetActivePeriod)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/", leaveHandler.CreatePeriod)
					r.Post("/{id}/activate", leaveHandler.ActivatePeriod)
				})
			})

			r.Route("/types", func(r chi.Router) {
				r.Get("/", leaveHandler.ListTypes)
				r.With(middleware.RequireManager).Post("/", leaveHandler.CreateType)
			})

			r.Route("/policies", func(r chi.Router) {
				r.Get("/", leaveHandler.ListPolicies)
				r.With(middleware.RequireManager).Post("/", leaveHandler.CreatePolicy)
			})

			r.Route("/allocations", func(r chi.Router) {
				r.Get("/", leaveHandler.ListAllocations)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/", leaveHandler.Allocate)
					r.Post("/{id}/cancel", leaveHandler.CancelAllocation)
				})
			})

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", leaveHandler.CreateRequest)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/{id}/approve", leaveHandler.ApproveRequest)
					r.Post("/{id}/reject", leaveHandler.RejectRequest)
				})
			})
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Use(middleware.RequireManager)

			r.Route("/components", func(r chi.Router) {
				r.Get("/", payrollHandler.ListComponents)
				r.Post("/", payrollHandler.CreateComponent)
			})

			r.Route("/salary-masters/{employeeID}", func(r chi.Router) {
				r.Get("/", payrollHandler.GetSalaryMaster)
				r.Put("/", payrollHandler.UpsertSalaryMaster)
			})

			r.Route("/generations", func(r chi.Router) {
				r.Get("/", payrollHandler.ListGenerations)
				r.Post("/", payrollHandler.Generate)
			})
		})

		r.Post("/formulas/evaluate", payrollHandler.EvaluateFormula)
	})
	return r
}
