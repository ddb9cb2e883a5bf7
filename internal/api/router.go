package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adi-0903/FacePass/internal/api/handler"
	"github.com/adi-0903/FacePass/internal/api/middleware"
	"github.com/adi-0903/FacePass/internal/database"
	"github.com/adi-0903/FacePass/internal/service"
)

type Dependencies struct {
	Service *service.AttendanceService
	DB      *pgxpool.Pool
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "FacePass API",
		BodyLimit:    12 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check endpoints (no auth required)
	var dbCheck func(ctx context.Context) error
	if r.deps != nil && r.deps.DB != nil {
		pool := r.deps.DB
		dbCheck = func(ctx context.Context) error {
			return database.HealthCheck(ctx, pool)
		}
	}
	healthHandler := handler.NewHealthHandler(dbCheck)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil || r.deps.Service == nil {
		return
	}

	userHandler := handler.NewUserHandler(r.deps.Service, r.logger)
	attendanceHandler := handler.NewAttendanceHandler(r.deps.Service, r.logger)

	apiGroup := r.app.Group("/api")

	// Enrollment and user management
	apiGroup.Post("/register", userHandler.Register)
	apiGroup.Get("/users", userHandler.List)
	apiGroup.Delete("/users/:employee_id", userHandler.Deactivate)

	// Punch and liveness
	apiGroup.Post("/identify", attendanceHandler.Identify)
	apiGroup.Post("/liveness/:session", attendanceHandler.AnalyzeFrame)
	apiGroup.Post("/liveness/:session/reset", attendanceHandler.ResetSession)
	apiGroup.Delete("/liveness/:session", attendanceHandler.EndSession)

	// Attendance queries
	apiGroup.Get("/attendance/today", attendanceHandler.Today)
	apiGroup.Get("/attendance/history/:employee_id", attendanceHandler.History)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
