package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adi-0903/FacePass/internal/api"
	"github.com/adi-0903/FacePass/internal/config"
	"github.com/adi-0903/FacePass/internal/database"
	"github.com/adi-0903/FacePass/internal/detector"
	"github.com/adi-0903/FacePass/internal/face"
	"github.com/adi-0903/FacePass/internal/gallery"
	"github.com/adi-0903/FacePass/internal/liveness"
	"github.com/adi-0903/FacePass/internal/repository"
	"github.com/adi-0903/FacePass/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting FacePass API",
		slog.String("environment", cfg.Environment),
		slog.String("encoder", cfg.FaceEncoder),
		slog.Int("port", cfg.Port),
	)

	// Database
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Face pipeline
	encoder, err := face.NewEncoder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}

	faceDetector, err := detector.New(cfg.CascadeFile)
	if err != nil {
		return fmt.Errorf("failed to load face detector: %w", err)
	}

	matcher := gallery.NewMatcher(encoder, cfg.RecognitionTolerance, cfg.DuplicateThreshold, logger)

	// Service
	svc := service.NewAttendanceService(service.Dependencies{
		Users:      repository.NewUserRepository(pool),
		Attendance: repository.NewAttendanceRepository(pool),
		Audit:      repository.NewAuditRepository(pool),
		Gallery:    matcher,
		Encoder:    encoder,
		Detector:   faceDetector,
		Landmarks:  face.NewLandmarkProvider(cfg),
		NewAnalyzer: func() service.LivenessAnalyzer {
			return liveness.NewAnalyzer(cfg.LivenessThreshold, cfg.BlinkThreshold, logger)
		},
	}, cfg, logger)

	// Warm the gallery before accepting traffic
	if err := svc.ReloadGallery(ctx); err != nil {
		return fmt.Errorf("failed to load gallery: %w", err)
	}

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Service: svc,
		DB:      pool,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}
