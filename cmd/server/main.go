package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/threadfit/backend/internal/config"
	"github.com/threadfit/backend/internal/container"
	"github.com/threadfit/backend/internal/database"
	"github.com/threadfit/backend/internal/handlers"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/middleware"
	"github.com/threadfit/backend/internal/telemetry"
	"go.uber.org/zap"
)

const serviceName = "threadfit-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not up yet; fall back to a bare console logger.
		_ = logger.Initialize("info", "")
		logger.Log.Fatal("Invalid configuration", zap.Error(err))
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Log.Info("=== ThreadFit server starting ===", zap.String("environment", cfg.Environment))

	ctx := context.Background()
	tp, err := telemetry.InitTracer(ctx, telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTel.Endpoint,
		Enabled:      cfg.OTel.Enabled,
		SamplingRate: cfg.OTel.SamplingRate,
	})
	if err != nil {
		logger.Log.Warn("Tracing disabled", zap.Error(err))
	} else if tp != nil {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Warn("Tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	// Initialize database
	if err := database.Initialize(cfg.Database, cfg.IsDevelopment()); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	app, err := container.Build(ctx, cfg, database.DB)
	if err != nil {
		logger.Log.Fatal("Failed to wire services", zap.Error(err))
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.TracingMiddleware(serviceName),
		middleware.SpanAttributesMiddleware(),
	)

	healthChecks := []handlers.HealthCheck{
		{Name: "database", Check: func(context.Context) error { return database.Health() }},
	}
	if client := app.Cache(); client != nil {
		healthChecks = append(healthChecks, handlers.HealthCheck{Name: "redis", Check: client.Ping})
	}

	handlers.RegisterRoutes(r, handlers.RouteDeps{
		Auth:         app.Auth(),
		AuthHandlers: handlers.NewAuthHandlers(app.Auth(), !cfg.IsDevelopment()),
		Handlers:     handlers.NewHandlers(app.DB(), app.Pipeline(), cfg.Stream.MaxSpeed),
		WebSocket:    app.WebSocket(),
		HealthChecks: healthChecks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info("ThreadFit backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Streaming sessions are hijacked connections srv.Shutdown does not track,
	// so they are closed through the container first.
	if err := app.Cleanup(shutdownCtx); err != nil {
		logger.Log.Warn("Service cleanup warning", zap.Error(err))
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
