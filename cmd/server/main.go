// @title           Credit Risk-o-Meter API
// @version         1.0
// @description     Scores loan applicants with a pre-trained classifier and maps the default probability onto a 0-1000 credit score.
// @BasePath        /
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/config"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/monitoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logging setup
	appLogger := monitoring.NewLoggerWithOptions(os.Stdout, monitoring.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	slog.SetDefault(appLogger.Logger)

	a, err := newApp(context.Background(), cfg, appLogger)
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// The artifact is loaded eagerly so the first request does not pay for
	// it. A failure is logged and served as 503 on /api/score.
	if err := a.handle.Load(); err != nil {
		slog.Warn("Classifier unavailable, scoring disabled", "path", cfg.Model.Path, "error", err)
	}
	a.metrics.SetClassifierLoaded(a.handle.Status().Loaded)

	r := setupRouter(a)

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server",
			"port", cfg.Server.Port,
			"environment", cfg.Environment,
			"schema", cfg.Model.Schema,
			"policy", cfg.Scoring.Policy,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	appLogger.SystemLogger("shutdown", fmt.Sprintf("uptime %s", monitoring.Uptime().Round(time.Second)))
	slog.Info("Server exited")
}
