package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"divorcerisk/internal/app"
	"divorcerisk/internal/config"
	"divorcerisk/internal/transport/rest"
	"divorcerisk/internal/transport/ws"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	a, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if err := a.BuildServices(ctx); err != nil {
		return err
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub(logger)
	defer wsHub.Stop()

	// Inject broadcaster (wsHub implements service.Broadcaster)
	a.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:           a.Auth,
		AssessmentService:     a.Assessments,
		PredictionService:     a.Predictions,
		RecommendationService: a.Recommendations,
		WSHub:                 wsHub,
		Logger:                logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("clinician", cfg.ClinicianUsername),
			zap.Float64("decision_threshold", cfg.DecisionThreshold),
			zap.String("dedup", cfg.DedupPolicy))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
