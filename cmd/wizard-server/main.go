// cmd/wizard-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"nominee-applications/internal/api"
	"nominee-applications/internal/common/config"
	"nominee-applications/internal/common/logger"
	"nominee-applications/internal/common/observability"
	"nominee-applications/internal/wizard"
)

const (
	sessionIdleTimeout = 30 * time.Minute
	sweepInterval      = 5 * time.Minute
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console", "stdout")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting wizard server...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
		zap.String("draftStore", cfg.Draft.Store),
		zap.String("documentStore", cfg.Documents.Store),
		zap.String("deliveryBackend", cfg.Delivery.Backend),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	deps, err := buildDependencies(ctx, cfg, zapLog, log)
	if err != nil {
		zapLog.Fatal("dependency setup failed", zap.Error(err))
	}
	defer deps.Close(zapLog)

	mode, err := wizard.ParseCompletenessMode(cfg.Wizard.CompletenessMode)
	if err != nil {
		zapLog.Fatal("invalid wizard configuration", zap.Error(err))
	}
	uploads := wizard.UploadPolicy{MaxBytes: cfg.Uploads.MaxBytes, AllowedTypes: cfg.Uploads.AllowedTypes}

	sessions := wizard.NewSessions(func(ctx context.Context, id string) *wizard.Wizard {
		return wizard.New(ctx, wizard.Config{
			SessionID:          id,
			Mode:               mode,
			ClearDraftOnSubmit: cfg.Wizard.ClearDraftOnSubmit,
			PersistPosition:    cfg.Wizard.PersistPosition,
			MaskSensitive:      cfg.Wizard.MaskSensitive,
			SuccessRoute:       cfg.Wizard.SuccessRoute,
			Uploads:            uploads,
		}, wizard.Dependencies{
			Drafts:    deps.drafts,
			Documents: deps.documents,
			Delivery:  deps.delivery,
			Logger:    log,
			Obs:       obs,
		})
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, sessions, zapLog)

	server := api.NewServer(sessions, log, api.Options{
		SecureCookies:  cfg.Server.SecureCookies,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
		Ready:          deps.Ready,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	zapLog.Info("Wizard server stopped gracefully")
}

func sweepSessions(ctx context.Context, sessions *wizard.Sessions, log *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(ctx, sessionIdleTimeout); n > 0 {
				log.Debug("Idle sessions released", zap.Int("count", n), zap.Int("remaining", sessions.Len()))
			}
		}
	}
}
