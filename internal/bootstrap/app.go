package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/emotion-api/internal/domain/emotion"
	"github.com/yanqian/emotion-api/internal/infra/config"
)

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	server     *http.Server
	classifier emotion.Service
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, classifier emotion.Service) *App {
	return &App{
		cfg:        cfg,
		logger:     logger.With("component", "bootstrap"),
		server:     server,
		classifier: classifier,
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Classifier.Warmup {
		go a.warmUp()
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// warmUp primes the model server so the first real request does not pay
// the model load cost. Fire-and-forget: a warm-up failure must never
// block or fail startup.
func (a *App) warmUp() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Ollama.Timeout)
	defer cancel()

	if _, err := a.classifier.Classify(ctx, emotion.Request{Sentence: "warmup"}); err != nil {
		a.logger.Debug("warm-up classification failed", "error", err)
		return
	}
	a.logger.Info("model warm-up complete")
}
