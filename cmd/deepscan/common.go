package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kdimtricp/deepscan/internal/analysis"
	"github.com/kdimtricp/deepscan/internal/config"
	"github.com/kdimtricp/deepscan/internal/controller"
	"github.com/kdimtricp/deepscan/internal/logger"
	"github.com/kdimtricp/deepscan/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// app holds what every front-end needs: one controller over staged storage.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *storage.LocalStorage
	ctrl   *controller.Controller
}

func newApp(cfg *config.Config) (*app, error) {
	log, err := logger.Init(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := storage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	client, err := analysis.New(cfg.AnalysisClient())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analysis client: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: log,
		store:  store,
		ctrl:   controller.New(client, store, log),
	}, nil
}

// serveHTTP runs srv in g until ctx is done, then shuts it down.
func serveHTTP(ctx context.Context, g *errgroup.Group, srv *http.Server, log *slog.Logger) {
	g.Go(func() error {
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
}
