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

	"github.com/mydraft/mydraft/backend-go/internal/api"
	"github.com/mydraft/mydraft/backend-go/internal/auth"
	"github.com/mydraft/mydraft/backend-go/internal/config"
	"github.com/mydraft/mydraft/backend-go/internal/live"
	"github.com/mydraft/mydraft/backend-go/internal/metrics"
	"github.com/mydraft/mydraft/backend-go/internal/session"
	"github.com/mydraft/mydraft/backend-go/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.NewLogger(os.Stdout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store storage.Store
	if cfg.DatabaseURL != "" {
		pool, err := storage.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := storage.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("migrate database", "error", err)
			os.Exit(1)
		}
		store = pg
	} else {
		slog.Warn("DATABASE_URL not set, snapshots are kept in memory")
		store = storage.NewMemory()
	}

	m := metrics.New()
	sessions := session.NewManager(store, cfg.EditorOptions(), m, slog.Default())
	authService := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)

	hubCtx, stopHub := context.WithCancel(ctx)
	hub := live.NewHub(sessions, m)
	go hub.Run(hubCtx)

	go sessions.Run(ctx, cfg.AutosaveInterval)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr: addr,
		Handler: api.NewRouter(api.Deps{
			Sessions: sessions,
			Auth:     authService,
			Hub:      hub,
			Metrics:  m,
			Origins:  cfg.Origins(),
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Live connections close before the final save.
		stopHub()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)

		slog.Info("saving all sessions...")
		sessions.Stop(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
