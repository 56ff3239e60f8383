package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/fsmkit/blueprint"
	"github.com/dmitrymomot/fsmkit/watch"
)

//go:embed signup.yaml
var blueprints embed.FS

type config struct {
	Addr            string        `env:"WIZARDD_ADDR" envDefault:":8080"`
	LogFormat       string        `env:"WIZARDD_LOG_FORMAT" envDefault:"text"`
	LogLevel        slog.Level    `env:"WIZARDD_LOG_LEVEL" envDefault:"INFO"`
	WatchBuffer     int           `env:"WIZARDD_WATCH_BUFFER" envDefault:"16"`
	ShutdownTimeout time.Duration `env:"WIZARDD_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("wizardd failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// The .env file is optional; real environments set variables directly.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	logger := newLogger(cfg)

	def, err := blueprint.LoadFS(context.Background(), blueprints, "signup.yaml", newRegistry())
	if err != nil {
		return fmt.Errorf("failed to load signup blueprint: %w", err)
	}

	hub := watch.NewHub(watch.WithBuffer(cfg.WatchBuffer))
	defer hub.Close()

	srv := &server{
		sessions: newSessionStore(def, hub, logger),
		hub:      hub,
		logger:   logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts descend from the signal context, so shutdown
		// also releases the long-lived watch streams.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	logger.Info("wizardd listening", slog.String("addr", cfg.Addr))

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}
}

func newLogger(cfg config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(slog.String("service", "wizardd"))
}
