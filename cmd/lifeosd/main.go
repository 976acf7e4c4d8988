// Command lifeosd runs the LifeOS API server: the focus timer, the calendar
// with recurrence expansion, and the XP dashboard, backed by a local SQLite
// database.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lifeos-app/lifeos/internal/config"
	"github.com/lifeos-app/lifeos/recurrence"
	"github.com/lifeos-app/lifeos/server"
	"github.com/lifeos-app/lifeos/store/memory"
	"github.com/lifeos-app/lifeos/store/sqlite"
	"github.com/lifeos-app/lifeos/timer"
)

// logNotifier surfaces completion notifications through the log. A desktop
// or push channel can replace it without touching the engine.
type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) Notify(title, body string) error {
	n.logger.Info("notification", "title", title, "body", body)
	return nil
}

func main() {
	configPath := flag.String("config", "lifeos.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DatabasePath, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	engine := timer.New(
		timer.Deps{
			Ledger:   db,
			Profile:  db,
			Notifier: &logNotifier{logger: logger},
		},
		timer.Options{
			DefaultDuration: time.Duration(cfg.DefaultSessionMinutes) * time.Minute,
			XPPerMinute:     cfg.XPPerMinute,
			Logger:          logger,
		},
	)
	defer engine.Close()

	expandOpts := recurrence.DefaultExpandOptions
	if cfg.MaxInstances > 0 {
		expandOpts.MaxInstances = cfg.MaxInstances
	}
	expander := recurrence.NewEngineWithOptions(logger, expandOpts)

	srv, err := server.New(engine, memory.New(), expander, db, logger)
	if err != nil {
		logger.Error("failed to create server", "err", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "err", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
