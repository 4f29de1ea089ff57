package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/beanbocchi/tubeup/config"
	"github.com/beanbocchi/tubeup/internal/service"
	"github.com/beanbocchi/tubeup/internal/transport"
)

// NewConfig provides the application configuration
func NewConfig() *config.Config {
	return config.GetConfig()
}

func SetupLogger(cfg config.Log) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// Start wires the server from config and serves in the background.
func Start() error {
	cfg := NewConfig()
	SetupLogger(cfg.Log)

	svc, err := service.NewService(cfg)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	e, err := transport.NewEcho(svc, cfg.Upload.RequestTimeout)
	if err != nil {
		return fmt.Errorf("create echo: %w", err)
	}

	slog.Info("starting server",
		"name", cfg.App.Name,
		"env", cfg.Env,
		"address", cfg.App.Address,
		"objectstore", cfg.Objectstore.Type,
	)
	go func() {
		if err := e.Start(cfg.App.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	return nil
}
