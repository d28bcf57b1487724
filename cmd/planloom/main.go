package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/planloom/planloom/internal/catalog"
	"github.com/planloom/planloom/internal/engineapi"
	"github.com/planloom/planloom/internal/logging"
	"github.com/planloom/planloom/pkg/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "planloom:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := loadConfig()

	logger := newLogger(cfg.LogLevel)

	var engine mcp.EngineClient
	if cfg.EngineURL != "" {
		engine = engineapi.New(engineapi.Config{
			BaseURL: cfg.EngineURL,
			APIKey:  cfg.APIKey,
			Timeout: cfg.httpTimeout(),
		}, logger)
	}

	srv, err := mcp.NewPlanloomServer(mcp.PlanloomServerDeps{
		Catalog: catalog.NewDefault(),
		Engine:  engine,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("planloom server starting", slog.String("engine_url", cfg.EngineURL))
	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newLogger builds the stderr slog logger with correlation ID injection.
// Stdout is reserved for the MCP stdio transport.
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

	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}
