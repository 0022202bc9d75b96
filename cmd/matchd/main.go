package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchcore/internal/config"
	"matchcore/pkg/logger"
)

// matchd replays or generates order flow against a single-instrument book.
// Usage:
//
//	matchd run -csv orders.csv
//	matchd generate -csv orders.csv -count 10000
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: matchd <run|generate> [flags]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.EngineConfig
	if _, err := loadConfig(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %+v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Name, cfg.LogLevel)
	defer logger.Sync()

	runID := uuid.New().String()
	logger.Info(ctx, "matchd starting", zap.String("run_id", runID), zap.String("subcommand", os.Args[1]))

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(ctx, &cfg, os.Args[2:])
	case "generate":
		err = generateCmd(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		os.Exit(2)
	}
	if err != nil {
		logger.Error(ctx, "matchd exiting with error", zap.String("run_id", runID), zap.Error(err))
		os.Exit(1)
	}
}
