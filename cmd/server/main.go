package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/matswap/internal/config"
	"github.com/iudanet/matswap/internal/logging"
	"github.com/iudanet/matswap/internal/server"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load("matswap-server", os.Args[1:], os.LookupEnv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	// Show version and exit if requested
	if cfg.ShowVersion {
		printVersion()
		return 0
	}

	logger, logCloser, err := logging.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("matswap server starting",
		slog.String("version", Version),
		slog.String("git_commit", GitCommit),
		slog.String("addr", cfg.Server.Addr),
	)

	srv, err := server.New(ctx, cfg, logger, Version)
	if err != nil {
		logger.Error("Failed to initialize server", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Failed to close server", slog.Any("error", err))
		}
	}()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped with error", slog.Any("error", err))
		return 1
	}

	logger.Info("Server stopped")
	return 0
}

func printVersion() {
	fmt.Printf("matswap server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
