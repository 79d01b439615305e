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

	"github.com/iudanet/matswap/internal/authgate"
	"github.com/iudanet/matswap/internal/catalog"
	"github.com/iudanet/matswap/internal/client/api"
	"github.com/iudanet/matswap/internal/client/cli"
	"github.com/iudanet/matswap/internal/client/iocli"
	"github.com/iudanet/matswap/internal/config"
	"github.com/iudanet/matswap/internal/logging"
	"github.com/iudanet/matswap/internal/storage/backend"
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
	cfg, err := config.Load("matswap", os.Args[1:], os.LookupEnv)
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

	// CLI по умолчанию пишет в лог только предупреждения
	if cfg.Logger.Level == "info" {
		cfg.Logger.Level = "warn"
	}
	logger, logCloser, err := logging.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Удаленный режим: только чтение каталога с сервера
	if cfg.Client.ServerURL != "" {
		client := api.NewClient(cfg.Client.ServerURL, cfg.Client.Timeout)
		c := cli.NewRemote(iocli.NewStdio(), client)
		return exitCode(c.Run(ctx, cfg.Args))
	}

	store, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", slog.Any("error", err))
		}
	}()

	cat, err := catalog.New(ctx, store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	gate := authgate.New(store, logger, authgate.OptionsFromConfig(cfg.Auth))

	c := cli.NewLocal(iocli.NewStdio(), gate, cat, os.LookupEnv)
	return exitCode(c.Run(ctx, cfg.Args))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrUsage), errors.Is(err, cli.ErrUnknownCommand):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

func printVersion() {
	fmt.Printf("matswap\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
