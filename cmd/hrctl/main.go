package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phloxxx/user-management-system/internal/cli"
	"github.com/phloxxx/user-management-system/internal/client"
)

func main() {
	cfg, err := cli.ParseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	// client logs go to stderr, warnings only unless -debug
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if cfg.Debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	c, err := client.New(client.Config{
		BaseURL:    cfg.Server,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("cannot create client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("hrctl connected to %s, type help for commands\n", cfg.Server)
	cli.NewApp(c, os.Stdin, os.Stdout, logger).Run(ctx)
}
