package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/okian/recomodel/internal/adapters/cli"
	app "github.com/okian/recomodel/internal/app"
	"github.com/okian/recomodel/internal/config"
	"github.com/okian/recomodel/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	// stdout carries the JSON result only.
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return cli.ExitUsage
	}
	defer func() {
		_ = logger.Sync()
	}()

	runner := cli.New(newService,
		cli.WithStdout(os.Stdout),
		cli.WithStderr(os.Stderr),
		cli.WithRunID(uuid.NewString()),
	)
	return runner.Run(ctx, args)
}

func newService(cfg *config.Config, log logger.Logger) cli.Service {
	return app.New(cfg, app.WithLogger(log))
}
