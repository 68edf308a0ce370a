package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/recomodel/internal/seed"
	"github.com/okian/recomodel/pkg/logger"
)

// Default generator sizes.
const (
	defaultUsers        = 5
	defaultProducts     = 45
	defaultInteractions = 200
	defaultTimeout      = 2 * time.Minute
)

func main() {
	var (
		database     = flag.String("db", "./data/interactions.db", "SQLite database to fill")
		fixture      = flag.String("fixture", "", "YAML fixture to load instead of generated data")
		users        = flag.Int("users", defaultUsers, "Number of users to generate")
		products     = flag.Int("products", defaultProducts, "Number of products to generate")
		interactions = flag.Int("interactions", defaultInteractions, "Number of interactions to generate")
		seedValue    = flag.Int64("seed", time.Now().UnixNano(), "Generator seed")
		verbose      = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)

	cfg := &seed.Config{
		Database:     *database,
		Fixture:      *fixture,
		Users:        *users,
		Products:     *products,
		Interactions: *interactions,
		Seed:         *seedValue,
	}
	_, err := seed.Run(ctx, cfg, logger.Named("seed"))
	cancel()
	stop()
	if err != nil {
		os.Stderr.WriteString("seed failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
