package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/recomodel/internal/adapters/source"
	"github.com/okian/recomodel/internal/domain/interaction"
	"github.com/okian/recomodel/pkg/logger"
)

// ErrNoDatabase is returned when Config.Database is empty.
var ErrNoDatabase = errors.New("database path is required")

// Config holds the seed run settings.
type Config struct {
	Database     string // SQLite file to fill
	Fixture      string // YAML fixture; generated data when empty
	Users        int    // generated users
	Products     int    // generated products
	Interactions int    // generated interactions
	Seed         int64  // generator seed
}

// Summary counts what was written.
type Summary struct {
	Users        int
	Products     int
	Interactions int
	Duration     time.Duration
}

// Run writes the fixture (or generated data) into the database.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (Summary, error) {
	if cfg.Database == "" {
		return Summary{}, ErrNoDatabase
	}
	if log == nil {
		log = logger.Nop()
	}
	start := time.Now()

	fixture, err := load(cfg)
	if err != nil {
		return Summary{}, err
	}

	db, err := source.OpenSQLite(cfg.Database)
	if err != nil {
		return Summary{}, fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(ctx); err != nil {
			log.Warn(ctx, "closing database failed", logger.Error(err))
		}
	}()

	if err := db.EnsureSchema(ctx); err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, u := range fixture.Users {
		if err := db.AddUser(ctx, u); err != nil {
			return sum, err
		}
		sum.Users++
	}
	for _, p := range fixture.Products {
		if err := db.AddProduct(ctx, p.ID, p.Status); err != nil {
			return sum, err
		}
		sum.Products++
	}
	for _, in := range fixture.Interactions {
		raw := interaction.Raw{ActorID: in.User, ItemID: in.Product, Action: interaction.ParseAction(in.Action)}
		if in.Weight != nil {
			raw.Weight = *in.Weight
		}
		if err := db.AddInteraction(ctx, raw); err != nil {
			return sum, err
		}
		sum.Interactions++
	}
	sum.Duration = time.Since(start)

	log.Info(ctx, "seeded interaction database",
		logger.String("database", cfg.Database),
		logger.Int("users", sum.Users),
		logger.Int("products", sum.Products),
		logger.Int("interactions", sum.Interactions),
		logger.String("duration", sum.Duration.String()))
	return sum, nil
}

func load(cfg *Config) (*Fixture, error) {
	if cfg.Fixture != "" {
		return LoadFixture(cfg.Fixture)
	}
	return Generate(cfg), nil
}
