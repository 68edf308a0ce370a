package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/recomodel/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should carry the lifecycle defaults", func() {
			convey.So(cfg.MinInteractions, convey.ShouldEqual, 1)
			convey.So(cfg.FallbackActorCount, convey.ShouldEqual, 5)
			convey.So(cfg.FallbackItemCount, convey.ShouldEqual, 45)
			convey.So(cfg.ModelStoreURI, convey.ShouldEqual, "file://./data/cf_model.gob.gz")
			convey.So(cfg.DefaultK, convey.ShouldEqual, 5)
			convey.So(cfg.SourceTimeout(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.FetchTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.LockTimeout(), convey.ShouldEqual, 30*time.Second)
		})

		convey.Convey("Then the defaults should validate", func() {
			convey.So(config.Validate(cfg), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs breaking a constraint", t, func() {
		ctx := context.Background()

		cases := map[string]func(*config.Config){
			"zero gate":         func(c *config.Config) { c.MinInteractions = 0 },
			"zero fallback":     func(c *config.Config) { c.FallbackItemCount = 0 },
			"max below default": func(c *config.Config) { c.MaxK = 2; c.DefaultK = 5 },
			"unknown level":     func(c *config.Config) { c.LogLevel = "loud" },
			"unknown format":    func(c *config.Config) { c.LogFormat = "xml" },
			"no store":          func(c *config.Config) { c.ModelStoreURI = "" },
		}

		for name, mutate := range cases {
			cfg := config.New(ctx)
			mutate(cfg)

			convey.Convey("Then validation rejects "+name, func() {
				err := config.Validate(cfg)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func TestConfig_Keys(t *testing.T) {
	convey.Convey("Given the known configuration keys", t, func() {
		ctx := context.Background()
		keys := config.Keys(ctx)

		convey.Convey("Then every documented key is listed", func() {
			convey.So(keys, convey.ShouldContain, "interaction_source_uri")
			convey.So(keys, convey.ShouldContain, "min_interactions")
			convey.So(keys, convey.ShouldContain, "fallback_item_count")
			convey.So(keys, convey.ShouldContain, "metrics_textfile")
			convey.So(config.IsKey(ctx, "seed"), convey.ShouldBeTrue)
			convey.So(config.IsKey(ctx, "n_users"), convey.ShouldBeFalse)
		})
	})
}
