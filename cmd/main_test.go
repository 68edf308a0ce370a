package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/recomodel/internal/adapters/cli"
	"github.com/okian/recomodel/internal/adapters/source"
	app "github.com/okian/recomodel/internal/app"
	"github.com/okian/recomodel/internal/config"
	"github.com/okian/recomodel/internal/domain/lifecycle"
	"github.com/okian/recomodel/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("RECOMODEL_MIN_INTERACTIONS", "3")
			_ = os.Setenv("RECOMODEL_FACTORS", "8")
			defer func() {
				_ = os.Unsetenv("RECOMODEL_MIN_INTERACTIONS")
				_ = os.Unsetenv("RECOMODEL_FACTORS")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background(), nil)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MinInteractions, convey.ShouldEqual, 3)
				convey.So(cfg.Factors, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When building the service from configuration", func() {
			cfg := config.New(context.Background())
			cfg.ModelStoreURI = "file://" + filepath.Join(t.TempDir(), "cf_model.gob.gz")
			svc := newService(cfg, logger.Nop())

			convey.Convey("Then it satisfies the command surface", func() {
				_, ok := svc.(*app.Service)
				convey.So(ok, convey.ShouldBeTrue)
			})

			convey.Convey("And it starts against an in-memory source", func() {
				ctx := context.Background()
				full := app.New(cfg, app.WithSource(source.NewMemory(5, 45)), app.WithLogger(logger.Nop()))
				convey.So(full.Start(ctx), convey.ShouldBeNil)
				defer full.Stop(ctx)

				_, err := full.Initialize(ctx, lifecycle.Targets{})
				var sig *lifecycle.InsufficientSignalError
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.As(err, &sig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When running usage errors end to end", func() {
			convey.So(run(context.Background(), []string{"bogus"}), convey.ShouldEqual, cli.ExitUsage)
			convey.So(run(context.Background(), nil), convey.ShouldEqual, cli.ExitUsage)
		})

		convey.Convey("When running help end to end", func() {
			convey.So(run(context.Background(), []string{"help"}), convey.ShouldEqual, cli.ExitOK)
		})
	})
}
