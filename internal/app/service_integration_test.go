package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/okian/recomodel/internal/adapters/artifact"
	"github.com/okian/recomodel/internal/adapters/source"
	service "github.com/okian/recomodel/internal/app"
	"github.com/okian/recomodel/internal/domain/interaction"
	"github.com/okian/recomodel/internal/domain/lifecycle"
	"github.com/okian/recomodel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func catalogue() []interaction.Raw {
	var raws []interaction.Raw
	for u := 1; u <= 5; u++ {
		for p := 1; p <= 9; p++ {
			if (u+p)%3 == 0 {
				continue
			}
			raws = append(raws, interaction.Raw{
				ActorID: fmt.Sprintf("u%d", u),
				ItemID:  fmt.Sprintf("p%d", p),
				Action:  interaction.ActionView,
				Weight:  float64(1 + (u*p)%5),
			})
		}
	}
	return raws
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a shared file store and a memory source", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		path := filepath.Join(t.TempDir(), "cf_model.gob.gz")
		cfg.ModelStoreURI = "file://" + path

		src := source.NewMemory(5, 45, catalogue()...)
		newService := func() *service.Service {
			svc := service.New(cfg, service.WithSource(src), service.WithLogger(logger.Nop()))
			So(svc.Start(ctx), ShouldBeNil)
			return svc
		}

		Convey("When the first invocation initializes", func() {
			first := newService()
			defer first.Stop(ctx)
			report, err := first.Initialize(ctx, lifecycle.Targets{})
			So(err, ShouldBeNil)

			Convey("Then it trains and persists an artifact for (5, 45)", func() {
				So(report.Decision, ShouldEqual, lifecycle.DecisionTrain)
				So(report.Dimensions.Actors, ShouldEqual, 5)
				So(report.Dimensions.Items, ShouldEqual, 45)

				store, serr := artifact.NewFileStore(path)
				So(serr, ShouldBeNil)
				data, rerr := store.Read(ctx)
				So(rerr, ShouldBeNil)
				meta, _, uerr := artifact.Unseal(data)
				So(uerr, ShouldBeNil)
				So(meta.ActorCount, ShouldEqual, 5)
				So(meta.ItemCount, ShouldEqual, 45)
			})

			Convey("Then recommendations exclude rated items and are sorted", func() {
				recs, rerr := first.Recommend(ctx, "u1", 3)
				So(rerr, ShouldBeNil)
				So(len(recs), ShouldBeLessThanOrEqualTo, 3)
				for i := 1; i < len(recs); i++ {
					So(recs[i-1].PredictedRating, ShouldBeGreaterThanOrEqualTo, recs[i].PredictedRating)
				}
				for _, r := range recs {
					// u1 rated every p except p2, p5 and p8.
					So(r.ItemID, ShouldBeIn, []string{"p2", "p5", "p8"})
				}
			})

			Convey("Then an unknown actor gets an empty list", func() {
				recs, rerr := first.Recommend(ctx, "nobody", 5)
				So(rerr, ShouldBeNil)
				So(recs, ShouldBeEmpty)
			})

			Convey("And a second invocation with the same counts", func() {
				second := newService()
				defer second.Stop(ctx)
				again, aerr := second.Initialize(ctx, lifecycle.Targets{})

				Convey("Then it reuses the artifact", func() {
					So(aerr, ShouldBeNil)
					So(again.Decision, ShouldEqual, lifecycle.DecisionReuse)
					st, serr := second.Stats(ctx)
					So(serr, ShouldBeNil)
					So(st.ActorCount, ShouldEqual, 5)
					So(st.ItemCount, ShouldEqual, 45)
				})
			})

			Convey("And a second invocation after the actor count grew", func() {
				src.SetCounts(7, 45)
				second := newService()
				defer second.Stop(ctx)
				again, aerr := second.Initialize(ctx, lifecycle.Targets{})

				Convey("Then it retrains and persists the new dimensions", func() {
					So(aerr, ShouldBeNil)
					So(again.Decision, ShouldEqual, lifecycle.DecisionTrain)

					store, serr := artifact.NewFileStore(path)
					So(serr, ShouldBeNil)
					data, rerr := store.Read(ctx)
					So(rerr, ShouldBeNil)
					meta, _, uerr := artifact.Unseal(data)
					So(uerr, ShouldBeNil)
					So(meta.ActorCount, ShouldEqual, 7)
				})
			})

			Convey("And a forced retrain with unchanged counts", func() {
				again, aerr := first.Retrain(ctx, lifecycle.Targets{})

				Convey("Then it trains anyway", func() {
					So(aerr, ShouldBeNil)
					So(again.Decision, ShouldEqual, lifecycle.DecisionTrain)
				})
			})
		})

		Convey("When the artifact on disk is corrupt", func() {
			store, serr := artifact.NewFileStore(path)
			So(serr, ShouldBeNil)
			So(store.Write(ctx, []byte("not a model")), ShouldBeNil)

			svc := newService()
			defer svc.Stop(ctx)
			report, err := svc.Initialize(ctx, lifecycle.Targets{})

			Convey("Then it retrains over it", func() {
				So(err, ShouldBeNil)
				So(report.Decision, ShouldEqual, lifecycle.DecisionTrain)
				data, rerr := store.Read(ctx)
				So(rerr, ShouldBeNil)
				_, _, uerr := artifact.Unseal(data)
				So(errors.Is(uerr, artifact.ErrCorrupt), ShouldBeFalse)
			})
		})
	})
}
