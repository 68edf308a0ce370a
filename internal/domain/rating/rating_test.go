package rating_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/okian/recomodel/internal/domain/interaction"
	"github.com/okian/recomodel/internal/domain/rating"
	"github.com/smartystreets/goconvey/convey"
)

func raw(actor, item string, action interaction.Action, weight float64) interaction.Raw {
	return interaction.Raw{ActorID: actor, ItemID: item, Action: action, Weight: weight}
}

func TestAggregate(t *testing.T) {
	convey.Convey("Given repeated multi-action interactions", t, func() {
		raws := []interaction.Raw{
			raw("u1", "p1", interaction.ActionView, 1),
			raw("u1", "p1", interaction.ActionPurchase, 5),
			raw("u2", "p1", interaction.ActionCart, 2),
		}

		convey.Convey("When aggregating", func() {
			res := rating.Aggregate(raws)

			convey.Convey("Then the strongest signal wins per pair", func() {
				convey.So(res.Count, convey.ShouldEqual, 2)
				convey.So(res.Records, convey.ShouldResemble, []rating.Record{
					{ActorID: "u1", ItemID: "p1", Rating: 5},
					{ActorID: "u2", ItemID: "p1", Rating: 2},
				})
				convey.So(res.Actors, convey.ShouldEqual, 2)
				convey.So(res.Items, convey.ShouldEqual, 1)
				convey.So(res.Skipped, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the input order is shuffled", func() {
			rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic shuffle
			base := rating.Aggregate(raws)
			for i := 0; i < 20; i++ {
				shuffled := append([]interaction.Raw(nil), raws...)
				rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

				convey.So(rating.Aggregate(shuffled), convey.ShouldResemble, base)
			}
		})
	})

	convey.Convey("Given a batch with malformed records", t, func() {
		clean := []interaction.Raw{
			raw("u1", "p1", interaction.ActionView, 1),
			raw("u2", "p2", interaction.ActionCart, 2),
		}
		dirty := append([]interaction.Raw{
			raw("", "p1", interaction.ActionPurchase, 5),
			raw("u1", "", interaction.ActionPurchase, 5),
			raw("u3", "p3", interaction.ActionView, 0),
			raw("u3", "p3", interaction.ActionView, math.NaN()),
		}, clean...)

		convey.Convey("When aggregating", func() {
			got := rating.Aggregate(dirty)
			want := rating.Aggregate(clean)

			convey.Convey("Then the output equals the batch without them", func() {
				convey.So(got.Records, convey.ShouldResemble, want.Records)
				convey.So(got.Count, convey.ShouldEqual, want.Count)
				convey.So(got.Skipped, convey.ShouldEqual, 4)
			})
		})
	})

	convey.Convey("Given ids that differ only in surrounding whitespace", t, func() {
		got := rating.Aggregate([]interaction.Raw{
			raw("u1", "p1", interaction.ActionView, 1),
			raw(" u1", "p1", interaction.ActionPurchase, 5),
			raw("u1", "p1 ", interaction.ActionCart, 2),
		})

		convey.Convey("Then each exact pair keeps its own rating", func() {
			convey.So(got.Count, convey.ShouldEqual, 3)
			convey.So(got.Actors, convey.ShouldEqual, 2)
			convey.So(got.Items, convey.ShouldEqual, 2)
			convey.So(got.Records, convey.ShouldResemble, []rating.Record{
				{ActorID: " u1", ItemID: "p1", Rating: 5},
				{ActorID: "u1", ItemID: "p1", Rating: 1},
				{ActorID: "u1", ItemID: "p1 ", Rating: 2},
			})
		})
	})

	convey.Convey("Given a large random batch", t, func() {
		rng := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic data
		raws := make([]interaction.Raw, 0, 2000)
		for i := 0; i < 2000; i++ {
			raws = append(raws, raw(
				string(rune('a'+rng.Intn(20))),
				string(rune('A'+rng.Intn(26))),
				interaction.ActionView,
				float64(1+rng.Intn(5)),
			))
		}

		convey.Convey("Then no (actor, item) pair appears twice", func() {
			res := rating.Aggregate(raws)
			seen := make(map[[2]string]bool)
			for _, r := range res.Records {
				key := [2]string{r.ActorID, r.ItemID}
				convey.So(seen[key], convey.ShouldBeFalse)
				seen[key] = true
			}
			convey.So(len(seen), convey.ShouldEqual, res.Count)
		})
	})

	convey.Convey("Given no interactions", t, func() {
		res := rating.Aggregate(nil)

		convey.Convey("Then the count is zero", func() {
			convey.So(res.Count, convey.ShouldEqual, 0)
			convey.So(res.Records, convey.ShouldBeEmpty)
		})
	})
}
