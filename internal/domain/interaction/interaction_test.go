package interaction_test

import (
	"math"
	"testing"

	"github.com/okian/recomodel/internal/domain/interaction"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseAction(t *testing.T) {
	convey.Convey("Given stored action names", t, func() {
		convey.Convey("Then known names map to actions with their weights", func() {
			convey.So(interaction.ParseAction("view"), convey.ShouldEqual, interaction.ActionView)
			convey.So(interaction.ParseAction(" Cart "), convey.ShouldEqual, interaction.ActionCart)
			convey.So(interaction.ParseAction("PURCHASE"), convey.ShouldEqual, interaction.ActionPurchase)

			convey.So(interaction.ActionView.DefaultWeight(), convey.ShouldEqual, 1)
			convey.So(interaction.ActionCart.DefaultWeight(), convey.ShouldEqual, 2)
			convey.So(interaction.ActionPurchase.DefaultWeight(), convey.ShouldEqual, 5)
		})

		convey.Convey("Then unknown names are kept as unknown", func() {
			a := interaction.ParseAction("wishlist")
			convey.So(a, convey.ShouldEqual, interaction.ActionUnknown)
			convey.So(a.String(), convey.ShouldEqual, "unknown")
			convey.So(a.DefaultWeight(), convey.ShouldEqual, 0)
		})
	})
}

func TestRawValid(t *testing.T) {
	convey.Convey("Given raw interactions", t, func() {
		good := interaction.Raw{ActorID: "u1", ItemID: "p1", Action: interaction.ActionView, Weight: 1}

		convey.Convey("Then a complete record is valid", func() {
			convey.So(good.Valid(), convey.ShouldBeTrue)
		})

		convey.Convey("Then missing ids or bad weights are invalid", func() {
			bad := []interaction.Raw{
				{ActorID: "", ItemID: "p1", Weight: 1},
				{ActorID: "u1", ItemID: "  ", Weight: 1},
				{ActorID: "u1", ItemID: "p1", Weight: 0},
				{ActorID: "u1", ItemID: "p1", Weight: -2},
				{ActorID: "u1", ItemID: "p1", Weight: math.NaN()},
				{ActorID: "u1", ItemID: "p1", Weight: math.Inf(1)},
			}
			for _, r := range bad {
				convey.So(r.Valid(), convey.ShouldBeFalse)
			}
		})
	})
}
