package model_test

import (
	"testing"

	model "github.com/okian/recomodel/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestMetadataMatches(t *testing.T) {
	convey.Convey("Given metadata for a (5, 45) model", t, func() {
		meta := model.Metadata{ActorCount: 5, ItemCount: 45, Version: model.ArtifactVersion}

		convey.Convey("Then equal dimensions match", func() {
			convey.So(meta.Matches(model.Dimensions{Actors: 5, Items: 45}), convey.ShouldBeTrue)
			convey.So(meta.Dimensions(), convey.ShouldResemble, model.Dimensions{Actors: 5, Items: 45})
		})

		convey.Convey("Then any difference does not", func() {
			convey.So(meta.Matches(model.Dimensions{Actors: 7, Items: 45}), convey.ShouldBeFalse)
			convey.So(meta.Matches(model.Dimensions{Actors: 5, Items: 44}), convey.ShouldBeFalse)
		})

		convey.Convey("Then zero metadata matches nothing real", func() {
			convey.So(model.Metadata{}.Matches(model.Dimensions{Actors: 5, Items: 45}), convey.ShouldBeFalse)
		})
	})
}
