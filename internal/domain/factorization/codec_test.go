package factorization

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func encodeSnapshot(s snapshot) []byte {
	var buf bytes.Buffer
	So(gob.NewEncoder(&buf).Encode(s), ShouldBeNil)
	return buf.Bytes()
}

func TestSnapshotCheck(t *testing.T) {
	Convey("Given a well-formed snapshot", t, func() {
		s := snapshot{
			Factors: 2,
			X:       [][]float64{{0.1, 0.2}},
			Y:       [][]float64{{0.3, 0.4}, {0.5, 0.6}},
			Actors:  []string{"u1"},
			Items:   []string{"p1", "p2"},
			Rated:   [][]int{{0}},
		}

		Convey("Then it decodes", func() {
			So(New().UnmarshalBinary(encodeSnapshot(s)), ShouldBeNil)
		})

		Convey("When an actor factor is NaN", func() {
			s.X[0][1] = math.NaN()
			err := New().UnmarshalBinary(encodeSnapshot(s))

			Convey("Then it is malformed", func() {
				So(errors.Is(err, ErrMalformed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "non-finite actor factor")
			})
		})

		Convey("When an item factor is infinite", func() {
			s.Y[1][0] = math.Inf(1)
			err := New().UnmarshalBinary(encodeSnapshot(s))

			Convey("Then it is malformed", func() {
				So(errors.Is(err, ErrMalformed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "non-finite item factor")
			})
		})

		Convey("When a rated index points past the items", func() {
			s.Rated[0] = []int{2}
			So(errors.Is(New().UnmarshalBinary(encodeSnapshot(s)), ErrMalformed), ShouldBeTrue)
		})
	})
}
