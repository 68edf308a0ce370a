package factorization

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
)

// snapshot is the gob form of a trained model.
type snapshot struct {
	Factors   int
	Lambda    float64
	X         [][]float64
	Y         [][]float64
	Actors    []string
	Items     []string
	Rated     [][]int
	Mean      float64
	RatingMin float64
	RatingMax float64
	NRatings  int
}

// MarshalBinary encodes the trained factors.
func (a *ALS) MarshalBinary() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.trained {
		return nil, ErrNotTrained
	}

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(snapshot{
		Factors:   a.factors,
		Lambda:    a.lambda,
		X:         a.X,
		Y:         a.Y,
		Actors:    a.actors,
		Items:     a.items,
		Rated:     a.rated,
		Mean:      a.mean,
		RatingMin: a.ratingMin,
		RatingMax: a.ratingMax,
		NRatings:  a.nRatings,
	})
	if err != nil {
		return nil, fmt.Errorf("encode factors: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores factors written by MarshalBinary.
func (a *ALS) UnmarshalBinary(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := s.check(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.factors = s.Factors
	a.lambda = s.Lambda
	a.X = s.X
	a.Y = s.Y
	a.actors = s.Actors
	a.items = s.Items
	a.rated = s.Rated
	a.mean = s.Mean
	a.ratingMin = s.RatingMin
	a.ratingMax = s.RatingMax
	a.nRatings = s.NRatings

	a.actorIndex = make(map[string]int, len(s.Actors))
	for u, id := range s.Actors {
		a.actorIndex[id] = u
	}
	a.itemIndex = make(map[string]int, len(s.Items))
	for i, id := range s.Items {
		a.itemIndex[id] = i
	}
	a.trained = true
	return nil
}

func (s snapshot) check() error {
	if s.Factors <= 0 || len(s.Actors) == 0 || len(s.Items) == 0 {
		return fmt.Errorf("%w: empty model", ErrMalformed)
	}
	if len(s.X) != len(s.Actors) || len(s.Y) != len(s.Items) || len(s.Rated) != len(s.Actors) {
		return fmt.Errorf("%w: shape mismatch", ErrMalformed)
	}
	for _, row := range s.X {
		if len(row) != s.Factors {
			return fmt.Errorf("%w: actor row width", ErrMalformed)
		}
		if !finite(row) {
			return fmt.Errorf("%w: non-finite actor factor", ErrMalformed)
		}
	}
	for _, row := range s.Y {
		if len(row) != s.Factors {
			return fmt.Errorf("%w: item row width", ErrMalformed)
		}
		if !finite(row) {
			return fmt.Errorf("%w: non-finite item factor", ErrMalformed)
		}
	}
	for _, rows := range s.Rated {
		for _, i := range rows {
			if i < 0 || i >= len(s.Items) {
				return fmt.Errorf("%w: rated index out of range", ErrMalformed)
			}
		}
	}
	return nil
}

func finite(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
