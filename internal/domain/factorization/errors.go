package factorization

import "errors"

// Sentinel errors for the factorization model.
var (
	ErrNotTrained   = errors.New("model not trained")
	ErrEmptyRatings = errors.New("no ratings to fit")
	ErrMalformed    = errors.New("malformed model data")
)
