package predictor

import "errors"

var (
	// ErrInvalidTLE is returned for element sets that fail the format check.
	ErrInvalidTLE = errors.New("invalid tle")
	// ErrPropagation is returned when SGP4 fails to initialize or diverges.
	ErrPropagation = errors.New("sgp4 propagation failed")
)
