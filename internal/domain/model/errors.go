package model

import "errors"

// Sentinel error kinds shared by the query pipeline.
var (
	// ErrValidation marks malformed, out-of-range or missing request input.
	ErrValidation = errors.New("invalid parameters")
	// ErrNotFound marks an aggregation in which no requested satellite resolved.
	ErrNotFound = errors.New("satellite not found")
	// ErrFetch marks an unreachable or unparsable remote TLE dataset.
	ErrFetch = errors.New("tle dataset fetch failed")
	// ErrPredictor marks a failure inside the orbital predictor.
	ErrPredictor = errors.New("predictor failed")
)
