package dataset

import "errors"

// ErrEmptyDocument is returned when a source reports success without a dataset.
var ErrEmptyDocument = errors.New("empty tle document")
