package cli

import "errors"

// Error constants
var (
	ErrRejected = errors.New("query rejected")
	ErrConfig   = errors.New("cli configuration failed")
)
