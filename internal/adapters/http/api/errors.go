package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrQuery   = errors.New("query failed")
	ErrRefresh = errors.New("refresh failed")
)
