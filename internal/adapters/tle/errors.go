package tle

import "errors"

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrBodyTooLarge     = errors.New("tle response too large")
	ErrDecode           = errors.New("decoding tle document")
)
