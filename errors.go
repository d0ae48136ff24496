package texstream

import "errors"

// Package errors.
var (
	// ErrNilDevice is returned by New when no device is supplied.
	ErrNilDevice = errors.New("texstream: nil device")

	// ErrPlaceholderFailed is returned by New when the always-resident
	// placeholder texture cannot be created.
	ErrPlaceholderFailed = errors.New("texstream: placeholder texture creation failed")
)
