package device

import "errors"

// Package errors.
var (
	// ErrInvalidDimensions is returned when width or height is zero or
	// exceeds the device's maximum texture dimension.
	ErrInvalidDimensions = errors.New("device: invalid texture dimensions")

	// ErrPixelSizeMismatch is returned when the pixel slice does not hold
	// exactly width*height*4 bytes.
	ErrPixelSizeMismatch = errors.New("device: pixel data size mismatch")

	// ErrUnsupportedFormat is returned when the descriptor names a GPU
	// format the device cannot store.
	ErrUnsupportedFormat = errors.New("device: unsupported texture format")

	// ErrDeviceClosed is returned when creating textures on a closed device.
	ErrDeviceClosed = errors.New("device: device is closed")

	// ErrDeviceNotAvailable is returned when no registered device factory
	// can produce a working device.
	ErrDeviceNotAvailable = errors.New("device: no device available")
)
