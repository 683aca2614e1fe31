package uhppote

import "errors"

// Controller errors.
var (
	// ErrInvalidConfig is returned for an unusable controller configuration.
	ErrInvalidConfig = errors.New("uhppote: invalid controller config")

	// ErrDeviceRequest is returned when a controller request fails
	// (unreachable device, rejected command, timeout).
	ErrDeviceRequest = errors.New("uhppote: device request failed")
)
