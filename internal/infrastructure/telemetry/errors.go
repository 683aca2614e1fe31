package telemetry

import "errors"

// Telemetry errors.
var (
	// ErrDisabled is returned by Connect when telemetry is switched off.
	ErrDisabled = errors.New("telemetry: disabled in configuration")

	// ErrConnectionFailed is returned when the initial connection fails.
	ErrConnectionFailed = errors.New("telemetry: connection failed")

	// ErrNotConnected is returned when operating on a closed client.
	ErrNotConnected = errors.New("telemetry: client not connected")
)
