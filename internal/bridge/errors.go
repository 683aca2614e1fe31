package bridge

import "errors"

// Bridge errors.
var (
	// ErrMalformedPayload is returned for a command payload that is not
	// valid UTF-8. The dispatch is aborted; the session keeps running.
	ErrMalformedPayload = errors.New("bridge: payload is not valid UTF-8")

	// ErrNotConnected is returned by Start when the MQTT client is not
	// connected.
	ErrNotConnected = errors.New("bridge: mqtt client not connected")

	// ErrStatePublish wraps a failed state publish after a successful door
	// operation. Fatal only when strict state publishing is configured.
	ErrStatePublish = errors.New("bridge: state publish failed")
)
