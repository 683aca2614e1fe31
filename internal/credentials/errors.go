package credentials

import "errors"

// Resolution errors. All are fatal: the bridge refuses to start without a
// complete set of broker credentials.
var (
	// ErrResolution is returned when the supervisor request fails or returns
	// a non-success status.
	ErrResolution = errors.New("credentials: resolution failed")

	// ErrInvalidPort is returned when a port value does not parse as uint16.
	ErrInvalidPort = errors.New("credentials: invalid broker port")

	// ErrMissingField is returned when a required credential field is still
	// unset after resolution. The wrapped message names the field.
	ErrMissingField = errors.New("credentials: missing broker field")
)
