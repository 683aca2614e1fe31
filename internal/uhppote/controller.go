package uhppote

import (
	"context"
	"fmt"
	"time"

	"github.com/uhppoted/uhppote-core/types"
	coreuhppote "github.com/uhppoted/uhppote-core/uhppote"
)

// Default UDP endpoints for UHPPOTE controllers.
const (
	defaultBindAddr      = "0.0.0.0:0"
	defaultBroadcastAddr = "255.255.255.255:60000"
	defaultListenAddr    = "0.0.0.0:60001"
)

// ControlMode is a door control mode on the controller.
type ControlMode uint8

// Door control modes, matching the controller's wire values.
const (
	// NormallyOpen holds the door open (no credential required).
	NormallyOpen ControlMode = iota + 1

	// NormallyClosed holds the door closed (cannot be opened).
	NormallyClosed

	// Controlled requires a credential to unlock.
	Controlled
)

// String returns the mode name for logging.
func (m ControlMode) String() string {
	switch m {
	case NormallyOpen:
		return "normally-open"
	case NormallyClosed:
		return "normally-closed"
	case Controlled:
		return "controlled"
	default:
		return fmt.Sprintf("control-mode-%d", uint8(m))
	}
}

// Config identifies the controller to operate.
type Config struct {
	// DeviceID is the controller serial number.
	DeviceID uint32

	// Address is the controller's "host:port" or "host". Empty means the
	// controller is located by UDP broadcast using DeviceID.
	Address string

	// Timeout bounds each controller request.
	Timeout time.Duration

	// Debug enables wire-level logging in uhppote-core.
	Debug bool
}

// Controller wraps uhppote-core for a single door controller.
//
// The bridge session is the sole caller, strictly sequentially, so no
// locking is needed here.
type Controller struct {
	u        coreuhppote.IUHPPOTE
	deviceID uint32
}

// NewController creates a controller handle.
//
// With a configured address the controller is addressed directly; otherwise
// requests go out as UDP broadcasts and are matched by device ID.
func NewController(cfg Config) (*Controller, error) {
	if cfg.DeviceID == 0 {
		return nil, fmt.Errorf("%w: device id is required", ErrInvalidConfig)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	bind := types.MustParseBindAddr(defaultBindAddr)
	broadcast := types.MustParseBroadcastAddr(defaultBroadcastAddr)
	listen := types.MustParseListenAddr(defaultListenAddr)

	var devices []coreuhppote.Device
	if cfg.Address != "" {
		// ParseControllerAddr accepts "host:port" or bare "host" (default
		// port 60000).
		addr, err := types.ParseControllerAddr(cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: address %q: %w", ErrInvalidConfig, cfg.Address, err)
		}
		devices = append(devices, coreuhppote.NewDevice("door", cfg.DeviceID, addr, "udp", nil, time.Local))
	}

	return &Controller{
		u:        coreuhppote.NewUHPPOTE(bind, broadcast, listen, timeout, devices, cfg.Debug),
		deviceID: cfg.DeviceID,
	}, nil
}

// SetDoorControl sets the control mode and unlock delay for a door.
//
// The context is honoured before the request goes out; uhppote-core bounds
// the request itself with the configured timeout.
func (c *Controller) SetDoorControl(ctx context.Context, door uint8, mode ControlMode, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceRequest, err)
	}

	delaySeconds := uint8(delay / time.Second)

	if _, err := c.u.SetDoorControlState(c.deviceID, door, types.ControlState(mode), delaySeconds); err != nil {
		return fmt.Errorf("%w: set door control (door %d, %s): %w", ErrDeviceRequest, door, mode, err)
	}

	return nil
}

// DeviceID returns the controller serial number.
func (c *Controller) DeviceID() uint32 {
	return c.deviceID
}
