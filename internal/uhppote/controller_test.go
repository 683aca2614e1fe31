package uhppote

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewControllerRequiresDeviceID(t *testing.T) {
	_, err := NewController(Config{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("NewController() error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewControllerBroadcast(t *testing.T) {
	c, err := NewController(Config{DeviceID: 405419896, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	if c.DeviceID() != 405419896 {
		t.Errorf("DeviceID() = %d, want 405419896", c.DeviceID())
	}
}

func TestNewControllerAddressed(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"host and port", "192.168.1.100:60000", false},
		{"bare host", "192.168.1.100", false},
		{"not an address", "192.168.1.300", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewController(Config{DeviceID: 1, Address: tt.address})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("NewController(%q) error = %v, want ErrInvalidConfig", tt.address, err)
				}
				return
			}
			if err != nil {
				t.Errorf("NewController(%q) error = %v", tt.address, err)
			}
		})
	}
}

func TestSetDoorControlCancelledContext(t *testing.T) {
	c, err := NewController(Config{DeviceID: 1})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = c.SetDoorControl(ctx, 1, Controlled, 5*time.Second)
	if !errors.Is(err, ErrDeviceRequest) {
		t.Errorf("SetDoorControl() error = %v, want ErrDeviceRequest", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("SetDoorControl() error = %v, want wrapped context.Canceled", err)
	}
}

func TestControlModeString(t *testing.T) {
	tests := []struct {
		mode ControlMode
		want string
	}{
		{NormallyOpen, "normally-open"},
		{NormallyClosed, "normally-closed"},
		{Controlled, "controlled"},
		{ControlMode(9), "control-mode-9"},
	}

	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("ControlMode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
