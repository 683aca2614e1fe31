package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/doorctl/uhppote-mqtt/internal/uhppote"
)

// mockController implements DoorController for testing.
type mockController struct {
	mu    sync.Mutex
	calls []doorCall
	err   error
}

type doorCall struct {
	Door  uint8
	Mode  uhppote.ControlMode
	Delay time.Duration
}

func (m *mockController) SetDoorControl(_ context.Context, door uint8, mode uhppote.ControlMode, delay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, doorCall{Door: door, Mode: mode, Delay: delay})
	return m.err
}

func (m *mockController) Calls() []doorCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]doorCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func TestTranslateLock(t *testing.T) {
	controller := &mockController{}
	translator := NewTranslator(2, controller)

	outcome, err := translator.Translate(context.Background(), []byte("LOCK"))
	if err != nil {
		t.Fatalf("Translate(LOCK) error = %v", err)
	}
	if outcome != OutcomeLocked {
		t.Errorf("outcome = %v, want OutcomeLocked", outcome)
	}
	if outcome.StateLabel() != "LOCKED" {
		t.Errorf("StateLabel() = %q, want LOCKED", outcome.StateLabel())
	}

	calls := controller.Calls()
	if len(calls) != 1 {
		t.Fatalf("controller calls = %d, want 1", len(calls))
	}
	want := doorCall{Door: 2, Mode: uhppote.Controlled, Delay: 5 * time.Second}
	if calls[0] != want {
		t.Errorf("controller call = %+v, want %+v", calls[0], want)
	}
}

func TestTranslateUnlock(t *testing.T) {
	controller := &mockController{}
	translator := NewTranslator(1, controller)

	outcome, err := translator.Translate(context.Background(), []byte("UNLOCK"))
	if err != nil {
		t.Fatalf("Translate(UNLOCK) error = %v", err)
	}
	if outcome != OutcomeUnlocked {
		t.Errorf("outcome = %v, want OutcomeUnlocked", outcome)
	}
	if outcome.StateLabel() != "UNLOCKED" {
		t.Errorf("StateLabel() = %q, want UNLOCKED", outcome.StateLabel())
	}

	calls := controller.Calls()
	if len(calls) != 1 {
		t.Fatalf("controller calls = %d, want 1", len(calls))
	}
	want := doorCall{Door: 1, Mode: uhppote.NormallyOpen, Delay: 5 * time.Second}
	if calls[0] != want {
		t.Errorf("controller call = %+v, want %+v", calls[0], want)
	}
}

func TestTranslateUnrecognised(t *testing.T) {
	// Case variants, trimming candidates and junk must all be ignored
	// without touching the controller.
	payloads := []string{
		"lock",
		"Lock",
		"unlock",
		" LOCK",
		"LOCK ",
		"LOCK\n",
		"OPEN",
		"",
		"{}",
	}

	for _, payload := range payloads {
		t.Run("payload "+payload, func(t *testing.T) {
			controller := &mockController{}
			translator := NewTranslator(1, controller)

			outcome, err := translator.Translate(context.Background(), []byte(payload))
			if err != nil {
				t.Fatalf("Translate(%q) error = %v", payload, err)
			}
			if outcome != OutcomeIgnored {
				t.Errorf("Translate(%q) outcome = %v, want OutcomeIgnored", payload, outcome)
			}
			if len(controller.Calls()) != 0 {
				t.Errorf("Translate(%q) invoked the controller", payload)
			}
		})
	}
}

func TestTranslateInvalidUTF8(t *testing.T) {
	controller := &mockController{}
	translator := NewTranslator(1, controller)

	outcome, err := translator.Translate(context.Background(), []byte{0xff, 0xfe, 0xfd})
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Translate(invalid utf8) error = %v, want ErrMalformedPayload", err)
	}
	if outcome != OutcomeFailed {
		t.Errorf("outcome = %v, want OutcomeFailed", outcome)
	}
	if len(controller.Calls()) != 0 {
		t.Error("invalid payload invoked the controller")
	}
}

func TestTranslateDeviceFailure(t *testing.T) {
	deviceErr := errors.New("no response from device")
	controller := &mockController{err: deviceErr}
	translator := NewTranslator(3, controller)

	outcome, err := translator.Translate(context.Background(), []byte("LOCK"))
	if !errors.Is(err, deviceErr) {
		t.Fatalf("Translate(LOCK) error = %v, want wrapped %v", err, deviceErr)
	}
	if outcome != OutcomeFailed {
		t.Errorf("outcome = %v, want OutcomeFailed", outcome)
	}
	if outcome.StateLabel() != "" {
		t.Errorf("failed device call produced state label %q", outcome.StateLabel())
	}
	if len(controller.Calls()) != 1 {
		t.Errorf("controller calls = %d, want 1", len(controller.Calls()))
	}
}

func TestOutcomeString(t *testing.T) {
	// A failed device call must not be recorded under the same outcome as
	// an unrecognised payload.
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{OutcomeIgnored, "ignored"},
		{OutcomeLocked, "locked"},
		{OutcomeUnlocked, "unlocked"},
		{OutcomeFailed, "failed"},
	}

	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.outcome, got, tt.want)
		}
	}
}
