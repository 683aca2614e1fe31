package bridge

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/doorctl/uhppote-mqtt/internal/uhppote"
)

// Command and state labels on the wire. Matching is exact: case-sensitive,
// no trimming.
const (
	CommandLock   = "LOCK"
	CommandUnlock = "UNLOCK"

	StateLocked   = "LOCKED"
	StateUnlocked = "UNLOCKED"
)

// doorControlDelay is the unlock delay sent with every door-control call.
const doorControlDelay = 5 * time.Second

// Outcome classifies the result of translating one inbound command.
type Outcome int

const (
	// OutcomeIgnored means the payload was not a recognised command.
	// No device call was made and no state is published.
	OutcomeIgnored Outcome = iota

	// OutcomeLocked means the door was set to controlled access.
	OutcomeLocked

	// OutcomeUnlocked means the door was set to normally open.
	OutcomeUnlocked

	// OutcomeFailed means a malformed payload or a failed device call.
	// No state is published; the error carries the cause.
	OutcomeFailed
)

// StateLabel returns the state-topic payload for the outcome, or "" when
// there is nothing to publish.
func (o Outcome) StateLabel() string {
	switch o {
	case OutcomeLocked:
		return StateLocked
	case OutcomeUnlocked:
		return StateUnlocked
	default:
		return ""
	}
}

// String returns the outcome name for logging and history records.
func (o Outcome) String() string {
	switch o {
	case OutcomeLocked:
		return "locked"
	case OutcomeUnlocked:
		return "unlocked"
	case OutcomeFailed:
		return "failed"
	default:
		return "ignored"
	}
}

// DoorController is the device collaborator contract consumed by the
// translator. Satisfied by *uhppote.Controller.
type DoorController interface {
	SetDoorControl(ctx context.Context, door uint8, mode uhppote.ControlMode, delay time.Duration) error
}

// Translator maps inbound command payloads to device calls.
type Translator struct {
	door       uint8
	controller DoorController
}

// NewTranslator creates a translator for the configured door.
func NewTranslator(door uint8, controller DoorController) *Translator {
	return &Translator{
		door:       door,
		controller: controller,
	}
}

// Translate decodes one inbound payload and, for a recognised command,
// invokes the door controller.
//
//   - "LOCK":   controlled access, 5s delay; OutcomeLocked on success.
//   - "UNLOCK": normally open, 5s delay; OutcomeUnlocked on success.
//   - anything else: OutcomeIgnored, controller never invoked.
//
// A payload that is not valid UTF-8 returns OutcomeFailed with
// ErrMalformedPayload; a failed device call returns OutcomeFailed with the
// underlying cause. Neither produces a state label.
func (t *Translator) Translate(ctx context.Context, payload []byte) (Outcome, error) {
	if !utf8.Valid(payload) {
		return OutcomeFailed, fmt.Errorf("%w: % x", ErrMalformedPayload, payload)
	}

	switch string(payload) {
	case CommandLock:
		if err := t.controller.SetDoorControl(ctx, t.door, uhppote.Controlled, doorControlDelay); err != nil {
			return OutcomeFailed, fmt.Errorf("locking door %d: %w", t.door, err)
		}
		return OutcomeLocked, nil

	case CommandUnlock:
		if err := t.controller.SetDoorControl(ctx, t.door, uhppote.NormallyOpen, doorControlDelay); err != nil {
			return OutcomeFailed, fmt.Errorf("unlocking door %d: %w", t.door, err)
		}
		return OutcomeUnlocked, nil

	default:
		return OutcomeIgnored, nil
	}
}
