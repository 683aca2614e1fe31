package bridge

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// QoS levels used by the session.
const (
	// qosCommand is the subscription QoS for inbound commands: at most once.
	// A lost command is preferable to a duplicated physical door action.
	qosCommand byte = 0

	// qosPublish is the QoS for discovery and state publishes: at least once.
	qosPublish byte = 1
)

// defaultQueueSize bounds the inbound command queue. Commands are humans
// pressing a button; a handful of slots is plenty.
const defaultQueueSize = 16

// State is the session lifecycle state.
type State int32

// Session states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateRunning
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateRunning:
		return "running"
	default:
		return "disconnected"
	}
}

// MQTTClient is the transport contract consumed by the session.
// Satisfied by the infrastructure client via a small adapter in main
// (the handler signature differs by a named type).
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Logger is the optional logging contract. Satisfied by logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// CommandRecord describes one dispatched command for the history recorder.
type CommandRecord struct {
	Door    uint8
	Command string
	Outcome string
	Error   string
}

// HistoryRecorder persists dispatched commands. Optional — if nil, the
// session operates without history.
type HistoryRecorder interface {
	RecordCommand(ctx context.Context, rec CommandRecord) error
}

// TelemetryWriter emits per-command telemetry. Optional — if nil, the
// session operates without telemetry. Satisfied by *telemetry.Client.
type TelemetryWriter interface {
	WriteCommand(door uint8, command, outcome string, duration time.Duration)
}

// Options holds everything needed to create a session.
type Options struct {
	// Topics is the derived topic set.
	Topics TopicSet

	// Name is the display name for the discovery payload.
	Name string

	// Door is the door number passed to the translator.
	Door uint8

	// MQTT is the broker transport.
	MQTT MQTTClient

	// Controller is the door controller collaborator.
	Controller DoorController

	// Logger is an optional structured logger.
	Logger Logger

	// History is an optional command history recorder.
	History HistoryRecorder

	// Telemetry is an optional command telemetry writer.
	Telemetry TelemetryWriter

	// StrictStatePublish makes a failed state publish after a successful
	// door operation fatal instead of logged-and-continued.
	StrictStatePublish bool

	// QueueSize overrides the inbound queue depth (default 16).
	QueueSize int
}

// Session owns the bridge's connection lifecycle: subscribe to the command
// topic, announce the discovery payload, then run an indefinite dispatch
// loop translating inbound commands into door-control calls and state
// publishes.
//
// Concurrency: inbound MQTT handlers only enqueue; Run's single goroutine
// is the only place that touches the door controller and the state publish,
// so neither needs locking.
type Session struct {
	topics     TopicSet
	name       string
	door       uint8
	mqtt       MQTTClient
	translator *Translator
	history    HistoryRecorder
	telemetry  TelemetryWriter
	strict     bool
	logger     Logger

	inbound chan []byte
	state   atomic.Int32
}

// NewSession creates a session. Call Start then Run.
func NewSession(opts Options) (*Session, error) {
	if opts.MQTT == nil {
		return nil, fmt.Errorf("mqtt client is required")
	}
	if opts.Controller == nil {
		return nil, fmt.Errorf("door controller is required")
	}
	if opts.Topics.Command == "" || opts.Topics.State == "" || opts.Topics.Config == "" {
		return nil, fmt.Errorf("topic set is required")
	}

	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Session{
		topics:     opts.Topics,
		name:       opts.Name,
		door:       opts.Door,
		mqtt:       opts.MQTT,
		translator: NewTranslator(opts.Door, opts.Controller),
		history:    opts.History,
		telemetry:  opts.Telemetry,
		strict:     opts.StrictStatePublish,
		logger:     opts.Logger,
		inbound:    make(chan []byte, queueSize),
	}, nil
}

// State returns the current session state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

// Start performs the startup protocol exchange, in order:
//
//  1. Verify the broker connection.
//  2. Subscribe to the command topic (at most once).
//  3. Publish the discovery payload retained to the config topic
//     (at least once).
//
// Each step's failure is fatal and aborts startup.
func (s *Session) Start(ctx context.Context) error {
	s.setState(StateConnecting)

	if err := ctx.Err(); err != nil {
		s.setState(StateDisconnected)
		return err
	}
	if !s.mqtt.IsConnected() {
		s.setState(StateDisconnected)
		return ErrNotConnected
	}

	if err := s.mqtt.Subscribe(s.topics.Command, qosCommand, s.handleMessage); err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("subscribing to %s: %w", s.topics.Command, err)
	}
	s.setState(StateSubscribed)
	s.logInfo("subscribed to commands", "topic", s.topics.Command)

	if err := s.Announce(); err != nil {
		s.setState(StateDisconnected)
		return err
	}

	return nil
}

// Announce publishes the discovery payload retained to the config topic.
// Called once during Start and again from the reconnect callback, so a
// broker restart leaves the entity re-announced.
func (s *Session) Announce() error {
	payload, err := NewDiscoveryPayload(s.topics, s.name).Marshal()
	if err != nil {
		return err
	}

	if err := s.mqtt.Publish(s.topics.Config, payload, qosPublish, true); err != nil {
		return fmt.Errorf("publishing discovery to %s: %w", s.topics.Config, err)
	}
	s.logInfo("published discovery", "topic", s.topics.Config, "payload", string(payload))

	return nil
}

// HandleReconnect is wired to the MQTT client's on-connect callback.
// Subscription restore is the transport's job; the session only needs to
// re-announce discovery and surface the transition in its state.
func (s *Session) HandleReconnect() {
	if s.State() == StateDisconnected {
		s.setState(StateRunning)
	}
	if err := s.Announce(); err != nil {
		s.logError("re-announce after reconnect failed", err)
	}
}

// HandleDisconnect is wired to the MQTT client's on-disconnect callback.
// Transport errors are non-fatal: the transport reconnects with backoff and
// the dispatch loop keeps draining.
func (s *Session) HandleDisconnect(err error) {
	s.setState(StateDisconnected)
	s.logWarn("broker connection lost", "error", err)
}

// Run drains the inbound queue until the context is cancelled. This is the
// only goroutine that touches the door controller and the state publish.
//
// Run returns nil on context cancellation. A non-nil return only happens in
// strict mode, when a state publish fails after a successful door operation.
func (s *Session) Run(ctx context.Context) error {
	s.setState(StateRunning)
	s.logInfo("bridge running", "command_topic", s.topics.Command, "state_topic", s.topics.State)

	for {
		select {
		case <-ctx.Done():
			s.setState(StateDisconnected)
			return nil
		case payload := <-s.inbound:
			if err := s.dispatch(ctx, payload); err != nil {
				s.setState(StateDisconnected)
				return err
			}
		}
	}
}

// handleMessage enqueues one inbound command payload. Invoked by the MQTT
// transport; it must not block the transport's router for long, so the
// queue is buffered and dispatch happens on Run's goroutine.
func (s *Session) handleMessage(topic string, payload []byte) {
	if topic != s.topics.Command {
		// Only the command topic is subscribed; anything else is ignored.
		return
	}

	// Copy: the transport may reuse the payload buffer after the handler
	// returns.
	msg := make([]byte, len(payload))
	copy(msg, payload)

	s.inbound <- msg
}

// dispatch translates one payload and publishes the resulting state.
//
// Translation errors (malformed payload, device failure) are logged and
// isolated to this dispatch. Unrecognised commands are ignored with a
// warning. Repeated identical commands each trigger their own device call
// and state publish; there is no deduplication.
func (s *Session) dispatch(ctx context.Context, payload []byte) error {
	started := time.Now()

	outcome, err := s.translator.Translate(ctx, payload)
	s.record(ctx, payload, outcome, err, time.Since(started))

	if err != nil {
		s.logError("command failed", err)
		return nil
	}

	if outcome == OutcomeIgnored {
		s.logWarn("unknown command", "payload", string(payload))
		return nil
	}

	label := outcome.StateLabel()
	if err := s.mqtt.Publish(s.topics.State, []byte(label), qosPublish, false); err != nil {
		if s.strict {
			return fmt.Errorf("%w: %s: %w", ErrStatePublish, label, err)
		}
		s.logError("state publish failed", fmt.Errorf("%w: %s: %w", ErrStatePublish, label, err))
		return nil
	}

	s.logInfo("published state", "topic", s.topics.State, "state", label)
	return nil
}

// record feeds the optional history and telemetry sinks. Best effort: sink
// failures never affect the dispatch.
func (s *Session) record(ctx context.Context, payload []byte, outcome Outcome, dispatchErr error, elapsed time.Duration) {
	if s.history == nil && s.telemetry == nil {
		return
	}

	command := string(payload)
	errText := ""
	if dispatchErr != nil {
		errText = dispatchErr.Error()
	}

	if s.history != nil {
		rec := CommandRecord{
			Door:    s.door,
			Command: command,
			Outcome: outcome.String(),
			Error:   errText,
		}
		if err := s.history.RecordCommand(ctx, rec); err != nil {
			s.logWarn("history record failed", "error", err)
		}
	}

	if s.telemetry != nil {
		s.telemetry.WriteCommand(s.door, command, outcome.String(), elapsed)
	}
}

// logInfo logs an info message if a logger is set.
func (s *Session) logInfo(msg string, keysAndValues ...any) {
	if s.logger != nil {
		s.logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if a logger is set.
func (s *Session) logWarn(msg string, keysAndValues ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error if a logger is set.
func (s *Session) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, "error", err)
	}
}
