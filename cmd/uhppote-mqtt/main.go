// uhppote-mqtt bridges an MQTT broker to a UHPPOTE door controller.
//
// It subscribes to <base_topic>/command, translates "LOCK"/"UNLOCK" into
// door-control calls, publishes "LOCKED"/"UNLOCKED" to <base_topic>/state
// and announces itself with a retained discovery payload on
// <base_topic>/config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/doorctl/uhppote-mqtt/internal/bridge"
	"github.com/doorctl/uhppote-mqtt/internal/credentials"
	"github.com/doorctl/uhppote-mqtt/internal/history"
	"github.com/doorctl/uhppote-mqtt/internal/infrastructure/config"
	"github.com/doorctl/uhppote-mqtt/internal/infrastructure/database"
	"github.com/doorctl/uhppote-mqtt/internal/infrastructure/logging"
	"github.com/doorctl/uhppote-mqtt/internal/infrastructure/mqtt"
	"github.com/doorctl/uhppote-mqtt/internal/infrastructure/telemetry"
	"github.com/doorctl/uhppote-mqtt/internal/uhppote"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

// defaultConfigPath is used when neither the -config flag nor the
// UHPPOTE_BRIDGE_CONFIG environment variable is set.
const defaultConfigPath = "/etc/uhppote-mqtt/config.json"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM); the bridge otherwise
	// runs until externally terminated.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Any error returned here terminates the process with a non-zero exit.
func run(ctx context.Context) error {
	configPath := flag.String("config", getConfigPath(), "config file location")
	flag.Parse()

	log := logging.Default()
	log.Info("starting uhppote-mqtt", "version", version, "commit", commit)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", *configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Resolve broker credentials. The source is decided here, once, from
	// the environment; everything below receives it explicitly.
	source, supervisor := credentials.FromEnv()
	log.Info("resolving broker credentials", "source", source.String())

	creds, err := credentials.Resolve(ctx, source, cfg.MQTT, supervisor)
	if err != nil {
		return fmt.Errorf("resolving broker credentials: %w", err)
	}

	// Door controller handle
	controller, err := uhppote.NewController(uhppote.Config{
		DeviceID: cfg.UHPPOTE.DeviceID,
		Address:  cfg.UHPPOTE.Address,
		Timeout:  cfg.DeviceTimeout(),
	})
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}
	log.Info("controller configured",
		"device_id", cfg.UHPPOTE.DeviceID,
		"door", cfg.UHPPOTE.Door,
		"address", addressOrBroadcast(cfg.UHPPOTE.Address),
	)

	// Command history (optional)
	var db *database.DB
	var recorder bridge.HistoryRecorder
	if cfg.History.Enabled {
		var openErr error
		db, openErr = database.Open(database.Config{
			Path:        cfg.History.Path,
			WALMode:     cfg.History.WALMode,
			BusyTimeout: cfg.History.BusyTimeout,
		})
		if openErr != nil {
			return fmt.Errorf("opening history database: %w", openErr)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing history database", "error", closeErr)
			}
		}()

		repo := history.NewRepository(db.DB)
		if initErr := repo.Init(ctx); initErr != nil {
			return fmt.Errorf("initialising history schema: %w", initErr)
		}
		recorder = &historyRecorder{repo: repo}
		log.Info("command history enabled", "path", cfg.History.Path)
	}

	// Command telemetry (optional)
	var influx *telemetry.Client
	var telemetryWriter bridge.TelemetryWriter
	if cfg.Telemetry.Enabled {
		var connErr error
		influx, connErr = telemetry.Connect(cfg.Telemetry)
		if connErr != nil {
			return fmt.Errorf("connecting to telemetry: %w", connErr)
		}
		defer func() {
			if closeErr := influx.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
		influx.SetOnError(func(writeErr error) {
			log.Error("telemetry write error", "error", writeErr)
		})
		telemetryWriter = influx
		log.Info("telemetry enabled", "url", cfg.Telemetry.URL, "bucket", cfg.Telemetry.Bucket)
	}

	// Broker connection
	mqttClient, err := mqtt.Connect(mqtt.Options{
		Host:                  creds.Host,
		Port:                  creds.Port,
		TLS:                   cfg.MQTT.Broker.TLS,
		ClientID:              cfg.MQTT.Broker.ClientID,
		Username:              creds.Username,
		Password:              creds.Password,
		ReconnectInitialDelay: time.Duration(cfg.MQTT.Reconnect.InitialDelay) * time.Second,
		ReconnectMaxDelay:     time.Duration(cfg.MQTT.Reconnect.MaxDelay) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", creds.Host, creds.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Verify all connections are healthy before announcing anything
	if err := healthCheck(ctx, db, mqttClient, influx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Bridge session
	topics := bridge.DeriveTopics(cfg.MQTT.BaseTopic)
	session, err := bridge.NewSession(bridge.Options{
		Topics:             topics,
		Name:               cfg.Name,
		Door:               cfg.UHPPOTE.Door,
		MQTT:               &mqttSessionAdapter{client: mqttClient},
		Controller:         controller,
		Logger:             log,
		History:            recorder,
		Telemetry:          telemetryWriter,
		StrictStatePublish: cfg.Bridge.StrictStatePublish,
	})
	if err != nil {
		return fmt.Errorf("creating bridge session: %w", err)
	}

	mqttClient.SetOnConnect(session.HandleReconnect)
	mqttClient.SetOnDisconnect(session.HandleDisconnect)

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge session: %w", err)
	}

	if err := session.Run(ctx); err != nil {
		return fmt.Errorf("bridge session: %w", err)
	}

	log.Info("uhppote-mqtt stopped")
	return nil
}

// healthCheck verifies the infrastructure connections are healthy.
// The history database and telemetry client may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influx *telemetry.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("history database: %w", err)
		}
	}

	if influx != nil {
		if err := influx.HealthCheck(ctx); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}

	return nil
}

// getConfigPath returns the default for the -config flag.
// Uses UHPPOTE_BRIDGE_CONFIG if set.
func getConfigPath() string {
	if path := os.Getenv("UHPPOTE_BRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// addressOrBroadcast describes how the controller is addressed, for logging.
func addressOrBroadcast(address string) string {
	if address == "" {
		return "broadcast"
	}
	return address
}

// mqttSessionAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The difference is the Subscribe handler signature:
// the infrastructure client's handlers return an error, the session's do not.
type mqttSessionAdapter struct {
	client *mqtt.Client
}

// Publish implements bridge.MQTTClient.
func (a *mqttSessionAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttSessionAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements bridge.MQTTClient.
func (a *mqttSessionAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// historyRecorder adapts the history repository to the bridge's
// HistoryRecorder interface.
type historyRecorder struct {
	repo *history.Repository
}

// RecordCommand implements bridge.HistoryRecorder.
func (r *historyRecorder) RecordCommand(ctx context.Context, rec bridge.CommandRecord) error {
	entry := &history.Entry{
		Door:    rec.Door,
		Command: rec.Command,
		Outcome: rec.Outcome,
		Error:   rec.Error,
	}
	if err := r.repo.Record(ctx, entry); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}
