package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the uhppote-mqtt bridge.
// Configuration is loaded from a JSON or YAML file and can be overridden by
// environment variables.
type Config struct {
	// Name is the display name published in the discovery payload
	// (shows up as the entity name in Home Assistant).
	Name string `yaml:"name" json:"name"`

	UHPPOTE   UHPPOTEConfig   `yaml:"uhppote" json:"uhppote"`
	MQTT      MQTTConfig      `yaml:"mqtt" json:"mqtt"`
	Bridge    BridgeConfig    `yaml:"bridge" json:"bridge"`
	History   HistoryConfig   `yaml:"history" json:"history"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// UHPPOTEConfig identifies the door controller and door to operate.
type UHPPOTEConfig struct {
	// DeviceID is the controller serial number.
	DeviceID uint32 `yaml:"device_id" json:"device_id"`

	// Address is the controller's network address ("host:port").
	// Empty means the controller is located by UDP broadcast using DeviceID.
	Address string `yaml:"address,omitempty" json:"address,omitempty"`

	// Door is the door number on the controller (1-4).
	Door uint8 `yaml:"door" json:"door"`

	// Timeout is the per-request timeout for controller operations (seconds).
	Timeout int `yaml:"timeout" json:"timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
//
// Broker host/port and credentials are optional here: when the bridge runs
// under a supervisor (Home Assistant add-on), they are discovered at startup
// via the supervisor API instead. See internal/credentials.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker" json:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth" json:"auth"`
	BaseTopic string              `yaml:"base_topic" json:"base_topic"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect" json:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host,omitempty" json:"host,omitempty"`
	Port     int    `yaml:"port,omitempty" json:"port,omitempty"`
	TLS      bool   `yaml:"tls" json:"tls"`
	ClientID string `yaml:"client_id" json:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// MQTTReconnectConfig contains MQTT reconnection backoff settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     int `yaml:"max_delay" json:"max_delay"`
}

// BridgeConfig contains behavioural settings for the bridge session.
type BridgeConfig struct {
	// StrictStatePublish aborts the process when a state publish fails after
	// a successful door operation. When false (the default) the failure is
	// logged and the bridge keeps running; the broker session survives and
	// the next command publishes state again.
	StrictStatePublish bool `yaml:"strict_state_publish" json:"strict_state_publish"`
}

// HistoryConfig contains settings for the SQLite command history.
type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Path        string `yaml:"path" json:"path"`
	WALMode     bool   `yaml:"wal_mode" json:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout" json:"busy_timeout"`
}

// TelemetryConfig contains InfluxDB connection settings for command telemetry.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	URL           string `yaml:"url" json:"url"`
	Token         string `yaml:"token" json:"token"`
	Org           string `yaml:"org" json:"org"`
	Bucket        string `yaml:"bucket" json:"bucket"`
	BatchSize     int    `yaml:"batch_size" json:"batch_size"`
	FlushInterval int    `yaml:"flush_interval" json:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// Load reads configuration from a file and applies environment overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. File values (override defaults)
//  3. Environment variables (override file values)
//
// Files ending in .json are decoded as JSON; anything else is decoded as
// YAML.
//
// Environment variables follow the pattern UHPPOTE_BRIDGE_SECTION_KEY,
// e.g. UHPPOTE_BRIDGE_MQTT_HOST, UHPPOTE_BRIDGE_HISTORY_PATH.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Name: "uhppote-door",
		UHPPOTE: UHPPOTEConfig{
			Door:    1,
			Timeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Port:     1883,
				ClientID: "uhppote-mqtt",
			},
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		History: HistoryConfig{
			Path:        "./data/uhppote-mqtt.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Telemetry: TelemetryConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern UHPPOTE_BRIDGE_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UHPPOTE_BRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("UHPPOTE_BRIDGE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("UHPPOTE_BRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("UHPPOTE_BRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("UHPPOTE_BRIDGE_BASE_TOPIC"); v != "" {
		cfg.MQTT.BaseTopic = v
	}
	if v := os.Getenv("UHPPOTE_BRIDGE_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("UHPPOTE_BRIDGE_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Broker host/port and credentials are deliberately not required here:
// completeness of broker credentials is checked after resolution
// (internal/credentials), which may fill them from the supervisor API.
func (c *Config) Validate() error {
	var errs []string

	if c.Name == "" {
		errs = append(errs, "name is required")
	}

	if c.UHPPOTE.DeviceID == 0 {
		errs = append(errs, "uhppote.device_id is required")
	}
	if c.UHPPOTE.Door < 1 || c.UHPPOTE.Door > 4 {
		errs = append(errs, "uhppote.door must be between 1 and 4")
	}
	if c.UHPPOTE.Timeout < 1 {
		errs = append(errs, "uhppote.timeout must be at least 1 second")
	}

	if c.MQTT.BaseTopic == "" {
		errs = append(errs, "mqtt.base_topic is required")
	}
	if strings.HasSuffix(c.MQTT.BaseTopic, "/") {
		errs = append(errs, "mqtt.base_topic must not end with '/'")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.Broker.Port != 0 && (c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535) {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Reconnect.InitialDelay < 1 {
		errs = append(errs, "mqtt.reconnect.initial_delay must be at least 1 second")
	}
	if c.MQTT.Reconnect.MaxDelay < c.MQTT.Reconnect.InitialDelay {
		errs = append(errs, "mqtt.reconnect.max_delay must be >= initial_delay")
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.URL == "" {
			errs = append(errs, "telemetry.url is required when telemetry is enabled")
		}
		if c.Telemetry.Org == "" {
			errs = append(errs, "telemetry.org is required when telemetry is enabled")
		}
		if c.Telemetry.Bucket == "" {
			errs = append(errs, "telemetry.bucket is required when telemetry is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DeviceTimeout returns the controller request timeout as a Duration.
func (c *Config) DeviceTimeout() time.Duration {
	return time.Duration(c.UHPPOTE.Timeout) * time.Second
}
