package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig drops a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

const validJSON = `{
  "name": "Garage Door",
  "uhppote": {
    "device_id": 405419896,
    "door": 2,
    "timeout": 5
  },
  "mqtt": {
    "broker": {
      "host": "mqtt.local",
      "port": 1883,
      "client_id": "uhppote-garage"
    },
    "auth": {
      "username": "bridge",
      "password": "secret"
    },
    "base_topic": "home/garage/door"
  }
}`

const validYAML = `
name: Garage Door
uhppote:
  device_id: 405419896
  door: 2
  timeout: 5
mqtt:
  broker:
    host: mqtt.local
    port: 1883
    client_id: uhppote-garage
  auth:
    username: bridge
    password: secret
  base_topic: home/garage/door
`

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", validJSON)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Name != "Garage Door" {
		t.Errorf("Name = %q, want Garage Door", cfg.Name)
	}
	if cfg.UHPPOTE.DeviceID != 405419896 {
		t.Errorf("DeviceID = %d, want 405419896", cfg.UHPPOTE.DeviceID)
	}
	if cfg.UHPPOTE.Door != 2 {
		t.Errorf("Door = %d, want 2", cfg.UHPPOTE.Door)
	}
	if cfg.MQTT.BaseTopic != "home/garage/door" {
		t.Errorf("BaseTopic = %q", cfg.MQTT.BaseTopic)
	}
	if cfg.MQTT.Broker.ClientID != "uhppote-garage" {
		t.Errorf("ClientID = %q", cfg.MQTT.Broker.ClientID)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", validYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "mqtt.local" {
		t.Errorf("Host = %q, want mqtt.local", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Auth.Password != "secret" {
		t.Errorf("Password = %q", cfg.MQTT.Auth.Password)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", validYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Values the file does not mention come from the defaults.
	if cfg.MQTT.Reconnect.InitialDelay != 1 {
		t.Errorf("Reconnect.InitialDelay = %d, want 1", cfg.MQTT.Reconnect.InitialDelay)
	}
	if cfg.MQTT.Reconnect.MaxDelay != 60 {
		t.Errorf("Reconnect.MaxDelay = %d, want 60", cfg.MQTT.Reconnect.MaxDelay)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging defaults = %+v", cfg.Logging)
	}
	if cfg.History.Enabled {
		t.Error("history enabled by default")
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry enabled by default")
	}
	if cfg.Bridge.StrictStatePublish {
		t.Error("strict state publish enabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("UHPPOTE_BRIDGE_MQTT_HOST", "override.local")
	t.Setenv("UHPPOTE_BRIDGE_MQTT_PORT", "8883")
	t.Setenv("UHPPOTE_BRIDGE_MQTT_USERNAME", "envuser")
	t.Setenv("UHPPOTE_BRIDGE_BASE_TOPIC", "env/topic")

	path := writeConfig(t, "config.yaml", validYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "override.local" {
		t.Errorf("Host = %q, want override.local", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Username != "envuser" {
		t.Errorf("Username = %q, want envuser", cfg.MQTT.Auth.Username)
	}
	if cfg.MQTT.BaseTopic != "env/topic" {
		t.Errorf("BaseTopic = %q, want env/topic", cfg.MQTT.BaseTopic)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() succeeded for missing file")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "config.json", `{"name": `)
	if _, err := Load(path); err == nil {
		t.Fatal("Load() succeeded for malformed JSON")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.UHPPOTE.DeviceID = 405419896
		cfg.MQTT.BaseTopic = "uhppote"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing name",
			mutate:  func(c *Config) { c.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "missing device id",
			mutate:  func(c *Config) { c.UHPPOTE.DeviceID = 0 },
			wantErr: "device_id is required",
		},
		{
			name:    "door zero",
			mutate:  func(c *Config) { c.UHPPOTE.Door = 0 },
			wantErr: "door must be between 1 and 4",
		},
		{
			name:    "door five",
			mutate:  func(c *Config) { c.UHPPOTE.Door = 5 },
			wantErr: "door must be between 1 and 4",
		},
		{
			name:    "missing base topic",
			mutate:  func(c *Config) { c.MQTT.BaseTopic = "" },
			wantErr: "base_topic is required",
		},
		{
			name:    "trailing slash base topic",
			mutate:  func(c *Config) { c.MQTT.BaseTopic = "uhppote/" },
			wantErr: "must not end with",
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.MQTT.Broker.ClientID = "" },
			wantErr: "client_id is required",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: "port must be between",
		},
		{
			name:    "max delay below initial",
			mutate:  func(c *Config) { c.MQTT.Reconnect.MaxDelay = 0 },
			wantErr: "max_delay must be",
		},
		{
			name:    "history without path",
			mutate:  func(c *Config) { c.History.Enabled = true; c.History.Path = "" },
			wantErr: "history.path is required",
		},
		{
			name:    "telemetry without url",
			mutate:  func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.Org = "o"; c.Telemetry.Bucket = "b" },
			wantErr: "telemetry.url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() succeeded on zero config")
	}
	for _, want := range []string{"name is required", "device_id is required", "base_topic is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestDeviceTimeout(t *testing.T) {
	cfg := &Config{UHPPOTE: UHPPOTEConfig{Timeout: 7}}
	if got := cfg.DeviceTimeout(); got != 7*time.Second {
		t.Errorf("DeviceTimeout() = %v, want 7s", got)
	}
}

func TestBrokerFieldsOptional(t *testing.T) {
	// Host and credentials may be absent: supervisor discovery fills them in
	// after load. Validation must not reject this shape.
	cfg := defaultConfig()
	cfg.UHPPOTE.DeviceID = 405419896
	cfg.MQTT.BaseTopic = "uhppote"
	cfg.MQTT.Broker.Host = ""
	cfg.MQTT.Broker.Port = 0
	cfg.MQTT.Auth = MQTTAuthConfig{}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}
