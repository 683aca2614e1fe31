package main

import (
	"context"
	"errors"
	"testing"

	"github.com/doorctl/uhppote-mqtt/internal/infrastructure/mqtt"
)

func TestGetConfigPathDefault(t *testing.T) {
	t.Setenv("UHPPOTE_BRIDGE_CONFIG", "")

	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}
}

func TestGetConfigPathFromEnv(t *testing.T) {
	t.Setenv("UHPPOTE_BRIDGE_CONFIG", "/tmp/custom.yaml")

	if got := getConfigPath(); got != "/tmp/custom.yaml" {
		t.Errorf("getConfigPath() = %q, want /tmp/custom.yaml", got)
	}
}

func TestHealthCheckDisconnectedMQTT(t *testing.T) {
	// History and telemetry are nil (disabled); the check must still reach
	// MQTT and report the disconnected client.
	err := healthCheck(context.Background(), nil, &mqtt.Client{}, nil)
	if !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("healthCheck() error = %v, want mqtt.ErrNotConnected", err)
	}
}

func TestAddressOrBroadcast(t *testing.T) {
	if got := addressOrBroadcast(""); got != "broadcast" {
		t.Errorf("addressOrBroadcast(\"\") = %q, want broadcast", got)
	}
	if got := addressOrBroadcast("192.168.1.100"); got != "192.168.1.100" {
		t.Errorf("addressOrBroadcast() = %q", got)
	}
}
