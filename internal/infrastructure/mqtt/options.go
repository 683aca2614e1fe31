package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultOpTimeout is the maximum time to wait for publish/subscribe acks.
	defaultOpTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keep-alive interval for the connection.
	// 5 seconds keeps liveness detection fast for a physical-access device.
	defaultKeepAlive = 5 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Options holds everything needed to open a broker connection.
//
// Host, Port, Username and Password come from credential resolution
// (internal/credentials) rather than directly from the config file, so the
// same connect path serves both static and supervisor-discovered setups.
type Options struct {
	Host     string
	Port     uint16
	TLS      bool
	ClientID string
	Username string
	Password string

	// ReconnectInitialDelay and ReconnectMaxDelay bound the exponential
	// backoff applied between reconnection attempts.
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
}

// buildClientOptions creates paho MQTT options from bridge Options.
func buildClientOptions(opts Options) *pahomqtt.ClientOptions {
	clientOpts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if opts.TLS {
		scheme = "ssl"
	}
	clientOpts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, opts.Host, opts.Port))

	clientOpts.SetClientID(opts.ClientID)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	// Clean session - the bridge re-subscribes and re-publishes discovery
	// itself on reconnect, so no broker-side session state is needed.
	clientOpts.SetCleanSession(true)

	// Auto-reconnect with exponential backoff between the configured bounds.
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.SetConnectRetryInterval(opts.ReconnectInitialDelay)
	clientOpts.SetMaxReconnectInterval(opts.ReconnectMaxDelay)

	clientOpts.SetConnectTimeout(defaultConnectTimeout)
	clientOpts.SetKeepAlive(defaultKeepAlive)

	if opts.TLS {
		clientOpts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return clientOpts
}
