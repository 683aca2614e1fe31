// Package mqtt provides the broker connection for the uhppote-mqtt bridge.
//
// This package manages:
//   - Connection to the broker with an explicit reconnect policy
//   - Message publishing with QoS guarantees
//   - Topic subscriptions, restored automatically on reconnect
//   - Connection health monitoring
//
// # Reconnect policy
//
// The bridge does not implement its own retry loop; instead paho is
// configured with exponential backoff between the bounds in Options, and
// this wrapper restores subscriptions on every reconnect. The bridge
// session re-publishes its retained discovery payload from its OnConnect
// callback, so a broker restart leaves the system fully re-announced.
//
// # Usage
//
//	client, err := mqtt.Connect(mqtt.Options{
//	    Host: creds.Host, Port: creds.Port,
//	    ClientID: cfg.MQTT.Broker.ClientID,
//	    Username: creds.Username, Password: creds.Password,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
package mqtt
