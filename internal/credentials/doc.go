// Package credentials resolves final MQTT broker connection parameters.
//
// Two sources exist: the static broker fields from the config file, or
// dynamic discovery from a local supervisor API (Home Assistant add-on
// hosting). The source is decided once at startup from the environment
// (FromEnv) and passed explicitly into Resolve; business logic never
// branches on ambient environment state.
//
// Resolution is all-or-nothing: host, port, username and password must all
// be populated or Resolve returns an error naming the missing field, and
// the bridge does not start.
package credentials
