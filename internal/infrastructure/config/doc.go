// Package config loads and validates bridge configuration.
//
// Configuration comes from a single JSON or YAML file (JSON matches the
// original add-on packaging; YAML is accepted for hand-maintained installs),
// with environment variable overrides for deployment-specific values.
//
// Broker credentials are a special case: the file may omit them entirely
// when the bridge runs under a supervisor, in which case they are resolved
// at startup by internal/credentials. Validation here therefore covers
// everything except broker credential completeness.
//
// # Usage
//
//	cfg, err := config.Load("/etc/uhppote-mqtt/config.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
