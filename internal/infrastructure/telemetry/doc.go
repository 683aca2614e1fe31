// Package telemetry writes per-command metrics to InfluxDB.
//
// One measurement, door_command, tagged by door/command/outcome with the
// dispatch duration as its field. Writes are batched and non-blocking so a
// slow or absent InfluxDB never delays a door operation. The whole package
// is optional; Connect returns ErrDisabled when switched off in config.
package telemetry
