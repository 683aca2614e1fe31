// Package logging provides structured logging for the bridge.
//
// It is a thin wrapper over log/slog that fixes the service-wide default
// attributes and maps configuration strings onto handler options. Loggers
// are passed explicitly to components; nothing in the codebase logs through
// a process-wide global.
package logging
