// Package bridge implements the MQTT-to-door-controller control loop.
//
// Given a base topic B, the bridge derives exactly three topics:
//
//	B/config  — retained discovery payload, published at startup
//	B/state   — "LOCKED"/"UNLOCKED", published after each door operation
//	B/command — "LOCK"/"UNLOCK", subscribed at most once
//
// The Session owns the protocol exchange: subscribe, announce, then an
// indefinite dispatch loop. The Translator maps command payloads onto
// door-control calls ("LOCK" ⇒ controlled access, "UNLOCK" ⇒ normally
// open, both with a 5 second delay) and classifies everything else as
// ignored.
//
// # Failure isolation
//
// Failures before the loop starts (subscribe, discovery publish) abort
// startup. Failures inside the loop — malformed payloads, device errors,
// transport drops — are logged and isolated to the single command that
// caused them; the transport's backoff reconnect keeps the session alive.
// The one configurable exception is a failed state publish after a
// successful door operation, which is fatal in strict mode.
package bridge
