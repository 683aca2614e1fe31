// Package uhppote adapts uhppote-core to the bridge's door-control needs.
//
// The bridge only ever issues one operation — set a door's control mode and
// unlock delay — so this package exposes exactly that, hiding uhppote-core's
// addressing (broadcast discovery by serial number, or a directly configured
// controller address). The wire protocol itself lives entirely in
// uhppote-core.
package uhppote
