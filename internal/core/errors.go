// Package core defines the shared types, sentinel errors and timer
// abstractions used by the reassembly and PMTU caches.
package core

import "errors"

// Sentinel errors for the three error kinds the core raises.
var (
	// ErrInvalidFragment is raised by fragment validation; the entry for the
	// offending key is discarded and its timer cancelled.
	ErrInvalidFragment = errors.New("netcore: invalid fragment")

	// ErrMissingFragments is raised by reassembly when the entry's gap list
	// is still non-empty.
	ErrMissingFragments = errors.New("netcore: fragments still missing")

	// ErrInvalidKey is raised by reassembly when no entry exists for the key
	// (never existed, already reassembled, timed out, or invalidated).
	ErrInvalidKey = errors.New("netcore: unknown or expired fragment key")

	// ErrPacketParsing is raised when the reassembled byte buffer fails to
	// re-parse as a packet.
	ErrPacketParsing = errors.New("netcore: reassembled packet failed to parse")

	// ErrBelowMinMTU is raised by update_pmtu/update_pmtu_if_less when the
	// proposed value is below the address family's floor.
	ErrBelowMinMTU = errors.New("netcore: mtu below family minimum")

	// ErrPacketTooShort is raised by the packet view when a buffer is too
	// short to contain the header it claims to have.
	ErrPacketTooShort = errors.New("netcore: packet too short")

	// ErrUnsupportedVersion is raised when a packet's IP version is neither 4 nor 6.
	ErrUnsupportedVersion = errors.New("netcore: unsupported ip version")

	// ErrNoLowerPlateau is raised by update_pmtu_next_lower when no plateau
	// value strictly below the given MTU exists.
	ErrNoLowerPlateau = errors.New("netcore: no plateau below the given mtu")
)
