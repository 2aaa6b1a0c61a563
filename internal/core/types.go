package core

import "net/netip"

// Family is the compile-time capability describing an address family's
// version-specific constants. Version polymorphism is expressed as a
// generic parameter over this interface rather than runtime branches, per
// the "Version polymorphism" design note.
type Family interface {
	// MinMTU is the floor below which a PMTU update is rejected.
	MinMTU() uint32
	// Version returns 4 or 6, used to keep v4/v6 timer IDs disjoint.
	Version() uint8
}

// V4 is the IPv4 address family.
type V4 struct{}

// MinMTU implements Family.
func (V4) MinMTU() uint32 { return 68 }

// Version implements Family.
func (V4) Version() uint8 { return 4 }

// V6 is the IPv6 address family.
type V6 struct{}

// MinMTU implements Family.
func (V6) MinMTU() uint32 { return 1280 }

// Version implements Family.
func (V6) Version() uint8 { return 6 }

// FragmentKey identifies a single logical datagram's reassembly state.
// Fragments share a key iff they belong to the same datagram.
type FragmentKey struct {
	Src            netip.Addr
	Dst            netip.Addr
	Identification uint32
}

// PathKey identifies a PMTU cache entry. Deliberately just (src, dst): see
// the "per-path device" open question in SPEC_FULL.md.
type PathKey struct {
	Src netip.Addr
	Dst netip.Addr
}

// TimerKind distinguishes the two timer classes the core schedules.
type TimerKind uint8

const (
	// TimerKindReassembly identifies a per-FragmentKey expiration timer.
	TimerKindReassembly TimerKind = iota
	// TimerKindMaintenance identifies the per-version PMTU maintenance timer.
	TimerKindMaintenance
)

// TimerID is the opaque, comparable identifier handed to the Scheduler. It
// carries the address family's version explicitly (in addition to it being
// implicit in Src/Dst) so that v4 and v6 timer IDs are always disjoint, per
// the "Timer IDs across versions" design note, and is usable directly as a
// Go map key by the Scheduler implementation.
type TimerID struct {
	Version        uint8
	Kind           TimerKind
	Src            netip.Addr
	Dst            netip.Addr
	Identification uint32
}

// ReassemblyTimerID builds the TimerID for a fragment cache entry.
func ReassemblyTimerID(fam Family, key FragmentKey) TimerID {
	return TimerID{
		Version:        fam.Version(),
		Kind:           TimerKindReassembly,
		Src:            key.Src,
		Dst:            key.Dst,
		Identification: key.Identification,
	}
}

// MaintenanceTimerID builds the singleton-per-version PMTU maintenance TimerID.
func MaintenanceTimerID(fam Family) TimerID {
	return TimerID{Version: fam.Version(), Kind: TimerKindMaintenance}
}
