package core

import (
	"net/netip"
	"testing"
)

func TestFamilyConstants(t *testing.T) {
	if got := (V4{}).MinMTU(); got != 68 {
		t.Errorf("V4 MinMTU = %d, want 68", got)
	}
	if got := (V4{}).Version(); got != 4 {
		t.Errorf("V4 Version = %d, want 4", got)
	}
	if got := (V6{}).MinMTU(); got != 1280 {
		t.Errorf("V6 MinMTU = %d, want 1280", got)
	}
	if got := (V6{}).Version(); got != 6 {
		t.Errorf("V6 Version = %d, want 6", got)
	}
}

func TestTimerIDsDisjointAcrossVersions(t *testing.T) {
	key := FragmentKey{
		Src:            netip.MustParseAddr("10.0.0.1"),
		Dst:            netip.MustParseAddr("10.0.0.2"),
		Identification: 5,
	}
	v4ID := ReassemblyTimerID(V4{}, key)
	v6ID := ReassemblyTimerID(V6{}, key)
	if v4ID == v6ID {
		t.Fatalf("v4 and v6 reassembly timer IDs must be disjoint, both were %+v", v4ID)
	}

	v4Maint := MaintenanceTimerID(V4{})
	v6Maint := MaintenanceTimerID(V6{})
	if v4Maint == v6Maint {
		t.Fatalf("v4 and v6 maintenance timer IDs must be disjoint")
	}
	if v4Maint == v4ID {
		t.Fatalf("maintenance and reassembly timer IDs must not collide")
	}
}

func TestSystemClockMonotonic(t *testing.T) {
	var c SystemClock
	t1 := c.Now()
	t2 := c.Now()
	if t2.Before(t1) {
		t.Fatalf("clock went backwards: %v then %v", t1, t2)
	}
}
