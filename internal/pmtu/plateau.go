package pmtu

// Plateaus is the strictly descending canonical MTU table consulted when no
// precise hint is available, matching SPEC_FULL.md section 4.2's PLATEAUS.
var Plateaus = [...]uint32{65535, 32000, 17914, 8166, 4352, 2002, 1492, 1280, 1006, 508, 296, 68}

// nextLowerPlateau returns the first (hence greatest, since Plateaus is
// descending) element strictly less than x, per the "next_lower_plateau"
// algorithmic note: a linear scan suffices.
func nextLowerPlateau(x uint32) (uint32, bool) {
	for _, p := range Plateaus {
		if p < x {
			return p, true
		}
	}
	return 0, false
}
