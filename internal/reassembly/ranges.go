package reassembly

// blockRange is an inclusive [Lo, Hi] range over the 13-bit fragment-block
// offset space. The gap algorithm in SPEC_FULL.md section 4.1 manipulates a
// small ordered sequence of these; per the "Gap list representation" design
// note, a sorted slice is sufficient (typical sizes 1-3).
type blockRange struct {
	Lo, Hi uint16
}

// fullSpace is the initial single gap covering the whole block range
// [0, 65535] that SPEC_FULL.md's FragmentEntry.missing_blocks
// is initialized to (note: 65535 here, not 8191 — it is a sentinel upper
// bound wider than the protocol's actual 13-bit offset field, matching the
// reference source's own choice of range width for the initial gap).
var fullSpace = blockRange{Lo: 0, Hi: 65535}

// findGap returns the index of the unique range in missing that entirely
// contains [lo, hi], or found=false if no such range exists (overlap or
// gap-straddle, rule 4 of process_fragment).
func findGap(missing []blockRange, lo, hi uint16) (idx int, gap blockRange, found bool) {
	for i, g := range missing {
		if g.Lo <= lo && g.Hi >= hi {
			return i, g, true
		}
	}
	return 0, blockRange{}, false
}

// spliceGap replaces missing[idx] with zero, one, or two sub-ranges
// (left/right), preserving ascending order.
func spliceGap(missing []blockRange, idx int, left, right *blockRange) []blockRange {
	extra := 0
	if left != nil {
		extra++
	}
	if right != nil {
		extra++
	}
	out := make([]blockRange, 0, len(missing)-1+extra)
	out = append(out, missing[:idx]...)
	if left != nil {
		out = append(out, *left)
	}
	if right != nil {
		out = append(out, *right)
	}
	out = append(out, missing[idx+1:]...)
	return out
}
