// Package reassembly implements the Fragment Reassembly Cache: buffering,
// gap-tracking, and timeout-bounded assembly of fragmented IPv4/IPv6
// datagrams.
package reassembly

import (
	"time"

	"firestige.xyz/netcore/internal/core"
	"firestige.xyz/netcore/internal/ipview"
)

// ReassemblyTimeout is the fixed per-datagram budget: REASSEMBLY_TIMEOUT in
// SPEC_FULL.md section 5, measured from the first fragment and never
// renewed.
const ReassemblyTimeout = 60 * time.Second

const (
	fragmentBlockSize = 8
	maxFragmentBlocks = 8191
)

// Cache is the Fragment Reassembly Cache for a single address family F.
// Version polymorphism is a compile-time generic parameter rather than a
// runtime branch, per the "Version polymorphism" design note.
type Cache[F core.Family] struct {
	fam     F
	clock   core.Clock
	sched   core.Scheduler
	entries map[core.FragmentKey]*entry
}

// New builds an empty Cache for family fam, driven by clock and sched.
func New[F core.Family](fam F, clock core.Clock, sched core.Scheduler) *Cache[F] {
	return &Cache[F]{
		fam:     fam,
		clock:   clock,
		sched:   sched,
		entries: make(map[core.FragmentKey]*entry),
	}
}

func ceilDiv(n, d int) int { return (n + d - 1) / d }

// ProcessFragment is process_fragment: the single entry point for inbound
// datagrams, fragmented or not.
func (c *Cache[F]) ProcessFragment(v *ipview.View) (Outcome, error) {
	fd := v.FragmentData()
	if !fd.Ok || (fd.Offset == 0 && !fd.More) {
		return Outcome{Kind: NotNeeded, Packet: v}, nil
	}

	body := v.Body()
	if len(body) == 0 {
		// Rule 1: defensive no-op, not an InvalidFragment.
		return Outcome{Kind: NeedMoreFragments}, nil
	}

	if fd.More && len(body)%fragmentBlockSize != 0 {
		// Rule 2: non-terminal fragments must be block-aligned.
		c.invalidate(v, fd)
		return Outcome{Kind: InvalidFragment}, core.ErrInvalidFragment
	}

	numBlocks := ceilDiv(len(body), fragmentBlockSize)
	if int(fd.Offset)+numBlocks-1 > maxFragmentBlocks {
		// Rule 3: would exceed the 13-bit offset space.
		c.invalidate(v, fd)
		return Outcome{Kind: InvalidFragment}, core.ErrInvalidFragment
	}

	key := core.FragmentKey{Src: v.Src(), Dst: v.Dst(), Identification: fd.ID}
	e, existed := c.entries[key]
	if !existed {
		e = newEntry(c.clock.Now().Add(ReassemblyTimeout))
		if _, had := c.sched.Schedule(ReassemblyTimeout, core.ReassemblyTimerID(c.fam, key)); had {
			panic("netcore: reassembly timer already scheduled for a fresh key")
		}
		c.entries[key] = e
	}

	rangeLo := fd.Offset
	rangeHi := fd.Offset + uint16(numBlocks) - 1

	idx, gap, found := findGap(e.missing, rangeLo, rangeHi)
	if !found {
		// Rule 4: overlap, or straddles a gap boundary.
		c.teardownInvalid(key)
		return Outcome{Kind: InvalidFragment}, core.ErrInvalidFragment
	}

	var left, right *blockRange
	if gap.Lo < rangeLo {
		left = &blockRange{Lo: gap.Lo, Hi: rangeLo - 1}
	}
	if fd.More {
		if gap.Hi > rangeHi {
			right = &blockRange{Lo: rangeHi + 1, Hi: gap.Hi}
		}
	} else if gap.Hi != rangeHi && gap.Hi != fullSpace.Hi {
		panic("netcore: terminal fragment's gap upper bound inconsistent with its own range")
	}
	e.missing = spliceGap(e.missing, idx, left, right)

	if fd.Offset == 0 {
		if e.header != nil {
			panic("netcore: second offset-0 fragment received for a key that already has a header")
		}
		e.header = append([]byte(nil), v.Header()...)
		e.totalSize += len(e.header)
	}
	bodyCopy := append([]byte(nil), body...)
	pushFragment(&e.bodies, fd.Offset, bodyCopy)
	e.totalSize += len(bodyCopy)

	if len(e.missing) == 0 {
		return Outcome{Kind: Ready, Key: key, Len: e.totalSize}, nil
	}
	return Outcome{Kind: NeedMoreFragments}, nil
}

// invalidate discards any pre-existing state for the key implied by v/fd,
// if such a key can even be computed (it always can; Src/Dst/ID are present
// whenever fd.Ok is true, which it is for every caller of invalidate).
func (c *Cache[F]) invalidate(v *ipview.View, fd ipview.FragmentData) {
	key := core.FragmentKey{Src: v.Src(), Dst: v.Dst(), Identification: fd.ID}
	c.teardownInvalid(key)
}

// teardownInvalid removes the entry for key (if any) and cancels its timer.
func (c *Cache[F]) teardownInvalid(key core.FragmentKey) {
	if _, existed := c.entries[key]; !existed {
		return
	}
	delete(c.entries, key)
	if _, ok := c.sched.Cancel(core.ReassemblyTimerID(c.fam, key)); !ok {
		panic("netcore: expected a scheduled reassembly timer to cancel")
	}
}

// ReassemblePacket is reassemble_packet: given a Ready key and a buffer of
// exactly the advertised length, writes the assembled datagram, applies the
// IPv4 header fix-up, and re-parses the result.
func (c *Cache[F]) ReassemblePacket(key core.FragmentKey, buf []byte) (*ipview.View, error) {
	e, ok := c.entries[key]
	if !ok {
		return nil, core.ErrInvalidKey
	}
	if len(e.missing) != 0 {
		return nil, core.ErrMissingFragments
	}

	offset := copy(buf, e.header)
	for _, bf := range drainAscending(&e.bodies) {
		offset += copy(buf[offset:], bf.data)
	}

	if c.fam.Version() == 4 {
		if err := ipview.FixupIPv4Header(buf, len(e.header), offset); err != nil {
			c.teardown(key)
			return nil, core.ErrPacketParsing
		}
	}
	// IPv6 header fix-up is reserved for future work; see SPEC_FULL.md.

	view, err := ipview.Parse(buf)
	if err != nil {
		c.teardown(key)
		return nil, core.ErrPacketParsing
	}

	c.teardown(key)
	return view, nil
}

// teardown removes the entry for key and cancels its timer, on the success
// or parse-failure paths of ReassemblePacket.
func (c *Cache[F]) teardown(key core.FragmentKey) {
	delete(c.entries, key)
	if _, ok := c.sched.Cancel(core.ReassemblyTimerID(c.fam, key)); !ok {
		panic("netcore: expected a scheduled reassembly timer to cancel")
	}
}

// HandleReassemblyTimer is handle_reassembly_timer: invoked by the timer
// scheduler, it removes the entry for key unconditionally and silently (no
// notification to the caller).
func (c *Cache[F]) HandleReassemblyTimer(key core.FragmentKey) {
	delete(c.entries, key)
}

// Len reports the number of in-flight reassemblies, for metrics.
func (c *Cache[F]) Len() int { return len(c.entries) }
