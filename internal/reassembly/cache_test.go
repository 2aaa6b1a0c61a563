package reassembly

import (
	"encoding/binary"
	"net/netip"
	"testing"
	"time"

	"firestige.xyz/netcore/internal/core"
	"firestige.xyz/netcore/internal/ipview"
)

// fakeScheduler records schedule/cancel calls without ever firing on its
// own; tests drive timeouts explicitly via HandleReassemblyTimer, mirroring
// how the reference source's own tests manually invoke handle_timeout.
type fakeScheduler struct {
	pending map[core.TimerID]time.Time
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[core.TimerID]time.Time)}
}

func (f *fakeScheduler) Schedule(delay time.Duration, id core.TimerID) (time.Time, bool) {
	prior, had := f.pending[id]
	f.pending[id] = time.Now().Add(delay)
	return prior, had
}

func (f *fakeScheduler) Cancel(id core.TimerID) (time.Time, bool) {
	prior, had := f.pending[id]
	delete(f.pending, id)
	return prior, had
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

var (
	srcAddr = netip.MustParseAddr("10.0.0.1")
	dstAddr = netip.MustParseAddr("10.0.0.2")
)

// buildIPv4Fragment constructs a minimal raw IPv4 datagram carrying the
// given fragment parameters.
func buildIPv4Fragment(id uint16, fragOffsetBlocks uint16, more bool, payload []byte) []byte {
	const headerLen = 20
	buf := make([]byte, headerLen+len(payload))
	buf[0] = 0x45
	binary.BigEndian.PutUint16(buf[2:4], uint16(headerLen+len(payload)))
	binary.BigEndian.PutUint16(buf[4:6], id)

	flagsOffset := fragOffsetBlocks & 0x1FFF
	if more {
		flagsOffset |= 0x2000
	}
	binary.BigEndian.PutUint16(buf[6:8], flagsOffset)
	buf[8] = 64
	buf[9] = 17
	copy(buf[12:16], srcAddr.AsSlice())
	copy(buf[16:20], dstAddr.AsSlice())
	copy(buf[headerLen:], payload)
	return buf
}

func parseOrFatal(t *testing.T, data []byte) *ipview.View {
	t.Helper()
	v, err := ipview.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return v
}

func newTestCache() (*Cache[core.V4], *fakeScheduler) {
	sched := newFakeScheduler()
	c := New(core.V4{}, &fakeClock{now: time.Unix(0, 0)}, sched)
	return c, sched
}

func seqBytes(lo, hi int) []byte {
	out := make([]byte, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, byte(i))
	}
	return out
}

func TestReassembler_NonFragmentBypass(t *testing.T) {
	c, _ := newTestCache()
	data := buildIPv4Fragment(1, 0, false, []byte{1, 2, 3, 4})
	v := parseOrFatal(t, data)

	outcome, err := c.ProcessFragment(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != NotNeeded {
		t.Fatalf("expected NotNeeded, got %v", outcome.Kind)
	}
	if outcome.Packet != v {
		t.Fatalf("expected the identical packet back")
	}
}

func TestReassembler_S1_ThreeFragmentAssembly(t *testing.T) {
	c, _ := newTestCache()

	f0 := parseOrFatal(t, buildIPv4Fragment(5, 0, true, seqBytes(0, 7)))
	f1 := parseOrFatal(t, buildIPv4Fragment(5, 1, true, seqBytes(8, 15)))
	f2 := parseOrFatal(t, buildIPv4Fragment(5, 2, false, seqBytes(16, 23)))

	if o, err := c.ProcessFragment(f0); err != nil || o.Kind != NeedMoreFragments {
		t.Fatalf("fragment 0: outcome=%v err=%v", o.Kind, err)
	}
	if o, err := c.ProcessFragment(f1); err != nil || o.Kind != NeedMoreFragments {
		t.Fatalf("fragment 1: outcome=%v err=%v", o.Kind, err)
	}
	outcome, err := c.ProcessFragment(f2)
	if err != nil {
		t.Fatalf("fragment 2: unexpected error: %v", err)
	}
	if outcome.Kind != Ready {
		t.Fatalf("expected Ready, got %v", outcome.Kind)
	}
	if outcome.Len != 20+24 {
		t.Fatalf("expected packet_len=44, got %d", outcome.Len)
	}

	buf := make([]byte, outcome.Len)
	view, err := c.ReassemblePacket(outcome.Key, buf)
	if err != nil {
		t.Fatalf("ReassemblePacket failed: %v", err)
	}
	if string(view.Body()) != string(seqBytes(0, 23)) {
		t.Fatalf("unexpected reassembled body: %v", view.Body())
	}

	if _, err := c.ReassemblePacket(outcome.Key, buf); err != core.ErrInvalidKey {
		t.Fatalf("expected InvalidKey after the entry is consumed, got %v", err)
	}
}

func TestReassembler_S2_OutOfOrder(t *testing.T) {
	c, _ := newTestCache()

	frags := []*ipview.View{
		parseOrFatal(t, buildIPv4Fragment(0, 2, true, seqBytes(16, 23))),
		parseOrFatal(t, buildIPv4Fragment(0, 0, true, seqBytes(0, 7))),
		parseOrFatal(t, buildIPv4Fragment(0, 3, false, seqBytes(24, 28))),
		parseOrFatal(t, buildIPv4Fragment(0, 1, true, seqBytes(8, 15))),
	}

	var last Outcome
	for i, f := range frags {
		o, err := c.ProcessFragment(f)
		if err != nil {
			t.Fatalf("fragment %d: unexpected error: %v", i, err)
		}
		last = o
	}
	if last.Kind != Ready || last.Len != 20+29 {
		t.Fatalf("expected Ready{len=49}, got kind=%v len=%d", last.Kind, last.Len)
	}

	buf := make([]byte, last.Len)
	view, err := c.ReassemblePacket(last.Key, buf)
	if err != nil {
		t.Fatalf("ReassemblePacket failed: %v", err)
	}
	if string(view.Body()) != string(seqBytes(0, 28)) {
		t.Fatalf("unexpected reassembled body: %v", view.Body())
	}
}

func TestReassembler_S3_OverlapRejection(t *testing.T) {
	c, _ := newTestCache()

	first := parseOrFatal(t, buildIPv4Fragment(7, 0, true, seqBytes(0, 7)))
	second := parseOrFatal(t, buildIPv4Fragment(7, 0, true, seqBytes(8, 15)))

	if o, err := c.ProcessFragment(first); err != nil || o.Kind != NeedMoreFragments {
		t.Fatalf("first fragment: outcome=%v err=%v", o.Kind, err)
	}
	o, err := c.ProcessFragment(second)
	if o.Kind != InvalidFragment || err != core.ErrInvalidFragment {
		t.Fatalf("expected InvalidFragment, got kind=%v err=%v", o.Kind, err)
	}

	key := core.FragmentKey{Src: srcAddr, Dst: dstAddr, Identification: 7}
	if _, err := c.ReassemblePacket(key, make([]byte, 1)); err != core.ErrInvalidKey {
		t.Fatalf("expected InvalidKey after overlap discard, got %v", err)
	}
}

func TestReassembler_S4_NonBlockAlignedNonTerminal(t *testing.T) {
	c, _ := newTestCache()
	frag := parseOrFatal(t, buildIPv4Fragment(8, 0, true, seqBytes(0, 6))) // 7 bytes

	o, err := c.ProcessFragment(frag)
	if o.Kind != InvalidFragment || err != core.ErrInvalidFragment {
		t.Fatalf("expected InvalidFragment, got kind=%v err=%v", o.Kind, err)
	}
}

func TestReassembler_Timeout(t *testing.T) {
	c, sched := newTestCache()
	frag := parseOrFatal(t, buildIPv4Fragment(9, 0, true, seqBytes(0, 7)))

	if o, err := c.ProcessFragment(frag); err != nil || o.Kind != NeedMoreFragments {
		t.Fatalf("unexpected outcome: %v %v", o.Kind, err)
	}

	key := core.FragmentKey{Src: srcAddr, Dst: dstAddr, Identification: 9}
	timerID := core.ReassemblyTimerID(core.V4{}, key)
	if _, had := sched.pending[timerID]; !had {
		t.Fatalf("expected a reassembly timer to be scheduled")
	}

	// A real scheduler drops the timer from its pending set as it fires,
	// before delivering it; mirror that before invoking the handler.
	sched.Cancel(timerID)
	c.HandleReassemblyTimer(key)

	if _, err := c.ReassemblePacket(key, make([]byte, 1)); err != core.ErrInvalidKey {
		t.Fatalf("expected InvalidKey after timeout, got %v", err)
	}

	// A later fragment for the same key starts a fresh entry/timer.
	again := parseOrFatal(t, buildIPv4Fragment(9, 0, true, seqBytes(0, 7)))
	if o, err := c.ProcessFragment(again); err != nil || o.Kind != NeedMoreFragments {
		t.Fatalf("expected a fresh NeedMoreFragments after timeout, got %v %v", o.Kind, err)
	}
}

func TestReassembler_FragmentExceedsOffsetSpace(t *testing.T) {
	c, _ := newTestCache()
	frag := parseOrFatal(t, buildIPv4Fragment(10, 8191, false, seqBytes(0, 15)))

	o, err := c.ProcessFragment(frag)
	if o.Kind != InvalidFragment || err != core.ErrInvalidFragment {
		t.Fatalf("expected InvalidFragment for an out-of-range offset, got kind=%v err=%v", o.Kind, err)
	}
}
