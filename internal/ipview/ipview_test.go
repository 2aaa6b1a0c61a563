package ipview

import (
	"encoding/binary"
	"net/netip"
	"testing"
)

// buildIPv4Fragment constructs a minimal raw IPv4 datagram carrying the
// given fragment parameters, mirroring the byte-construction idiom used
// throughout this codebase's other packet-level tests.
func buildIPv4Fragment(id uint16, fragOffsetBlocks uint16, more bool, payload []byte) []byte {
	const headerLen = 20
	buf := make([]byte, headerLen+len(payload))
	buf[0] = 0x45 // version 4, IHL 5
	binary.BigEndian.PutUint16(buf[2:4], uint16(headerLen+len(payload)))
	binary.BigEndian.PutUint16(buf[4:6], id)

	flagsOffset := fragOffsetBlocks & 0x1FFF
	if more {
		flagsOffset |= 0x2000
	}
	binary.BigEndian.PutUint16(buf[6:8], flagsOffset)

	buf[8] = 64 // TTL
	buf[9] = 17 // UDP
	copy(buf[12:16], []byte{10, 0, 0, 1})
	copy(buf[16:20], []byte{10, 0, 0, 2})
	copy(buf[headerLen:], payload)
	return buf
}

func TestParseV4Fragment(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	data := buildIPv4Fragment(5, 1, true, payload)

	v, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if v.Version() != 4 {
		t.Fatalf("expected version 4, got %d", v.Version())
	}
	if v.Src() != netip.MustParseAddr("10.0.0.1") {
		t.Fatalf("unexpected src: %v", v.Src())
	}
	if v.Dst() != netip.MustParseAddr("10.0.0.2") {
		t.Fatalf("unexpected dst: %v", v.Dst())
	}

	fd := v.FragmentData()
	if !fd.Ok || fd.ID != 5 || fd.Offset != 1 || !fd.More {
		t.Fatalf("unexpected fragment data: %+v", fd)
	}
	if len(v.Header()) != 20 {
		t.Fatalf("expected 20-byte header, got %d", len(v.Header()))
	}
	if string(v.Body()) != string(payload) {
		t.Fatalf("unexpected body: %v", v.Body())
	}
}

func TestParseV4NonFragmented(t *testing.T) {
	data := buildIPv4Fragment(9, 0, false, []byte{1, 2, 3, 4})
	v, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	fd := v.FragmentData()
	if !fd.Ok || fd.Offset != 0 || fd.More {
		t.Fatalf("expected offset=0, more=false for a non-fragmented datagram, got %+v", fd)
	}
}

func TestParseTooShort(t *testing.T) {
	if _, err := Parse([]byte{0x45, 0x00}); err == nil {
		t.Fatalf("expected an error for a truncated datagram")
	}
}

func TestParseUnsupportedVersion(t *testing.T) {
	data := make([]byte, 20)
	data[0] = 0x50 // version 5
	if _, err := Parse(data); err == nil {
		t.Fatalf("expected an error for an unsupported IP version")
	}
}

func TestFixupIPv4HeaderRecomputesChecksum(t *testing.T) {
	header := buildIPv4Fragment(5, 0, true, nil)[:20]
	buf := append([]byte(nil), header...)
	buf = append(buf, []byte{1, 2, 3, 4, 5, 6, 7, 8}...)

	if err := FixupIPv4Header(buf, 20, len(buf)); err != nil {
		t.Fatalf("FixupIPv4Header failed: %v", err)
	}

	if got := binary.BigEndian.Uint16(buf[2:4]); int(got) != len(buf) {
		t.Fatalf("total length = %d, want %d", got, len(buf))
	}
	for i := 4; i < 8; i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, buf[i])
		}
	}

	// Re-parsing after fixup must succeed and see a non-fragmented datagram.
	v, err := Parse(buf)
	if err != nil {
		t.Fatalf("reparse after fixup failed: %v", err)
	}
	fd := v.FragmentData()
	if fd.Offset != 0 || fd.More {
		t.Fatalf("expected offset=0, more=false after fixup, got %+v", fd)
	}
}

func TestFixupIPv4HeaderRejectsOversizedPacket(t *testing.T) {
	header := buildIPv4Fragment(5, 0, true, nil)[:20]
	buf := append([]byte(nil), header...)
	if err := FixupIPv4Header(buf, 20, 70000); err == nil {
		t.Fatalf("expected an error for byteCount > 65535")
	}
}
