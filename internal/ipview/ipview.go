// Package ipview implements the core's Packet view external collaborator:
// decoding a raw IPv4/IPv6 datagram far enough to drive fragment reassembly
// (source, destination, fragment-header triple, header/body split), and
// rebuilding+re-parsing the header after reassembly.
package ipview

import (
	"encoding/binary"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/netcore/internal/core"
)

// FragmentData is the (identification, offset, more-fragments) triple the
// core's process_fragment consumes. Ok is false when the packet carries no
// fragment header at all (a plain, non-fragmented datagram).
type FragmentData struct {
	ID     uint32
	Offset uint16 // in 8-octet blocks
	More   bool
	Ok     bool
}

// View is a parsed datagram: source/destination addresses, the fragment
// triple, and the header/body split needed by the reassembly cache.
type View struct {
	version uint8
	src     netip.Addr
	dst     netip.Addr
	frag    FragmentData
	header  []byte
	body    []byte
	raw     []byte
}

// Version returns 4 or 6.
func (v *View) Version() uint8 { return v.version }

// Src returns the datagram's source address.
func (v *View) Src() netip.Addr { return v.src }

// Dst returns the datagram's destination address.
func (v *View) Dst() netip.Addr { return v.dst }

// FragmentData returns the fragment header triple, or Ok=false if the
// datagram carries no fragmentation information.
func (v *View) FragmentData() FragmentData { return v.frag }

// Header returns the captured header bytes (offset-0 fragment only; callers
// decide what to do with it for non-offset-0 fragments).
func (v *View) Header() []byte { return v.header }

// Body returns the fragment's payload bytes, i.e. everything after the header.
func (v *View) Body() []byte { return v.body }

// Raw returns the full original byte slice this view was parsed from.
func (v *View) Raw() []byte { return v.raw }

// Parse decodes data as an IPv4 or IPv6 datagram, far enough to extract the
// fragment triple and header/body split. It does not validate transport
// headers or walk the full IPv6 extension header chain beyond the fragment
// header, per the "not a wire parser for arbitrary IP options" non-goal.
func Parse(data []byte) (*View, error) {
	if len(data) < 1 {
		return nil, core.ErrPacketTooShort
	}
	switch data[0] >> 4 {
	case 4:
		return parseV4(data)
	case 6:
		return parseV6(data)
	default:
		return nil, core.ErrUnsupportedVersion
	}
}

func parseV4(data []byte) (*View, error) {
	ip4 := &layers.IPv4{}
	if err := ip4.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, core.ErrPacketTooShort
	}

	src, ok := netip.AddrFromSlice(ip4.SrcIP.To4())
	if !ok {
		return nil, core.ErrPacketTooShort
	}
	dst, ok := netip.AddrFromSlice(ip4.DstIP.To4())
	if !ok {
		return nil, core.ErrPacketTooShort
	}

	headerLen := int(ip4.IHL) * 4
	if headerLen < 20 || len(data) < headerLen {
		return nil, core.ErrPacketTooShort
	}

	more := ip4.Flags&layers.IPv4MoreFragments != 0
	frag := FragmentData{
		ID:     uint32(ip4.Id),
		Offset: ip4.FragOffset,
		More:   more,
		// A non-fragmented datagram carries offset=0, more=false, and the
		// caller (reassembly) treats that the same as "no fragment header"
		// (NotNeeded); we still report Ok=true and let the cache apply the
		// offset==0&&!more rule, matching IPv4's wire format which has no
		// separate "is this a fragment at all" bit distinct from those two.
		Ok: true,
	}

	return &View{
		version: 4,
		src:     src,
		dst:     dst,
		frag:    frag,
		header:  append([]byte(nil), data[:headerLen]...),
		body:    data[headerLen:],
		raw:     data,
	}, nil
}

func parseV6(data []byte) (*View, error) {
	packet := gopacket.NewPacket(data, layers.LayerTypeIPv6, gopacket.NoCopy)
	ip6Layer := packet.Layer(layers.LayerTypeIPv6)
	if ip6Layer == nil {
		return nil, core.ErrPacketTooShort
	}
	ip6, ok := ip6Layer.(*layers.IPv6)
	if !ok {
		return nil, core.ErrPacketTooShort
	}

	src, ok := netip.AddrFromSlice(ip6.SrcIP.To16())
	if !ok {
		return nil, core.ErrPacketTooShort
	}
	dst, ok := netip.AddrFromSlice(ip6.DstIP.To16())
	if !ok {
		return nil, core.ErrPacketTooShort
	}

	frag := FragmentData{Ok: false}
	headerEnd := 40
	if fragLayer := packet.Layer(layers.LayerTypeIPv6Fragment); fragLayer != nil {
		if f, ok := fragLayer.(*layers.IPv6Fragment); ok {
			frag = FragmentData{
				ID:     f.Identification,
				Offset: f.FragmentOffset,
				More:   f.MoreFragments,
				Ok:     true,
			}
			// headerEnd advances past the base header plus the 8-byte
			// fragment extension header so Body() excludes it.
			headerEnd = 40 + 8
		}
	}
	if len(data) < headerEnd {
		return nil, core.ErrPacketTooShort
	}

	return &View{
		version: 6,
		src:     src,
		dst:     dst,
		frag:    frag,
		header:  append([]byte(nil), data[:headerEnd]...),
		body:    data[headerEnd:],
		raw:     data,
	}, nil
}

// FixupIPv4Header rewrites an assembled IPv4 header in place within buf
// (buf[0:headerLen] must be the captured offset-0 header): it sets the
// total-length field to byteCount, zeroes the flags/fragment-offset bytes,
// and recomputes the header checksum. IPv6 has no equivalent step (reserved
// for future work, per the core's explicit non-goal on IPv6 header fixups).
func FixupIPv4Header(buf []byte, headerLen, byteCount int) error {
	if byteCount > 65535 {
		return core.ErrPacketParsing
	}
	if len(buf) < headerLen || headerLen < 20 {
		return core.ErrPacketTooShort
	}

	binary.BigEndian.PutUint16(buf[2:4], uint16(byteCount))
	buf[4], buf[5], buf[6], buf[7] = 0, 0, 0, 0

	binary.BigEndian.PutUint16(buf[10:12], 0)
	checksum := ipv4ChecksumCombine(buf[:10], buf[12:headerLen])
	binary.BigEndian.PutUint16(buf[10:12], checksum)
	return nil
}

// ipv4ChecksumCombine computes the standard one's-complement Internet
// checksum over the concatenation of the given byte slices.
func ipv4ChecksumCombine(parts ...[]byte) uint16 {
	var sum uint32
	for _, b := range parts {
		i := 0
		for ; i+1 < len(b); i += 2 {
			sum += uint32(binary.BigEndian.Uint16(b[i : i+2]))
		}
		if i < len(b) {
			sum += uint32(b[i]) << 8
		}
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}
