package core

import "time"

// RawPacket is a single datagram as captured from the wire or an offline
// capture file, before any fragment or packet-view decoding.
type RawPacket struct {
	Data           []byte
	Timestamp      time.Time
	CaptureLen     uint32
	OrigLen        uint32
	InterfaceIndex int
}
