package packet

import (
	"encoding/binary"
	"fmt"
)

const IPv6HeaderLen = 40

// MakeIPv6Header lays down a 40-byte IPv6 header: version 6, traffic
// class/flow label zero, the given next-header and hop-limit, and the
// given payload length (excludes this header itself).
func MakeIPv6Header(buf []byte, nextHeader uint8, payloadLen uint16, hopLimit uint8, src, dst [16]byte) {
	binary.BigEndian.PutUint32(buf[0:4], 6<<28) // version=6, traffic class/flow label=0
	binary.BigEndian.PutUint16(buf[4:6], payloadLen)
	buf[6] = nextHeader
	buf[7] = hopLimit
	copy(buf[8:24], src[:])
	copy(buf[24:40], dst[:])
}

// FormatIPv6 renders all eight groups in colon-hex form. AAAA record
// output uses net.IP.String, not this function.
func FormatIPv6(addr [16]byte) string {
	groups := make([]string, 8)
	for i := 0; i < 8; i++ {
		groups[i] = fmt.Sprintf("%x", binary.BigEndian.Uint16(addr[i*2:i*2+2]))
	}
	out := groups[0]
	for i := 1; i < 8; i++ {
		out += ":" + groups[i]
	}
	return out
}
