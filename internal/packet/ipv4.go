package packet

import "encoding/binary"

const (
	IPv4HeaderLen = 20
	MaxTTL        = 255
)

// IP protocol numbers for the L4 headers this package builds.
const (
	ProtoICMP uint8 = 1
	ProtoTCP  uint8 = 6
	ProtoUDP  uint8 = 17
)

// MakeIPv4Header lays down a 20-byte, no-options IPv4 header. The checksum
// field is left zero; callers fill it with IPv4Checksum once the header is
// final (id, in particular, is set later from the validation tag).
func MakeIPv4Header(buf []byte, protocol uint8, totalLen uint16, ttl uint8, id uint16, src, dst [4]byte) {
	buf[0] = (4 << 4) | 5 // version=4, IHL=5 (20 bytes, no options)
	buf[1] = 0            // TOS
	binary.BigEndian.PutUint16(buf[2:4], totalLen)
	binary.BigEndian.PutUint16(buf[4:6], id)
	binary.BigEndian.PutUint16(buf[6:8], 0) // flags=0, fragoff=0
	buf[8] = ttl
	buf[9] = protocol
	binary.BigEndian.PutUint16(buf[10:12], 0) // checksum, filled by caller
	copy(buf[12:16], src[:])
	copy(buf[16:20], dst[:])
}

// FormatIPv4 renders a dotted-quad string without allocating through
// net.IP's generic formatter. The DNS module's A-record rendering and
// PrintPacket use net.IP.String, not this function.
func FormatIPv4(addr [4]byte) string {
	return ipv4String(addr)
}

func ipv4String(a [4]byte) string {
	const digits = "0123456789"
	buf := make([]byte, 0, 15)
	for i, b := range a {
		if i > 0 {
			buf = append(buf, '.')
		}
		if b >= 100 {
			buf = append(buf, digits[b/100], digits[(b/10)%10], digits[b%10])
		} else if b >= 10 {
			buf = append(buf, digits[b/10], digits[b%10])
		} else {
			buf = append(buf, digits[b])
		}
	}
	return string(buf)
}
