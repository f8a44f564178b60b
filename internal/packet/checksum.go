// Package packet lays out the Ethernet/IP/IPv6/UDP/TCP/ICMP header bytes the
// send pipeline needs, and computes the one's-complement checksums that
// protect them. Every function here is a pure byte-buffer transform: nothing
// in this package touches a socket.
package packet

import "encoding/binary"

// onesComplementSum folds data as a stream of big-endian 16-bit words,
// carrying the high bits back in until they disappear, and returns the
// one's-complement of the running sum. An odd trailing byte is padded with
// a zero low byte, matching the C in_checksum behavior this is grounded on.
func onesComplementSum(data []byte) uint16 {
	var sum uint32
	n := len(data)
	i := 0
	for n > 1 {
		sum += uint32(binary.BigEndian.Uint16(data[i : i+2]))
		i += 2
		n -= 2
	}
	if n == 1 {
		sum += uint32(data[i]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}

// InChecksum exposes onesComplementSum for callers that need the raw
// checksum primitive directly (e.g. ICMP, which has no pseudo-header).
func InChecksum(data []byte) uint16 {
	return onesComplementSum(data)
}

// IPv4Checksum computes the checksum over a 20-byte (no-options) IPv4
// header. The checksum field at offset 10 must be zero when called.
func IPv4Checksum(header []byte) uint16 {
	return onesComplementSum(header)
}

// pseudoHeaderSum accumulates an IPv4 or IPv6 pseudo-header plus an
// already-built transport segment and returns the finished one's-complement
// checksum over both.
func pseudoHeaderSum(pseudo, segment []byte) uint16 {
	combined := make([]byte, 0, len(pseudo)+len(segment))
	combined = append(combined, pseudo...)
	combined = append(combined, segment...)
	return onesComplementSum(combined)
}

// IPv4PseudoChecksum computes a UDP-or-TCP-over-IPv4 checksum, used for TCP
// (always required) and for UDP when the caller elects to checksum rather
// than zero the field. The checksum field inside segment must be zero.
func IPv4PseudoChecksum(src, dst [4]byte, protocol uint8, segment []byte) uint16 {
	pseudo := make([]byte, 12)
	copy(pseudo[0:4], src[:])
	copy(pseudo[4:8], dst[:])
	pseudo[8] = 0
	pseudo[9] = protocol
	binary.BigEndian.PutUint16(pseudo[10:12], uint16(len(segment)))
	return pseudoHeaderSum(pseudo, segment)
}

// IPv6PseudoChecksum computes the mandatory UDP/TCP-over-IPv6 checksum
// (ipv6_payload_checksum). The checksum field inside segment must be zero.
func IPv6PseudoChecksum(src, dst [16]byte, nextHeader uint8, segment []byte) uint16 {
	pseudo := make([]byte, 40)
	copy(pseudo[0:16], src[:])
	copy(pseudo[16:32], dst[:])
	binary.BigEndian.PutUint32(pseudo[32:36], uint32(len(segment)))
	pseudo[39] = nextHeader
	return pseudoHeaderSum(pseudo, segment)
}
