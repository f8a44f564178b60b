package packet

import (
	"encoding/binary"
	"math/rand"
)

const (
	TCPHeaderLen = 20 // without options

	TCPFlagFIN uint16 = 0x01
	TCPFlagSYN uint16 = 0x02
	TCPFlagRST uint16 = 0x04
	TCPFlagPSH uint16 = 0x08
	TCPFlagACK uint16 = 0x10
	TCPFlagURG uint16 = 0x20
	TCPFlagECE uint16 = 0x40
	TCPFlagCWR uint16 = 0x80
	TCPFlagNS  uint16 = 0x100
)

// MakeTCPHeader lays down a 20-byte TCP header (data offset fixed at 5,
// i.e. no options yet), a random sequence number drawn from rng, ack=0,
// window=65535. Callers that attach options must grow the buffer and call
// SetTCPOptions, which rewrites the data-offset nibble.
func MakeTCPHeader(buf []byte, rng *rand.Rand, srcPort, dstPort uint16, flags uint16) {
	binary.BigEndian.PutUint16(buf[0:2], srcPort)
	binary.BigEndian.PutUint16(buf[2:4], dstPort)
	binary.BigEndian.PutUint32(buf[4:8], rng.Uint32())
	binary.BigEndian.PutUint32(buf[8:12], 0)
	buf[12] = 5 << 4 // data offset = 5 words, reserved/NS = 0
	buf[13] = byte(flags & 0xFF)
	if flags&TCPFlagNS != 0 {
		buf[12] |= 0x01
	}
	binary.BigEndian.PutUint16(buf[14:16], 65535) // window
	binary.BigEndian.PutUint16(buf[16:18], 0)      // checksum, filled by caller
	binary.BigEndian.PutUint16(buf[18:20], 0)      // urgent pointer
}

// SetDataOffset rewrites the data-offset nibble to reflect totalHeaderLen
// (including options), which must be a multiple of 4 and at most 60.
func SetDataOffset(buf []byte, totalHeaderLen int) {
	words := totalHeaderLen / 4
	buf[12] = (buf[12] & 0x0F) | byte(words<<4)
}
