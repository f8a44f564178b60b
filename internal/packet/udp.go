package packet

import "encoding/binary"

const UDPHeaderLen = 8

// MakeUDPHeader lays down an 8-byte UDP header with the checksum left
// zero. Zero is a legal "no checksum" value over IPv4; callers targeting
// IPv6 must follow up with IPv6PseudoChecksum and WriteUDPChecksum.
func MakeUDPHeader(buf []byte, srcPort, dstPort uint16, length uint16) {
	binary.BigEndian.PutUint16(buf[0:2], srcPort)
	binary.BigEndian.PutUint16(buf[2:4], dstPort)
	binary.BigEndian.PutUint16(buf[4:6], length)
	binary.BigEndian.PutUint16(buf[6:8], 0)
}

// WriteUDPChecksum patches the checksum field of an already-built UDP
// header in place. A computed checksum of zero is transmitted as 0xFFFF,
// since zero is reserved to mean "no checksum" on the wire.
func WriteUDPChecksum(udpHeader []byte, checksum uint16) {
	if checksum == 0 {
		checksum = 0xFFFF
	}
	binary.BigEndian.PutUint16(udpHeader[6:8], checksum)
}
