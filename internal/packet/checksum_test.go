package packet

import "testing"

func TestOnesComplementSum_KnownVector(t *testing.T) {
	// RFC 1071 example: bytes 0x00 0x01, 0xf2 0x03, 0xf4 0xf5, 0xf6 0xf7
	// expected checksum 0x220d.
	data := []byte{0x00, 0x01, 0xf2, 0x03, 0xf4, 0xf5, 0xf6, 0xf7}
	got := onesComplementSum(data)
	if got != 0x220d {
		t.Fatalf("onesComplementSum = %#04x, want 0x220d", got)
	}
}

func TestOnesComplementSum_OddByteTail(t *testing.T) {
	data := []byte{0x00, 0x01, 0xff}
	// 0x0001 + 0xff00 = 0xff01, complement = 0x00fe
	got := onesComplementSum(data)
	if got != 0x00fe {
		t.Fatalf("onesComplementSum = %#04x, want 0x00fe", got)
	}
}

func TestIPv4Checksum_VerifiesOnRealHeader(t *testing.T) {
	buf := make([]byte, IPv4HeaderLen)
	MakeIPv4Header(buf, 17, 28, 64, 0x1234, [4]byte{192, 0, 2, 1}, [4]byte{192, 0, 2, 2})
	sum := IPv4Checksum(buf)
	buf[10] = byte(sum >> 8)
	buf[11] = byte(sum)

	// A valid IPv4 header checksums to zero when the filled-in checksum
	// field is included in the sum.
	if onesComplementSum(buf) != 0 {
		t.Fatalf("checksum did not verify: sum=%#04x", onesComplementSum(buf))
	}
}

func TestIPv6PseudoChecksum_VerifiesOnRealSegment(t *testing.T) {
	src := [16]byte{0x20, 0x01, 0x0d, 0xb8}
	dst := [16]byte{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}

	segment := make([]byte, UDPHeaderLen+4)
	MakeUDPHeader(segment, 33434, 53, uint16(len(segment)))
	copy(segment[UDPHeaderLen:], []byte("ping"))

	sum := IPv6PseudoChecksum(src, dst, 17, segment)
	WriteUDPChecksum(segment, sum)

	pseudo := make([]byte, 40)
	copy(pseudo[0:16], src[:])
	copy(pseudo[16:32], dst[:])
	pseudo[35] = byte(len(segment))
	pseudo[39] = 17

	full := append(append([]byte{}, pseudo...), segment...)
	if onesComplementSum(full) != 0 {
		t.Fatalf("ipv6 pseudo checksum did not verify: sum=%#04x", onesComplementSum(full))
	}
}
