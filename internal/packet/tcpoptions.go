package packet

import "fmt"

// OSFingerprint selects one of the four byte-exact TCP SYN option stacks
// spec'd for OS mimicry. The exact layout of each must be reproducible
// byte-for-byte; none of this is negotiable against a live kernel, so it is
// hand-built rather than delegated to a generic options encoder.
type OSFingerprint int

const (
	FingerprintLinux OSFingerprint = iota
	FingerprintBSD
	FingerprintWindows
	FingerprintSmallest
)

const (
	optKindEOL       = 0
	optKindNOP       = 1
	optKindMSS       = 2
	optKindWScale    = 3
	optKindSACKPerm  = 4
	optKindTimestamp = 8
)

func mss(value uint16) []byte {
	return []byte{optKindMSS, 4, byte(value >> 8), byte(value)}
}

func sackPermitted() []byte {
	return []byte{optKindSACKPerm, 2}
}

func timestamp(tsval, tsecr uint32) []byte {
	b := make([]byte, 10)
	b[0], b[1] = optKindTimestamp, 10
	b[2], b[3], b[4], b[5] = byte(tsval>>24), byte(tsval>>16), byte(tsval>>8), byte(tsval)
	b[6], b[7], b[8], b[9] = byte(tsecr>>24), byte(tsecr>>16), byte(tsecr>>8), byte(tsecr)
	return b
}

// timestampWithNops is the BSD stack's timestamp option: two leading NOPs
// ahead of the 10-byte timestamp, 12 bytes total.
func timestampWithNops(tsval, tsecr uint32) []byte {
	return concat(nop(), nop(), timestamp(tsval, tsecr))
}

// sackPermittedPlusEOL is the BSD stack's closing option: SACK-permitted
// followed by a 2-byte EOL pad, 4 bytes total.
func sackPermittedPlusEOL() []byte {
	return concat(sackPermitted(), eol(), eol())
}

// nopPlusSackPermitted is the Windows stack's closing option: two leading
// NOPs ahead of SACK-permitted, 4 bytes total.
func nopPlusSackPermitted() []byte {
	return concat(nop(), nop(), sackPermitted())
}

func windowScale(shift uint8) []byte {
	return []byte{optKindWScale, 3, shift}
}

func nop() []byte { return []byte{optKindNOP} }
func eol() []byte { return []byte{optKindEOL} }

// SetTCPOptions appends the option bytes for the given fingerprint after a
// base 20-byte TCP header already written at buf[tcpOffset:tcpOffset+20],
// pads to a 4-byte boundary, and fixes up the data-offset nibble. It
// returns the total TCP header length (base + options, padded).
//
// buf must have room for tcpOffset+60 bytes (the maximum possible TCP
// header); the caller truncates afterward using the returned length.
func SetTCPOptions(buf []byte, tcpOffset int, fp OSFingerprint, mssValue uint16, tsval, tsecr uint32) (int, error) {
	var opts []byte
	var pad byte

	switch fp {
	case FingerprintLinux:
		// MSS, SACK-permitted + Timestamp, NOP + WScale(7)
		opts = concat(mss(mssValue), sackPermitted(), timestamp(tsval, tsecr), nop(), windowScale(7))
		pad = optKindNOP
	case FingerprintBSD:
		// MSS, NOP + WScale(6), NOP+NOP + Timestamp, SACK-permitted + EOL+EOL
		opts = concat(mss(mssValue), nop(), windowScale(6), timestampWithNops(tsval, tsecr), sackPermittedPlusEOL())
		pad = optKindEOL
	case FingerprintWindows:
		// MSS, NOP + WScale(8), NOP+NOP + SACK-permitted
		opts = concat(mss(mssValue), nop(), windowScale(8), nopPlusSackPermitted())
		pad = optKindNOP
	case FingerprintSmallest:
		opts = mss(mssValue)
		pad = optKindNOP
	default:
		return 0, fmt.Errorf("packet: unknown tcp option stack %d", fp)
	}

	for len(opts)%4 != 0 {
		opts = append(opts, pad)
	}

	totalLen := TCPHeaderLen + len(opts)
	if totalLen > 60 {
		return 0, fmt.Errorf("packet: tcp header with options too large: %d bytes", totalLen)
	}

	copy(buf[tcpOffset+TCPHeaderLen:tcpOffset+totalLen], opts)
	SetDataOffset(buf[tcpOffset:], totalLen)
	return totalLen, nil
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
