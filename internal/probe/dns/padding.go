package dns

import "net"

// PadPrefixLabelLen is the fixed wire size of the "IP-padding" label: one
// length byte plus a 15-byte content field, sized to hold the longest
// IPv4 dotted-quad ("255.255.255.255" is 15 characters) with zero
// right-padding for shorter addresses.
const PadPrefixLabelLen = 16

// reservedPadPrefix is an all-zero placeholder of PadPrefixLabelLen bytes,
// used at GlobalInit to size the prebuilt query before any per-probe
// source address is known.
func reservedPadPrefix() []byte {
	return make([]byte, PadPrefixLabelLen)
}

// EncodePadLabel renders ip as the fixed-width padding label inserted
// immediately before the qname when IP-padding mode is active: a single
// length byte (always 15) followed by ip's dotted-quad form, right-padded
// with zero bytes. Recovered from the original source, whose padding mode
// varied the qname per probe to defeat naive resolver caching; spec.md
// doesn't fix the exact byte layout, so the response validator never
// compares these bytes — it only skips them (see validate.go).
func EncodePadLabel(ip net.IP) []byte {
	label := make([]byte, PadPrefixLabelLen)
	label[0] = PadPrefixLabelLen - 1
	v4 := ip.To4()
	if v4 != nil {
		copy(label[1:], v4.String())
	}
	return label
}
