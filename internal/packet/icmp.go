package packet

const (
	ICMPHeaderLen = 8

	ICMPDestUnreach  uint8 = 3
	ICMPSourceQuench uint8 = 4
	ICMPRedirect     uint8 = 5
	ICMPTimeExceeded uint8 = 11
)

// unreachCodeStrings maps ICMP Destination-Unreachable codes 0..15 to the
// fixed description strings spec'd for output, indexed directly by code.
var unreachCodeStrings = [...]string{
	0:  "network unreachable",
	1:  "host unreachable",
	2:  "protocol unreachable",
	3:  "port unreachable",
	4:  "fragmentation needed and DF set",
	5:  "source route failed",
	6:  "destination network unknown",
	7:  "destination host unknown",
	8:  "source host isolated",
	9:  "destination network administratively prohibited",
	10: "destination host administratively prohibited",
	11: "network unreachable for TOS",
	12: "host unreachable for TOS",
	13: "communication administratively prohibited",
	14: "host precedence violation",
	15: "precedence cutoff",
}

// UnreachCodeString renders an ICMP Destination-Unreachable code to its
// fixed description string, or "unknown" for any code above 15.
func UnreachCodeString(code uint8) string {
	if int(code) < len(unreachCodeStrings) {
		return unreachCodeStrings[code]
	}
	return "unknown"
}

// IsAcceptableICMPError reports whether t is one of the four ICMP error
// types probe modules accept as a response to one of our probes.
func IsAcceptableICMPError(t uint8) bool {
	switch t {
	case ICMPDestUnreach, ICMPSourceQuench, ICMPRedirect, ICMPTimeExceeded:
		return true
	default:
		return false
	}
}

// InnerIPv4Header returns the inner IPv4 header and the bytes following it
// quoted inside an ICMPv4 error payload. icmpPayload is everything after
// the outer IP header; it must be at least ICMPHeaderLen+IPv4HeaderLen
// bytes. minL4Len bounds how much of the inner L4 header must also be
// present for the caller's validator to inspect it.
func InnerIPv4Header(icmpPayload []byte, minL4Len int) (innerIPHeader, innerRest []byte, ok bool) {
	if len(icmpPayload) < ICMPHeaderLen+IPv4HeaderLen {
		return nil, nil, false
	}
	inner := icmpPayload[ICMPHeaderLen:]
	ihl := int(inner[0]&0x0F) * 4
	if ihl < IPv4HeaderLen || len(inner) < ihl+minL4Len {
		return nil, nil, false
	}
	return inner[:ihl], inner[ihl:], true
}

// ICMPv6DestUnreach is the ICMPv6 type for Destination Unreachable (RFC
// 4443 §3.1). Unlike ICMPv4, ICMPv6 carries no Source-Quench equivalent
// and Redirect/Time-Exceeded use disjoint type numbers; probe modules
// that bother to validate ICMPv6 errors only need this one.
const ICMPv6DestUnreach uint8 = 1

// InnerIPv6Header returns the inner (quoted) IPv6 header and the bytes
// following it from inside an ICMPv6 error payload. icmpPayload is
// everything after the outer IPv6 header; the ICMPv6 error header is a
// fixed 8 bytes (type, code, checksum, 4-byte unused/pointer) followed
// directly by as much of the original packet as fit under the minimum
// IPv6 MTU.
func InnerIPv6Header(icmpPayload []byte, minL4Len int) (innerIPHeader, innerRest []byte, ok bool) {
	if len(icmpPayload) < ICMPHeaderLen+IPv6HeaderLen+minL4Len {
		return nil, nil, false
	}
	inner := icmpPayload[ICMPHeaderLen:]
	return inner[:IPv6HeaderLen], inner[IPv6HeaderLen:], true
}
