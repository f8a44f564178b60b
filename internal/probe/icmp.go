package probe

import (
	"net"

	"zprobe/internal/coreiface"
	"zprobe/internal/packet"
)

const ipv4ProtoICMP = 1
const ipv6ProtoICMPv6 = 58

// AcceptICMPv4Error classifies a received IPv4 datagram as an acceptable
// ICMP error response to one of our own probes. ipPacket is the full
// datagram starting at the outer IPv4 header. minInnerL4Len is the number
// of bytes of the quoted inner L4 header a caller's ValidatePacket needs
// to see (8 for UDP, 20 for TCP). bl gates acceptance on the quoted
// packet's original destination still being in scope for this run.
//
// On success it returns the host that sent the error, the original
// destination we had probed, the quoted L4 bytes, and the ICMP
// type/code. ok is false for anything else: wrong protocol, an ICMP type
// we don't accept, a malformed quoted header, or a destination outside
// bl.
func AcceptICMPv4Error(ipPacket []byte, bl coreiface.Blocklist, minInnerL4Len int) (responder, innerDst net.IP, innerL4 []byte, icmpType, icmpCode uint8, ok bool) {
	if len(ipPacket) < packet.IPv4HeaderLen+packet.ICMPHeaderLen {
		return nil, nil, nil, 0, 0, false
	}
	if ipPacket[9] != ipv4ProtoICMP {
		return nil, nil, nil, 0, 0, false
	}
	ihl := int(ipPacket[0]&0x0F) * 4
	if ihl < packet.IPv4HeaderLen || len(ipPacket) < ihl+packet.ICMPHeaderLen {
		return nil, nil, nil, 0, 0, false
	}

	outerSrc := net.IP(append([]byte(nil), ipPacket[12:16]...))
	icmpPayload := ipPacket[ihl:]
	icmpType, icmpCode = icmpPayload[0], icmpPayload[1]
	if !packet.IsAcceptableICMPError(icmpType) {
		return nil, nil, nil, icmpType, icmpCode, false
	}

	innerHeader, rest, okInner := packet.InnerIPv4Header(icmpPayload, minInnerL4Len)
	if !okInner {
		return nil, nil, nil, icmpType, icmpCode, false
	}
	dst := net.IP(append([]byte(nil), innerHeader[16:20]...))
	if bl != nil && !bl.IsAllowed(dst) {
		return nil, nil, nil, icmpType, icmpCode, false
	}

	return outerSrc, dst, rest, icmpType, icmpCode, true
}

// AcceptICMPv6Error is AcceptICMPv4Error's IPv6 counterpart: only
// Destination Unreachable is accepted, matching the taxonomy the udp6
// module exposes on its classification field.
func AcceptICMPv6Error(ipPacket []byte, bl coreiface.Blocklist, minInnerL4Len int) (responder, innerDst net.IP, innerL4 []byte, icmpType, icmpCode uint8, ok bool) {
	if len(ipPacket) < packet.IPv6HeaderLen+packet.ICMPHeaderLen {
		return nil, nil, nil, 0, 0, false
	}
	if ipPacket[6] != ipv6ProtoICMPv6 {
		return nil, nil, nil, 0, 0, false
	}

	outerSrc := net.IP(append([]byte(nil), ipPacket[8:24]...))
	icmpPayload := ipPacket[packet.IPv6HeaderLen:]
	icmpType, icmpCode = icmpPayload[0], icmpPayload[1]
	if icmpType != packet.ICMPv6DestUnreach {
		return nil, nil, nil, icmpType, icmpCode, false
	}

	innerHeader, rest, okInner := packet.InnerIPv6Header(icmpPayload, minInnerL4Len)
	if !okInner {
		return nil, nil, nil, icmpType, icmpCode, false
	}
	dst := net.IP(append([]byte(nil), innerHeader[24:40]...))
	if bl != nil && !bl.IsAllowed(dst) {
		return nil, nil, nil, icmpType, icmpCode, false
	}

	return outerSrc, dst, rest, icmpType, icmpCode, true
}
