package dns

import "bytes"

// ValidateResponse implements §4.3.4: a response is valid for q iff the
// UDP payload is at least as long as the prebuilt query, its transaction
// ID matches wantID (the low 16 bits of validation word 2), and the
// qname/qtype/qclass region matches byte-for-byte — skipping q.PadLen
// bytes right after the header when IP-padding mode inserted a per-probe
// prefix there, since that prefix varies per probe and is never itself
// checked.
func ValidateResponse(udpPayload []byte, q PrebuiltQuery, wantID uint16) bool {
	if len(udpPayload) < len(q.Payload) {
		return false
	}
	if uint16(udpPayload[0])<<8|uint16(udpPayload[1]) != wantID {
		return false
	}
	tailStart := headerLen + q.PadLen
	if tailStart+len(q.Tail) > len(udpPayload) {
		return false
	}
	return bytes.Equal(udpPayload[tailStart:tailStart+len(q.Tail)], q.Tail)
}
