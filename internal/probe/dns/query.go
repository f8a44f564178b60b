package dns

import (
	"encoding/binary"
	"fmt"
)

const (
	headerLen    = 12
	maxQueryLen  = 512
	flagRD       = 0x0100
	flagQR       = 0x8000
)

// PrebuiltQuery is one fully-formed query payload, built once at
// GlobalInit and reused (with only its header ID patched) for every probe
// that lands on this question.
type PrebuiltQuery struct {
	Question Question
	Payload  []byte // header || padPrefix || qname || qtype || qclass, ID still zero
	PadLen   int    // bytes of padPrefix inserted before qname; 0 when padding is off
	Tail     []byte // qname || qtype || qclass, the portion validated byte-for-byte
}

// BuildQuery constructs the prebuilt payload for one parsed question:
// a zeroed 12-byte header with QDCOUNT=1 and RD set per q.Recursive,
// followed by the encoded qname and the (qtype, qclass=IN) tail. The
// header ID is left zero; callers patch it in per-probe. padPrefix, when
// non-nil, is inserted immediately before the qname (the "IP-padding"
// mode, spec-recovered from the original source).
func BuildQuery(q Question, padPrefix []byte) (PrebuiltQuery, error) {
	qname, _ := EncodeName(q.Domain)

	header := make([]byte, headerLen)
	var flags uint16
	if q.Recursive {
		flags |= flagRD
	}
	binary.BigEndian.PutUint16(header[2:4], flags)
	binary.BigEndian.PutUint16(header[4:6], 1) // QDCOUNT

	payload := make([]byte, 0, headerLen+len(padPrefix)+len(qname)+4)
	payload = append(payload, header...)
	payload = append(payload, padPrefix...)
	payload = append(payload, qname...)
	tail := make([]byte, 4)
	binary.BigEndian.PutUint16(tail[0:2], uint16(q.Type))
	binary.BigEndian.PutUint16(tail[2:4], ClassIN)
	payload = append(payload, tail...)

	if len(payload) > maxQueryLen {
		return PrebuiltQuery{}, fmt.Errorf("dns: prebuilt query for %q is %d bytes, exceeds %d", q.Domain, len(payload), maxQueryLen)
	}

	tailStart := headerLen + len(padPrefix)
	return PrebuiltQuery{
		Question: q,
		Payload:  payload,
		PadLen:   len(padPrefix),
		Tail:     append([]byte(nil), payload[tailStart:]...),
	}, nil
}

// WriteID patches the transaction ID into a copy of the prebuilt payload.
// The original buffer is never mutated: concurrent send threads share the
// same PrebuiltQuery.
func (p PrebuiltQuery) WriteID(dst []byte, id uint16) int {
	n := copy(dst, p.Payload)
	binary.BigEndian.PutUint16(dst[0:2], id)
	return n
}
