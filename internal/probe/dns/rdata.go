package dns

import (
	"encoding/binary"
	"fmt"
	"net"
)

// decodeRdata renders an RR's rdata according to its type, per §4.3.5.
// On any type-specific validation failure it returns the raw bytes and
// parsed=false; callers never treat that as a parse error for the rest of
// the message — only malformed framing (bad length, truncation) does.
func decodeRdata(rtype uint16, rdata []byte, payload []byte, rdataOffset int) (text string, parsed bool) {
	switch rtype {
	case uint16(TypeNS), uint16(TypeCNAME):
		name, _, ok := DecodeName(payload, rdataOffset)
		if !ok {
			return "", false
		}
		return name, true

	case uint16(TypeMX):
		if len(rdata) <= 4 {
			return "", false
		}
		pref := binary.BigEndian.Uint16(rdata[0:2])
		name, _, ok := DecodeName(payload, rdataOffset+2)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%d %s", pref, name), true

	case uint16(TypeTXT):
		if len(rdata) == 0 {
			return "", false
		}
		txtLen := int(rdata[0])
		if len(rdata)-1 != txtLen {
			return "", false
		}
		return string(rdata[1:]), true

	case uint16(TypeA):
		if len(rdata) != 4 {
			return "", false
		}
		return net.IP(rdata).String(), true

	case uint16(TypeAAAA):
		if len(rdata) != 16 {
			return "", false
		}
		return net.IP(rdata).String(), true

	default:
		return "", false
	}
}
