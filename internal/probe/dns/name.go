package dns

import (
	"fmt"
	"strings"
)

const (
	maxLabelRecursion = 10
	maxNameLength     = 512
	pointerFlag       = 0xC0 // top two bits set marks a compression back-pointer
)

// EncodeName renders domain as length-prefixed wire labels terminated by a
// zero byte: "a.b.c" becomes \x01a\x01b\x01c\x00. A leading/trailing '.' is
// tolerated and produces no empty label. Label lengths above 63 are legal
// on the wire (this is on-wire DNS, not strict hostname syntax) but are
// reported back to the caller as a warning string, never an error.
func EncodeName(domain string) (wire []byte, warning string) {
	domain = strings.Trim(domain, ".")
	var buf []byte
	var warn string
	if domain != "" {
		for _, label := range strings.Split(domain, ".") {
			if len(label) > 63 {
				warn = fmt.Sprintf("dns: label %q exceeds 63 bytes", label)
			}
			buf = append(buf, byte(len(label)))
			buf = append(buf, label...)
		}
	}
	buf = append(buf, 0x00)
	return buf, warn
}

// DecodeName implements the compression-aware name decoder (get_name).
// payload is the full UDP datagram that bounds every back-pointer target;
// offset is the cursor position within payload to start reading from. It
// returns the dotted name and the number of bytes consumed starting at
// offset — including a followed back-pointer's two bytes, or the single
// terminating zero byte, but never any bytes read after a jump.
//
// On any malformed input (truncated pointer, out-of-range offset, label
// length overrunning the remaining bytes, recursion past
// maxLabelRecursion, or a decoded name exceeding maxNameLength) it returns
// ("", 0, false): no partial name is ever produced.
func DecodeName(payload []byte, offset int) (name string, consumed int, ok bool) {
	var labels []string
	cursor := offset
	ownConsumed := -1 // bytes consumed from the *original* offset, frozen at the first jump
	nameLen := 0      // running encoded length, including each label's length byte

	for depth := 0; ; {
		if cursor < 0 || cursor >= len(payload) {
			return "", 0, false
		}
		lead := payload[cursor]

		switch {
		case lead == 0x00:
			cursor++
			if ownConsumed < 0 {
				ownConsumed = cursor - offset
			}
			return strings.Join(labels, "."), ownConsumed, true

		case lead&pointerFlag == pointerFlag:
			if cursor+1 >= len(payload) {
				return "", 0, false
			}
			target := (int(lead&^pointerFlag) << 8) | int(payload[cursor+1])
			if target >= len(payload) {
				return "", 0, false
			}
			if ownConsumed < 0 {
				ownConsumed = cursor + 2 - offset
			}
			depth++
			if depth > maxLabelRecursion {
				return "", 0, false
			}
			cursor = target

		default:
			labelLen := int(lead)
			if cursor+1+labelLen > len(payload) {
				return "", 0, false
			}
			labels = append(labels, string(payload[cursor+1:cursor+1+labelLen]))
			nameLen += labelLen + 1
			if nameLen+1 > maxNameLength {
				return "", 0, false
			}
			cursor += 1 + labelLen
		}
	}
}
