// Package udp6 implements the IPv6 UDP probe module: a fixed or
// templated payload sent over UDP/IPv6, classified on response as a UDP
// reply, an ICMPv6 unreachable, or anything else.
package udp6

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// MaxUDPPayloadLen bounds a rendered payload to 1472 bytes (a 1500-byte
// MTU minus 20-byte IPv4 and 8-byte UDP headers); behind the 40-byte IPv6
// header a payload this large does not fit a 1500-byte MTU unfragmented.
const MaxUDPPayloadLen = 1472

const defaultPayload = "GET / HTTP/1.1\r\n\r\n"

// Spec is the parsed --probe-args result: either a fixed Payload or a
// Template to render per-probe. PrintFields is set when args was the bare
// literal "template-fields", which lists the catalog and exits rather
// than scanning.
type Spec struct {
	Payload     []byte
	Template    *Template
	PrintFields bool
}

// ParseArgs recognizes "text:<string>", "hex:<hexbytes>", "file:<path>"
// (raw bytes), "template:<path>" (field-substituted at send time), and
// the literal "template-fields". An empty args string falls back to a
// fixed default payload, matching the module's fatal-on-ambiguity
// posture being reserved for genuinely malformed specs.
func ParseArgs(raw string) (Spec, error) {
	if raw == "" {
		return Spec{Payload: []byte(defaultPayload)}, nil
	}
	if raw == "template-fields" {
		return Spec{PrintFields: true}, nil
	}

	kind, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return Spec{}, fmt.Errorf("udp6: %s", usageError)
	}

	switch kind {
	case "text":
		return Spec{Payload: []byte(rest)}, nil

	case "hex":
		b, err := hex.DecodeString(rest)
		if err != nil {
			return Spec{}, fmt.Errorf("udp6: non-hex character in payload: %w", err)
		}
		return Spec{Payload: b}, nil

	case "file":
		b, err := os.ReadFile(rest)
		if err != nil {
			return Spec{}, fmt.Errorf("udp6: could not open UDP data file %q: %w", rest, err)
		}
		return Spec{Payload: b}, nil

	case "template":
		b, err := os.ReadFile(rest)
		if err != nil {
			return Spec{}, fmt.Errorf("udp6: could not open template file %q: %w", rest, err)
		}
		tmpl, err := ParseTemplate(b)
		if err != nil {
			return Spec{}, err
		}
		return Spec{Template: tmpl}, nil

	default:
		return Spec{}, fmt.Errorf("udp6: %s", usageError)
	}
}

const usageError = "unknown UDP probe specification (expected file:/path, text:STRING, hex:01020304, template:/path, or template-fields)"
