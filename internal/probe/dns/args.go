// Package dns implements the DNS/UDP probe module: it builds one or more
// prebuilt query payloads from --probe-args, validates returning UDP
// datagrams against them, and parses the four DNS sections out of an
// accepted response.
package dns

import (
	"fmt"
	"strings"

	"zprobe/internal/pkg/logger"
)

// QType is a DNS resource record type, restricted to the subset the
// argument grammar recognizes.
type QType uint16

const (
	TypeA     QType = 1
	TypeNS    QType = 2
	TypeCNAME QType = 5
	TypeSOA   QType = 6
	TypePTR   QType = 12
	TypeMX    QType = 15
	TypeTXT   QType = 16
	TypeAAAA  QType = 28
	TypeRRSIG QType = 46
	TypeALL   QType = 255

	ClassIN uint16 = 1
)

var qtypeNames = map[string]QType{
	"A":     TypeA,
	"NS":    TypeNS,
	"CNAME": TypeCNAME,
	"SOA":   TypeSOA,
	"PTR":   TypePTR,
	"MX":    TypeMX,
	"TXT":   TypeTXT,
	"AAAA":  TypeAAAA,
	"RRSIG": TypeRRSIG,
	"ALL":   TypeALL,
}

// Question is one parsed --probe-args entry.
type Question struct {
	Type      QType
	Domain    string
	Recursive bool // recursion-desired bit; default true, :nr disables it
}

// defaultArgs is the module's behavior with an empty --probe-args string.
const defaultArgs = "A,www.google.com"

// ParseArgs parses the semicolon-separated question list described by the
// argument grammar: QTYPE[:nr],DOMAIN per question, leading/trailing ';'
// stripped with a warning. An empty domain or unrecognized QTYPE is a fatal
// error — the run cannot proceed with a probe module it can't initialize.
func ParseArgs(raw string) ([]Question, error) {
	trimmed := strings.Trim(raw, ";")
	if trimmed != raw {
		logger.Warnf("dns: probe-args: ignoring leading/trailing ';' in %q", raw)
	}
	raw = trimmed
	if raw == "" {
		raw = defaultArgs
	}

	parts := strings.Split(raw, ";")
	questions := make([]Question, 0, len(parts))
	for _, part := range parts {
		q, err := parseQuestion(part)
		if err != nil {
			return nil, fmt.Errorf("dns: probe-args: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func parseQuestion(spec string) (Question, error) {
	comma := strings.IndexByte(spec, ',')
	if comma < 0 {
		return Question{}, fmt.Errorf("question %q missing ',DOMAIN'", spec)
	}
	typeSpec, domain := spec[:comma], spec[comma+1:]
	if domain == "" {
		return Question{}, fmt.Errorf("question %q has an empty domain", spec)
	}

	recursive := true
	typeName := typeSpec
	if colon := strings.IndexByte(typeSpec, ':'); colon >= 0 {
		var flag string
		typeName, flag = typeSpec[:colon], typeSpec[colon+1:]
		if flag != "nr" {
			return Question{}, fmt.Errorf("question %q has unrecognized modifier %q", spec, flag)
		}
		recursive = false
	}

	qtype, ok := qtypeNames[strings.ToUpper(typeName)]
	if !ok {
		return Question{}, fmt.Errorf("question %q has unknown QTYPE %q", spec, typeName)
	}

	return Question{Type: qtype, Domain: domain, Recursive: recursive}, nil
}
