package udp6

import (
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"
)

// fieldType enumerates the payload template substitutions, recovered from
// the original source's udp_payload_field_type_def_t table.
type fieldType int

const (
	fieldData fieldType = iota
	fieldSAddrN
	fieldSAddrA
	fieldDAddrN
	fieldDAddrA
	fieldSPortN
	fieldSPortA
	fieldDPortN
	fieldDPortA
	fieldRandByte
	fieldRandDigit
	fieldRandAlpha
	fieldRandAlphaNum
)

var fieldCatalog = map[string]fieldType{
	"SADDR_N":        fieldSAddrN,
	"SADDR":          fieldSAddrA,
	"DADDR_N":        fieldDAddrN,
	"DADDR":          fieldDAddrA,
	"SPORT_N":        fieldSPortN,
	"SPORT":          fieldSPortA,
	"DPORT_N":        fieldDPortN,
	"DPORT":          fieldDPortA,
	"RAND_BYTE":      fieldRandByte,
	"RAND_DIGIT":     fieldRandDigit,
	"RAND_ALPHA":     fieldRandAlpha,
	"RAND_ALPHANUM":  fieldRandAlphaNum,
}

// FieldCatalog returns the name/description pairs for "template-fields".
func FieldCatalog() [][2]string {
	return [][2]string{
		{"SADDR_N", "Source IP address in network byte order"},
		{"SADDR", "Source IP address in string format"},
		{"DADDR_N", "Destination IP address in network byte order"},
		{"DADDR", "Destination IP address in string format"},
		{"SPORT_N", "UDP source port in network byte order"},
		{"SPORT", "UDP source port in ASCII format"},
		{"DPORT_N", "UDP destination port in network byte order"},
		{"DPORT", "UDP destination port in ASCII format"},
		{"RAND_BYTE", "Random bytes from 0-255"},
		{"RAND_DIGIT", "Random digits from 0-9"},
		{"RAND_ALPHA", "Random mixed-case letters (a-z, A-Z)"},
		{"RAND_ALPHANUM", "Random mixed-case letters and digits"},
	}
}

const (
	charsetDigit    = "0123456789"
	charsetAlpha    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	charsetAlphaNum = charsetDigit + charsetAlpha
)

type templateField struct {
	ftype  fieldType
	length int
	data   []byte
}

// Template is a parsed payload template: an ordered list of literal data
// fields and substitution fields.
type Template struct {
	fields []templateField
}

// ParseTemplate parses the "${FIELD=length}" substitution syntax out of a
// raw template buffer, literal bytes outside "${...}" becoming fixed data
// fields. Unrecognized field names are left as literal text rather than
// rejected, matching the original's "no match, treat it as a data field"
// fallback.
func ParseTemplate(buf []byte) (*Template, error) {
	t := &Template{}
	s := string(buf)
	pos := 0

	for pos < len(s) {
		dollar := strings.IndexByte(s[pos:], '$')
		if dollar < 0 || pos+dollar+1 >= len(s) || s[pos+dollar+1] != '{' {
			t.addData([]byte(s[pos:]))
			break
		}
		dollar += pos

		if dollar > pos {
			t.addData([]byte(s[pos:dollar]))
		}

		end := strings.IndexByte(s[dollar+2:], '}')
		if end < 0 {
			// Unterminated "${": treat the rest as literal text.
			t.addData([]byte(s[dollar:]))
			break
		}
		end += dollar + 2

		spec := s[dollar+2 : end]
		if ftype, length, ok := lookupField(spec); ok {
			t.fields = append(t.fields, templateField{ftype: ftype, length: length})
		} else {
			t.addData([]byte(s[dollar : end+1]))
		}
		pos = end + 1
	}

	return t, nil
}

func (t *Template) addData(b []byte) {
	if len(b) == 0 {
		return
	}
	t.fields = append(t.fields, templateField{ftype: fieldData, data: append([]byte(nil), b...)})
}

func lookupField(spec string) (fieldType, int, bool) {
	name, lenStr, hasLen := strings.Cut(spec, "=")
	ftype, ok := fieldCatalog[name]
	if !ok {
		return 0, 0, false
	}
	length := 0
	if hasLen {
		length, _ = strconv.Atoi(lenStr)
	}
	return ftype, length, true
}

// Render expands the template into dst, substituting each field given the
// probe's addressing. n is the number of bytes written; err is non-nil
// only if dst is too small to hold the full expansion (the original's
// "template output was truncated" fatal condition).
func (t *Template) Render(dst []byte, srcIP, dstIP net.IP, srcPort, dstPort uint16, rng *rand.Rand) (int, error) {
	p := 0
	for _, f := range t.fields {
		var out []byte
		switch f.ftype {
		case fieldData:
			out = f.data
		case fieldSAddrN:
			out = srcIP.To16()
		case fieldDAddrN:
			out = dstIP.To16()
		case fieldSAddrA:
			out = []byte(srcIP.String())
		case fieldDAddrA:
			out = []byte(dstIP.String())
		case fieldSPortN:
			out = []byte{byte(srcPort >> 8), byte(srcPort)}
		case fieldDPortN:
			out = []byte{byte(dstPort >> 8), byte(dstPort)}
		case fieldSPortA:
			out = []byte(strconv.Itoa(int(srcPort)))
		case fieldDPortA:
			out = []byte(strconv.Itoa(int(dstPort)))
		case fieldRandByte:
			out = randomBytes(rng, f.length, "")
		case fieldRandDigit:
			out = randomBytes(rng, f.length, charsetDigit)
		case fieldRandAlpha:
			out = randomBytes(rng, f.length, charsetAlpha)
		case fieldRandAlphaNum:
			out = randomBytes(rng, f.length, charsetAlphaNum)
		}
		if p+len(out) > len(dst) {
			return 0, fmt.Errorf("udp6: template output truncated at %d bytes", len(dst))
		}
		p += copy(dst[p:], out)
	}
	return p, nil
}

// randomBytes fills n bytes drawn from charset, or from the full 0-255
// range when charset is empty.
func randomBytes(rng *rand.Rand, n int, charset string) []byte {
	out := make([]byte, n)
	if charset == "" {
		rng.Read(out)
		return out
	}
	for i := range out {
		out[i] = charset[rng.Intn(len(charset))]
	}
	return out
}
