package dns

import (
	"encoding/binary"
	"testing"
)

func TestParseArgs_Default(t *testing.T) {
	qs, err := ParseArgs("")
	if err != nil {
		t.Fatalf("ParseArgs(\"\"): %v", err)
	}
	if len(qs) != 1 || qs[0].Type != TypeA || qs[0].Domain != "www.google.com" || !qs[0].Recursive {
		t.Fatalf("unexpected default question: %+v", qs)
	}
}

func TestParseArgs_RecursionDisabled(t *testing.T) {
	qs, err := ParseArgs("A:nr,example.com")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if len(qs) != 1 || qs[0].Recursive {
		t.Fatalf("expected RD disabled, got %+v", qs)
	}
}

func TestParseArgs_MultiQuestion(t *testing.T) {
	qs, err := ParseArgs("A,a.test;AAAA,b.test")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if len(qs) != 2 || qs[0].Type != TypeA || qs[1].Type != TypeAAAA {
		t.Fatalf("unexpected questions: %+v", qs)
	}
}

func TestParseArgs_UnknownQType(t *testing.T) {
	if _, err := ParseArgs("BOGUS,example.com"); err == nil {
		t.Fatalf("expected error for unknown QTYPE")
	}
}

func TestParseArgs_EmptyDomain(t *testing.T) {
	if _, err := ParseArgs("A,"); err == nil {
		t.Fatalf("expected error for empty domain")
	}
}

func TestEncodeName_DefaultDomain(t *testing.T) {
	wire, warn := EncodeName("www.google.com")
	if warn != "" {
		t.Fatalf("unexpected warning: %s", warn)
	}
	want := []byte("\x03www\x06google\x03com\x00")
	if string(wire) != string(want) {
		t.Fatalf("EncodeName = % x, want % x", wire, want)
	}
}

func TestEncodeName_LongLabelWarns(t *testing.T) {
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	_, warn := EncodeName(string(long) + ".com")
	if warn == "" {
		t.Fatalf("expected a warning for a 64-byte label")
	}
}

func TestBuildQuery_DefaultIDZeroAndUnderLimit(t *testing.T) {
	pq, err := BuildQuery(Question{Type: TypeA, Domain: "www.google.com", Recursive: true}, nil)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	if len(pq.Payload) > maxQueryLen {
		t.Fatalf("payload %d bytes exceeds %d", len(pq.Payload), maxQueryLen)
	}
	if binary.BigEndian.Uint16(pq.Payload[0:2]) != 0 {
		t.Fatalf("prebuilt ID must start at zero")
	}
	flags := binary.BigEndian.Uint16(pq.Payload[2:4])
	if flags&flagRD == 0 {
		t.Fatalf("expected RD set by default")
	}
}

func TestBuildQuery_RecursionDisabledClearsFlag(t *testing.T) {
	pq, err := BuildQuery(Question{Type: TypeA, Domain: "example.com", Recursive: false}, nil)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	flags := binary.BigEndian.Uint16(pq.Payload[2:4])
	if flags&flagRD != 0 {
		t.Fatalf("expected RD clear, flags=%#04x", flags)
	}
}

func TestWriteID_PatchesOnlyTheCopy(t *testing.T) {
	pq, _ := BuildQuery(Question{Type: TypeA, Domain: "example.com", Recursive: true}, nil)
	dst := make([]byte, len(pq.Payload))
	pq.WriteID(dst, 0xBEEF)
	if binary.BigEndian.Uint16(dst[0:2]) != 0xBEEF {
		t.Fatalf("WriteID did not patch destination")
	}
	if binary.BigEndian.Uint16(pq.Payload[0:2]) != 0 {
		t.Fatalf("WriteID mutated the shared prebuilt payload")
	}
}

func TestValidateResponse_AcceptsMatchingQuery(t *testing.T) {
	pq, _ := BuildQuery(Question{Type: TypeA, Domain: "example.com", Recursive: true}, nil)
	resp := make([]byte, len(pq.Payload))
	pq.WriteID(resp, 0x1234)

	if !ValidateResponse(resp, pq, 0x1234) {
		t.Fatalf("expected matching response to validate")
	}
	if ValidateResponse(resp, pq, 0x4321) {
		t.Fatalf("wrong transaction ID must not validate")
	}
}

func TestValidateResponse_RejectsShortPayload(t *testing.T) {
	pq, _ := BuildQuery(Question{Type: TypeA, Domain: "example.com", Recursive: true}, nil)
	if ValidateResponse(pq.Payload[:len(pq.Payload)-1], pq, 0) {
		t.Fatalf("truncated payload must not validate")
	}
}

// buildARecordResponse constructs a minimal DNS response: one question plus
// one A-record answer, no compression, matching the shape spec §8's
// "DNS response parse" scenario names.
func buildARecordResponse(t *testing.T, qr bool, rcode uint8) []byte {
	t.Helper()
	var buf []byte
	header := make([]byte, 12)
	var flags uint16
	if qr {
		flags |= 0x8000
	}
	flags |= uint16(rcode) & 0x0F
	binary.BigEndian.PutUint16(header[2:4], flags)
	binary.BigEndian.PutUint16(header[4:6], 1) // QDCOUNT
	binary.BigEndian.PutUint16(header[6:8], 1) // ANCOUNT
	buf = append(buf, header...)

	qname, _ := EncodeName("example.com")
	buf = append(buf, qname...)
	buf = append(buf, 0x00, 0x01, 0x00, 0x01) // A, IN

	// Answer: name is a pointer back to the question's qname at offset 12.
	buf = append(buf, 0xC0, 0x0C)
	buf = append(buf, 0x00, 0x01) // TYPE A
	buf = append(buf, 0x00, 0x01) // CLASS IN
	buf = append(buf, 0x00, 0x00, 0x00, 0x3C) // TTL
	buf = append(buf, 0x00, 0x04) // RDLENGTH
	buf = append(buf, 93, 184, 216, 34)
	return buf
}

func TestParse_ARecordAnswer(t *testing.T) {
	payload := buildARecordResponse(t, true, 0)
	msg := Parse(payload)

	if msg.ParseErr {
		t.Fatalf("unexpected parse error, unconsumed=%d", msg.UnconsumedBytes)
	}
	if !msg.Header.QR || msg.Header.RCode != 0 {
		t.Fatalf("unexpected header: %+v", msg.Header)
	}
	if len(msg.Answers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(msg.Answers))
	}
	ans := msg.Answers[0]
	if ans.Name != "example.com" {
		t.Fatalf("answer name = %q, want example.com", ans.Name)
	}
	if !ans.RDataParsed || ans.RDataText != "93.184.216.34" {
		t.Fatalf("answer rdata = %+v", ans)
	}

	appSuccess := msg.Header.QR && msg.Header.RCode == 0
	if !appSuccess {
		t.Fatalf("expected app_success logic to hold")
	}
}

func TestDecodeName_MalformedPointerLoop(t *testing.T) {
	// A name at offset 0 that points to itself.
	payload := []byte{0xC0, 0x00}
	_, _, ok := DecodeName(payload, 0)
	if ok {
		t.Fatalf("self-referential pointer must not decode successfully")
	}
}

func TestDecodeName_SimpleRoundTrip(t *testing.T) {
	wire, _ := EncodeName("a.b.c")
	name, consumed, ok := DecodeName(wire, 0)
	if !ok {
		t.Fatalf("DecodeName failed on a well-formed name")
	}
	if name != "a.b.c" {
		t.Fatalf("DecodeName = %q, want a.b.c", name)
	}
	if consumed != len(wire) {
		t.Fatalf("consumed = %d, want %d", consumed, len(wire))
	}
}

func TestDecodeName_FollowsPointer(t *testing.T) {
	payload := make([]byte, 0)
	base, _ := EncodeName("example.com") // at offset 0
	payload = append(payload, base...)
	pointerPos := len(payload)
	payload = append(payload, 0xC0, 0x00) // pointer back to offset 0

	name, consumed, ok := DecodeName(payload, pointerPos)
	if !ok {
		t.Fatalf("DecodeName failed following a valid back-pointer")
	}
	if name != "example.com" {
		t.Fatalf("DecodeName via pointer = %q", name)
	}
	if consumed != 2 {
		t.Fatalf("consumed = %d, want 2 (pointer is always 2 bytes)", consumed)
	}
}

func TestDecodeName_TruncatedLabel(t *testing.T) {
	payload := []byte{0x05, 'a', 'b'} // claims 5 bytes, only 2 present
	_, _, ok := DecodeName(payload, 0)
	if ok {
		t.Fatalf("truncated label must not decode")
	}
}
