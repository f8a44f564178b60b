package udp6

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"net"
	"testing"

	"zprobe/internal/packet"
	"zprobe/internal/probe"
	"zprobe/internal/validation"
)

func TestParseArgs_Text(t *testing.T) {
	spec, err := ParseArgs("text:hello")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if string(spec.Payload) != "hello" {
		t.Fatalf("Payload = %q, want hello", spec.Payload)
	}
}

func TestParseArgs_Hex(t *testing.T) {
	spec, err := ParseArgs("hex:deadbeef")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	want := []byte{0xde, 0xad, 0xbe, 0xef}
	if !bytes.Equal(spec.Payload, want) {
		t.Fatalf("Payload = % x, want % x", spec.Payload, want)
	}
}

func TestParseArgs_HexInvalid(t *testing.T) {
	if _, err := ParseArgs("hex:zz"); err == nil {
		t.Fatalf("expected error for non-hex payload")
	}
}

func TestParseArgs_TemplateFields(t *testing.T) {
	spec, err := ParseArgs("template-fields")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if !spec.PrintFields {
		t.Fatalf("expected PrintFields=true")
	}
}

func TestParseArgs_Unknown(t *testing.T) {
	if _, err := ParseArgs("bogus:thing"); err == nil {
		t.Fatalf("expected error for unknown payload kind")
	}
}

func TestParseArgs_Empty(t *testing.T) {
	spec, err := ParseArgs("")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if len(spec.Payload) == 0 {
		t.Fatalf("expected a non-empty default payload")
	}
}

func TestParseTemplate_LiteralOnly(t *testing.T) {
	tmpl, err := ParseTemplate([]byte("plain text, no fields"))
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	dst := make([]byte, 64)
	n, err := tmpl.Render(dst, net.ParseIP("::1"), net.ParseIP("::2"), 1, 2, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(dst[:n]) != "plain text, no fields" {
		t.Fatalf("Render = %q", dst[:n])
	}
}

func TestParseTemplate_RandDigitField(t *testing.T) {
	tmpl, err := ParseTemplate([]byte("id=${RAND_DIGIT=6}&done"))
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	dst := make([]byte, 64)
	n, err := tmpl.Render(dst, net.ParseIP("::1"), net.ParseIP("::2"), 1, 2, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := string(dst[:n])
	if !bytes.HasPrefix([]byte(out), []byte("id=")) || !bytes.HasSuffix([]byte(out), []byte("&done")) {
		t.Fatalf("Render = %q, want id=<6 digits>&done", out)
	}
	digits := out[len("id="):][:6]
	for _, c := range digits {
		if c < '0' || c > '9' {
			t.Fatalf("RAND_DIGIT produced non-digit %q in %q", c, out)
		}
	}
}

func TestParseTemplate_UnknownFieldIsLiteral(t *testing.T) {
	tmpl, err := ParseTemplate([]byte("x${NOT_A_FIELD}y"))
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	dst := make([]byte, 64)
	n, _ := tmpl.Render(dst, net.ParseIP("::1"), net.ParseIP("::2"), 1, 2, rand.New(rand.NewSource(1)))
	if string(dst[:n]) != "x${NOT_A_FIELD}y" {
		t.Fatalf("Render = %q, want unrecognized field passed through literally", dst[:n])
	}
}

func TestTemplate_Render_TruncatesError(t *testing.T) {
	tmpl, _ := ParseTemplate([]byte("${RAND_BYTE=100}"))
	dst := make([]byte, 4)
	if _, err := tmpl.Render(dst, net.ParseIP("::1"), net.ParseIP("::2"), 1, 2, rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("expected truncation error for an over-size render")
	}
}

func TestValidatePacket_AcceptsICMPv6Unreachable(t *testing.T) {
	var key validation.Key
	for i := range key {
		key[i] = byte(i + 1)
	}
	ourIP := net.ParseIP("2001:db8::1")
	target := net.ParseIP("2001:db8::2")
	router := net.ParseIP("2001:db8::3")
	const theirPort = uint16(33434)
	const first, last = uint16(32768), uint16(61000)

	tag := validation.ForIPv6(key, ourIP, target, theirPort)
	ourPort := validation.GetSrcPort(tag, 0, first, last)

	innerUDP := make([]byte, packet.UDPHeaderLen)
	binary.BigEndian.PutUint16(innerUDP[0:2], ourPort)
	binary.BigEndian.PutUint16(innerUDP[2:4], theirPort)

	innerIPv6 := make([]byte, packet.IPv6HeaderLen)
	var src16, dst16 [16]byte
	copy(src16[:], ourIP.To16())
	copy(dst16[:], target.To16())
	packet.MakeIPv6Header(innerIPv6, packet.ProtoUDP, uint16(len(innerUDP)), 64, src16, dst16)

	icmpPayload := make([]byte, packet.ICMPHeaderLen)
	icmpPayload[0] = packet.ICMPv6DestUnreach
	icmpPayload = append(icmpPayload, innerIPv6...)
	icmpPayload = append(icmpPayload, innerUDP...)

	outer := make([]byte, packet.IPv6HeaderLen)
	var outerSrc, outerDst [16]byte
	copy(outerSrc[:], router.To16())
	copy(outerDst[:], ourIP.To16())
	packet.MakeIPv6Header(outer, 58, uint16(len(icmpPayload)), 64, outerSrc, outerDst)

	frame := append(outer, icmpPayload...)

	m := &Module{}
	ok, responder, gotTag := m.ValidatePacket(frame, probe.PortRange{First: first, Last: last}, key)
	if !ok {
		t.Fatalf("expected ICMPv6 destination-unreachable to validate")
	}
	if !responder.Equal(router) {
		t.Fatalf("responder = %v, want %v", responder, router)
	}
	if gotTag != tag {
		t.Fatalf("recomputed tag = %+v, want %+v", gotTag, tag)
	}
}

func TestValidatePacket_RejectsOtherICMPv6(t *testing.T) {
	var key validation.Key
	ourIP := net.ParseIP("2001:db8::1")
	router := net.ParseIP("2001:db8::3")

	icmpPayload := make([]byte, packet.ICMPHeaderLen)
	icmpPayload[0] = 128 // echo request, not dest-unreachable

	outer := make([]byte, packet.IPv6HeaderLen)
	var outerSrc, outerDst [16]byte
	copy(outerSrc[:], router.To16())
	copy(outerDst[:], ourIP.To16())
	packet.MakeIPv6Header(outer, 58, uint16(len(icmpPayload)), 64, outerSrc, outerDst)

	frame := append(outer, icmpPayload...)

	m := &Module{}
	ok, _, _ := m.ValidatePacket(frame, probe.PortRange{First: 32768, Last: 61000}, key)
	if ok {
		t.Fatalf("expected non-unreachable ICMPv6 to be rejected")
	}
}

func TestTemplate_SPortAField(t *testing.T) {
	tmpl, err := ParseTemplate([]byte("${SPORT}"))
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	dst := make([]byte, 16)
	n, err := tmpl.Render(dst, net.ParseIP("::1"), net.ParseIP("::2"), 443, 2, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(dst[:n]) != "443" {
		t.Fatalf("Render = %q, want 443", dst[:n])
	}
}
