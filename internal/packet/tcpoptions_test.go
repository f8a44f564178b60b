package packet

import (
	"bytes"
	"math/rand"
	"testing"
)

func buildTCPWithOptions(t *testing.T, fp OSFingerprint) []byte {
	t.Helper()
	buf := make([]byte, 20+60)
	rng := rand.New(rand.NewSource(1))
	MakeTCPHeader(buf, rng, 1234, 80, TCPFlagSYN)
	n, err := SetTCPOptions(buf, 0, fp, 1460, 111, 0)
	if err != nil {
		t.Fatalf("SetTCPOptions: %v", err)
	}
	return buf[:n]
}

func TestSetTCPOptions_Linux(t *testing.T) {
	hdr := buildTCPWithOptions(t, FingerprintLinux)
	if len(hdr) != 40 {
		t.Fatalf("linux header length = %d, want 40", len(hdr))
	}
	want := []byte{
		0x02, 0x04, 0x05, 0xb4, // MSS 1460
		0x04, 0x02, // SACK permitted
		0x08, 0x0a, 0, 0, 0, 111, 0, 0, 0, 0, // timestamp(111,0)
		0x01,             // NOP
		0x03, 0x03, 0x07, // window scale 7
	}
	if got := hdr[20:]; !bytes.Equal(got, want) {
		t.Fatalf("linux options = % x, want % x", got, want)
	}
	if hdr[12]>>4 != 10 {
		t.Fatalf("data offset = %d words, want 10", hdr[12]>>4)
	}
}

func TestSetTCPOptions_BSD(t *testing.T) {
	hdr := buildTCPWithOptions(t, FingerprintBSD)
	want := []byte{
		0x02, 0x04, 0x05, 0xb4,
		0x01, 0x03, 0x03, 0x06, // NOP + WScale(6)
		0x01, 0x01, 0x08, 0x0a, 0, 0, 0, 111, 0, 0, 0, 0, // NOP + NOP + timestamp(111,0)
		0x04, 0x02, // SACK permitted
		0x00, 0x00, // EOL + EOL pad
	}
	if got := hdr[20:]; !bytes.Equal(got, want) {
		t.Fatalf("bsd options = % x, want % x", got, want)
	}
	if len(hdr) != 44 {
		t.Fatalf("bsd header length = %d, want 44", len(hdr))
	}
}

func TestSetTCPOptions_Windows(t *testing.T) {
	hdr := buildTCPWithOptions(t, FingerprintWindows)
	want := []byte{
		0x02, 0x04, 0x05, 0xb4,
		0x01, 0x03, 0x03, 0x08, // NOP + WScale(8)
		0x01, 0x01, 0x04, 0x02, // NOP + NOP + SACK permitted
	}
	if got := hdr[20:]; !bytes.Equal(got, want) {
		t.Fatalf("windows options = % x, want % x", got, want)
	}
	if len(hdr) != 32 {
		t.Fatalf("windows header length = %d, want 32", len(hdr))
	}
}

func TestSetTCPOptions_Smallest(t *testing.T) {
	hdr := buildTCPWithOptions(t, FingerprintSmallest)
	want := []byte{0x02, 0x04, 0x05, 0xb4}
	if got := hdr[20:]; !bytes.Equal(got, want) {
		t.Fatalf("smallest options = % x, want % x", got, want)
	}
	if len(hdr) != 24 {
		t.Fatalf("smallest header length = %d, want 24", len(hdr))
	}
}
