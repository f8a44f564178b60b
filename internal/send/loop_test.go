package send

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"zprobe/internal/config"
	"zprobe/internal/coreiface"
	"zprobe/internal/coreiface/memimpl"
	"zprobe/internal/probe"
	"zprobe/internal/validation"
)

type fakeModule struct {
	maxLen    int
	prepCalls int
}

func (m *fakeModule) Name() string                    { return "fake" }
func (m *fakeModule) BPFFilter() string                { return "" }
func (m *fakeModule) Snaplen() int                     { return m.maxLen }
func (m *fakeModule) MaxPacketLength() int             { return m.maxLen }
func (m *fakeModule) PortArgs() bool                   { return false }
func (m *fakeModule) OutputType() probe.OutputType     { return probe.OutputStatic }
func (m *fakeModule) Fields() []probe.FieldDef         { return nil }
func (m *fakeModule) GlobalInit(*config.Config, string) error { return nil }
func (m *fakeModule) ThreadInit() (probe.ThreadCtx, error) { return nil, nil }

func (m *fakeModule) PreparePacket(buf []byte, srcMAC, gwMAC net.HardwareAddr, tc probe.ThreadCtx) error {
	m.prepCalls++
	for i := range buf {
		buf[i] = 0xAA
	}
	return nil
}

func (m *fakeModule) MakePacket(buf []byte, srcIP, dstIP net.IP, dport uint16, ttl uint8,
	tag validation.Tag, probeNum int, ipID uint16, tc probe.ThreadCtx) (int, error) {
	buf[0] = byte(ipID)
	return 10, nil
}

func (m *fakeModule) ValidatePacket([]byte, probe.PortRange, validation.Key) (bool, net.IP, validation.Tag) {
	return false, nil, validation.Tag{}
}
func (m *fakeModule) ProcessPacket([]byte, probe.FieldSet, validation.Tag, time.Time) error {
	return nil
}
func (m *fakeModule) PrintPacket(io.Writer, []byte) {}
func (m *fakeModule) Close(*config.Config) error     { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Batch:             2,
		Retries:           0,
		ProbeTTL:          64,
		SourceIPAddresses: []string{"192.0.2.1"},
	}
}

func TestLoop_SendsEveryTargetAndFlushesFinalBatch(t *testing.T) {
	targets := []coreiface.Target{
		{IP: net.ParseIP("198.51.100.1"), Port: 53},
		{IP: net.ParseIP("198.51.100.2"), Port: 53},
		{IP: net.ParseIP("198.51.100.3"), Port: 53},
		{IP: net.ParseIP("198.51.100.4"), Port: 53},
		{IP: net.ParseIP("198.51.100.5"), Port: 53},
	}
	it := memimpl.NewSliceIterator(targets)
	tx := &memimpl.RecordingTransmitter{}
	mod := &fakeModule{maxLen: 64}
	stats := &ShardStats{}

	l := &Loop{
		Module:  mod,
		Cfg:     testConfig(),
		Targets: it,
		Tx:      tx,
		Rate:    NewRateRegulator(0),
		Stats:   stats,
		Startup: &sync.Mutex{},
	}

	if err := l.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	frames := tx.Frames()
	if len(frames) != 5 {
		t.Fatalf("sent %d frames, want 5", len(frames))
	}
	sent, failed, hosts, complete := stats.Snapshot()
	if sent != 5 || failed != 0 || hosts != 5 || !complete {
		t.Fatalf("stats = sent=%d failed=%d hosts=%d complete=%v", sent, failed, hosts, complete)
	}
	if mod.prepCalls != l.Cfg.Batch {
		t.Fatalf("PreparePacket called %d times, want %d (once per batch slot)", mod.prepCalls, l.Cfg.Batch)
	}
}

func TestLoop_StopsOnMaxTargets(t *testing.T) {
	var targets []coreiface.Target
	for i := 0; i < 20; i++ {
		targets = append(targets, coreiface.Target{IP: net.ParseIP("198.51.100.1"), Port: 53})
	}
	it := memimpl.NewSliceIterator(targets)
	tx := &memimpl.RecordingTransmitter{}
	mod := &fakeModule{maxLen: 64}
	stats := &ShardStats{}

	l := &Loop{
		Module:  mod,
		Cfg:     testConfig(),
		Targets: it,
		Tx:      tx,
		Rate:    NewRateRegulator(0),
		Stats:   stats,
		Startup: &sync.Mutex{},
		Cancel:  Cancel{MaxTargets: 3},
	}

	if err := l.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	_, _, hosts, complete := stats.Snapshot()
	if hosts != 3 {
		t.Fatalf("hosts scanned = %d, want exactly 3 (MaxTargets ceiling)", hosts)
	}
	if complete {
		t.Fatalf("shard should not be marked complete: it was cut off by MaxTargets, not exhaustion")
	}
}

func TestLoop_StopsOnExternalComplete(t *testing.T) {
	var targets []coreiface.Target
	for i := 0; i < 20; i++ {
		targets = append(targets, coreiface.Target{IP: net.ParseIP("198.51.100.1"), Port: 53})
	}
	it := memimpl.NewSliceIterator(targets)
	tx := &memimpl.RecordingTransmitter{}
	mod := &fakeModule{maxLen: 64}
	stats := &ShardStats{}

	var stop atomic.Bool
	stop.Store(true)

	l := &Loop{
		Module:  mod,
		Cfg:     testConfig(),
		Targets: it,
		Tx:      tx,
		Rate:    NewRateRegulator(0),
		Stats:   stats,
		Startup: &sync.Mutex{},
		Cancel:  Cancel{Complete: &stop},
	}

	if err := l.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	_, _, hosts, _ := stats.Snapshot()
	if hosts != 0 {
		t.Fatalf("hosts scanned = %d, want 0 (stopped before the first target)", hosts)
	}
}

func TestLoop_TransmitFailureIsCountedAndReported(t *testing.T) {
	targets := []coreiface.Target{
		{IP: net.ParseIP("198.51.100.1"), Port: 53},
		{IP: net.ParseIP("198.51.100.2"), Port: 53},
	}
	it := memimpl.NewSliceIterator(targets)
	tx := &memimpl.RecordingTransmitter{FailN: 1}
	mod := &fakeModule{maxLen: 64}
	stats := &ShardStats{}

	cfg := testConfig()
	cfg.Batch = 1
	l := &Loop{
		Module:  mod,
		Cfg:     cfg,
		Targets: it,
		Tx:      tx,
		Rate:    NewRateRegulator(0),
		Stats:   stats,
		Startup: &sync.Mutex{},
	}

	if err := l.Run(); err == nil {
		t.Fatalf("expected an aggregated error from the failed flush")
	}
	sent, failed, _, _ := stats.Snapshot()
	if failed != 1 || sent != 1 {
		t.Fatalf("stats = sent=%d failed=%d, want sent=1 failed=1", sent, failed)
	}
}
