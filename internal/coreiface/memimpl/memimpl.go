// Package memimpl provides in-memory Iterator, Blocklist, and Transmitter
// implementations so probe-module and send-loop tests can run without a
// real address-space walker, blocklist evaluator, or packet socket.
package memimpl

import (
	"fmt"
	"net"
	"sync"

	"zprobe/internal/coreiface"
)

// SliceIterator walks a fixed, pre-computed list of targets.
type SliceIterator struct {
	targets []coreiface.Target
	pos     int
}

// NewSliceIterator builds an Iterator over targets, in the given order.
func NewSliceIterator(targets []coreiface.Target) *SliceIterator {
	return &SliceIterator{targets: targets}
}

// NextTarget implements coreiface.Iterator.
func (it *SliceIterator) NextTarget() (coreiface.Target, bool) {
	if it.pos >= len(it.targets) {
		return coreiface.Target{}, false
	}
	t := it.targets[it.pos]
	it.pos++
	return t, true
}

// AllowAllBlocklist admits every address; used by tests that don't
// exercise blocklist rejection.
type AllowAllBlocklist struct {
	allowed uint64
	mu      sync.Mutex
}

func (b *AllowAllBlocklist) IsAllowed(ip net.IP) bool {
	b.mu.Lock()
	b.allowed++
	b.mu.Unlock()
	return true
}

func (b *AllowAllBlocklist) CountAllowed() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allowed
}

// SetBlocklist admits only addresses present in a fixed allow set,
// keyed by their net.IP.String() form.
type SetBlocklist struct {
	allow   map[string]struct{}
	allowed uint64
	mu      sync.Mutex
}

// NewSetBlocklist builds a Blocklist admitting exactly the given addresses.
func NewSetBlocklist(addrs ...net.IP) *SetBlocklist {
	allow := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		allow[a.String()] = struct{}{}
	}
	return &SetBlocklist{allow: allow}
}

func (b *SetBlocklist) IsAllowed(ip net.IP) bool {
	_, ok := b.allow[ip.String()]
	b.mu.Lock()
	if ok {
		b.allowed++
	}
	b.mu.Unlock()
	return ok
}

func (b *SetBlocklist) CountAllowed() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allowed
}

// RecordingTransmitter captures every frame it is asked to send instead of
// writing to a socket, so send-loop tests can assert on what was built.
type RecordingTransmitter struct {
	mu     sync.Mutex
	frames [][]byte
	FailN  int // if > 0, the next FailN SendBatch calls fail
}

func (t *RecordingTransmitter) SendBatch(frames [][]byte, attempts int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailN > 0 {
		t.FailN--
		return 0, fmt.Errorf("memimpl: simulated transmit failure")
	}
	for _, f := range frames {
		cp := make([]byte, len(f))
		copy(cp, f)
		t.frames = append(t.frames, cp)
	}
	return len(frames), nil
}

// Frames returns every frame recorded so far.
func (t *RecordingTransmitter) Frames() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.frames))
	copy(out, t.frames)
	return out
}
