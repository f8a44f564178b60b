package send

import (
	"testing"

	"zprobe/internal/coreiface/memimpl"
)

func TestBatch_FullAndReset(t *testing.T) {
	b := NewBatch(2, 16)
	if b.Full() {
		t.Fatalf("freshly built batch must not be full")
	}
	buf, ok := b.NextSlot()
	if !ok {
		t.Fatalf("expected a free slot")
	}
	buf[0] = 1
	b.Commit(4)

	buf, ok = b.NextSlot()
	if !ok {
		t.Fatalf("expected a second free slot")
	}
	buf[0] = 2
	b.Commit(6)

	if !b.Full() {
		t.Fatalf("batch should be full after filling both slots")
	}
	if _, ok := b.NextSlot(); ok {
		t.Fatalf("NextSlot on a full batch must report false")
	}

	b.Reset()
	if b.Full() {
		t.Fatalf("Reset must clear the full state")
	}
}

func TestBatch_FlushSendsCommittedFramesOnly(t *testing.T) {
	b := NewBatch(4, 16)
	buf, _ := b.NextSlot()
	buf[0] = 0xAB
	b.Commit(3)

	tx := &memimpl.RecordingTransmitter{}
	stats := &ShardStats{}
	if err := b.Flush(tx, 1, stats); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	frames := tx.Frames()
	if len(frames) != 1 || len(frames[0]) != 3 {
		t.Fatalf("expected exactly 1 committed frame of length 3, got %v", frames)
	}
	sent, failed, _, _ := stats.Snapshot()
	if sent != 1 || failed != 0 {
		t.Fatalf("stats = sent=%d failed=%d, want sent=1 failed=0", sent, failed)
	}
	if !b.Full() && b.Len() != 0 {
		t.Fatalf("Flush must reset the batch")
	}
}

func TestBatch_FlushEmptyIsANoop(t *testing.T) {
	b := NewBatch(2, 16)
	tx := &memimpl.RecordingTransmitter{}
	stats := &ShardStats{}
	if err := b.Flush(tx, 1, stats); err != nil {
		t.Fatalf("Flush on an empty batch: %v", err)
	}
	if len(tx.Frames()) != 0 {
		t.Fatalf("expected no frames sent")
	}
}
