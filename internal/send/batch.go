package send

import (
	"fmt"

	"zprobe/internal/coreiface"
)

// Batch is a fixed-capacity set of reusable packet buffers, allocated once
// per send thread and refilled every cycle rather than reallocated — the
// Go analog of the original's inline `buf[BATCH][MAX_PACKET_SIZE]` array.
type Batch struct {
	bufs [][]byte
	lens []int
	n    int
}

// NewBatch allocates a batch of size capacity, each slot maxPacketLen
// bytes wide (the active probe module's MaxPacketLength()).
func NewBatch(capacity, maxPacketLen int) *Batch {
	b := &Batch{
		bufs: make([][]byte, capacity),
		lens: make([]int, capacity),
	}
	for i := range b.bufs {
		b.bufs[i] = make([]byte, maxPacketLen)
	}
	return b
}

// Full reports whether every slot has a committed frame.
func (b *Batch) Full() bool { return b.n == len(b.bufs) }

// Len reports how many slots currently hold a committed frame.
func (b *Batch) Len() int { return b.n }

// NextSlot returns the next writable buffer (full MaxPacketLength
// capacity) and whether one was available. The caller fills it in place
// via PreparePacket/MakePacket and then calls Commit with the frame's
// actual length.
func (b *Batch) NextSlot() ([]byte, bool) {
	if b.Full() {
		return nil, false
	}
	return b.bufs[b.n], true
}

// Commit records the length of the frame just written into the slot
// returned by the most recent NextSlot call, advancing the batch.
func (b *Batch) Commit(length int) {
	b.lens[b.n] = length
	b.n++
}

// Reset empties the batch without releasing the underlying buffers.
func (b *Batch) Reset() { b.n = 0 }

// Slots exposes every underlying buffer directly, for the one-time
// PreparePacket pass that lays the invariant Ethernet/IP prefix into each
// reused slot before the send loop starts committing frames into them.
func (b *Batch) Slots() [][]byte { return b.bufs }

// Flush hands every committed frame to tx in one call, passing attempts
// through for tx's own per-frame retries (spec §5's "retries" budget), and
// folds the outcome into stats before resetting itself.
func (b *Batch) Flush(tx coreiface.Transmitter, attempts int, stats *ShardStats) error {
	if b.n == 0 {
		return nil
	}
	frames := make([][]byte, b.n)
	for i := 0; i < b.n; i++ {
		frames[i] = b.bufs[i][:b.lens[i]]
	}

	sent, err := tx.SendBatch(frames, attempts)
	stats.addSent(int64(sent))
	failed := b.n - sent
	if failed > 0 {
		stats.addFailed(int64(failed))
	}
	b.Reset()
	if err != nil {
		return fmt.Errorf("send: batch flush: %w", err)
	}
	return nil
}
