package send

import (
	"sync/atomic"
	"time"
)

// Cancel bundles the cooperative stop conditions a Loop checks once per
// target pulled from its Iterator (spec §5): an externally-flipped global
// stop flag (another shard hit a fatal error, or the operator interrupted
// the run), a wall-clock deadline, and per-thread target/packet ceilings.
// A zero Cancel never stops the loop on its own (the iterator running dry
// is always checked separately).
type Cancel struct {
	Complete   *atomic.Bool
	Deadline   time.Time
	MaxTargets int64
	MaxPackets int64
}

// ShouldStop reports whether loop should end before the iterator is
// exhausted, reading stats to evaluate the target/packet ceilings.
func (c Cancel) ShouldStop(stats *ShardStats) bool {
	if c.Complete != nil && c.Complete.Load() {
		return true
	}
	if !c.Deadline.IsZero() && time.Now().After(c.Deadline) {
		return true
	}
	sent, _, hosts, _ := stats.Snapshot()
	if c.MaxTargets > 0 && hosts >= c.MaxTargets {
		return true
	}
	if c.MaxPackets > 0 && sent >= c.MaxPackets {
		return true
	}
	return false
}

// DeadlineFromRuntime converts a config.Config.MaxRuntimeSecs (0 meaning
// unbounded) into an absolute deadline anchored at started.
func DeadlineFromRuntime(started time.Time, maxRuntimeSecs int64) time.Time {
	if maxRuntimeSecs <= 0 {
		return time.Time{}
	}
	return started.Add(time.Duration(maxRuntimeSecs) * time.Second)
}
