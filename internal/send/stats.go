// Package send implements the per-thread packet send loop: pacing,
// batching, and handing finished frames off to an injected
// coreiface.Transmitter. Receive-path I/O is out of scope here (see
// internal/coreiface) — this package only ever writes.
package send

import "sync/atomic"

// ShardStats accumulates one send thread's lifetime counters. All fields
// are updated with atomic ops so a status reporter can poll them without
// synchronizing with the hot send path.
type ShardStats struct {
	PacketsSent      int64
	PacketsFailed    int64
	HostsScanned     int64
	ShardComplete    int32 // 0/1, set once the shard's iterator is exhausted
}

func (s *ShardStats) addSent(n int64)   { atomic.AddInt64(&s.PacketsSent, n) }
func (s *ShardStats) addFailed(n int64) { atomic.AddInt64(&s.PacketsFailed, n) }
func (s *ShardStats) addHosts(n int64)  { atomic.AddInt64(&s.HostsScanned, n) }

func (s *ShardStats) markComplete() { atomic.StoreInt32(&s.ShardComplete, 1) }

// Snapshot returns a consistent-enough point-in-time read of the counters.
func (s *ShardStats) Snapshot() (sent, failed, hosts int64, complete bool) {
	return atomic.LoadInt64(&s.PacketsSent),
		atomic.LoadInt64(&s.PacketsFailed),
		atomic.LoadInt64(&s.HostsScanned),
		atomic.LoadInt32(&s.ShardComplete) != 0
}
