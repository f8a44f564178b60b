package send

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"zprobe/internal/config"
	"zprobe/internal/coreiface"
	"zprobe/internal/pkg/logger"
	"zprobe/internal/probe"
	"zprobe/internal/validation"
)

// Loop drives one send thread end to end: pull a target from Targets,
// pace via Rate, build the frame through the active Module, and commit it
// into Batch, flushing through Tx when full. It never touches the receive
// path (spec §1's non-goal). Each target gets a single probe, built with
// probeNum 0; Cfg.PacketStreams is not read here.
type Loop struct {
	// RunID tags this run across every shard's log lines. Left
	// zero-value, Run generates one so a caller that starts
	// several shards from the same run can share a single RunID instead.
	RunID uuid.UUID

	ThreadIndex int
	Module      probe.Module
	Cfg         *config.Config
	Targets     coreiface.Iterator
	Tx          coreiface.Transmitter
	Key         validation.Key
	Rate        *RateRegulator
	Cancel      Cancel
	Stats       *ShardStats

	// Startup serializes every thread's ThreadInit+first PreparePacket
	// pass across the whole run (spec §5): held only long enough for this
	// thread to finish its one-time setup, then released before the hot
	// loop starts.
	Startup Locker
}

// Locker is the subset of sync.Mutex Loop needs, so tests can pass a
// no-op stand-in without pulling in real cross-thread contention.
type Locker interface {
	Lock()
	Unlock()
}

// Run executes the thread to completion: iterator exhaustion, a Cancel
// condition tripping, or a fatal module/transmit error. A setup failure
// (no source address, ThreadInit or PreparePacket) returns at once; past
// setup, it always flushes whatever is left in the batch and calls
// Module.Close before returning, aggregating every error encountered along
// the way.
func (l *Loop) Run() error {
	if l.RunID == uuid.Nil {
		l.RunID = uuid.New()
	}

	var errs *multierror.Error

	sourceIPs, err := l.sourceIPPool()
	if err != nil {
		return err
	}

	l.Startup.Lock()
	tc, err := l.Module.ThreadInit()
	if err != nil {
		l.Startup.Unlock()
		return fmt.Errorf("send: thread %d: ThreadInit: %w", l.ThreadIndex, err)
	}

	batch := NewBatch(l.Cfg.Batch, l.Module.MaxPacketLength())
	srcMAC, gwMAC := l.Cfg.ParsedHardwareMAC(), l.Cfg.ParsedGatewayMAC()

	for _, buf := range batch.Slots() {
		if err := l.Module.PreparePacket(buf, srcMAC, gwMAC, tc); err != nil {
			l.Startup.Unlock()
			return fmt.Errorf("send: thread %d: PreparePacket: %w", l.ThreadIndex, err)
		}
	}
	l.Startup.Unlock()

	ctx := context.Background()
	attempts := l.Cfg.Retries + 1
	srcIdx := 0
	var ipID uint16

loop:
	for {
		if l.Cancel.ShouldStop(l.Stats) {
			break
		}

		target, ok := l.Targets.NextTarget()
		if !ok {
			l.Stats.markComplete()
			break
		}

		if err := l.Rate.Wait(ctx); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("send: thread %d: rate wait: %w", l.ThreadIndex, err))
			break
		}

		buf, ok := batch.NextSlot()
		if !ok {
			if err := batch.Flush(l.Tx, attempts, l.Stats); err != nil {
				errs = multierror.Append(errs, err)
			}
			if buf, ok = batch.NextSlot(); !ok {
				errs = multierror.Append(errs, fmt.Errorf("send: thread %d: batch did not drain after flush", l.ThreadIndex))
				break loop
			}
		}

		srcIP := sourceIPs[srcIdx%len(sourceIPs)]
		srcIdx++

		tag := flowTag(l.Key, srcIP, target.IP, target.Port)
		ipID++

		n, err := l.Module.MakePacket(buf, srcIP, target.IP, target.Port, l.Cfg.ProbeTTL, tag, 0, ipID, tc)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("send: thread %d: MakePacket: %w", l.ThreadIndex, err))
			break
		}
		batch.Commit(n)
		l.Stats.addHosts(1)
	}

	if err := batch.Flush(l.Tx, attempts, l.Stats); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := l.Module.Close(l.Cfg); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("send: thread %d: Close: %w", l.ThreadIndex, err))
	}

	sent, failed, hosts, complete := l.Stats.Snapshot()
	event := "stopped"
	if complete {
		event = "complete"
	}
	logger.LogShardEvent(l.ThreadIndex, event, sent, failed, hosts, l.RunID.String())

	return errs.ErrorOrNil()
}

func (l *Loop) sourceIPPool() ([]net.IP, error) {
	if l.Cfg.IsIPv6Target() {
		ip := l.Cfg.ParsedIPv6SourceIP()
		if ip == nil {
			return nil, fmt.Errorf("send: module %q needs ipv6_source_ip", l.Module.Name())
		}
		return []net.IP{ip}, nil
	}
	ips := l.Cfg.ParsedSourceIPs()
	if len(ips) == 0 {
		return nil, fmt.Errorf("send: no source_ip_addresses configured")
	}
	return ips, nil
}

func flowTag(key validation.Key, src, dst net.IP, dport uint16) validation.Tag {
	if dst.To4() != nil {
		return validation.ForIPv4(key, src, dst, dport)
	}
	return validation.ForIPv6(key, src, dst, dport)
}
