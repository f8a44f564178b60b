package cli

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"zprobe/internal/config"
	"zprobe/internal/coreiface"
	"zprobe/internal/pkg/logger"
	"zprobe/internal/probe"
	"zprobe/internal/send"
	"zprobe/internal/validation"
)

// Summary is what a completed run reports back to the command layer.
type Summary struct {
	RunID         uuid.UUID
	PacketsSent   int64
	PacketsFailed int64
	HostsScanned  int64
}

// RunScan wires config, the looked-up probe module, the loaded target
// list, and one send.Loop per sender goroutine together, then runs the
// whole shard to completion. It never touches the receive path: this is
// strictly the send side (spec §1's non-goal).
func RunScan(cfg *config.Config, allTargets []coreiface.Target) (Summary, error) {
	mod, ok := probe.Lookup(cfg.ProbeModule)
	if !ok {
		return Summary{}, fmt.Errorf("cli: unknown probe module %q (available: %v)", cfg.ProbeModule, probe.Names())
	}

	if err := mod.GlobalInit(cfg, cfg.ProbeArgs); err != nil {
		return Summary{}, fmt.Errorf("cli: %s: GlobalInit: %w", mod.Name(), err)
	}

	key, hasKey, err := cfg.ParsedValidationKey()
	if err != nil {
		return Summary{}, err
	}
	if !hasKey {
		key, err = validation.GenerateKey()
		if err != nil {
			return Summary{}, err
		}
	}

	runID := uuid.New()
	logger.LogSystemEvent("cli", "scan-start", fmt.Sprintf("probe=%s targets=%d key=%s", mod.Name(), len(allTargets), key.String()), logger.InfoLevel, nil)

	myShare := Stride(allTargets, cfg.ShardNum, cfg.TotalShards)

	var complete atomic.Bool
	deadline := send.DeadlineFromRuntime(time.Now(), cfg.MaxRuntimeSecs)

	regulators := make([]*send.RateRegulator, cfg.Senders)
	for i := range regulators {
		regulators[i] = send.NewRateRegulator(perSenderRate(cfg, i))
	}
	stopSignals := send.InstallRateSignalHandlers(regulators)
	defer stopSignals()

	var startup sync.Mutex
	var wg sync.WaitGroup
	var mu sync.Mutex
	var runErrs *multierror.Error
	stats := make([]*send.ShardStats, cfg.Senders)

	for i := 0; i < cfg.Senders; i++ {
		i := i
		stats[i] = &send.ShardStats{}

		var tx coreiface.Transmitter
		if cfg.DryRun {
			tx = &DryRunTransmitter{Module: mod}
		} else {
			t, err := send.NewPacketSocketTransmitter(cfg.Interface)
			if err != nil {
				return Summary{}, fmt.Errorf("cli: sender %d: %w", i, err)
			}
			defer t.Close()
			tx = t
		}

		loop := &send.Loop{
			RunID:       runID,
			ThreadIndex: i,
			Module:      mod,
			Cfg:         cfg,
			Targets:     NewSliceIterator(myShare, i, cfg.Senders),
			Tx:          tx,
			Key:         key,
			Rate:        regulators[i],
			Cancel: send.Cancel{
				Complete:   &complete,
				Deadline:   deadline,
				MaxTargets: cfg.MaxTargets,
			},
			Stats:   stats[i],
			Startup: &startup,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := loop.Run(); err != nil {
				complete.Store(true)
				mu.Lock()
				runErrs = multierror.Append(runErrs, err)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if err := probe.CloseAll(cfg); err != nil {
		mu.Lock()
		runErrs = multierror.Append(runErrs, err)
		mu.Unlock()
	}

	summary := Summary{RunID: runID}
	for _, s := range stats {
		sent, failed, hosts, _ := s.Snapshot()
		summary.PacketsSent += sent
		summary.PacketsFailed += failed
		summary.HostsScanned += hosts
	}
	logger.LogSystemEvent("cli", "scan-complete", fmt.Sprintf("sent=%d failed=%d hosts=%d", summary.PacketsSent, summary.PacketsFailed, summary.HostsScanned), logger.InfoLevel, nil)

	return summary, runErrs.ErrorOrNil()
}

// perSenderRate divides the configured aggregate rate evenly across
// sender threads; 0 (unlimited) stays 0 for every thread.
func perSenderRate(cfg *config.Config, threadIndex int) int64 {
	if cfg.Rate <= 0 {
		return 0
	}
	per := cfg.Rate / cfg.Senders
	if threadIndex < cfg.Rate%cfg.Senders {
		per++
	}
	if per < 1 {
		per = 1
	}
	return int64(per)
}
