package send

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// fastRegimeThreshold is the per-thread packets-per-second figure above
// which a token-bucket Wait() call's own scheduling overhead becomes a
// larger error source than a calibrated busy-spin, per spec §5's two-regime
// pacing model.
const fastRegimeThreshold = 1000

// minRecalibrateWindow is the floor on how many fast-regime sends pass
// between spin-count recalibrations (target/20 in the original, clamped to
// this minimum so low targets still recalibrate before the run ends).
const minRecalibrateWindow = 50

// RateRegulator paces one send thread to a shared target packets/second,
// switching between a token-bucket (slow targets) and a self-calibrating
// busy-spin (fast targets) implementation. The target is a shared
// atomic.Int64 so SIGUSR1/SIGUSR2 (signals.go) can retune every thread at
// once without any locking on the hot path.
type RateRegulator struct {
	target atomic.Int64 // packets/sec; 0 means unlimited

	mu          sync.Mutex
	limiter     *rate.Limiter
	limiterRate int64

	spinCount   int64
	windowSent  int64
	windowStart time.Time
}

// NewRateRegulator constructs a regulator targeting targetPPS packets per
// second for this thread. A target of 0 disables pacing entirely.
func NewRateRegulator(targetPPS int64) *RateRegulator {
	r := &RateRegulator{spinCount: 1, windowStart: time.Now()}
	r.target.Store(targetPPS)
	return r
}

// Target returns the regulator's current packets/second ceiling.
func (r *RateRegulator) Target() int64 { return r.target.Load() }

// SetTarget overwrites the target outright.
func (r *RateRegulator) SetTarget(pps int64) {
	if pps < 0 {
		pps = 0
	}
	r.target.Store(pps)
}

// AdjustPercent nudges the current target by delta (e.g. 0.05 for +5%,
// -0.05 for -5%), the operation SIGUSR1/SIGUSR2 trigger. A zero target
// (unlimited) is left unlimited: there's nothing to scale.
func (r *RateRegulator) AdjustPercent(delta float64) {
	for {
		cur := r.target.Load()
		if cur == 0 {
			return
		}
		next := int64(float64(cur) * (1 + delta))
		if next < 1 {
			next = 1
		}
		if r.target.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Wait blocks the calling goroutine long enough to hold this thread to its
// current target rate, immediately returning when the target is 0.
func (r *RateRegulator) Wait(ctx context.Context) error {
	target := r.target.Load()
	if target <= 0 {
		return nil
	}
	if target < fastRegimeThreshold {
		return r.waitSlow(ctx, target)
	}
	r.waitFast(target)
	return nil
}

func (r *RateRegulator) waitSlow(ctx context.Context, target int64) error {
	r.mu.Lock()
	if r.limiter == nil || r.limiterRate != target {
		r.limiter = rate.NewLimiter(rate.Limit(target), 1)
		r.limiterRate = target
	}
	limiter := r.limiter
	r.mu.Unlock()
	return limiter.Wait(ctx)
}

// waitFast busy-spins a calibrated iteration count instead of sleeping:
// OS sleep/timer granularity dominates the error budget at targets above
// fastRegimeThreshold, exactly the tradeoff spec §5 documents. The spin
// count is retuned every recalibration window against wall-clock elapsed
// time, growing or shrinking multiplicatively, and never drops below 1.
func (r *RateRegulator) waitFast(target int64) {
	spin := atomic.LoadInt64(&r.spinCount)
	for i := int64(0); i < spin; i++ {
		// deliberately empty: the loop itself is the delay
	}

	window := target / 20
	if window < minRecalibrateWindow {
		window = minRecalibrateWindow
	}

	sent := atomic.AddInt64(&r.windowSent, 1)
	if sent < window {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	elapsed := time.Since(r.windowStart)
	expected := time.Duration(float64(window) / float64(target) * float64(time.Second))
	atomic.StoreInt64(&r.windowSent, 0)
	r.windowStart = time.Now()

	if elapsed <= 0 || expected <= 0 {
		return
	}
	ratio := float64(expected) / float64(elapsed)
	newSpin := int64(float64(spin) * ratio)
	if newSpin < 1 {
		newSpin = 1
	}
	atomic.StoreInt64(&r.spinCount, newSpin)
}
