package send

import (
	"os"
	"os/signal"
	"syscall"
)

// signalStepPercent is the fractional rate change SIGUSR1/SIGUSR2 apply,
// matching the original's operator-facing "nudge the rate up or down"
// runtime control (spec §5).
const signalStepPercent = 0.05

// InstallRateSignalHandlers wires SIGUSR1 (speed up) and SIGUSR2 (slow
// down) to adjust every regulator in regs by ±5%, returning a stop func
// that restores default signal handling. It is safe to call with regs
// spanning every send thread in the run, since AdjustPercent is itself
// lock-free per regulator.
func InstallRateSignalHandlers(regs []*RateRegulator) (stop func()) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig, ok := <-ch:
				if !ok {
					return
				}
				delta := signalStepPercent
				if sig == syscall.SIGUSR2 {
					delta = -signalStepPercent
				}
				for _, r := range regs {
					r.AdjustPercent(delta)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
