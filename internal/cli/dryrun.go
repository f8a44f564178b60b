package cli

import (
	"bytes"

	"github.com/pterm/pterm"

	"zprobe/internal/probe"
)

// DryRunTransmitter stands in for a real coreiface.Transmitter in
// --dry-run mode: every frame is handed to the active module's
// PrintPacket instead of going out a socket, via pterm so it reads like
// the rest of the CLI's output instead of raw log lines.
type DryRunTransmitter struct {
	Module probe.Module
}

// SendBatch implements coreiface.Transmitter by printing every frame and
// reporting the whole batch as sent — a dry run never fails to "send".
func (t *DryRunTransmitter) SendBatch(frames [][]byte, attempts int) (sent int, err error) {
	var buf bytes.Buffer
	for _, f := range frames {
		buf.Reset()
		t.Module.PrintPacket(&buf, f)
		pterm.DefaultBox.WithTitle(t.Module.Name()).Println(buf.String())
	}
	return len(frames), nil
}
