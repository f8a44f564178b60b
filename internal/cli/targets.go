// Package cli holds the glue a command-line front end needs that doesn't
// belong in any single send/probe/config package: loading an explicit
// target list and assembling a run's Options into a validated Config.
//
// Walking a CIDR block or evaluating a blocklist file is explicitly out
// of scope here (spec's address-iteration/blocklist non-goal) — a target
// list file is the minimum a CLI needs to exist at all without taking on
// that scope.
package cli

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"zprobe/internal/coreiface"
)

// LoadTargetsFile reads one target per line: a bare address (uses
// defaultPort) or "address:port". Blank lines and lines starting with #
// are skipped.
func LoadTargetsFile(path string, defaultPort uint16) ([]coreiface.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cli: open targets file: %w", err)
	}
	defer f.Close()

	var targets []coreiface.Target
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		addr, port := line, defaultPort
		if host, portStr, err := net.SplitHostPort(line); err == nil {
			addr = host
			p, err := strconv.ParseUint(portStr, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("cli: targets file line %d: invalid port %q", lineNo, portStr)
			}
			port = uint16(p)
		}

		ip := net.ParseIP(addr)
		if ip == nil {
			return nil, fmt.Errorf("cli: targets file line %d: invalid address %q", lineNo, addr)
		}
		targets = append(targets, coreiface.Target{IP: ip, Port: port})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cli: read targets file: %w", err)
	}
	return targets, nil
}

// SliceIterator walks a fixed, pre-loaded target list, splitting it across
// shards the same way a real address-space walker would (spec §8's shard
// contract: shard_num selects every total_shards-th target).
type SliceIterator struct {
	targets []coreiface.Target
	pos     int
}

// Stride returns every element at index i where i % of == which, the
// interleaving this module's shard contract (and, one level down, its
// per-process sender split) both use.
func Stride(all []coreiface.Target, which, of int) []coreiface.Target {
	if of < 1 {
		of = 1
	}
	out := make([]coreiface.Target, 0, len(all)/of+1)
	for i, t := range all {
		if i%of == which {
			out = append(out, t)
		}
	}
	return out
}

// NewSliceIterator builds an Iterator over this shard's slice of targets:
// every element at index i where i % totalShards == shardNum.
func NewSliceIterator(all []coreiface.Target, shardNum, totalShards int) *SliceIterator {
	return &SliceIterator{targets: Stride(all, shardNum, totalShards)}
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
