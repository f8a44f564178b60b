// Package coreiface declares the contracts the send pipeline and probe
// modules call through but this repository does not implement as a
// shipped product: address-space iteration, blocklist evaluation, and
// receive-path packet capture. Only the interfaces and a minimal
// in-memory implementation (package memimpl) for tests live here.
package coreiface

import "net"

// Target is one scheduled destination: an address plus the destination
// port a probe module should use, when the module's PortArgs() is true.
type Target struct {
	IP   net.IP
	Port uint16
}

// Iterator yields this shard's slice of the target space in a stable,
// restartable order. A real implementation walks CIDR blocks or a target
// file; it is never built here.
type Iterator interface {
	// NextTarget advances to and returns the next target. ok is false
	// once the shard is exhausted.
	NextTarget() (Target, bool)
}

// Blocklist answers whether an address is in scope for probing. The
// shared ICMP-error helper consults it before accepting an error whose
// inner destination it did not itself send to.
type Blocklist interface {
	IsAllowed(ip net.IP) bool
	CountAllowed() uint64
}

// Transmitter sends a prepared batch of raw frames, returning how many
// were accepted by the kernel/NIC and the first error of a frame that
// still failed once its attempts were used up.
type Transmitter interface {
	SendBatch(frames [][]byte, attempts int) (sent int, err error)
}
