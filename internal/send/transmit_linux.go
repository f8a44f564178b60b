//go:build linux

package send

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// PacketSocketTransmitter sends pre-built Ethernet frames through an
// AF_PACKET SOCK_RAW socket bound to a single interface — the Linux
// analog of the teacher's netraw.RawSocket, generalized from an
// AF_INET/IP_HDRINCL raw socket (which excludes the Ethernet header
// probe modules here build themselves) to a link-layer packet socket via
// golang.org/x/sys/unix, per SPEC_FULL's domain-stack wiring.
type PacketSocketTransmitter struct {
	fd      int
	ifindex int
}

// NewPacketSocketTransmitter opens and binds the packet socket. Requires
// CAP_NET_RAW (or root) like any raw-socket sender.
func NewPacketSocketTransmitter(ifaceName string) (*PacketSocketTransmitter, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("send: interface %q: %w", ifaceName, err)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, fmt.Errorf("send: open packet socket: %w", err)
	}

	addr := unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("send: bind to %q: %w", ifaceName, err)
	}

	return &PacketSocketTransmitter{fd: fd, ifindex: iface.Index}, nil
}

// Close releases the underlying file descriptor.
func (t *PacketSocketTransmitter) Close() error {
	return unix.Close(t.fd)
}

// SendBatch writes every frame in order, retrying each individually up to
// attempts times on a transient send error, matching spec §5's
// "send-syscall retries" (the only retry policy this package implements).
func (t *PacketSocketTransmitter) SendBatch(frames [][]byte, attempts int) (sent int, err error) {
	if attempts < 1 {
		attempts = 1
	}
	addr := unix.SockaddrLinklayer{Ifindex: t.ifindex}

	var firstErr error
	for _, frame := range frames {
		var sendErr error
		for attempt := 0; attempt < attempts; attempt++ {
			sendErr = unix.Sendto(t.fd, frame, 0, &addr)
			if sendErr == nil {
				break
			}
		}
		if sendErr != nil {
			if firstErr == nil {
				firstErr = sendErr
			}
			continue
		}
		sent++
	}
	if firstErr != nil {
		return sent, fmt.Errorf("send: sendto: %w", firstErr)
	}
	return sent, nil
}

func htons(v uint16) uint16 {
	return (v << 8) | (v >> 8)
}
