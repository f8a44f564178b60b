// Package probe defines the probe-module capability interface every probe
// strategy implements (a Go-idiomatic replacement for the original's
// function-pointer vtable, spec §9), the static name-keyed registry, and
// the ICMP-error acceptance helper shared across modules.
package probe

import (
	"io"
	"net"
	"time"

	"zprobe/internal/config"
	"zprobe/internal/validation"
)

// FieldType enumerates the output field kinds a module can publish.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldBool
	FieldBinary
	FieldRepeated
)

// FieldDef documents one output column a module emits.
type FieldDef struct {
	Name        string
	Type        FieldType
	Description string
}

// OutputType distinguishes modules with a fixed schema from ones whose
// output shape can vary by response.
type OutputType int

const (
	OutputStatic OutputType = iota
	OutputDynamic
)

// FieldSet is the externally-owned, structured output sink a module's
// ProcessPacket populates. Nested "repeated" sub-records (DNS answer
// sections, for instance) are themselves FieldSets.
type FieldSet interface {
	SetString(name, value string)
	SetInt(name string, value int64)
	SetBool(name string, value bool)
	SetBinary(name string, value []byte)
	// Repeated appends and returns a new nested FieldSet under name, for
	// modules whose output includes repeated sub-records.
	Repeated(name string) FieldSet
}

// PortRange is the admissible source-port pool a module's ValidatePacket
// checks a returning probe's destination port against.
type PortRange struct {
	First, Last uint16
}

// ThreadCtx is the opaque, module-private value returned by ThreadInit and
// threaded back through PreparePacket/MakePacket — the Go analog of the
// original's per-thread void* context.
type ThreadCtx any

// Module is the capability interface every probe strategy implements.
// Error signalling uses ordinary Go errors; nil means success.
type Module interface {
	Name() string
	BPFFilter() string
	Snaplen() int
	MaxPacketLength() int
	PortArgs() bool
	OutputType() OutputType
	Fields() []FieldDef

	// GlobalInit runs once, before any send thread starts. It parses the
	// module's own --probe-args string and must set every prebuilt buffer
	// the module needs for the rest of the run. cfg is the run's full,
	// read-only configuration: modules that need fields beyond their own
	// args (probe_ttl, the source port pool) read them from here.
	GlobalInit(cfg *config.Config, args string) error

	// ThreadInit runs once per send thread and returns a module-private
	// context threaded back through PreparePacket and MakePacket.
	ThreadInit() (ThreadCtx, error)

	// PreparePacket lays down the invariant header prefix into a reusable
	// batch slot. It must zero buf first.
	PreparePacket(buf []byte, srcMAC, gwMAC net.HardwareAddr, tc ThreadCtx) error

	// MakePacket finalizes one frame in place and returns its length.
	MakePacket(buf []byte, srcIP, dstIP net.IP, dport uint16, ttl uint8,
		tag validation.Tag, probeNum int, ipID uint16, tc ThreadCtx) (int, error)

	// ValidatePacket is a stateless classifier over a received IP header
	// (and whatever follows it in the same buffer). ports is the
	// configured source-port pool; key recomputes the validation tag for
	// comparison against the observed flow.
	ValidatePacket(ipHdr []byte, ports PortRange, key validation.Key) (ok bool, srcIP net.IP, tag validation.Tag)

	// ProcessPacket populates fs from an accepted frame. It must never
	// fail once ValidatePacket has accepted the frame.
	ProcessPacket(frame []byte, fs FieldSet, tag validation.Tag, ts time.Time) error

	// PrintPacket is the dry-run formatter.
	PrintPacket(sink io.Writer, frame []byte)

	// Close releases resources allocated in GlobalInit.
	Close(cfg *config.Config) error
}
