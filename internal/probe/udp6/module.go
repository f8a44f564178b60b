package udp6

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"net"
	"time"

	"zprobe/internal/config"
	"zprobe/internal/packet"
	"zprobe/internal/probe"
	"zprobe/internal/validation"
)

const moduleName = "udp6"

type threadCtx struct {
	rng *rand.Rand
}

// Module implements probe.Module for a fixed or templated IPv6/UDP
// payload.
type Module struct {
	spec       Spec
	sourceHost string // cfg.IPv6SourceIP, captured at GlobalInit for BPFFilter()

	srcPortFirst, srcPortLast uint16
	packetStreams             int
}

func init() {
	probe.Register(&Module{})
}

func (m *Module) Name() string         { return moduleName }
func (m *Module) Snaplen() int         { return 1514 }
func (m *Module) MaxPacketLength() int { return 1514 }
func (m *Module) PortArgs() bool       { return false }
func (m *Module) OutputType() probe.OutputType { return probe.OutputStatic }

// BPFFilter is constrained to frames destined to the configured IPv6
// source address, so a multi-scanner host's shared capture doesn't pick
// up another run's replies (spec §4.4).
func (m *Module) BPFFilter() string {
	return fmt.Sprintf("(udp or icmp6) and ip6 dst host %s", m.sourceHost)
}

func (m *Module) Fields() []probe.FieldDef {
	return []probe.FieldDef{
		{Name: "classification", Type: probe.FieldString},
		{Name: "success", Type: probe.FieldBool},
		{Name: "sport", Type: probe.FieldInt},
		{Name: "dport", Type: probe.FieldInt},
		{Name: "udp_pkt_size", Type: probe.FieldInt},
		{Name: "data", Type: probe.FieldBinary},
		{Name: "icmp_type", Type: probe.FieldInt},
		{Name: "icmp_code", Type: probe.FieldInt},
		{Name: "icmp_responder", Type: probe.FieldString},
		{Name: "saddr", Type: probe.FieldString},
	}
}

func (m *Module) GlobalInit(cfg *config.Config, args string) error {
	spec, err := ParseArgs(args)
	if err != nil {
		return err
	}
	m.spec = spec
	m.sourceHost = cfg.IPv6SourceIP
	m.srcPortFirst, m.srcPortLast = cfg.SourcePortFirst, cfg.SourcePortLast
	m.packetStreams = cfg.PacketStreams
	return nil
}

func (m *Module) ThreadInit() (probe.ThreadCtx, error) {
	return &threadCtx{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}, nil
}

func (m *Module) PreparePacket(buf []byte, srcMAC, gwMAC net.HardwareAddr, tc probe.ThreadCtx) error {
	for i := range buf {
		buf[i] = 0
	}
	packet.MakeEthHeader(buf, srcMAC, gwMAC, packet.EthertypeIPv6)
	return nil
}

func (m *Module) MakePacket(buf []byte, srcIP, dstIP net.IP, dport uint16, ttl uint8,
	tag validation.Tag, probeNum int, ipID uint16, tc probe.ThreadCtx) (int, error) {

	ctx, _ := tc.(*threadCtx)
	srcPort := validation.GetSrcPort(tag, probeNum, m.srcPortFirst, m.srcPortLast)

	const ethLen = packet.EthernetHeaderLen
	ipOff := ethLen
	udpOff := ipOff + packet.IPv6HeaderLen
	dataOff := udpOff + packet.UDPHeaderLen

	maxPayload := len(buf) - dataOff
	if maxPayload > MaxUDPPayloadLen {
		maxPayload = MaxUDPPayloadLen
	}

	var payloadLen int
	if m.spec.Template != nil {
		n, err := m.spec.Template.Render(buf[dataOff:dataOff+maxPayload], srcIP, dstIP, srcPort, dport, ctx.rng)
		if err != nil {
			return 0, err
		}
		payloadLen = n
	} else {
		payloadLen = copy(buf[dataOff:dataOff+maxPayload], m.spec.Payload)
	}

	udpLen := packet.UDPHeaderLen + payloadLen
	totalLen := dataOff + payloadLen

	s16, d16 := toIPv6Array(srcIP), toIPv6Array(dstIP)
	packet.MakeIPv6Header(buf[ipOff:ipOff+packet.IPv6HeaderLen], packet.ProtoUDP, uint16(udpLen), ttl, s16, d16)

	packet.MakeUDPHeader(buf[udpOff:udpOff+packet.UDPHeaderLen], srcPort, dport, uint16(udpLen))
	csum := packet.IPv6PseudoChecksum(s16, d16, packet.ProtoUDP, buf[udpOff:totalLen])
	packet.WriteUDPChecksum(buf[udpOff:udpOff+packet.UDPHeaderLen], csum)

	return totalLen, nil
}

func (m *Module) ValidatePacket(ipHdr []byte, ports probe.PortRange, key validation.Key) (ok bool, srcIP net.IP, tag validation.Tag) {
	if len(ipHdr) < packet.IPv6HeaderLen {
		return false, nil, validation.Tag{}
	}
	nextHeader := ipHdr[6]
	theirIP := net.IP(append([]byte(nil), ipHdr[8:24]...))
	ourIP := net.IP(append([]byte(nil), ipHdr[24:40]...))

	if nextHeader == packet.ProtoUDP {
		udp := ipHdr[packet.IPv6HeaderLen:]
		if len(udp) < packet.UDPHeaderLen {
			return false, nil, validation.Tag{}
		}
		theirPort := binary.BigEndian.Uint16(udp[0:2])
		ourPort := binary.BigEndian.Uint16(udp[2:4])

		candidate := validation.ForIPv6(key, ourIP, theirIP, theirPort)
		if !validation.CheckDstPort(ourPort, m.admissionWindow(), candidate, ports.First, ports.Last) {
			return false, nil, validation.Tag{}
		}
		return true, theirIP, candidate
	}

	// blocklist is nil here; AcceptICMPv6Error takes one via its parameter
	// for a caller that wants the inner destination re-checked against
	// scope.
	responder, innerDst, innerL4, _, _, icmpOK := probe.AcceptICMPv6Error(ipHdr, nil, packet.UDPHeaderLen)
	if !icmpOK {
		return false, nil, validation.Tag{}
	}
	ourPort := binary.BigEndian.Uint16(innerL4[0:2])
	theirPort := binary.BigEndian.Uint16(innerL4[2:4])
	candidate := validation.ForIPv6(key, ourIP, innerDst, theirPort)
	if !validation.CheckDstPort(ourPort, m.admissionWindow(), candidate, ports.First, ports.Last) {
		return false, nil, validation.Tag{}
	}
	return true, responder, candidate
}

// admissionWindow sizes CheckDstPort's source-port admission window to the
// run's configured packet_streams (spec §4.5).
func (m *Module) admissionWindow() int {
	if m.packetStreams < 1 {
		return 1
	}
	return m.packetStreams
}

func (m *Module) ProcessPacket(frame []byte, fs probe.FieldSet, tag validation.Tag, ts time.Time) error {
	nextHeader := frame[6]
	ourIP := net.IP(append([]byte(nil), frame[24:40]...))

	if nextHeader == packet.ProtoUDP {
		udp := frame[packet.IPv6HeaderLen:]
		sport := binary.BigEndian.Uint16(udp[0:2])
		dport := binary.BigEndian.Uint16(udp[2:4])
		udpLen := binary.BigEndian.Uint16(udp[4:6])
		data := udp[packet.UDPHeaderLen:]
		n := min3(len(frame)-packet.IPv6HeaderLen-packet.UDPHeaderLen, int(udpLen)-packet.UDPHeaderLen, len(data))
		if n < 0 {
			n = 0
		}

		fs.SetString("classification", "udp")
		fs.SetBool("success", true)
		fs.SetInt("sport", int64(sport))
		fs.SetInt("dport", int64(dport))
		fs.SetInt("udp_pkt_size", int64(udpLen))
		fs.SetBinary("data", data[:n])
		fs.SetString("saddr", ourIP.String())
		return nil
	}

	// ValidatePacket already confirmed this is a Destination Unreachable
	// quoting one of our own probes; here we just extract fields for
	// output. Anything else falls through to "other" below.
	icmpType := frame[packet.IPv6HeaderLen]
	icmpCode := frame[packet.IPv6HeaderLen+1]
	const icmpv6DestUnreach = 1
	if icmpType == icmpv6DestUnreach {
		inner := frame[packet.IPv6HeaderLen+8:]
		var innerDst net.IP
		if len(inner) >= packet.IPv6HeaderLen {
			innerDst = net.IP(append([]byte(nil), inner[24:40]...))
		}
		fs.SetString("classification", "icmp-unreach")
		fs.SetBool("success", false)
		fs.SetInt("icmp_type", int64(icmpType))
		fs.SetInt("icmp_code", int64(icmpCode))
		fs.SetString("icmp_responder", net.IP(append([]byte(nil), frame[8:24]...)).String())
		if innerDst != nil {
			fs.SetString("saddr", innerDst.String())
		}
		return nil
	}

	fs.SetString("classification", "other")
	fs.SetBool("success", false)
	return nil
}

func (m *Module) PrintPacket(sink io.Writer, frame []byte) {
	fmt.Fprintf(sink, "udp6 frame: %d bytes\n", len(frame))
}

func (m *Module) Close(cfg *config.Config) error { return nil }

func toIPv6Array(ip net.IP) [16]byte {
	var a [16]byte
	copy(a[:], ip.To16())
	return a
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
