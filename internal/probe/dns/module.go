package dns

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"net"
	"strings"
	"time"

	"zprobe/internal/config"
	"zprobe/internal/packet"
	"zprobe/internal/probe"
	"zprobe/internal/validation"
)

const moduleName = "dns"

// threadCtx is the per-send-thread state ThreadInit returns: an
// independent RNG seeded from the wall clock. MakePacket does not read it;
// every field it writes comes from the validation tag, probeNum and the
// caller's ipID.
type threadCtx struct {
	rng *rand.Rand
}

// Module implements probe.Module for DNS/UDP scanning.
type Module struct {
	queries []PrebuiltQuery
	padMode bool

	srcPortFirst, srcPortLast uint16
	packetStreams             int
}

func init() {
	probe.Register(&Module{})
}

func (m *Module) Name() string            { return moduleName }
func (m *Module) BPFFilter() string       { return "udp and src port 53" }
func (m *Module) Snaplen() int            { return 1500 }
func (m *Module) MaxPacketLength() int    { return 1500 }
func (m *Module) PortArgs() bool          { return false }
func (m *Module) OutputType() probe.OutputType { return probe.OutputDynamic }

func (m *Module) Fields() []probe.FieldDef {
	return []probe.FieldDef{
		{Name: "dns_id", Type: probe.FieldInt},
		{Name: "dns_rd", Type: probe.FieldBool},
		{Name: "dns_tc", Type: probe.FieldBool},
		{Name: "dns_aa", Type: probe.FieldBool},
		{Name: "dns_opcode", Type: probe.FieldInt},
		{Name: "dns_qr", Type: probe.FieldBool},
		{Name: "dns_rcode", Type: probe.FieldInt},
		{Name: "dns_cd", Type: probe.FieldBool},
		{Name: "dns_ad", Type: probe.FieldBool},
		{Name: "dns_ra", Type: probe.FieldBool},
		{Name: "dns_qdcount", Type: probe.FieldInt},
		{Name: "dns_ancount", Type: probe.FieldInt},
		{Name: "dns_nscount", Type: probe.FieldInt},
		{Name: "dns_arcount", Type: probe.FieldInt},
		{Name: "questions", Type: probe.FieldRepeated},
		{Name: "answers", Type: probe.FieldRepeated},
		{Name: "authorities", Type: probe.FieldRepeated},
		{Name: "additionals", Type: probe.FieldRepeated},
		{Name: "dns_parse_err", Type: probe.FieldBool},
		{Name: "dns_unconsumed_bytes", Type: probe.FieldInt},
		{Name: "udp_len", Type: probe.FieldInt},
		{Name: "raw_data", Type: probe.FieldBinary},
		{Name: "classification", Type: probe.FieldString},
		{Name: "success", Type: probe.FieldBool},
		{Name: "app_success", Type: probe.FieldBool},
	}
}

// GlobalInit parses --probe-args into one or more prebuilt query payloads.
// From cfg it keeps only the source port pool and packet_streams, which
// MakePacket and ValidatePacket use for the port dimension of the
// validation tag.
func (m *Module) GlobalInit(cfg *config.Config, args string) error {
	m.srcPortFirst, m.srcPortLast = cfg.SourcePortFirst, cfg.SourcePortLast
	m.packetStreams = cfg.PacketStreams

	m.padMode = hasPadModeFlag(args)
	questions, err := ParseArgs(stripPadModeFlag(args))
	if err != nil {
		return err
	}

	var pad []byte
	if m.padMode {
		pad = reservedPadPrefix()
	}

	m.queries = make([]PrebuiltQuery, 0, len(questions))
	for _, q := range questions {
		pq, err := BuildQuery(q, pad)
		if err != nil {
			return err
		}
		m.queries = append(m.queries, pq)
	}
	return nil
}

func (m *Module) ThreadInit() (probe.ThreadCtx, error) {
	return &threadCtx{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}, nil
}

func (m *Module) PreparePacket(buf []byte, srcMAC, gwMAC net.HardwareAddr, tc probe.ThreadCtx) error {
	for i := range buf {
		buf[i] = 0
	}
	packet.MakeEthHeader(buf, srcMAC, gwMAC, packet.EthertypeIPv4)
	return nil
}

// MakePacket finalizes one DNS/UDP probe frame: the question rotates
// through m.queries by probeNum mod len(m.queries) (spec §4.3.3 — the
// scheduler is responsible for packet_streams being a multiple of the
// question count), the header ID is set to the low 16 bits of the
// validation tag's third word, and the IP-padding label (if enabled) is
// written with the actual source address for this probe.
func (m *Module) MakePacket(buf []byte, srcIP, dstIP net.IP, dport uint16, ttl uint8,
	tag validation.Tag, probeNum int, ipID uint16, tc probe.ThreadCtx) (int, error) {

	q := m.queries[probeNum%len(m.queries)]
	srcPort := validation.GetSrcPort(tag, probeNum, m.srcPortFirst, m.srcPortLast)

	const ethLen = packet.EthernetHeaderLen
	ipOff := ethLen
	udpOff := ipOff + packet.IPv4HeaderLen
	dnsOff := udpOff + packet.UDPHeaderLen

	dnsLen := q.WriteID(buf[dnsOff:], uint16(tag[2]))
	if m.padMode {
		pad := EncodePadLabel(srcIP)
		copy(buf[dnsOff+headerLen:dnsOff+headerLen+len(pad)], pad)
	}

	totalLen := dnsOff + dnsLen
	udpLen := packet.UDPHeaderLen + dnsLen

	s4, d4 := toIPv4Array(srcIP), toIPv4Array(dstIP)
	packet.MakeIPv4Header(buf[ipOff:ipOff+packet.IPv4HeaderLen], packet.ProtoUDP, uint16(totalLen-ipOff), ttl, ipID, s4, d4)

	packet.MakeUDPHeader(buf[udpOff:udpOff+packet.UDPHeaderLen], srcPort, dport, uint16(udpLen))
	csum := packet.IPv4PseudoChecksum(s4, d4, packet.ProtoUDP, buf[udpOff:totalLen])
	packet.WriteUDPChecksum(buf[udpOff:udpOff+packet.UDPHeaderLen], csum)

	ipCsum := packet.IPv4Checksum(buf[ipOff : ipOff+packet.IPv4HeaderLen])
	binary.BigEndian.PutUint16(buf[ipOff+10:ipOff+12], ipCsum)

	return totalLen, nil
}

// ValidatePacket classifies a received IPv4 datagram (starting at the IP
// header) as an accepted DNS response or ICMP error for one of our
// probes.
func (m *Module) ValidatePacket(ipHdr []byte, ports probe.PortRange, key validation.Key) (ok bool, srcIP net.IP, tag validation.Tag) {
	if len(ipHdr) < packet.IPv4HeaderLen {
		return false, nil, validation.Tag{}
	}
	ihl := int(ipHdr[0]&0x0F) * 4
	if ihl < packet.IPv4HeaderLen || len(ipHdr) < ihl {
		return false, nil, validation.Tag{}
	}
	proto := ipHdr[9]
	theirIP := net.IP(append([]byte(nil), ipHdr[12:16]...))
	ourIP := net.IP(append([]byte(nil), ipHdr[16:20]...))

	if proto == packet.ProtoUDP {
		if len(ipHdr) < ihl+packet.UDPHeaderLen {
			return false, nil, validation.Tag{}
		}
		udp := ipHdr[ihl:]
		theirPort := binary.BigEndian.Uint16(udp[0:2])
		ourPort := binary.BigEndian.Uint16(udp[2:4])

		candidate := validation.ForIPv4(key, ourIP, theirIP, theirPort)
		if !validation.CheckDstPort(ourPort, m.admissionWindow(), candidate, ports.First, ports.Last) {
			return false, nil, validation.Tag{}
		}

		dnsPayload := udp[packet.UDPHeaderLen:]
		for _, q := range m.queries {
			if ValidateResponse(dnsPayload, q, uint16(candidate[2])) {
				return true, theirIP, candidate
			}
		}
		return false, nil, validation.Tag{}
	}

	// ICMP error referencing one of our DNS probes. innerL4 is the quoted
	// UDP header of the original packet we sent: its src port is ours
	// (drawn from the pool), its dst port is the target's (e.g. 53).
	// blocklist is nil here, so the inner destination isn't re-checked
	// against scope on this path; AcceptICMPv4Error takes one via its
	// parameter for a caller that wires a real Blocklist in.
	responder, innerDst, innerL4, _, _, icmpOK := probe.AcceptICMPv4Error(ipHdr, nil, packet.UDPHeaderLen)
	if !icmpOK {
		return false, nil, validation.Tag{}
	}
	ourPort := binary.BigEndian.Uint16(innerL4[0:2])
	theirPort := binary.BigEndian.Uint16(innerL4[2:4])
	candidate := validation.ForIPv4(key, ourIP, innerDst, theirPort)
	if !validation.CheckDstPort(ourPort, m.admissionWindow(), candidate, ports.First, ports.Last) {
		return false, nil, validation.Tag{}
	}
	return true, responder, candidate
}

// admissionWindow sizes CheckDstPort's source-port admission window to the
// run's configured packet_streams (spec §4.5), the probeNum range
// MakePacket's GetSrcPort call draws from.
func (m *Module) admissionWindow() int {
	streams := m.packetStreams
	if streams < 1 {
		streams = 1
	}
	return streams
}

func (m *Module) ProcessPacket(frame []byte, fs probe.FieldSet, tag validation.Tag, ts time.Time) error {
	ihl := int(frame[0]&0x0F) * 4
	proto := frame[9]
	if proto != packet.ProtoUDP {
		fs.SetString("classification", "icmp-unreach")
		fs.SetBool("success", false)
		return nil
	}
	udp := frame[ihl:]
	dnsPayload := udp[packet.UDPHeaderLen:]

	msg := Parse(dnsPayload)
	fs.SetInt("dns_id", int64(msg.Header.ID))
	fs.SetBool("dns_rd", msg.Header.RD)
	fs.SetBool("dns_tc", msg.Header.TC)
	fs.SetBool("dns_aa", msg.Header.AA)
	fs.SetInt("dns_opcode", int64(msg.Header.Opcode))
	fs.SetBool("dns_qr", msg.Header.QR)
	fs.SetInt("dns_rcode", int64(msg.Header.RCode))
	fs.SetBool("dns_cd", msg.Header.CD)
	fs.SetBool("dns_ad", msg.Header.AD)
	fs.SetBool("dns_ra", msg.Header.RA)
	fs.SetInt("dns_qdcount", int64(msg.Header.QDCount))
	fs.SetInt("dns_ancount", int64(msg.Header.ANCount))
	fs.SetInt("dns_nscount", int64(msg.Header.NSCount))
	fs.SetInt("dns_arcount", int64(msg.Header.ARCount))

	writeQuestions(fs.Repeated("questions"), msg.Questions)
	writeRRs(fs.Repeated("answers"), msg.Answers)
	writeRRs(fs.Repeated("authorities"), msg.Authorities)
	writeRRs(fs.Repeated("additionals"), msg.Additionals)

	fs.SetBool("dns_parse_err", msg.ParseErr)
	fs.SetInt("dns_unconsumed_bytes", int64(msg.UnconsumedBytes))
	fs.SetInt("udp_len", int64(len(udp)))
	fs.SetBinary("raw_data", dnsPayload)

	appSuccess := msg.Header.QR && msg.Header.RCode == 0
	fs.SetString("classification", "dns")
	fs.SetBool("success", true)
	fs.SetBool("app_success", appSuccess)
	return nil
}

func writeQuestions(sink probe.FieldSet, qs []QuestionRecord) {
	for _, q := range qs {
		rec := sink.Repeated("question")
		rec.SetString("name", q.Name)
		rec.SetInt("qtype", int64(q.QType))
		rec.SetInt("qclass", int64(q.QClass))
	}
}

func writeRRs(sink probe.FieldSet, rrs []ResourceRecord) {
	for _, rr := range rrs {
		rec := sink.Repeated("rr")
		rec.SetString("name", rr.Name)
		rec.SetInt("type", int64(rr.Type))
		rec.SetInt("class", int64(rr.Class))
		rec.SetInt("ttl", int64(rr.TTL))
		rec.SetBool("rdata_is_parsed", rr.RDataParsed)
		if rr.RDataParsed {
			rec.SetString("rdata", rr.RDataText)
		} else {
			rec.SetBinary("rdata", rr.RDataRaw)
		}
	}
}

func (m *Module) PrintPacket(sink io.Writer, frame []byte) {
	fmt.Fprintf(sink, "dns frame: %d bytes\n", len(frame))
}

func (m *Module) Close(cfg *config.Config) error { return nil }

func toIPv4Array(ip net.IP) [4]byte {
	var a [4]byte
	copy(a[:], ip.To4())
	return a
}

// padModeArg is an additional ';'-delimited token (alongside the question
// specs) that turns on the IP-padding mode.
const padModeArg = "pad-ip"

func hasPadModeFlag(args string) bool {
	for _, tok := range strings.Split(args, ";") {
		if strings.TrimSpace(tok) == padModeArg {
			return true
		}
	}
	return false
}

func stripPadModeFlag(args string) string {
	parts := strings.Split(args, ";")
	kept := make([]string, 0, len(parts))
	for _, tok := range parts {
		if strings.TrimSpace(tok) != padModeArg {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, ";")
}
