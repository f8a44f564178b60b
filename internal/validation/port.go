package validation

// GetSrcPort implements the pool-based source port allocator from spec
// §4.5: source_port_first + (validation[1] + probeNum) mod num_src_ports.
func GetSrcPort(tag Tag, probeNum int, first, last uint16) uint16 {
	numSrcPorts := uint32(last) - uint32(first) + 1
	offset := (tag[1] + uint32(probeNum)) % numSrcPorts
	return first + uint16(offset)
}

// CheckDstPort validates a returning probe's destination port (our
// original source port) against the contiguous admission window
// [validation[1] mod N, (validation[1]+numProbes-1) mod N] modulo
// num_src_ports, where validation is recomputed from the observed flow.
// This admits any of the run's numProbes probes to a given target without
// per-probe state.
func CheckDstPort(port uint16, numProbes int, tag Tag, first, last uint16) bool {
	numSrcPorts := uint32(last) - uint32(first) + 1
	if uint32(port) < uint32(first) || uint32(port) > uint32(last) {
		return false
	}
	offset := uint32(port) - uint32(first)
	start := tag[1] % numSrcPorts
	for i := uint32(0); i < uint32(numProbes); i++ {
		if (start+i)%numSrcPorts == offset {
			return true
		}
	}
	return false
}
