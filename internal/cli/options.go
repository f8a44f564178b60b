package cli

import (
	"fmt"

	"zprobe/internal/config"
)

// ScanOptions holds the scan command's CLI flags before they are merged
// onto a config.Config. Mirrors the teacher's options-struct-per-command
// pattern (internal/core/options): a plain struct with defaults,
// Validate, and a conversion step, just converting into a Config instead
// of a distributed Task.
type ScanOptions struct {
	ConfigFile string

	Probe     string
	ProbeArgs string

	TargetsFile string
	DefaultPort uint16

	Interface   string
	HardwareMAC string
	GatewayMAC  string

	SourceIPs    []string
	IPv6SourceIP string

	Rate          int
	Senders       int
	Batch         int
	Retries       int
	ProbeTTL      uint8
	PacketStreams int

	ShardNum    int
	TotalShards int

	MaxTargets     int64
	MaxRuntimeSecs int64

	ValidationKeyHex string
	DryRun           bool
}

// NewScanOptions returns a ScanOptions with the same conservative
// defaults config.SetDefaults fills in for an unset Config, so a bare
// "zprobe scan --probe dns --targets-file hosts.txt" works.
func NewScanOptions() *ScanOptions {
	return &ScanOptions{
		Senders:       1,
		Batch:         1,
		TotalShards:   1,
		ProbeTTL:      255,
		DefaultPort:   53,
		PacketStreams: 1,
	}
}

// Validate checks the flags that Config's own validation can't, because
// they're CLI-only (the targets file) or need to be checked before a
// Config even exists.
func (o *ScanOptions) Validate() error {
	if o.Probe == "" {
		return fmt.Errorf("cli: --probe is required")
	}
	if o.TargetsFile == "" {
		return fmt.Errorf("cli: --targets-file is required")
	}
	return nil
}

// ToConfig builds a Config from either the loaded --config file (if any)
// or scratch, then overlays every explicitly-relevant flag. Flags always
// win over the file, matching the teacher's "global > command > file"
// precedence intent in its own viper-backed loader.
func (o *ScanOptions) ToConfig() (*config.Config, error) {
	var cfg *config.Config
	if o.ConfigFile != "" {
		loaded, err := config.LoadConfigFromFile(o.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = &config.Config{}
	}

	cfg.ProbeModule = o.Probe
	cfg.ProbeArgs = o.ProbeArgs
	cfg.Interface = o.Interface
	if o.HardwareMAC != "" {
		cfg.HardwareMAC = o.HardwareMAC
	}
	if o.GatewayMAC != "" {
		cfg.GatewayMAC = o.GatewayMAC
	}
	if len(o.SourceIPs) > 0 {
		cfg.SourceIPAddresses = o.SourceIPs
	}
	if o.IPv6SourceIP != "" {
		cfg.IPv6SourceIP = o.IPv6SourceIP
	}
	if o.Rate > 0 {
		cfg.Rate = o.Rate
	}
	if o.Senders > 0 {
		cfg.Senders = o.Senders
	}
	if o.Batch > 0 {
		cfg.Batch = o.Batch
	}
	cfg.Retries = o.Retries
	if o.ProbeTTL > 0 {
		cfg.ProbeTTL = o.ProbeTTL
	}
	if o.PacketStreams > 0 {
		cfg.PacketStreams = o.PacketStreams
	}
	cfg.ShardNum = o.ShardNum
	if o.TotalShards > 0 {
		cfg.TotalShards = o.TotalShards
	}
	cfg.MaxTargets = o.MaxTargets
	cfg.MaxRuntimeSecs = o.MaxRuntimeSecs
	cfg.DryRun = o.DryRun
	if o.ValidationKeyHex != "" {
		cfg.ValidationKeyHex = o.ValidationKeyHex
	}

	config.SetDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
