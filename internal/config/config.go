/**
 * 扫描引擎配置管理
 * @author: sun977
 * @date: 2025.10.21
 * @description: 扫描运行期间只读的配置集合，一次加载，贯穿整个运行生命周期
 */
package config

import (
	"fmt"
	"net"
	"strings"

	"zprobe/internal/validation"
)

// Config 是一次扫描运行的全部只读配置。它在启动时加载一次，此后不会被
// 任何发送线程修改；并发读取是安全的。
type Config struct {
	// 速率与并发配置
	Rate          int `yaml:"rate" mapstructure:"rate"`                     // 每秒发送的探测包数（0 表示不限速）
	Bandwidth     int `yaml:"bandwidth" mapstructure:"bandwidth"`           // 带宽上限（bit/s），与 rate 同时设置时校验失败；发送循环不按此值限速
	Senders       int `yaml:"senders" mapstructure:"senders"`               // 发送线程数
	PacketStreams int `yaml:"packet_streams" mapstructure:"packet_streams"` // 模块校验响应时的源端口接纳窗口大小（numProbes）；发送循环对每个目标只发一个探测包

	// 分片配置：多台机器协同扫描同一目标空间时，各自负责互斥的子集
	ShardNum     int `yaml:"shard_num" mapstructure:"shard_num"`         // 本实例的分片编号（从 0 开始）
	TotalShards  int `yaml:"total_shards" mapstructure:"total_shards"`   // 分片总数
	Retries      int `yaml:"retries" mapstructure:"retries"`             // 发送失败时的重试次数（每帧最多尝试 retries+1 次）
	CooldownSecs int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"` // 发送完毕后等待迟到响应的秒数

	// 批处理
	Batch int `yaml:"batch" mapstructure:"batch"` // 每次系统调用批量发送的包数量

	// 源端口池：用于验证标签的端口维度
	SourcePortFirst uint16 `yaml:"source_port_first" mapstructure:"source_port_first"`
	SourcePortLast  uint16 `yaml:"source_port_last" mapstructure:"source_port_last"`

	// 源地址：配置层只存原始字符串，由 Parsed* 方法解析成 net 类型，
	// 避免给 viper/mapstructure 的解码器塞自定义 Hook。
	SourceIPAddresses []string `yaml:"source_ip_addresses" mapstructure:"source_ip_addresses"` // IPv4 源地址池，轮询使用
	IPv6SourceIP      string   `yaml:"ipv6_source_ip" mapstructure:"ipv6_source_ip"`            // IPv6 源地址（单个）

	// 链路层
	GatewayMAC  string `yaml:"gw_mac" mapstructure:"gw_mac"`       // 网关 MAC，作为以太网目的地址
	HardwareMAC string `yaml:"hw_mac" mapstructure:"hw_mac"`       // 本机出口网卡 MAC，作为以太网源地址
	Interface   string `yaml:"interface" mapstructure:"interface"` // 出口网卡名
	ProbeTTL    uint8  `yaml:"probe_ttl" mapstructure:"probe_ttl"` // IP/IPv6 跳数限制

	// 探测模块选择
	ProbeModule string `yaml:"probe_module" mapstructure:"probe_module"` // 已注册模块名，如 "dns"、"udp6"
	ProbeArgs   string `yaml:"probe_args" mapstructure:"probe_args"`     // 透传给模块 GlobalInit 的参数字符串

	// 目标来源与范围控制
	IPv6TargetFile string `yaml:"ipv6_target_file" mapstructure:"ipv6_target_file"` // IPv6 目标只能来自文件，不支持 CIDR 枚举
	BlocklistFile  string `yaml:"blocklist_file" mapstructure:"blocklist_file"`
	AllowlistFile  string `yaml:"allowlist_file" mapstructure:"allowlist_file"`
	MaxTargets     int64  `yaml:"max_targets" mapstructure:"max_targets"` // 0 表示不限
	MaxRuntimeSecs int64  `yaml:"max_runtime_secs" mapstructure:"max_runtime_secs"`

	// 运行模式
	DryRun bool `yaml:"dryrun" mapstructure:"dryrun"` // 只构造并打印包，不实际发送

	// 验证标签密钥：留空表示每次运行随机生成一个（见 internal/cli 的 RunScan），
	// 显式设置后可在多进程协同分片时复现同一把密钥。
	ValidationKeyHex string `yaml:"validation_key" mapstructure:"validation_key"`

	// 日志配置（环境无关，贯穿所有命令）
	Log *LogConfig `yaml:"log" mapstructure:"log"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // 日志级别 (debug/info/warn/error)
	Format     string `yaml:"format" mapstructure:"format"`           // 日志格式 (json/text)
	Output     string `yaml:"output" mapstructure:"output"`           // 日志输出 (stdout/stderr/file)
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`     // 日志文件路径
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // 最大文件大小（MB）
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // 最大备份数
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // 最大保留天数
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // 是否压缩
	Caller     bool   `yaml:"caller" mapstructure:"caller"`           // 是否显示调用者信息
}

// globalConfig 供命令行各子命令共享的已加载配置；由 LoadConfig 设置一次。
var globalConfig *Config

// GetConfig 返回已加载的全局配置，调用前必须先调用 LoadConfig。
func GetConfig() *Config {
	return globalConfig
}

// setDefaults 为未显式设置的字段填充扫描器的保守默认值。
func setDefaults(cfg *Config) {
	if cfg.Senders == 0 {
		cfg.Senders = 1
	}
	if cfg.PacketStreams == 0 {
		cfg.PacketStreams = 1
	}
	if cfg.TotalShards == 0 {
		cfg.TotalShards = 1
	}
	if cfg.Batch == 0 {
		cfg.Batch = 1
	}
	if cfg.SourcePortFirst == 0 && cfg.SourcePortLast == 0 {
		cfg.SourcePortFirst, cfg.SourcePortLast = 32768, 61000
	}
	if cfg.ProbeTTL == 0 {
		cfg.ProbeTTL = 255
	}
	if cfg.CooldownSecs == 0 {
		cfg.CooldownSecs = 8
	}
	if cfg.Log == nil {
		cfg.Log = &LogConfig{}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
}

// SetDefaults exports setDefaults for callers that build a Config directly
// from CLI flags instead of through a ConfigLoader (e.g. no --config file
// was given).
func SetDefaults(cfg *Config) {
	setDefaults(cfg)
}

// Validate exports validateConfig for the same CLI-built-Config case.
func Validate(cfg *Config) error {
	return validateConfig(cfg)
}

// validateConfig rejects configurations the send pipeline cannot act on.
func validateConfig(cfg *Config) error {
	if cfg.ProbeModule == "" {
		return fmt.Errorf("config: probe_module is required")
	}
	if cfg.SourcePortFirst > cfg.SourcePortLast {
		return fmt.Errorf("config: source_port_first (%d) > source_port_last (%d)", cfg.SourcePortFirst, cfg.SourcePortLast)
	}
	if cfg.ShardNum < 0 || cfg.ShardNum >= cfg.TotalShards {
		return fmt.Errorf("config: shard_num (%d) out of range [0, %d)", cfg.ShardNum, cfg.TotalShards)
	}
	if cfg.Senders < 1 {
		return fmt.Errorf("config: senders must be >= 1")
	}
	if cfg.PacketStreams < 1 {
		return fmt.Errorf("config: packet_streams must be >= 1")
	}
	if cfg.Rate != 0 && cfg.Bandwidth != 0 {
		return fmt.Errorf("config: rate and bandwidth are mutually exclusive")
	}
	if cfg.HardwareMAC != "" {
		if _, err := net.ParseMAC(cfg.HardwareMAC); err != nil {
			return fmt.Errorf("config: hw_mac: %w", err)
		}
	}
	if cfg.GatewayMAC != "" {
		if _, err := net.ParseMAC(cfg.GatewayMAC); err != nil {
			return fmt.Errorf("config: gw_mac: %w", err)
		}
	}
	for _, raw := range cfg.SourceIPAddresses {
		if net.ParseIP(raw) == nil {
			return fmt.Errorf("config: invalid source_ip_addresses entry %q", raw)
		}
	}
	if cfg.IPv6SourceIP != "" && net.ParseIP(cfg.IPv6SourceIP) == nil {
		return fmt.Errorf("config: invalid ipv6_source_ip %q", cfg.IPv6SourceIP)
	}
	if cfg.ValidationKeyHex != "" {
		if _, err := validation.ParseKeyHex(cfg.ValidationKeyHex); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// ParsedHardwareMAC returns the configured outbound interface MAC, or nil
// when unset.
func (c *Config) ParsedHardwareMAC() net.HardwareAddr {
	mac, _ := net.ParseMAC(c.HardwareMAC)
	return mac
}

// ParsedGatewayMAC returns the configured gateway MAC, or nil when unset.
func (c *Config) ParsedGatewayMAC() net.HardwareAddr {
	mac, _ := net.ParseMAC(c.GatewayMAC)
	return mac
}

// ParsedSourceIPs returns the configured IPv4 source address pool.
func (c *Config) ParsedSourceIPs() []net.IP {
	ips := make([]net.IP, 0, len(c.SourceIPAddresses))
	for _, raw := range c.SourceIPAddresses {
		ips = append(ips, net.ParseIP(raw))
	}
	return ips
}

// ParsedIPv6SourceIP returns the configured IPv6 source address, or nil.
func (c *Config) ParsedIPv6SourceIP() net.IP {
	return net.ParseIP(c.IPv6SourceIP)
}

// ParsedValidationKey decodes the configured hex validation key. ok is
// false when none was set, signalling the caller should generate one.
func (c *Config) ParsedValidationKey() (key validation.Key, ok bool, err error) {
	if c.ValidationKeyHex == "" {
		return validation.Key{}, false, nil
	}
	key, err = validation.ParseKeyHex(c.ValidationKeyHex)
	return key, err == nil, err
}

// IsIPv6Target reports whether the configured probe module operates over
// IPv6, inferred from the probe module name ("udp6" and its variants).
func (c *Config) IsIPv6Target() bool {
	return strings.HasSuffix(c.ProbeModule, "6")
}
