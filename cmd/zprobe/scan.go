package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"zprobe/internal/cli"
)

func newScanCmd() *cobra.Command {
	opts := cli.NewScanOptions()

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "发起一次探测扫描",
		Long:  `对 --targets-file 中列出的目标发起单包探测扫描，使用指定的探测模块。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}

			cfg, err := opts.ToConfig()
			if err != nil {
				return err
			}

			targets, err := cli.LoadTargetsFile(opts.TargetsFile, opts.DefaultPort)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				return fmt.Errorf("zprobe: targets file %q contains no targets", opts.TargetsFile)
			}

			pterm.Info.Printfln("starting scan: probe=%s targets=%d senders=%d rate=%d", cfg.ProbeModule, len(targets), cfg.Senders, cfg.Rate)

			summary, err := cli.RunScan(cfg, targets)
			if err != nil {
				return err
			}

			pterm.Success.Printfln("run %s complete: sent=%d failed=%d hosts=%d",
				summary.RunID, summary.PacketsSent, summary.PacketsFailed, summary.HostsScanned)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.ConfigFile, "config-file", opts.ConfigFile, "可选的 YAML 配置文件，CLI 标志会覆盖其中的同名字段")
	flags.StringVar(&opts.Probe, "probe", opts.Probe, "探测模块名 (dns, udp6)")
	flags.StringVar(&opts.ProbeArgs, "probe-args", opts.ProbeArgs, "透传给探测模块 GlobalInit 的参数字符串")
	flags.StringVar(&opts.TargetsFile, "targets-file", opts.TargetsFile, "目标列表文件，每行一个地址或 地址:端口")
	flags.Uint16Var(&opts.DefaultPort, "default-port", opts.DefaultPort, "目标文件中裸地址行使用的默认端口")
	flags.StringVar(&opts.Interface, "interface", opts.Interface, "出口网卡名")
	flags.StringVar(&opts.HardwareMAC, "hw-mac", opts.HardwareMAC, "本机出口网卡 MAC")
	flags.StringVar(&opts.GatewayMAC, "gw-mac", opts.GatewayMAC, "网关 MAC")
	flags.StringSliceVar(&opts.SourceIPs, "source-ip", opts.SourceIPs, "IPv4 源地址池，可重复指定")
	flags.StringVar(&opts.IPv6SourceIP, "ipv6-source-ip", opts.IPv6SourceIP, "IPv6 源地址")
	flags.IntVar(&opts.Rate, "rate", opts.Rate, "每秒发送的探测包总数 (0 表示不限速)")
	flags.IntVar(&opts.Senders, "senders", opts.Senders, "发送线程数")
	flags.IntVar(&opts.Batch, "batch", opts.Batch, "每次系统调用批量发送的包数量")
	flags.IntVar(&opts.Retries, "retries", opts.Retries, "发送失败时的重试次数")
	flags.Uint8Var(&opts.ProbeTTL, "probe-ttl", opts.ProbeTTL, "IP/IPv6 跳数限制")
	flags.IntVar(&opts.PacketStreams, "packet-streams", opts.PacketStreams, "模块校验响应时的源端口接纳窗口大小 (发送循环对每个目标只发一个探测包)")
	flags.IntVar(&opts.ShardNum, "shard-num", opts.ShardNum, "本实例的分片编号")
	flags.IntVar(&opts.TotalShards, "total-shards", opts.TotalShards, "分片总数")
	flags.Int64Var(&opts.MaxTargets, "max-targets", opts.MaxTargets, "每个发送线程扫描的目标数上限 (0 表示不限)")
	flags.Int64Var(&opts.MaxRuntimeSecs, "max-runtime-secs", opts.MaxRuntimeSecs, "运行时长上限，单位秒 (0 表示不限)")
	flags.StringVar(&opts.ValidationKeyHex, "validation-key", opts.ValidationKeyHex, "32 位十六进制验证标签密钥 (留空则随机生成)")
	flags.BoolVar(&opts.DryRun, "dry-run", opts.DryRun, "只构造并打印包，不实际发送")

	cmd.MarkFlagRequired("probe")
	cmd.MarkFlagRequired("targets-file")

	return cmd
}
