package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"zprobe/internal/cli"
)

// newConfigCmd groups config introspection helpers under "zprobe config".
func newConfigCmd() *cobra.Command {
	opts := cli.NewScanOptions()

	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置相关辅助命令",
	}

	dump := &cobra.Command{
		Use:   "dump",
		Short: "解析 --config-file 与标志后，打印最终生效的配置 (YAML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.ToConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("config: marshal: %w", err)
			}
			fmt.Print(string(out))
			return nil
		},
	}
	dump.Flags().StringVar(&opts.ConfigFile, "config-file", opts.ConfigFile, "可选的 YAML 配置文件")
	dump.Flags().StringVar(&opts.Probe, "probe", opts.Probe, "探测模块名，仅用于通过配置校验")
	dump.MarkFlagRequired("probe")

	cmd.AddCommand(dump)
	return cmd
}
