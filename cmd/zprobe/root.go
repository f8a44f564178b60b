/*
 * @description: Cobra 根命令定义
 */

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"zprobe/internal/config"
	"zprobe/internal/pkg/logger"

	_ "zprobe/internal/probe/dns"
	_ "zprobe/internal/probe/udp6"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "zprobe",
	Short: "zprobe 单包互联网探测引擎",
	Long: `zprobe 以恒定速率构造并发送单个探测包，对响应做无状态校验和分类，
不维护任何每条流的连接状态。

示例:
  zprobe scan --probe dns --targets-file hosts.txt --interface eth0 --rate 1000
  zprobe modules list
  zprobe modules template-fields
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initCLILogger(cmd)
	},
}

// Execute 运行根命令，带全局 panic 恢复。
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n[FATAL] zprobe crashed unexpectedly: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认: ./configs/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "日志级别 (debug, info, warn, error)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newModulesCmd())
	rootCmd.AddCommand(newConfigCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// initCLILogger 根据 --log-level 初始化日志，并联动 pterm 的输出开关。
func initCLILogger(cmd *cobra.Command) {
	flag := cmd.Flags().Lookup("log-level")
	level := "info"
	if flag != nil && flag.Changed {
		level = flag.Value.String()
	}

	switch level {
	case "debug":
		pterm.EnableDebugMessages()
	case "info":
		pterm.DisableDebugMessages()
	case "warn", "error", "fatal":
		pterm.DisableDebugMessages()
		pterm.Info = *pterm.Info.WithWriter(io.Discard)
	}

	logConfig := &config.LogConfig{
		Level:  level,
		Format: "text",
		Output: "stdout",
		Caller: false,
	}
	if _, err := logger.InitLogger(logConfig); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
	}
}
