package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"zprobe/internal/probe"
	"zprobe/internal/probe/udp6"
)

func newModulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "查看已注册的探测模块信息",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "列出所有已注册的探测模块",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range probe.Names() {
				pterm.Println(name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "template-fields",
		Short: "列出 udp6 模块的 --probe-args template 可用字段",
		RunE: func(cmd *cobra.Command, args []string) error {
			table := pterm.TableData{{"Field", "Description"}}
			for _, f := range udp6.FieldCatalog() {
				table = append(table, []string{f[0], f[1]})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
		},
	})

	return cmd
}
