package root

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "panelix-setup",
	Short: "Panelix安装与升级管理器",
	Long:  `panelix-setup probes the host, installs Panelix with its dependencies, supervises it under systemd and migrates installations between versions`,
	// errors are printed once by main with the proper exit code
	SilenceUsage:  true,
	SilenceErrors: true,
}
