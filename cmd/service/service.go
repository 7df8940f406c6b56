package service

import (
	"fmt"

	"github.com/spf13/cobra"

	"panelix-setup/cmd/root"
	"panelix-setup/internal/utils"
	"panelix-setup/services"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "管理Panelix系统服务",
	Long:  `Query and control the panelix systemd unit installed by this tool`,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "查询服务状态",
	RunE: func(cmd *cobra.Command, args []string) error {
		status := manager().Runtime()
		fmt.Printf("Unit:   %s\n", status.Unit)
		fmt.Printf("Status: %s\n", status.Status)
		if status.State != "" {
			fmt.Printf("State:  %s/%s\n", status.State, status.SubState)
		}
		if status.PID > 0 {
			fmt.Printf("PID:    %d\n", status.PID)
		}
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "启动服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		return manager().Start()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "停止服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		return manager().Stop()
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "重启服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		return manager().Restart()
	},
}

func manager() *services.SystemdManager {
	return services.NewSystemdManager(&utils.ExecRunner{})
}

func init() {
	root.RootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(statusCmd)
	serviceCmd.AddCommand(startCmd)
	serviceCmd.AddCommand(stopCmd)
	serviceCmd.AddCommand(restartCmd)

	serviceCmd.Example = `  panelix-setup service status
  panelix-setup service restart`
}
