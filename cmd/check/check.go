package check

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"panelix-setup/cmd/root"
	"panelix-setup/internal/config"
	"panelix-setup/services"
)

var optJson bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "体检安装环境",
	Long:  `Probe the platform, scan for required tools, query the service supervisor and compare the installed version against the newest published release`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := services.NewServer(&config.Config, "")
		resp := server.BuildCheck()

		if optJson {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(resp)
		}

		fmt.Printf("Platform:  %s\n", resp.Platform.Label())
		for _, dep := range resp.Capabilities.Checked {
			mark := "ok"
			if !dep.Present {
				mark = "missing"
			}
			fmt.Printf("Tool:      %-10s %-8s %s\n", dep.Name, mark, dep.DetectedVersion)
		}
		for _, dep := range resp.Capabilities.Deficiencies {
			if dep.DetectedVersion != "" {
				fmt.Printf("           %-10s below minimum %s\n", dep.Name, dep.MinVersion)
			}
		}
		if resp.Service != nil {
			fmt.Printf("Service:   %s (%s)\n", resp.Service.Status, resp.Service.Unit)
		}
		if resp.Installed != nil {
			fmt.Printf("Installed: %s at %s\n", resp.Installed.Version, resp.Installed.InstallPath)
		} else {
			fmt.Println("Installed: no installation found")
		}
		if resp.LatestVersion != "" {
			fmt.Printf("Newest:    %s\n", resp.LatestVersion)
		}
		fmt.Printf("Overall:   %s (%d/%d checks passed)\n", resp.OverallStatus, resp.PassedChecks, resp.TotalChecks)
		return nil
	},
}

func init() {
	root.RootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVarP(&optJson, "json", "j", false, "Emit the raw check result as JSON")

	checkCmd.Example = `  panelix-setup check
  panelix-setup check --json`
}
