package install

import (
	"fmt"

	"github.com/spf13/cobra"

	"panelix-setup/cmd/root"
	"panelix-setup/internal/config"
	"panelix-setup/services"
)

var (
	optDomain         string
	optPort           string
	optAdminEmail     string
	optTarget         string
	optNonInteractive bool
	optDryRun         bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "安装Panelix",
	Long:  `Probe the platform, install missing dependencies, resolve the configuration, fetch the release artifact and bring the service up under systemd`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// environment supplies defaults, flags win
		overrides := config.EnvOverrides()
		if optDomain != "" {
			overrides[config.KeyDomain] = optDomain
		}
		if optPort != "" {
			overrides[config.KeyPort] = optPort
		}
		if optAdminEmail != "" {
			overrides[config.KeyAdminEmail] = optAdminEmail
		}

		mode := config.Interactive
		if optNonInteractive || config.NonInteractiveRequested() {
			mode = config.NonInteractive
		}

		state, err := services.NewInstaller().Run(services.InstallOptions{
			Mode:      mode,
			Overrides: overrides,
			Target:    optTarget,
			DryRun:    optDryRun,
		})
		if err != nil {
			return err
		}
		if state != nil {
			fmt.Printf("Panelix %s installed at %s\n", state.Version, state.InstallPath)
		}
		return nil
	},
}

func init() {
	root.RootCmd.AddCommand(installCmd)

	installCmd.Flags().StringVar(&optDomain, "domain", "", "Domain name the server answers on")
	installCmd.Flags().StringVar(&optPort, "port", "", "HTTP port")
	installCmd.Flags().StringVar(&optAdminEmail, "admin-email", "", "Administrator contact address")
	installCmd.Flags().StringVarP(&optTarget, "target", "t", "", "Version to install, newest when omitted")
	installCmd.Flags().BoolVarP(&optNonInteractive, "non-interactive", "n", false, "Never prompt, use overrides and defaults")
	installCmd.Flags().BoolVar(&optDryRun, "dry-run", false, "Print the plan, change nothing")

	installCmd.Example = `  panelix-setup install
  panelix-setup install --non-interactive --domain demo.example --port 8080
  panelix-setup install --dry-run`
}
