package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"panelix-setup/cmd/root"
	"panelix-setup/internal/config"
	"panelix-setup/services"
)

var SoftwareVer = ""
var BuildTime = ""
var BuildTag = ""
var BuildCommitId = ""

// PrintVersions reports the tool build and, when one exists, the
// Panelix installation it manages.
func PrintVersions() {
	fmt.Printf("panelix-setup %s\n", SoftwareVer)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Build Tag: %s\n", BuildTag)
	fmt.Printf("Build Commit ID: %s\n", BuildCommitId)

	paths := config.Config.Paths
	state, err := services.ReadInstalledState(paths.InstallDir, paths.DataDir)
	if err != nil || state == nil {
		fmt.Println("Installed Panelix: none")
		return
	}
	fmt.Printf("Installed Panelix: %s (%s)\n", state.Version, state.InstallPath)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Long:  `Show the tool's build details and the version of the Panelix installation under management`,

	Run: func(cmd *cobra.Command, args []string) {
		PrintVersions()
	},
}

func init() {
	root.RootCmd.AddCommand(versionCmd)

	versionCmd.Example = `  panelix-setup version`
}
