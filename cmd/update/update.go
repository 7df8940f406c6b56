package update

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"panelix-setup/cmd/root"
	"panelix-setup/internal/platform"
	"panelix-setup/services"
)

var (
	optTarget string
	optDryRun bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "升级已安装的Panelix",
	Long:  `Back up the data directory and configuration, then run the version-ordered migration steps up to the target version and restart the service`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := optTarget
		if target == "" {
			version, err := newestPublished()
			if err != nil {
				return err
			}
			target = version
		}

		engine := services.NewMigrationEngine()
		if optDryRun {
			return printPlan(engine, target)
		}

		// interrupts are honored until the backup begins; after that
		// the run must finish or fail on its own
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		state, err := engine.Run(ctx, target)
		if err != nil {
			return err
		}
		fmt.Printf("Panelix is now at version %s\n", state.Version)
		return nil
	},
}

// newestPublished resolves the update target from the release manifest.
func newestPublished() (string, error) {
	info, err := platform.Detect()
	if err != nil {
		return "", err
	}
	manifest, err := services.FetchManifest(info)
	if err != nil {
		return "", err
	}
	if manifest.Newest.Version == "" {
		return "", fmt.Errorf("release manifest lists no published version for %s/%s", info.OSFamily, info.Arch)
	}
	return manifest.Newest.Version, nil
}

func printPlan(engine *services.MigrationEngine, target string) error {
	plan, err := engine.DescribePlan(target)
	if err != nil {
		return err
	}
	if plan.NoOp {
		fmt.Printf("Already at version %s, nothing to do\n", plan.To)
		return nil
	}
	fmt.Printf("Update %s -> %s\n", plan.From, plan.To)
	if len(plan.Steps) == 0 {
		fmt.Println("No data migrations in this window; only the version will advance")
	}
	for i, step := range plan.Steps {
		fmt.Printf("  %d. %s  %s\n", i+1, step.Version, step.Name)
	}
	fmt.Println("Dry run: nothing was changed")
	return nil
}

func init() {
	root.RootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVarP(&optTarget, "target", "t", "", "Version to update to, newest when omitted")
	updateCmd.Flags().BoolVar(&optDryRun, "dry-run", false, "Print the migration plan, change nothing")

	updateCmd.Example = `  panelix-setup update
  panelix-setup update --target 2.0.0
  panelix-setup update --dry-run`
}
