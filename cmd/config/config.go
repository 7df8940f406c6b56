package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"panelix-setup/cmd/root"
	conf "panelix-setup/internal/config"
)

var optShowSecrets bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "查看Panelix安装配置",
	Long:  `Print the persisted installation configuration. Secret values are masked unless --show-secrets is given`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := conf.Config.Paths.ConfigFile
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return fmt.Errorf("no configuration at %s; run install first", path)
		}
		if err != nil {
			return err
		}

		fmt.Printf("# %s\n", path)
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			fmt.Println(maskLine(line))
		}
		return nil
	},
}

// secret-bearing keys are masked in the printout
var secretKeys = map[string]bool{
	"appKey":     true,
	"dbPassword": true,
	"jwtSecret":  true,
}

func maskLine(line string) string {
	key, value, found := strings.Cut(line, "=")
	if !found || !secretKeys[key] || optShowSecrets || value == "" {
		return line
	}
	return key + "=********"
}

func init() {
	root.RootCmd.AddCommand(configCmd)

	configCmd.Flags().BoolVar(&optShowSecrets, "show-secrets", false, "Print secret values unmasked")

	configCmd.Example = `  panelix-setup config
  panelix-setup config --show-secrets`
}
