package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"panelix-setup/cmd/root"
	"panelix-setup/internal/config"
)

var optTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "签发状态服务的访问令牌",
	Long:  `Issue a bearer token for the update endpoint of the status server, signed with the installation's jwtSecret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := config.ReadSecret(config.Config.Paths.ConfigFile, config.SecretKeyJWTSecret)
		if secret == "" {
			return fmt.Errorf("no jwtSecret in %s; run install first", config.Config.Paths.ConfigFile)
		}

		now := time.Now()
		claims := jwt.MapClaims{
			"sub": "panelix-setup",
			"iat": now.Unix(),
			"exp": now.Add(optTTL).Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			return err
		}
		fmt.Println(signed)
		return nil
	},
}

func init() {
	root.RootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().DurationVar(&optTTL, "ttl", time.Hour, "Token lifetime")

	tokenCmd.Example = `  panelix-setup token
  curl -X POST -H "Authorization: Bearer $(panelix-setup token)" http://127.0.0.1:9810/panelix/api/v1/update?target=2.0.0`
}
