package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/axellelanca/urlanalytics/cmd"
	"github.com/axellelanca/urlanalytics/internal/api"
	"github.com/axellelanca/urlanalytics/internal/config"
)

var (
	tokenUserFlag string
	tokenTTLFlag  time.Duration
)

// TokenCmd signs a bearer token for the HTTP API
var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Génère un jeton d'accès pour l'API.",
	Long: `Signe un JWT HS256 avec auth.jwt_secret pour l'utilisateur donné.

Exemple:
  curl -H "Authorization: Bearer $(urlanalytics token --user=alice)" localhost:8080/api/v1/links`,
	Run: func(c *cobra.Command, args []string) {
		cfg := cmd.Cfg
		if cfg == nil {
			var err error
			if cfg, err = config.LoadConfig(); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		}

		tokens, err := api.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		token, err := tokens.Sign(tokenUserFlag, tokenTTLFlag)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
	},
}

func init() {
	TokenCmd.Flags().StringVar(&tokenUserFlag, "user", "", "User id put in the token subject")
	TokenCmd.Flags().DurationVar(&tokenTTLFlag, "ttl", 24*time.Hour, "Token lifetime")
	TokenCmd.MarkFlagRequired("user")

	cmd.RootCmd.AddCommand(TokenCmd)
}
