package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/urlanalytics/cmd"
	"github.com/axellelanca/urlanalytics/internal/services"
)

var (
	longURLFlag    string
	customCodeFlag string
	ownerFlag      string
)

// CreateCmd représente la commande 'create'
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crée une URL courte à partir d'une URL longue.",
	Long: `Cette commande raccourcit une URL longue fournie et affiche le code court généré.

Exemple:
  urlanalytics create --url="https://www.google.com/search?q=go+lang" --code=golang --owner=alice`,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		created, err := a.links.CreateLink(context.Background(), services.CreateLinkInput{
			OriginalURL: longURLFlag,
			OwnerID:     optionalOwner(ownerFlag),
			CustomCode:  customCodeFlag,
			BaseURL:     a.cfg.Server.BaseURL,
		})
		if err != nil {
			fmt.Printf("Error: failed to create short link: %v\n", err)
			a.exit(1)
		}

		fmt.Printf("URL courte créée avec succès:\n")
		fmt.Printf("ID: %s\n", created.Link.ID)
		fmt.Printf("Code: %s\n", created.Link.ShortCode)
		fmt.Printf("URL complète: %s\n", created.ShortURL)
	},
}

func init() {
	CreateCmd.Flags().StringVar(&longURLFlag, "url", "", "The long URL to shorten")
	CreateCmd.Flags().StringVar(&customCodeFlag, "code", "", "Custom short code (3-32 letters, digits, '-' or '_')")
	CreateCmd.Flags().StringVar(&ownerFlag, "owner", "", "Owner user id (anonymous when empty)")
	CreateCmd.MarkFlagRequired("url")

	cmd.RootCmd.AddCommand(CreateCmd)
}
