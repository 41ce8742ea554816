package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/axellelanca/urlanalytics/cmd"
	"github.com/axellelanca/urlanalytics/internal/services"
)

var (
	bulkFileFlag  string
	bulkOwnerFlag string
)

// BulkCmd représente la commande 'bulk'
var BulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Crée plusieurs URLs courtes à partir d'un fichier.",
	Long: `Lit une URL par ligne, éventuellement suivie d'un code personnalisé.
Les lignes vides et celles commençant par '#' sont ignorées.

Exemple:
  urlanalytics bulk --file=urls.txt --owner=alice`,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(bulkFileFlag)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		items, err := parseBulkItems(f)
		f.Close()
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", bulkFileFlag, err)
			os.Exit(1)
		}

		a := openApp()
		defer a.close()

		result, err := a.links.BulkCreateLinks(context.Background(), services.BulkCreateInput{
			Items:   items,
			OwnerID: optionalOwner(bulkOwnerFlag),
			BaseURL: a.cfg.Server.BaseURL,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			a.exit(1)
		}

		for i, link := range result.Links {
			fmt.Printf("OK    %s -> %s\n", link.OriginalURL, result.ShortURLs[i])
		}
		for _, failure := range result.Failed {
			fmt.Printf("FAIL  %s: %s\n", failure.URL, failure.Error)
		}
		fmt.Println(result.Message)
		if len(result.Links) == 0 {
			a.exit(1)
		}
	},
}

// parseBulkItems reads "url [code]" lines.
func parseBulkItems(r io.Reader) ([]services.BulkItem, error) {
	var items []services.BulkItem
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		item := services.BulkItem{OriginalURL: fields[0]}
		if len(fields) > 1 {
			item.CustomCode = fields[1]
		}
		items = append(items, item)
	}
	return items, scanner.Err()
}

func init() {
	BulkCmd.Flags().StringVar(&bulkFileFlag, "file", "", "File with one URL per line")
	BulkCmd.Flags().StringVar(&bulkOwnerFlag, "owner", "", "Owner user id (anonymous when empty)")
	BulkCmd.MarkFlagRequired("file")

	cmd.RootCmd.AddCommand(BulkCmd)
}
