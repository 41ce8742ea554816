package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/axellelanca/urlanalytics/cmd"
	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
	"github.com/axellelanca/urlanalytics/internal/repository"
)

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [short-code]",
	Short: "Get statistics for a short URL",
	Long:  `Show the link behind a short code, its click counter and its stored analytics if computed.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(cmd *cobra.Command, args []string) {
	shortCode := args[0]
	ctx := context.Background()

	a := openApp()
	defer a.close()

	link, err := a.links.GetLinkByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrLinkNotFound) {
			fmt.Printf("Error: Short code '%s' not found\n", shortCode)
		} else {
			fmt.Printf("Error retrieving statistics: %v\n", err)
		}
		a.exit(1)
	}

	fmt.Printf("Statistiques pour le code court: %s\n", shortCode)
	fmt.Printf("ID: %s\n", link.ID)
	fmt.Printf("URL longue: %s\n", link.OriginalURL)
	fmt.Printf("Total de clics: %d\n", link.ClickCount)
	fmt.Printf("Date de création: %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))

	analytics, err := repository.NewAnalyticsRepository(a.db).GetAnalyticsByLinkID(ctx, link.ID)
	switch {
	case errors.Is(err, apperrors.ErrAnalyticsNotFound):
		fmt.Println("Statistiques agrégées: pas encore calculées (voir 'recompute')")
	case err != nil:
		fmt.Printf("Error retrieving analytics: %v\n", err)
		a.exit(1)
	default:
		fmt.Printf("Visiteurs uniques: %d\n", analytics.UniqueVisitors)
		fmt.Printf("Top referrers: %s\n", strings.Join(analytics.TopReferrers, ", "))
		fmt.Printf("Top user agents: %s\n", strings.Join(analytics.TopUserAgents, ", "))
		fmt.Printf("Dernier calcul: %s\n", analytics.LastUpdated.Format("2006-01-02 15:04:05"))
	}
}
