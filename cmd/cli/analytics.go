package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/axellelanca/urlanalytics/cmd"
	"github.com/axellelanca/urlanalytics/internal/services"
	"github.com/axellelanca/urlanalytics/internal/stats"
)

var (
	analyticsOwnerFlag   string
	analyticsFromFlag    string
	analyticsToFlag      string
	analyticsGroupByFlag string
)

// AnalyticsCmd représente la commande 'analytics'
var AnalyticsCmd = &cobra.Command{
	Use:   "analytics [link-id]",
	Short: "Affiche le rapport d'analyse d'un lien.",
	Long: `Calcule le rapport d'un lien sur une fenêtre optionnelle (dates YYYY-MM-DD).

Exemple:
  urlanalytics analytics 4f1c... --owner=alice --from=2024-01-01 --to=2024-01-31 --group-by=day`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		from, err := parseDateFlag(analyticsFromFlag, false)
		if err != nil {
			fmt.Printf("Error: invalid --from: %v\n", err)
			os.Exit(1)
		}
		to, err := parseDateFlag(analyticsToFlag, true)
		if err != nil {
			fmt.Printf("Error: invalid --to: %v\n", err)
			os.Exit(1)
		}

		a := openApp()
		defer a.close()

		report, err := a.analytics.ComputeLinkAnalytics(context.Background(), services.AnalyticsQuery{
			LinkID:      args[0],
			RequesterID: analyticsOwnerFlag,
			StartDate:   from,
			EndDate:     to,
			Granularity: stats.Granularity(analyticsGroupByFlag),
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			a.exit(1)
		}

		s := report.Summary
		fmt.Printf("Lien: %s (%s)\n", report.Link.ShortCode, report.Link.OriginalURL)
		fmt.Printf("Clics: %d\n", s.TotalClicks)
		fmt.Printf("Visiteurs uniques: %d\n", s.UniqueVisitors)
		fmt.Printf("Moyenne de clics par jour: %.2f\n", s.AverageClicksPerDay)
		fmt.Printf("Top referrers: %v\n", s.TopReferrers)
		fmt.Printf("Top user agents: %v\n", s.TopUserAgents)
		fmt.Printf("Clics par %s:\n", s.Granularity)
		keys := make([]string, 0, len(s.ClicksByBucket))
		for k := range s.ClicksByBucket {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Printf("  %s  %d\n", k, s.ClicksByBucket[k])
		}
	},
}

func parseDateFlag(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func init() {
	AnalyticsCmd.Flags().StringVar(&analyticsOwnerFlag, "owner", "", "Owner user id of the link")
	AnalyticsCmd.Flags().StringVar(&analyticsFromFlag, "from", "", "Start date (YYYY-MM-DD)")
	AnalyticsCmd.Flags().StringVar(&analyticsToFlag, "to", "", "End date, inclusive (YYYY-MM-DD)")
	AnalyticsCmd.Flags().StringVar(&analyticsGroupByFlag, "group-by", "day", "Bucket granularity: hour, day or month")
	AnalyticsCmd.MarkFlagRequired("owner")

	cmd.RootCmd.AddCommand(AnalyticsCmd)
}
