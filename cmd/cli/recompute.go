package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/urlanalytics/cmd"
	"github.com/axellelanca/urlanalytics/internal/monitor"
)

var recomputeAllFlag bool

// RecomputeCmd représente la commande 'recompute'
var RecomputeCmd = &cobra.Command{
	Use:   "recompute [link-id]",
	Short: "Recalcule les statistiques agrégées d'un lien ou de tous les liens.",
	Args: func(c *cobra.Command, args []string) error {
		if recomputeAllFlag {
			return cobra.NoArgs(c, args)
		}
		return cobra.ExactArgs(1)(c, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()
		ctx := context.Background()

		if recomputeAllFlag {
			refresher := monitor.NewAnalyticsRefresher(a.analytics, 0, a.cfg.Analytics.WorkerCount)
			refreshed, _ := refresher.RefreshAll(ctx)
			finished, failed := refresher.LastRun()
			fmt.Printf("%d lien(s) recalculé(s), %d échec(s), terminé à %s.\n",
				refreshed, failed, finished.Format("2006-01-02 15:04:05"))
			if failed > 0 {
				a.exit(1)
			}
			return
		}

		analytics, err := a.analytics.RecomputeLinkAnalytics(ctx, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			a.exit(1)
		}
		fmt.Printf("Statistiques recalculées: %d clic(s), %d visiteur(s) unique(s).\n",
			analytics.TotalClicks, analytics.UniqueVisitors)
	},
}

func init() {
	RecomputeCmd.Flags().BoolVar(&recomputeAllFlag, "all", false, "Recompute every link")
	cmd.RootCmd.AddCommand(RecomputeCmd)
}
