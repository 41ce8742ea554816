package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/urlanalytics/cmd"
)

// MigrateCmd represents the 'migrate' command
// This command handles database schema creation and updates
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `This command connects to the configured database (SQLite)
and executes GORM automatic migrations to create the 'links', 'visits'
and 'link_analytics' tables based on the Go models.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Opening the database runs the migrations
		a := openApp()
		defer a.close()

		fmt.Println("Database migrations executed successfully.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
