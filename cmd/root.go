package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/axellelanca/urlanalytics/internal/config"
)

// Cfg is the global variable that will contain the loaded configuration
// It will be accessible to all Cobra commands throughout the application
var Cfg *config.Config

// RootCmd is the base command for the CLI application
// Subcommands register themselves from their own init() functions
var RootCmd = &cobra.Command{
	Use:   "urlanalytics",
	Short: "A URL shortener with visit analytics",
	Long: `A URL shortener that creates short links, records every visit
and computes per-link analytics (clicks, unique visitors, top referrers).`,
}

// Execute is the main entry point for the Cobra application
// It is called from 'main.go' and handles command execution and error handling
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Load the configuration before any command executes
	cobra.OnInitialize(initConfig)
}

// initConfig loads the application configuration
// A broken configuration is fatal: commands would otherwise run against the wrong database
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Problem loading configuration: %v", err)
	}
}
