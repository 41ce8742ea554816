// Package cli holds the one-shot maintenance commands that work directly on the database.
package cli

import (
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/axellelanca/urlanalytics/cmd"
	"github.com/axellelanca/urlanalytics/internal/config"
	"github.com/axellelanca/urlanalytics/internal/database"
	"github.com/axellelanca/urlanalytics/internal/repository"
	"github.com/axellelanca/urlanalytics/internal/services"
)

// app is what a CLI command needs: configuration, database and services.
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	links     *services.LinkService
	analytics *services.AnalyticsService
}

// openApp connects to the configured database. Callers must defer close.
func openApp() *app {
	cfg := cmd.Cfg
	if cfg == nil {
		var err error
		if cfg, err = config.LoadConfig(); err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}

	db, err := database.Open(cfg.Database.Name)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	linkRepo := repository.NewLinkRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	return &app{
		cfg:       cfg,
		db:        db,
		links:     services.NewLinkService(linkRepo, visitRepo, nil),
		analytics: services.NewAnalyticsService(linkRepo, visitRepo, analyticsRepo, nil),
	}
}

func (a *app) close() {
	if err := database.Close(a.db); err != nil {
		log.Printf("WARNING: failed to close database: %v", err)
	}
}

var exitProcess = os.Exit

// exit closes the database, then terminates the process with code.
func (a *app) exit(code int) {
	a.close()
	exitProcess(code)
}

func optionalOwner(owner string) *string {
	if owner == "" {
		return nil
	}
	return &owner
}
