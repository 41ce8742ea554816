package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/axellelanca/urlanalytics/cmd"
	"github.com/axellelanca/urlanalytics/internal/api"
	"github.com/axellelanca/urlanalytics/internal/config"
	"github.com/axellelanca/urlanalytics/internal/database"
	"github.com/axellelanca/urlanalytics/internal/monitor"
	"github.com/axellelanca/urlanalytics/internal/ratelimit"
	"github.com/axellelanca/urlanalytics/internal/repository"
	"github.com/axellelanca/urlanalytics/internal/services"
)

const shutdownTimeout = 10 * time.Second

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur API de raccourcissement d'URLs et les processus de fond.",
	Long: `Cette commande initialise la base de données, configure les APIs,
démarre le rafraîchissement périodique des statistiques,
puis lance le serveur HTTP.`,
	Run: func(c *cobra.Command, args []string) {
		cfg := cmd.Cfg
		if cfg == nil {
			var err error
			if cfg, err = config.LoadConfig(); err != nil {
				log.Fatalf("Échec du chargement de la configuration : %v", err)
			}
		}

		tokens, err := api.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			log.Fatalf("Configuration d'authentification invalide : %v", err)
		}

		// Initialiser la base de données (avec migration)
		db, err := database.Open(cfg.Database.Name)
		if err != nil {
			log.Fatalf("Échec de la connexion à la base de données : %v", err)
		}
		defer database.Close(db)

		linkRepo := repository.NewLinkRepository(db)
		visitRepo := repository.NewVisitRepository(db)
		analyticsRepo := repository.NewAnalyticsRepository(db)
		log.Println("[SERVER] Repositories initialisés.")

		linkService := services.NewLinkService(linkRepo, visitRepo, nil)
		analyticsService := services.NewAnalyticsService(linkRepo, visitRepo, analyticsRepo, nil)
		log.Println("[SERVER] Services métiers initialisés.")

		// Le contexte est annulé à la réception de SIGINT/SIGTERM
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.IdleTTL(), nil)
		if ttl := cfg.IdleTTL(); ttl > 0 {
			go limiter.RunSweeper(ctx, ttl/2)
		}

		if interval := cfg.RefreshInterval(); interval > 0 {
			refresher := monitor.NewAnalyticsRefresher(analyticsService, interval, cfg.Analytics.WorkerCount)
			go refresher.Start(ctx)
			log.Printf("[SERVER] Rafraîchissement des statistiques démarré avec un intervalle de %v.", interval)
		} else {
			log.Println("[SERVER] Rafraîchissement périodique des statistiques désactivé.")
		}

		router := api.NewRouter(api.Dependencies{
			Links:     linkService,
			Analytics: analyticsService,
			Tokens:    tokens,
			Limiter:   limiter,
			BaseURL:   cfg.Server.BaseURL,
		})
		log.Println("[SERVER] Routes API configurées.")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:              serverAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}

		// Démarrer le serveur dans une goroutine pour ne pas bloquer.
		serverErr := make(chan error, 1)
		go func() {
			log.Printf("[SERVER] Démarrage du serveur sur %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()

		select {
		case err := <-serverErr:
			stop()
			database.Close(db)
			log.Fatalf("Échec du démarrage du serveur : %v", err)
		case <-ctx.Done():
			log.Println("[SERVER] Signal d'arrêt reçu. Arrêt du serveur...")
		}

		// Arrêt propre : les requêtes en cours ont shutdownTimeout pour se terminer.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("WARNING: arrêt forcé du serveur : %v", err)
		}

		log.Println("[SERVER] Serveur arrêté proprement.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
