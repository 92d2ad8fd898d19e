package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/promopage-solution/mall-integration-service/internal/crypto"
	"github.com/promopage-solution/mall-integration-service/internal/gateway"
	"github.com/promopage-solution/mall-integration-service/internal/handler"
	"github.com/promopage-solution/mall-integration-service/internal/monitoring"
	"github.com/promopage-solution/mall-integration-service/internal/platform"
	"github.com/promopage-solution/mall-integration-service/internal/service"
	"github.com/promopage-solution/mall-integration-service/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		port      = flag.Int("port", 8080, "Port for the HTTP server")
		dbHost    = flag.String("db-host", "localhost", "Database host")
		dbPort    = flag.Int("db-port", 5432, "Database port")
		dbUser    = flag.String("db-user", "admin", "Database user")
		dbPass    = flag.String("db-pass", "securepassword", "Database password")
		dbName    = flag.String("db-name", "mall_integration", "Database name")
		redisAddr = flag.String("redis-addr", "localhost:6379", "Redis address")
		apiBase   = flag.String("api-base", "https://{mall_id}.platform-api.example.com", "Platform admin API base URL")
		tokenURL  = flag.String("token-url", "https://{mall_id}.platform-api.example.com/api/v2/oauth/token", "Platform OAuth token endpoint")
		redirect  = flag.String("redirect-uri", "https://pages.example.com/oauth/callback", "OAuth redirect URI")
		tenantTZ  = flag.String("tenant-timezone", "Asia/Seoul", "Tenant calendar timezone for daily rollups")
	)
	flag.Parse()

	if key := os.Getenv("TOKEN_ENCRYPTION_KEY"); key != "" {
		if err := crypto.SetKey([]byte(key)); err != nil {
			log.Fatal().Err(err).Msg("Invalid TOKEN_ENCRYPTION_KEY")
		}
	}

	loc, err := time.LoadLocation(*tenantTZ)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid tenant timezone")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		*dbHost, *dbPort, *dbUser, *dbPass, *dbName)

	db, err := store.Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer rdb.Close()

	credRepo := store.NewCredentialRepository(db, rdb)
	pageRepo := store.NewPageRepository(db, rdb)
	counterRepo := store.NewCounterRepository(db)

	oauthClient := gateway.NewOAuthClient(gateway.OAuthConfig{
		ClientID:     getEnv("PLATFORM_CLIENT_ID", ""),
		ClientSecret: getEnv("PLATFORM_CLIENT_SECRET", ""),
		TokenURL:     *tokenURL,
		RedirectURI:  *redirect,
	}, nil)
	gw := gateway.New(credRepo, oauthClient, *apiBase)
	catalog := platform.NewClient(gw)

	trackingSvc := service.NewTrackingService(pageRepo, counterRepo, loc)
	analyticsSvc := service.NewAnalyticsService(counterRepo)
	pricingSvc := service.NewPricingService(catalog)
	installSvc := service.NewInstallService(catalog)

	// Initialize metrics
	monitoring.InitMetrics()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.New(trackingSvc, analyticsSvc, pricingSvc, installSvc, pageRepo, credRepo, oauthClient).Register(mux)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: mux,
	}

	go func() {
		log.Info().Msgf("Starting Mall Integration Service on port %d", *port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down HTTP server")
	}
	log.Info().Msg("Server exiting")
}

// getEnv reads configuration that should not appear in process listings.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
