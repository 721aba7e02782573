package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/checkout"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/config"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/db"
	orderingHttp "github.com/vasiliy-maslov/restaurant-ordering/internal/handler/http"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/session"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/store"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "ordering-service").Logger()

	log.Info().Msg("Ordering service starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	kv, cleanup, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}
	defer cleanup()

	catalogClient := catalog.NewHTTPClient(cfg.Catalog.BaseURL, cfg.Catalog.Token, cfg.Catalog.Timeout)
	composers := checkout.NewRegistry(catalogClient, session.NewRegistry())

	cartHandler := orderingHttp.NewCartHandler(kv, catalogClient)
	checkoutHandler := orderingHttp.NewCheckoutHandler(kv, catalogClient, composers)
	accountHandler := orderingHttp.NewAccountHandler(catalogClient)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	cartHandler.RegisterRoutes(router)
	checkoutHandler.RegisterRoutes(router)
	accountHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}

	log.Info().Msg("Ordering service stopped gracefully")
}

// newStore builds the configured key-value backend. The returned cleanup
// closes whatever connections the backend holds.
func newStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		log.Info().Msg("Using in-memory store")
		return store.NewMemory(), func() {}, nil

	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
		cleanup := func() {
			if err := client.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close Redis client")
			}
		}
		return store.NewRedis(client), cleanup, nil

	case config.StoreBackendPostgres:
		dbConn, err := db.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.ApplyMigrations(cfg); err != nil {
			dbConn.Close()
			return nil, nil, err
		}
		return store.NewPostgres(dbConn.Pool), dbConn.Close, nil

	default:
		return nil, nil, errors.New("unknown store backend " + cfg.Store.Backend)
	}
}
