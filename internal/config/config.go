package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendMemory   = "memory"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
)

type Config struct {
	App struct {
		Port string
	}
	Store struct {
		Backend string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Postgres struct {
		Host            string
		Port            string
		User            string
		Password        string
		DBName          string
		SSLMode         string
		MigrationsPath  string
		MaxConns        int32
		MinConns        int32
		MaxConnLifetime time.Duration
	}
	Catalog struct {
		BaseURL string
		Token   string
		Timeout time.Duration
	}
}

func Load(path string) (*Config, error) {
	if path != "" {
		err := godotenv.Load(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}

	cfg.App.Port = getEnv("APP_PORT", "8080")

	cfg.Store.Backend = getEnv("STORE_BACKEND", StoreBackendMemory)
	switch cfg.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendRedis:
		cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required for redis store backend")
		}
		cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	case StoreBackendPostgres:
		cfg.Postgres.Host = os.Getenv("DB_HOST")
		if cfg.Postgres.Host == "" {
			return nil, fmt.Errorf("DB_HOST is required for postgres store backend")
		}
		cfg.Postgres.Port = getEnv("DB_PORT", "5432")
		cfg.Postgres.User = os.Getenv("DB_USER")
		if cfg.Postgres.User == "" {
			return nil, fmt.Errorf("DB_USER is required for postgres store backend")
		}
		cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
		cfg.Postgres.DBName = os.Getenv("DB_NAME")
		if cfg.Postgres.DBName == "" {
			return nil, fmt.Errorf("DB_NAME is required for postgres store backend")
		}
		cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
		cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")
		cfg.Postgres.MaxConns = 10
		cfg.Postgres.MinConns = 2
		cfg.Postgres.MaxConnLifetime = time.Hour
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}

	cfg.Catalog.BaseURL = os.Getenv("CATALOG_BASE_URL")
	if cfg.Catalog.BaseURL == "" {
		return nil, fmt.Errorf("CATALOG_BASE_URL is required")
	}
	cfg.Catalog.Token = os.Getenv("CATALOG_TOKEN")
	cfg.Catalog.Timeout = 10 * time.Second

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
