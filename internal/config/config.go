package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment configuration for the permission admin service.
type Config struct {
	AppPort          int
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	RedisHost        string
	RedisPort        int
	RedisPassword    string
	CacheTTL         time.Duration
	InheritanceMap   string
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:          envInt("APP_PORT", 8080),
		PostgresHost:     envString("POSTGRES_HOST", "localhost"),
		PostgresPort:     envInt("POSTGRES_PORT", 5432),
		PostgresUser:     envString("POSTGRES_USER", "permtree"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       envString("POSTGRES_DB", "permtree"),
		RedisHost:        envString("REDIS_HOST", "localhost"),
		RedisPort:        envInt("REDIS_PORT", 6379),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		CacheTTL:         time.Duration(envInt("CACHE_TTL_MINUTES", 30)) * time.Minute,
		InheritanceMap:   envString("INHERITANCE_MAP_PATH", "config/inheritance.json"),
	}

	if cfg.PostgresPassword == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
