package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Schedule ScheduleConfig
	Preview  PreviewConfig
	CORS     CORSConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type JWTConfig struct {
	Secret string
}

type ScheduleConfig struct {
	// InsertBatchSize caps how many rows go into a single _bulk_docs call.
	InsertBatchSize int
	// ResolveCacheTTL bounds how stale a cached lookup may be. Keep it at
	// or below the display poll interval.
	ResolveCacheTTL time.Duration
}

type PreviewConfig struct {
	DefaultTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	godotenv.Load()

	cacheTTL, err := time.ParseDuration(getEnv("SCHEDULE_CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_CACHE_TTL: %w", err)
	}

	previewTTL, err := time.ParseDuration(getEnv("PREVIEW_TOKEN_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PREVIEW_TOKEN_TTL: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5984"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "masjid_display"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		},
		Schedule: ScheduleConfig{
			InsertBatchSize: getEnvAsInt("SCHEDULE_INSERT_BATCH_SIZE", 100),
			ResolveCacheTTL: cacheTTL,
		},
		Preview: PreviewConfig{
			DefaultTTL: previewTTL,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
