package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI        string
	DBName          string
	Port            string
	GinMode         string
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow int

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Auth
	AuthJWTSecret  string
	AdminSecretKey string

	// Search index
	SearchIndexDir          string
	SearchCollection        string
	SearchTimeoutSeconds    int
	IndexSyncTimeoutSeconds int
	ImportBatchesPerSecond  float64

	// Background resync
	ResyncCron            string
	ResyncIntervalMinutes int
	AsyncResyncEnabled    bool

	// Telemetry
	OTLPEndpoint string
	ServiceName  string

	StatsCacheTTLSeconds int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017/biodata"),
		DBName:          getEnv("DB_NAME", "biodata"),
		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		CORSOrigins:     strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AuthJWTSecret:  getEnv("AUTH_JWT_SECRET", ""),
		AdminSecretKey: getEnv("ADMIN_SECRET_KEY", ""),

		SearchIndexDir:          getEnv("SEARCH_INDEX_DIR", "./data/index"),
		SearchCollection:        getEnv("SEARCH_COLLECTION", "biodata"),
		SearchTimeoutSeconds:    getEnvInt("SEARCH_TIMEOUT_SECONDS", 10),
		IndexSyncTimeoutSeconds: getEnvInt("INDEX_SYNC_TIMEOUT_SECONDS", 15),
		ImportBatchesPerSecond:  getEnvFloat64("IMPORT_BATCHES_PER_SECOND", 5),

		ResyncCron:            getEnv("RESYNC_CRON", ""),
		ResyncIntervalMinutes: getEnvInt("RESYNC_INTERVAL_MINUTES", 0),
		AsyncResyncEnabled:    getEnvBool("ASYNC_RESYNC_ENABLED", false),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "biodata-platform"),

		StatsCacheTTLSeconds: getEnvInt("STATS_CACHE_TTL", 300),
	}

	// Validate required fields
	if cfg.AuthJWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is required - set it in .env file")
	}

	if cfg.IsProduction() && cfg.AdminSecretKey == "" {
		return nil, fmt.Errorf("ADMIN_SECRET_KEY is required in release mode")
	}

	return cfg, nil
}

// IsProduction reports whether admin routes must check the shared secret.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
