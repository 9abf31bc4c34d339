package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	Port            int
	DBPath          string
	ScanInterval    time.Duration
	UpcomingLimit   int
	RedisURL        string
	CacheTTL        time.Duration
	OTELEndpoint    string
	OTELServiceName string
}

// LoadConfig reads the configuration from the environment, after loading a
// .env file when one is present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		DBPath:          getEnvString("DB_PATH", "fredinstallments.db"),
		ScanInterval:    getEnvDuration("SCAN_INTERVAL", time.Minute),
		UpcomingLimit:   getEnvInt("UPCOMING_LIMIT", 7),
		RedisURL:        getEnvString("REDIS_URL", ""),
		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Second),
		OTELEndpoint:    getEnvString("OTEL_ENDPOINT", ""),
		OTELServiceName: getEnvString("OTEL_SERVICE_NAME", "fred-installments"),
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func getEnvString(key, defaultValue string) string {
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
