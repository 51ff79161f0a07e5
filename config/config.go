package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// API keys and warehouse credentials live here; per-source field maps and
// endpoints live in the YAML catalog (see catalog.go).
type Config struct {
	WarehouseHost     string
	WarehousePort     string
	WarehouseUser     string
	WarehousePassword string
	WarehouseDB       string
	WarehouseSSLMode  string

	BLSAPIKey    string
	CensusAPIKey string
	BEAAPIKey    string

	MaxConcurrentRuns int
	RunTimeout        time.Duration
	HTTPTimeout       time.Duration
	MaxRetries        int

	CatalogPath    string
	RunlogPath     string
	CSVFallbackDir string
	MetricsAddr    string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		WarehouseHost:     getEnv("WAREHOUSE_HOST", "localhost"),
		WarehousePort:     getEnv("WAREHOUSE_PORT", "5432"),
		WarehouseUser:     getEnv("WAREHOUSE_USER", "collector"),
		WarehousePassword: getEnv("WAREHOUSE_PASSWORD", "collector123"),
		WarehouseDB:       getEnv("WAREHOUSE_DB", "econdata"),
		WarehouseSSLMode:  getEnv("WAREHOUSE_SSLMODE", "disable"),

		BLSAPIKey:    getEnv("BLS_API_KEY", ""),
		CensusAPIKey: getEnv("CENSUS_API_KEY", ""),
		BEAAPIKey:    getEnv("BEA_API_KEY", ""),

		MaxConcurrentRuns: getEnvInt("MAX_CONCURRENT_RUNS", 3),
		RunTimeout:        getEnvDuration("RUN_TIMEOUT", 20*time.Minute),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),

		CatalogPath:    getEnv("CATALOG_PATH", "./sources.yml"),
		RunlogPath:     getEnv("RUNLOG_PATH", "./data/runlog.db"),
		CSVFallbackDir: getEnv("CSV_FALLBACK_DIR", "./output"),
		MetricsAddr:    getEnv("METRICS_ADDR", ""),
	}
}

// DSN returns the PostgreSQL connection string for the warehouse.
func (c *Config) DSN() string {
	return "host=" + c.WarehouseHost +
		" port=" + c.WarehousePort +
		" user=" + c.WarehouseUser +
		" password=" + c.WarehousePassword +
		" dbname=" + c.WarehouseDB +
		" sslmode=" + c.WarehouseSSLMode
}

// APIKey returns the configured key for a catalog source, if any.
func (c *Config) APIKey(source string) string {
	switch source {
	case "bls":
		return c.BLSAPIKey
	case "census":
		return c.CensusAPIKey
	case "bea":
		return c.BEAAPIKey
	}
	return ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
