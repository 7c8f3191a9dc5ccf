// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/skylease/watchtower/internal/modules/scoring"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases, always absolute
	Port     int
	LogLevel string
	DevMode  bool

	// Provider settings
	FundamentalsBaseURL string
	FundamentalsAPIKey  string
	AviationBaseURL     string
	AviationAPIKey      string
	FlightFeedURL       string
	FlightFeedAPIKey    string
	FlightFeedEnabled   bool

	// Risk engine overrides
	Engine scoring.Config

	// Backup settings
	BackupEnabled       bool
	BackupRetentionDays int
	S3Endpoint          string
	S3Region            string
	S3Bucket            string
	S3AccessKeyID       string
	S3SecretAccessKey   string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("WATCHTOWER_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		FundamentalsBaseURL: getEnv("FUNDAMENTALS_BASE_URL", ""),
		FundamentalsAPIKey:  getEnv("FUNDAMENTALS_API_KEY", ""),
		AviationBaseURL:     getEnv("AVIATION_BASE_URL", ""),
		AviationAPIKey:      getEnv("AVIATION_API_KEY", ""),
		FlightFeedURL:       getEnv("FLIGHT_FEED_URL", ""),
		FlightFeedAPIKey:    getEnv("FLIGHT_FEED_API_KEY", ""),
		FlightFeedEnabled:   getEnvAsBool("FLIGHT_FEED_ENABLED", false),

		Engine: loadEngineConfig(),

		BackupEnabled:       getEnvAsBool("BACKUP_ENABLED", false),
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		S3Endpoint:          getEnv("S3_ENDPOINT", ""),
		S3Region:            getEnv("S3_REGION", ""),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		S3AccessKeyID:       getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:   getEnv("S3_SECRET_ACCESS_KEY", ""),
	}

	return cfg, nil
}

// loadEngineConfig starts from the engine defaults and applies env overrides.
// Weights keep their defaults unless every weight is overridden consistently;
// individual threshold and TTL overrides are fine.
func loadEngineConfig() scoring.Config {
	engine := scoring.DefaultConfig()

	engine.Thresholds.Low = getEnvAsFloat("RISK_BUCKET_LOW", engine.Thresholds.Low)
	engine.Thresholds.Medium = getEnvAsFloat("RISK_BUCKET_MEDIUM", engine.Thresholds.Medium)

	if hours := getEnvAsInt("SNAPSHOT_TTL_HOURS", 0); hours > 0 {
		engine.SnapshotTTL = time.Duration(hours) * time.Hour
	}

	engine.Weights[scoring.KeyJurisdiction] = getEnvAsFloat("WEIGHT_JURISDICTION", engine.Weights[scoring.KeyJurisdiction])
	engine.Weights[scoring.KeyScale] = getEnvAsFloat("WEIGHT_SCALE", engine.Weights[scoring.KeyScale])
	engine.Weights[scoring.KeyAssetLiquidity] = getEnvAsFloat("WEIGHT_ASSET_LIQUIDITY", engine.Weights[scoring.KeyAssetLiquidity])
	engine.Weights[scoring.KeyFinancial] = getEnvAsFloat("WEIGHT_FINANCIAL", engine.Weights[scoring.KeyFinancial])

	return engine
}

// Helper functions

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
