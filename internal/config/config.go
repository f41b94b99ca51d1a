// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	Port     int
	DevMode  bool
	LogLevel string

	// Symbols scanned by default (API callers may override per request)
	Symbols []string

	// Scanner parameters
	RiskFreeRate     float64 // Annual risk-free rate used for delta computation
	DeltaMin         float64 // Lower bound of the absolute-delta band
	DeltaMax         float64 // Upper bound of the absolute-delta band
	ExpiryWindowDays int     // Only consider options expiring within this many days
	ScanConcurrency  int     // Bounded pool size for per-symbol fetches

	// Allocator parameters
	TotalCapital    float64 // Capital budget distributed across symbols
	MinAllocation   float64 // Minimum fraction of capital per symbol
	MaxAllocation   float64 // Maximum fraction of capital per symbol
	TopKPerSymbol   int     // Shortlist size per symbol in the combination search
	MaxGroupSymbols int     // Hard ceiling on symbols per optimization request

	Backup *BackupConfig
}

// BackupConfig holds S3-compatible backup settings
type BackupConfig struct {
	Enabled         bool
	Endpoint        string // Custom endpoint for S3-compatible stores (empty = AWS)
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	RetentionCount  int // Number of backups to keep
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. Check WHEELHOUSE_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path and ensure it exists
	dataDir := getEnv("WHEELHOUSE_DATA_DIR", "")
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
		Port:     getEnvAsInt("PORT", 8010),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Symbols: splitSymbols(getEnv("SYMBOLS", "AAPL,MSFT,GOOGL,AMZN,TSLA")),

		RiskFreeRate:     getEnvAsFloat("RISK_FREE_RATE", 0.05),
		DeltaMin:         getEnvAsFloat("DELTA_MIN", 0.15),
		DeltaMax:         getEnvAsFloat("DELTA_MAX", 0.25),
		ExpiryWindowDays: getEnvAsInt("EXPIRY_WINDOW_DAYS", 10),
		ScanConcurrency:  getEnvAsInt("SCAN_CONCURRENCY", 4),

		TotalCapital:    getEnvAsFloat("TOTAL_CAPITAL", 100000),
		MinAllocation:   getEnvAsFloat("MIN_ALLOCATION_PER_SYMBOL", 0.15),
		MaxAllocation:   getEnvAsFloat("MAX_ALLOCATION_PER_SYMBOL", 0.60),
		TopKPerSymbol:   getEnvAsInt("TOP_K_PER_SYMBOL", 5),
		MaxGroupSymbols: getEnvAsInt("MAX_GROUP_SYMBOLS", 5),

		Backup: loadBackupConfig(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks configuration values for internal consistency
func (c *Config) validate() error {
	if c.DeltaMin < 0 || c.DeltaMax <= c.DeltaMin {
		return fmt.Errorf("invalid delta band: [%.2f, %.2f]", c.DeltaMin, c.DeltaMax)
	}
	if c.ExpiryWindowDays <= 0 {
		return fmt.Errorf("expiry window must be positive, got %d", c.ExpiryWindowDays)
	}
	if c.TotalCapital <= 0 {
		return fmt.Errorf("total capital must be positive, got %.2f", c.TotalCapital)
	}
	if c.MinAllocation <= 0 || c.MaxAllocation > 1 || c.MinAllocation > c.MaxAllocation {
		return fmt.Errorf("invalid allocation fractions: min=%.2f max=%.2f", c.MinAllocation, c.MaxAllocation)
	}
	if c.TopKPerSymbol <= 0 {
		return fmt.Errorf("top-K per symbol must be positive, got %d", c.TopKPerSymbol)
	}
	return nil
}

// loadBackupConfig loads S3 backup configuration from environment variables
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
		Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
		RetentionCount:  getEnvAsInt("BACKUP_RETENTION_COUNT", 7),
	}
}

// splitSymbols parses a comma-separated symbol list, trimming whitespace and
// uppercasing each entry. Empty entries are dropped.
func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.ToUpper(strings.TrimSpace(p))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
