// backend/src/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port     string
	LogLevel string

	// Upload limits
	MaxUploadSizeBytes int64

	// Reconciliation tolerances. These are accepted as configuration, never
	// discovered from the workbook.
	AmountTolerance       decimal.Decimal // absolute currency units
	BounceWindowDays      int
	BounceAmountTolerance decimal.Decimal
	LedgerScanRowCap      int

	// StrictNoTxnStatus escalates a unit with a non-zero expected amount and
	// zero matched transactions from "warning" to "error". Kept as a policy
	// switch because both behaviors have shipped.
	StrictNoTxnStatus bool

	// Report cache
	ReportCacheTTL             time.Duration
	ReportCacheCleanupInterval time.Duration

	// CORS
	AllowedOrigins []string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from /backend)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		// Core
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Upload
		MaxUploadSizeBytes: maxUploadSizeBytes,

		// Tolerances
		AmountTolerance:       getEnvAsDecimal("AMOUNT_TOLERANCE", decimal.NewFromInt(1)),
		BounceWindowDays:      getEnvAsInt("BOUNCE_WINDOW_DAYS", 7),
		BounceAmountTolerance: getEnvAsDecimal("BOUNCE_AMOUNT_TOLERANCE", decimal.RequireFromString("0.01")),
		LedgerScanRowCap:      getEnvAsInt("LEDGER_SCAN_ROW_CAP", 5000),

		// Policy
		StrictNoTxnStatus: getEnvAsBool("VERIFY_STRICT_NO_TXN", false),

		// Cache
		ReportCacheTTL:             getEnvAsDuration("REPORT_CACHE_TTL", 15*time.Minute),
		ReportCacheCleanupInterval: getEnvAsDuration("REPORT_CACHE_CLEANUP_INTERVAL", 30*time.Minute),

		// CORS
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, ScanRowCap=%d, AmountTolerance=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.LedgerScanRowCap, Cfg.AmountTolerance.String())
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a fallback.
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback)
	return fallback
}

// getEnvAsDecimal retrieves an environment variable as a decimal or returns a fallback.
func getEnvAsDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := decimal.NewFromString(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid decimal value for %s ('%s'), using default: %s", key, valueStr, fallback)
	return fallback
}

// getEnvAsList retrieves a comma-separated environment variable as a string slice.
func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
