package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	LogLevel     string
	DatabasePath string

	// BackendBaseURL is the extraction backend this service talks to. The
	// deployment variants used to hardcode different ports; this is the one
	// place that binding lives now.
	BackendBaseURL   string
	OwnershipDataURL string

	HTTPClientTimeout  time.Duration
	MaxUploadSizeBytes int64
	MaxResponseBytes   int64

	TableCacheTTL    time.Duration
	EvidenceCacheTTL time.Duration
	CacheCleanup     time.Duration

	AllowedOrigin string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "52428800")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 50MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 50 * 1024 * 1024
	}

	maxResponseBytesStr := getEnv("MAX_RESPONSE_BYTES", "33554432")
	maxResponseBytes, err := strconv.ParseInt(maxResponseBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_RESPONSE_BYTES format '%s'. Using default 32MB. Error: %v", maxResponseBytesStr, err)
		maxResponseBytes = 32 * 1024 * 1024
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./tadawulboard.db"),

		BackendBaseURL:   getEnv("BACKEND_BASE_URL", "http://localhost:5002"),
		OwnershipDataURL: getEnv("OWNERSHIP_DATA_URL", "http://localhost:3000/foreign_ownership_data.json"),

		HTTPClientTimeout:  getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 30*time.Second),
		MaxUploadSizeBytes: maxUploadSizeBytes,
		MaxResponseBytes:   maxResponseBytes,

		TableCacheTTL:    getEnvAsDuration("TABLE_CACHE_TTL", 5*time.Minute),
		EvidenceCacheTTL: getEnvAsDuration("EVIDENCE_CACHE_TTL", 15*time.Minute),
		CacheCleanup:     getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute),

		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, Backend=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.BackendBaseURL)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
