package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	JWTKey string

	RedisAddr string

	EmailSender string
	Password    string // SMTP Password
	AlertEmail  string // Recipient for sync failure alerts

	SyncCron               string // Cron expression for the scheduled reconciliation run
	SyncLookbackHours      int    // Default change window when a company has no checkpoint
	SyncMaxRunSeconds      int    // Wall-clock ceiling for a single run
	SyncLockTimeoutSeconds int    // Age after which a leftover run lock is considered stale
	PurgeRetentionDays     int    // Minimum soft-deleted age before hard purge removes a row
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:   getEnv("PORT", "3000"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		EmailSender: getEnv("EMAIL_SENDER", ""),
		Password:    getEnv("PASSWORD", ""),
		AlertEmail:  getEnv("SYNC_ALERT_EMAIL", ""),

		SyncCron:               getEnv("SYNC_CRON", "0 * * * *"),
		SyncLookbackHours:      getEnvInt("SYNC_LOOKBACK_HOURS", 24),
		SyncMaxRunSeconds:      getEnvInt("SYNC_MAX_RUN_SECONDS", 300),
		SyncLockTimeoutSeconds: getEnvInt("SYNC_LOCK_TIMEOUT_SECONDS", 3600),
		PurgeRetentionDays:     getEnvInt("PURGE_RETENTION_DAYS", 30),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.RedisAddr == "" {
		log.Println("Warning: REDIS_ADDR not set. Progress cache is disabled.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
