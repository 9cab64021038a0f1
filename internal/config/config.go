package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Database configuration
	DBPath string

	// Cache configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Media configuration (Azure Blob Storage, or a local directory when no account is set)
	StorageAccount   string
	StorageContainer string
	MediaDir         string
	PublicBaseURL    string

	// Notification configuration
	TeamsWebhookURL string
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	EmailFromName   string

	// Mission reminder configuration
	ReminderSchedule      string
	TimeZone              string
	ReminderLookaheadDays int

	// Proximity alert defaults
	AlertRadiusKm float64
	AlertWindow   time.Duration

	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		Debug:  getBoolEnv("DEBUG", false),
		DBPath: getEnv("DB_PATH", "ecoguard.db"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CacheTTL:      getDurationEnv("CACHE_TTL", 30*time.Second),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "report-images"),
		MediaDir:         getEnv("MEDIA_DIR", "uploads"),
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		TeamsWebhookURL: getEnv("TEAMS_WEBHOOK_URL", ""),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getIntEnv("SMTP_PORT", 587),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		EmailFromName:   getEnv("EMAIL_FROM_NAME", "Goa Eco-Guard"),

		// Daily at 8 AM in TimeZone
		ReminderSchedule:      getEnv("REMINDER_SCHEDULE", "0 0 8 * * *"),
		TimeZone:              getEnv("TIMEZONE", "Asia/Kolkata"),
		ReminderLookaheadDays: getIntEnv("REMINDER_LOOKAHEAD_DAYS", 3),

		AlertRadiusKm: getFloatEnv("ALERT_RADIUS_KM", 5),
		AlertWindow:   getDurationEnv("ALERT_WINDOW", 24*time.Hour),

		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 20),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Location returns the time zone reminders are computed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EmailEnabled reports whether SMTP delivery is configured.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid IANA time zone: %w", c.TimeZone, err)
	}

	if c.SMTPHost != "" {
		if c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP_USERNAME and SMTP_PASSWORD are required when SMTP_HOST is set")
		}
	}

	if c.ReminderLookaheadDays < 0 {
		return fmt.Errorf("REMINDER_LOOKAHEAD_DAYS must not be negative")
	}

	if c.AlertRadiusKm <= 0 {
		return fmt.Errorf("ALERT_RADIUS_KM must be positive")
	}

	if c.AlertWindow <= 0 {
		return fmt.Errorf("ALERT_WINDOW must be positive")
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
