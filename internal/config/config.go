package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`

	// Redis configuration
	RedisURL       string        `json:"redis_url" validate:"required"`
	RedisPrefix    string        `json:"redis_prefix"`
	SeenTTL        time.Duration `json:"seen_ttl"`
	MaxConcurrency int           `json:"max_concurrency" validate:"gt=0"`

	// CMS (content store) configuration
	CMSBaseURL string `json:"cms_base_url"`
	CMSAPIKey  string `json:"cms_api_key"`

	// External collaborators
	VideoSearchURL string `json:"video_search_url"`
	VideoSearchKey string `json:"video_search_key"`
	TrendingURL    string `json:"trending_url"`

	// Per-call timeout for source, trending and store requests
	RequestTimeout time.Duration `json:"request_timeout"`

	// Scheduler daytime window (video variant), local hours
	DaytimeStartHour int `json:"daytime_start_hour" validate:"gte=0,lte=23"`
	DaytimeEndHour   int `json:"daytime_end_hour" validate:"gte=0,lte=24"`

	// CloudFlare R2 configuration (cycle snapshot archive)
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"r2_access_key"`
	R2SecretKey string `json:"r2_secret_key"`
	R2Bucket    string `json:"r2_bucket"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Security
	AdminAPIKey string `json:"admin_api_key"`
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),

		// Redis configuration
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix:    getEnv("REDIS_PREFIX", "ingest:"),
		SeenTTL:        getEnvAsDuration("SEEN_TTL", 720*time.Hour), // 30 days
		MaxConcurrency: getEnvAsInt("MAX_CONCURRENCY", 5),

		// CMS configuration
		CMSBaseURL: getEnv("CMS_BASE_URL", ""),
		CMSAPIKey:  getEnv("CMS_API_KEY", ""),

		// External collaborators
		VideoSearchURL: getEnv("VIDEO_SEARCH_URL", ""),
		VideoSearchKey: getEnv("VIDEO_SEARCH_KEY", ""),
		TrendingURL:    getEnv("TRENDING_URL", ""),

		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),

		DaytimeStartHour: getEnvAsInt("DAYTIME_START_HOUR", 6),
		DaytimeEndHour:   getEnvAsInt("DAYTIME_END_HOUR", 23),

		// CloudFlare R2 configuration
		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", "ingest-archive"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		// Security
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
