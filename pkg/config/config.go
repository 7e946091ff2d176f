package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server (read API)
	Port string
	Env  string // development, staging, production

	// Storage
	StorageEnabled bool
	Database       DatabaseConfig
	Redis          RedisConfig

	// Score event publication
	Kafka KafkaConfig

	// Input/output locations
	Data DataConfig

	// Scoring run parameters
	Scoring ScoringConfig

	// Remote dataset fetching
	HTTP HTTPConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// KafkaConfig holds score publisher configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether any broker is configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Input sources
const (
	SourceFiles    = "files"
	SourceDatabase = "database"
)

// DataConfig locates the pipeline inputs and artifacts.
// Paths may be local files or http(s) URLs.
type DataConfig struct {
	Source       string // "files" or "database" (staged scoring tables)
	FeaturesPath string // per-area feature table (.csv or .json)
	RentalPath   string // rental survey observations
	StartsPath   string // housing starts observations
	OutputDir    string // JSON artifacts, empty disables export
}

// ScoringConfig holds run parameters
type ScoringConfig struct {
	ConfigPath string // YAML weights/params file, empty uses defaults
	Horizon    int
	Workers    int
	Schedule   string // cron with seconds
}

// HTTPConfig controls remote dataset downloads
type HTTPConfig struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		StorageEnabled: getEnvAsBool("STORAGE_ENABLED", false),
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "area.scores"),
		},

		Data: DataConfig{
			Source:       getEnv("DATA_SOURCE", SourceFiles),
			FeaturesPath: getEnv("FEATURES_PATH", "data/processed/features.csv"),
			RentalPath:   getEnv("RENTAL_PATH", "data/raw/rental.csv"),
			StartsPath:   getEnv("STARTS_PATH", "data/raw/housing_starts.csv"),
			OutputDir:    getEnv("OUTPUT_DIR", "data/curated"),
		},

		Scoring: ScoringConfig{
			ConfigPath: getEnv("SCORING_CONFIG", ""),
			Horizon:    getEnvAsInt("FORECAST_HORIZON", 12),
			Workers:    getEnvAsInt("FORECAST_WORKERS", 4),
			Schedule:   getEnv("SCORING_SCHEDULE", "0 0 3 1 * *"), // 매월 1일 03:00
		},

		HTTP: HTTPConfig{
			Timeout:   getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			RateLimit: getEnvAsFloat("HTTP_RATE_LIMIT", 2),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.StorageEnabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORAGE_ENABLED=true")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Data.Source != SourceFiles && c.Data.Source != SourceDatabase {
		return fmt.Errorf("DATA_SOURCE must be one of: %s, %s", SourceFiles, SourceDatabase)
	}

	if c.Data.Source == SourceDatabase && !c.StorageEnabled {
		return fmt.Errorf("DATA_SOURCE=%s requires STORAGE_ENABLED=true", SourceDatabase)
	}

	if c.Scoring.Horizon <= 0 {
		return fmt.Errorf("FORECAST_HORIZON must be positive, got %d", c.Scoring.Horizon)
	}

	if c.Scoring.Workers <= 0 {
		return fmt.Errorf("FORECAST_WORKERS must be positive, got %d", c.Scoring.Workers)
	}

	if c.HTTP.RateLimit <= 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma-separated value, dropping blanks
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
