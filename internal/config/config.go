package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Limits   LimitsConfig
	Outbox   OutboxConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig selects where version content bytes live. Backend is
// "s3" or "fs"; the fs backend is for local development and tests.
type StorageConfig struct {
	Backend   string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
	LocalDir  string
	Timeout   time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

// LimitsConfig carries organization-level limits read from the
// surrounding product; the core only consumes them.
type LimitsConfig struct {
	MaxParticipantsCap int
	AccessCodeLength   int
}

type OutboxConfig struct {
	BatchSize  int
	Interval   time.Duration
	MaxRetries int
}

// LoadConfig loads configuration from environment variables.
// A .env file is honored when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "redline"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Backend:   getEnv("STORAGE_BACKEND", "fs"),
			Region:    getEnv("S3_REGION", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			LocalDir:  getEnv("STORAGE_LOCAL_DIR", "data/versions"),
			Timeout:   getEnvAsDuration("STORAGE_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret"),
		},
		Limits: LimitsConfig{
			MaxParticipantsCap: getEnvAsInt("MAX_PARTICIPANTS_CAP", 50),
			AccessCodeLength:   getEnvAsInt("ACCESS_CODE_LENGTH", 8),
		},
		Outbox: OutboxConfig{
			BatchSize:  getEnvAsInt("OUTBOX_BATCH_SIZE", 100),
			Interval:   getEnvAsDuration("OUTBOX_INTERVAL", 2*time.Second),
			MaxRetries: getEnvAsInt("OUTBOX_MAX_RETRIES", 5),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
