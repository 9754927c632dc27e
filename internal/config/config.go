package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort        string
	ServiceApiPort string

	// AWS S3 (document file references)
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	DocumentURLTTL     time.Duration

	// Analytics
	AnalyticsCacheTTL time.Duration
	TopCropsLimit     int

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getEnvInt := func(key string, defaultValue int) int {
		if value, exists := os.LookupEnv(key); exists {
			if n, convErr := strconv.Atoi(value); convErr == nil {
				return n
			}
		}
		return defaultValue
	}

	getEnvSeconds := func(key string, defaultValue time.Duration) time.Duration {
		if value, exists := os.LookupEnv(key); exists {
			if n, convErr := strconv.Atoi(value); convErr == nil {
				return time.Duration(n) * time.Second
			}
		}
		return defaultValue
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "agrilift")

	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)

	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.JwtTTL = getEnvSeconds("JWT_TTL_SECONDS", 24*time.Hour)

	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "8081")

	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.DocumentURLTTL = getEnvSeconds("DOCUMENT_URL_TTL_SECONDS", 15*time.Minute)

	cfg.AnalyticsCacheTTL = getEnvSeconds("ANALYTICS_CACHE_TTL_SECONDS", 60*time.Second)
	cfg.TopCropsLimit = getEnvInt("TOP_CROPS_LIMIT", 10)

	cfg.RateLimitBucketSize = getEnvInt("RATE_LIMIT_BUCKET_SIZE", 60)
	cfg.RateLimitRefillRate = getEnvInt("RATE_LIMIT_REFILL_RATE", 20)

	return cfg, nil
}
