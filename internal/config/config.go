package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Holiday   HolidayConfig
	Assistant AssistantConfig
	Jobs      JobsConfig
	Storage   StorageConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig backs the Idempotency-Key middleware. An empty Addr disables it.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration
}

type HolidayConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AssistantConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// RatePerMinute and Burst bound chat requests per user.
	RatePerMinute int
	Burst         int
}

// StorageConfig is where check-in selfies are kept. BaseURL must point at the
// selfie route so stored URLs resolve back through the API.
type StorageConfig struct {
	BasePath string
	BaseURL  string
}

type JobsConfig struct {
	Enabled         bool
	PendingInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris_policy"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	accessExpiration, err := getEnvDuration("JWT_ACCESS_EXPIRATION_TIME", time.Hour)
	if err != nil {
		return nil, err
	}
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: accessExpiration,
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// Redis configuration
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	idempotencyTTL, err := getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	config.Redis = RedisConfig{
		Addr:           getEnv("REDIS_ADDR", ""),
		Password:       getEnv("REDIS_PASSWORD", ""),
		DB:             redisDB,
		IdempotencyTTL: idempotencyTTL,
	}

	holidayTimeout, err := getEnvDuration("HOLIDAY_API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	config.Holiday = HolidayConfig{
		BaseURL: getEnv("HOLIDAY_API_URL", "https://date.nager.at"),
		Timeout: holidayTimeout,
	}

	// Assistant configuration
	assistantTimeout, err := getEnvDuration("ASSISTANT_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	ratePerMinute, err := getEnvInt("ASSISTANT_RATE_PER_MINUTE", 10)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvInt("ASSISTANT_BURST", 3)
	if err != nil {
		return nil, err
	}
	config.Assistant = AssistantConfig{
		BaseURL:       getEnv("ASSISTANT_BASE_URL", "https://api.openai.com/v1"),
		APIKey:        getEnv("ASSISTANT_API_KEY", ""),
		Model:         getEnv("ASSISTANT_MODEL", "gpt-4o-mini"),
		Timeout:       assistantTimeout,
		RatePerMinute: ratePerMinute,
		Burst:         burst,
	}

	pendingInterval, err := getEnvDuration("JOBS_PENDING_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	config.Jobs = JobsConfig{
		Enabled:         getEnv("JOBS_ENABLED", "true") == "true",
		PendingInterval: pendingInterval,
	}

	config.Storage = StorageConfig{
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads/selfies"),
		BaseURL:  getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%d/api/v1/attendance/selfies", appPort)),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Assistant.RatePerMinute <= 0 || c.Assistant.Burst <= 0 {
		return fmt.Errorf("ASSISTANT_RATE_PER_MINUTE and ASSISTANT_BURST must be positive")
	}
	if c.Jobs.PendingInterval <= 0 {
		return fmt.Errorf("JOBS_PENDING_INTERVAL must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
