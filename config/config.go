package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string
	CORSAllowedOrigins []string

	// Notification transports. Each one is enabled only when its address is set.
	RedisAddr          string
	RedisChannelPrefix string
	KafkaBrokers       []string
	KafkaTopic         string
	AMQPURL            string
	AMQPExchange       string
	NotifyTimeout      time.Duration

	// Order processing
	TaxRate                decimal.Decimal
	ServiceFeeRate         decimal.Decimal
	DefaultPrepTimeMinutes int
	OrderNumberMaxAttempts int
	RecomputeMaxAttempts   int
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "orders:"),
		KafkaBrokers:       getEnvList("KAFKA_BROKERS"),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "order-notifications"),
		AMQPURL:            getEnv("AMQP_URL", ""),
		AMQPExchange:       getEnv("AMQP_EXCHANGE", "order_notifications"),
	}

	var err error
	if config.TaxRate, err = getEnvDecimal("TAX_RATE", "0.08"); err != nil {
		return nil, err
	}
	if config.ServiceFeeRate, err = getEnvDecimal("SERVICE_FEE_RATE", "0"); err != nil {
		return nil, err
	}
	if config.DefaultPrepTimeMinutes, err = getEnvInt("DEFAULT_PREP_TIME_MINUTES", 20); err != nil {
		return nil, err
	}
	if config.OrderNumberMaxAttempts, err = getEnvInt("ORDER_NUMBER_MAX_ATTEMPTS", 50); err != nil {
		return nil, err
	}
	if config.RecomputeMaxAttempts, err = getEnvInt("RECOMPUTE_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	notifyMillis, err := getEnvInt("NOTIFY_TIMEOUT_MS", 500)
	if err != nil {
		return nil, err
	}
	config.NotifyTimeout = time.Duration(notifyMillis) * time.Millisecond

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && !c.IsTest() {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.TaxRate.IsNegative() || c.ServiceFeeRate.IsNegative() {
		return fmt.Errorf("TAX_RATE and SERVICE_FEE_RATE must not be negative")
	}
	if c.OrderNumberMaxAttempts < 1 {
		return fmt.Errorf("ORDER_NUMBER_MAX_ATTEMPTS must be at least 1")
	}
	if c.RecomputeMaxAttempts < 1 {
		return fmt.Errorf("RECOMPUTE_MAX_ATTEMPTS must be at least 1")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT_MS must be positive")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetDatabaseURL returns the database URL
func (c *Config) GetDatabaseURL() string {
	return c.DatabaseURL
}

// GetConfig returns the most recently loaded configuration
func GetConfig() *Config {
	return appConfig
}

// SetConfig replaces the loaded configuration (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal number: %w", key, err)
	}
	return d, nil
}

// getEnvList splits a comma separated variable, dropping blanks
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
