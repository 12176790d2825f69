package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Gateway     GatewayConfig
	Settlement  SettlementConfig
	Webhook     WebhookConfig
	Secrets     SecretsConfig
	Events      EventsConfig
	Catalog     CatalogConfig
	Cron        CronConfig
	Logger      LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	MetricsPort     int
	CORSOrigins     []string
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
	HandlerTimeout  time.Duration
}

// DatabaseConfig holds PostgreSQL configuration. An empty URL and host
// selects the in-memory stores.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// GatewayConfig holds settlement gateway configuration
type GatewayConfig struct {
	BaseURL         string
	KeyID           string
	KeySecret       string
	KeySecretPath   string
	VendorAccountID string
	Currency        string
	Timeout         time.Duration
}

// SettlementConfig holds split and refund settings
type SettlementConfig struct {
	PlatformFeePct decimal.Decimal
	IdempotencyTTL time.Duration // zero keeps keys for the process lifetime
}

// WebhookConfig holds inbound webhook settings
type WebhookConfig struct {
	Secret     string
	SecretPath string
}

// SecretsConfig selects the secret backend
type SecretsConfig struct {
	Backend      string // env, local, aws, vault
	LocalPath    string
	AWSRegion    string
	AWSEndpoint  string
	VaultAddress string
	VaultToken   string
	VaultMount   string
	CacheTTL     time.Duration
}

// EventsConfig holds settlement event publishing settings
type EventsConfig struct {
	Brokers []string
	Topic   string
}

// CatalogConfig locates the property catalog
type CatalogConfig struct {
	PropertiesFile string
}

// CronConfig holds scheduled-job settings
type CronConfig struct {
	Secret string // empty disables the cron endpoints
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	feePct, err := decimal.NewFromString(getEnv("PLATFORM_FEE_PCT", "10"))
	if err != nil {
		return nil, fmt.Errorf("PLATFORM_FEE_PCT: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:            getEnvAsInt("PORT", 3000),
			Host:            getEnv("HOST", "0.0.0.0"),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			CORSOrigins:     getEnvAsList("CORS_ORIGINS", []string{"*"}),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 40),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
			HandlerTimeout:  getEnvAsDuration("HANDLER_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "booking_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 2)),
		},
		Gateway: GatewayConfig{
			BaseURL:         getEnv("GATEWAY_BASE_URL", "https://api.razorpay.com"),
			KeyID:           getEnv("GATEWAY_KEY_ID", ""),
			KeySecret:       getEnv("GATEWAY_KEY_SECRET", ""),
			KeySecretPath:   getEnv("GATEWAY_KEY_SECRET_PATH", ""),
			VendorAccountID: getEnv("VENDOR_ACCOUNT_ID", ""),
			Currency:        getEnv("GATEWAY_CURRENCY", "INR"),
			Timeout:         time.Duration(getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Settlement: SettlementConfig{
			PlatformFeePct: feePct,
			IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 0),
		},
		Webhook: WebhookConfig{
			Secret:     getEnv("WEBHOOK_SECRET", ""),
			SecretPath: getEnv("WEBHOOK_SECRET_PATH", ""),
		},
		Secrets: SecretsConfig{
			Backend:      getEnv("SECRET_MANAGER", "env"),
			LocalPath:    getEnv("SECRETS_PATH", "./secrets"),
			AWSRegion:    getEnv("AWS_REGION", "ap-south-1"),
			AWSEndpoint:  getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress: getEnv("VAULT_ADDR", ""),
			VaultToken:   getEnv("VAULT_TOKEN", ""),
			VaultMount:   getEnv("VAULT_MOUNT", "secret"),
			CacheTTL:     getEnvAsDuration("SECRET_CACHE_TTL", 5*time.Minute),
		},
		Events: EventsConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "settlement-events"),
		},
		Catalog: CatalogConfig{
			PropertiesFile: getEnv("PROPERTIES_FILE", ""),
		},
		Cron: CronConfig{
			Secret: getEnv("CRON_SECRET", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail at request time
func (c *Config) Validate() error {
	pct := c.Settlement.PlatformFeePct
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("PLATFORM_FEE_PCT must be within [0,100], got %s", pct)
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT_SECONDS must be positive")
	}
	if c.Settlement.IdempotencyTTL < 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must not be negative")
	}
	switch c.Secrets.Backend {
	case "env", "local", "aws", "vault":
	default:
		return fmt.Errorf("unsupported SECRET_MANAGER %q", c.Secrets.Backend)
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesDatabase reports whether a PostgreSQL connection is configured
func (c *DatabaseConfig) UsesDatabase() bool {
	return c.URL != "" || c.Host != ""
}

// ConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
