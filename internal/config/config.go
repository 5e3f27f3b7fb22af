package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnv                 = "development"
	defaultHTTPHost            = "0.0.0.0"
	defaultHTTPPort            = 8050
	defaultRedisDB             = 0
	defaultCacheTTLSeconds     = 30
	defaultMoexBaseURL         = "https://iss.moex.com"
	defaultMoexTimeoutSeconds  = 30
	defaultInvestEndpoint      = "https://invest-public-api.tinkoff.ru:443"
	defaultInvestAppName       = "bondscalc"
	defaultBondsExchange       = "bonds.catalog"
	defaultRabbitPrefetch      = 50
	defaultBatchSize           = 500
	defaultBatchTimeoutMS      = 2000
	defaultSyncIntervalMinutes = 0
	defaultSearchLimit         = 100
	defaultLocale              = "en"
)

// Config keeps the runtime configuration for the service.
type Config struct {
	Env      string
	Locale   string
	HTTP     HTTPConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Moex     MoexConfig
	Invest   InvestConfig
	RabbitMQ RabbitMQConfig
	Sync     SyncConfig
	Search   SearchConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// PostgresConfig stores database connection parameters.
type PostgresConfig struct {
	DSN string
}

// RedisConfig stores Redis connection parameters. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig stores cache behavior.
type CacheConfig struct {
	TTLSeconds int
}

// TTL returns the cache lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// MoexConfig points at the MOEX ISS API.
type MoexConfig struct {
	BaseURL string
	Timeout time.Duration
}

// InvestConfig holds T-Invest API credentials. An empty Token disables the price source.
type InvestConfig struct {
	Token         string
	Endpoint      string
	AppName       string
	SkipTLSVerify bool
}

// Enabled reports whether broker prices should be requested.
func (c InvestConfig) Enabled() bool {
	return c.Token != ""
}

// RabbitMQConfig configures catalog messaging. An empty URL disables it.
type RabbitMQConfig struct {
	URL           string
	BondsExchange string
	Prefetch      int
	BatchSize     int
	BatchTimeout  time.Duration
}

// SyncConfig controls catalog refreshes in the server.
type SyncConfig struct {
	OnStart  bool
	Interval time.Duration
}

// SearchConfig bounds catalog search results.
type SearchConfig struct {
	Limit int
}

// Load builds Config from environment variables. Values from a .env file in
// the working directory are applied first when the file exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	host := getString("HTTP_HOST", defaultHTTPHost)
	port, err := getInt("HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return nil, fmt.Errorf("parse HTTP_PORT: %w", err)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}

	redisDB, err := getInt("REDIS_DB", defaultRedisDB)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}

	cacheTTL, err := getInt("CACHE_TTL_SECONDS", defaultCacheTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse CACHE_TTL_SECONDS: %w", err)
	}

	moexTimeout, err := getInt("MOEX_TIMEOUT_SECONDS", defaultMoexTimeoutSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse MOEX_TIMEOUT_SECONDS: %w", err)
	}

	prefetch, err := getInt("RABBITMQ_PREFETCH", defaultRabbitPrefetch)
	if err != nil {
		return nil, fmt.Errorf("parse RABBITMQ_PREFETCH: %w", err)
	}
	batchSize, err := getInt("BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return nil, fmt.Errorf("parse BATCH_SIZE: %w", err)
	}
	batchTimeout, err := getInt("BATCH_TIMEOUT_MS", defaultBatchTimeoutMS)
	if err != nil {
		return nil, fmt.Errorf("parse BATCH_TIMEOUT_MS: %w", err)
	}

	syncInterval, err := getInt("SYNC_INTERVAL_MINUTES", defaultSyncIntervalMinutes)
	if err != nil {
		return nil, fmt.Errorf("parse SYNC_INTERVAL_MINUTES: %w", err)
	}

	searchLimit, err := getInt("SEARCH_LIMIT", defaultSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("parse SEARCH_LIMIT: %w", err)
	}

	return &Config{
		Env:    getString("APP_ENV", defaultEnv),
		Locale: getString("LOCALE", defaultLocale),
		HTTP:   HTTPConfig{Host: host, Port: port},
		Postgres: PostgresConfig{
			DSN: dsn,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			TTLSeconds: cacheTTL,
		},
		Moex: MoexConfig{
			BaseURL: getString("MOEX_BASE_URL", defaultMoexBaseURL),
			Timeout: time.Duration(moexTimeout) * time.Second,
		},
		Invest: InvestConfig{
			Token:         strings.TrimSpace(os.Getenv("INVEST_TOKEN")),
			Endpoint:      getString("INVEST_ENDPOINT", defaultInvestEndpoint),
			AppName:       getString("INVEST_APP_NAME", defaultInvestAppName),
			SkipTLSVerify: getBool("INVEST_INSECURE_SKIP_VERIFY", false),
		},
		RabbitMQ: RabbitMQConfig{
			URL:           os.Getenv("RABBITMQ_URL"),
			BondsExchange: getString("RABBITMQ_BONDS_EXCHANGE", defaultBondsExchange),
			Prefetch:      prefetch,
			BatchSize:     batchSize,
			BatchTimeout:  time.Duration(batchTimeout) * time.Millisecond,
		},
		Sync: SyncConfig{
			OnStart:  getBool("SYNC_ON_START", true),
			Interval: time.Duration(syncInterval) * time.Minute,
		},
		Search: SearchConfig{
			Limit: searchLimit,
		},
	}, nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}

func getBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "t", "true", "yes", "y":
		return true
	case "0", "f", "false", "no", "n":
		return false
	default:
		return fallback
	}
}
