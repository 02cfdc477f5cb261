package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                 string
	DBUrl                string
	DBMaxConns           int32
	DBStatementTimeout   time.Duration
	JWTSecret            string
	RedisURL             string
	FlutterwaveBaseURL   string
	FlutterwaveSecretKey string
	FlutterwavePublicKey string
	FlutterwaveHash      string
	PaymentCurrency      string
	AppEnv               string
	LogLevel             string
	SessionSweepInterval time.Duration
	KeywordCacheTTL      time.Duration
	EnableDocs           bool
	ExpoPushEnabled      bool
	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

func LoadConfig() (*Config, error) {
	envLoaded := godotenv.Load() == nil

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "5s")
	v.SetDefault("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com/v3")
	v.SetDefault("PAYMENT_CURRENCY", "NGN")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "30s")
	v.SetDefault("KEYWORD_CACHE_TTL", "5m")
	v.SetDefault("ENABLE_API_DOCS", false)
	v.SetDefault("EXPO_PUSH_ENABLED", false)

	jwtSecret := strings.TrimSpace(v.GetString("SUPABASE_JWT_SECRET"))
	if jwtSecret == "" {
		jwtSecret = strings.TrimSpace(v.GetString("JWT_SECRET"))
	}
	if jwtSecret == "" {
		return nil, fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}

	sweepInterval, err := durationValue(v, "SESSION_SWEEP_INTERVAL")
	if err != nil {
		return nil, err
	}
	keywordTTL, err := durationValue(v, "KEYWORD_CACHE_TTL")
	if err != nil {
		return nil, err
	}
	statementTimeout, err := durationValue(v, "DB_STATEMENT_TIMEOUT")
	if err != nil {
		return nil, err
	}
	maxConns := v.GetInt32("DB_MAX_CONNS")
	if maxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", maxConns)
	}

	return &Config{
		Port:                 v.GetString("PORT"),
		DBUrl:                v.GetString("DB_URL"),
		DBMaxConns:           maxConns,
		DBStatementTimeout:   statementTimeout,
		JWTSecret:            jwtSecret,
		RedisURL:             strings.TrimSpace(v.GetString("REDIS_URL")),
		FlutterwaveBaseURL:   v.GetString("FLUTTERWAVE_BASE_URL"),
		FlutterwaveSecretKey: v.GetString("FLUTTERWAVE_SECRET_KEY"),
		FlutterwavePublicKey: v.GetString("FLUTTERWAVE_PUBLIC_KEY"),
		FlutterwaveHash:      v.GetString("FLUTTERWAVE_WEBHOOK_HASH"),
		PaymentCurrency:      strings.ToUpper(v.GetString("PAYMENT_CURRENCY")),
		AppEnv:               normalizeEnv(v.GetString("APP_ENV")),
		LogLevel:             strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		SessionSweepInterval: sweepInterval,
		KeywordCacheTTL:      keywordTTL,
		EnableDocs:           v.GetBool("ENABLE_API_DOCS"),
		ExpoPushEnabled:      v.GetBool("EXPO_PUSH_ENABLED"),
		EnvFileLoaded:        envLoaded,
	}, nil
}

func durationValue(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return value, nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

// PayoutsEnabled reports whether the Flutterwave secret key is configured.
func (c *Config) PayoutsEnabled() bool {
	return c != nil && strings.TrimSpace(c.FlutterwaveSecretKey) != ""
}
