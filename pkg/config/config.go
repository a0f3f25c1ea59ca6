package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	GRPCPort int `yaml:"grpc_port"`
	HTTPPort int `yaml:"http_port"`

	// PublicURL is the storefront origin used to build payment return URLs.
	PublicURL  string `yaml:"public_url"`
	AdminToken string `yaml:"admin_token"`

	Storage   StorageConfig   `yaml:"storage"`
	Cart      CartConfig      `yaml:"cart"`
	Redis     RedisConfig     `yaml:"redis"`
	Payment   PaymentConfig   `yaml:"payment"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type CartConfig struct {
	// Backend selects the snapshot store: memory, sqlite or redis.
	Backend   string        `yaml:"backend"`
	AppKey    string        `yaml:"app_key"`
	OpenOnAdd bool          `yaml:"open_on_add"`
	IdleTTL   time.Duration `yaml:"idle_ttl"`
}

type RedisConfig struct {
	Addr    string        `yaml:"addr"`
	// CartTTL expires carts not written for this long; zero keeps them.
	CartTTL time.Duration `yaml:"cart_ttl"`
}

type PaymentConfig struct {
	StripeKey string `yaml:"stripe_key"`
	Currency  string `yaml:"currency"`
	// MaxConcurrent bounds catalog lookups during checkout validation.
	MaxConcurrent int `yaml:"max_concurrent"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

func defaults() Config {
	return Config{
		AppEnv:    "dev",
		LogLevel:  "info",
		HTTPPort:  8080,
		GRPCPort:  8081,
		PublicURL: "http://localhost:8080",
		Storage:   StorageConfig{SQLitePath: "data/atelier.db"},
		Cart: CartConfig{
			Backend: "sqlite",
			AppKey:  "atelier-cart",
			IdleTTL: 30 * time.Minute,
		},
		Redis:     RedisConfig{Addr: "localhost:6379", CartTTL: 30 * 24 * time.Hour},
		Payment:   PaymentConfig{Currency: "usd", MaxConcurrent: 10},
		Telemetry: TelemetryConfig{ServiceName: "atelier"},
	}
}

// Load reads CONFIG_FILE (if set) over the defaults, then applies env overrides.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = getEnvInt("GRPC_PORT", cfg.GRPCPort)
	cfg.PublicURL = getEnv("PUBLIC_URL", cfg.PublicURL)
	cfg.AdminToken = getEnv("ADMIN_TOKEN", cfg.AdminToken)

	cfg.Storage.SQLitePath = getEnv("SQLITE_PATH", cfg.Storage.SQLitePath)

	cfg.Cart.Backend = getEnv("CART_BACKEND", cfg.Cart.Backend)
	cfg.Cart.AppKey = getEnv("CART_APP_KEY", cfg.Cart.AppKey)
	cfg.Cart.OpenOnAdd = getEnvBool("CART_OPEN_ON_ADD", cfg.Cart.OpenOnAdd)
	cfg.Cart.IdleTTL = getEnvDuration("CART_IDLE_TTL", cfg.Cart.IdleTTL)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.CartTTL = getEnvDuration("REDIS_CART_TTL", cfg.Redis.CartTTL)

	cfg.Payment.StripeKey = getEnv("STRIPE_SECRET_KEY", cfg.Payment.StripeKey)
	cfg.Payment.Currency = getEnv("PAYMENT_CURRENCY", cfg.Payment.Currency)
	cfg.Payment.MaxConcurrent = getEnvInt("CHECKOUT_MAX_CONCURRENT", cfg.Payment.MaxConcurrent)

	cfg.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
