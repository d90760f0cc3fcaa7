package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Forex    ForexConfig    `mapstructure:"forex"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Session  SessionConfig  `mapstructure:"session"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Basket   BasketConfig   `mapstructure:"basket"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// TrustedProxies lists proxies whose X-Forwarded-For is honoured.
	// Empty means the peer address is the client IP.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ForexConfig configures the exchange rate provider and snapshot refresh.
type ForexConfig struct {
	APIURL          string        `mapstructure:"api_url"`
	APIKey          string        `mapstructure:"api_key"`
	BaseCurrency    string        `mapstructure:"base_currency"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// GatewayConfig configures the payment provider.
type GatewayConfig struct {
	APIURL             string        `mapstructure:"api_url"`
	SecretKey          string        `mapstructure:"secret_key"`
	WebhookSecret      string        `mapstructure:"webhook_secret"`
	SignatureTolerance time.Duration `mapstructure:"signature_tolerance"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type WebhookConfig struct {
	QueueCapacity  int           `mapstructure:"queue_capacity"`
	DedupTTL       time.Duration `mapstructure:"dedup_ttl"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// KafkaConfig is optional. With no brokers, confirmations are only logged.
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	ConfirmationTopic string   `mapstructure:"confirmation_topic"`
}

// Enabled reports whether a broker list was configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type BasketConfig struct {
	InternalPrecision int32  `mapstructure:"internal_precision"`
	DefaultCurrency   string `mapstructure:"default_currency"`
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory is applied first, when present.
// Environment variables override file values. Prefix: SFC_.
// Nested keys use underscore: SFC_DATABASE_HOST, SFC_FOREX_API_KEY, etc.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// SFC_FOREX_API_KEY -> forex.api_key
	v.SetEnvPrefix("SFC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Forex.BaseCurrency = strings.ToUpper(cfg.Forex.BaseCurrency)
	cfg.Basket.DefaultCurrency = strings.ToUpper(cfg.Basket.DefaultCurrency)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "storefront")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("forex.api_url", "https://api.apilayer.com/exchangerates_data")
	v.SetDefault("forex.api_key", "")
	v.SetDefault("forex.base_currency", "EUR")
	v.SetDefault("forex.request_interval", "1h")
	v.SetDefault("forex.timeout", "10s")
	v.SetDefault("forex.breaker_failures", 3)
	v.SetDefault("forex.breaker_cooldown", "1m")

	v.SetDefault("gateway.api_url", "https://api.stripe.com")
	v.SetDefault("gateway.secret_key", "")
	v.SetDefault("gateway.webhook_secret", "")
	v.SetDefault("gateway.signature_tolerance", "5m")
	v.SetDefault("gateway.timeout", "15s")

	v.SetDefault("webhook.queue_capacity", 1024)
	v.SetDefault("webhook.dedup_ttl", "72h")
	v.SetDefault("webhook.handler_timeout", "30s")

	v.SetDefault("session.ttl", "168h")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.confirmation_topic", "order-confirmations")

	v.SetDefault("basket.internal_precision", 6)
	v.SetDefault("basket.default_currency", "EUR")
}

func loadDotEnv(file string) error {
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", file, err)
	}
	return nil
}
