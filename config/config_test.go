package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Empty(t, cfg.Server.TrustedProxies)

	assert.Equal(t, "storefront", cfg.Database.DBName)
	assert.True(t, cfg.Database.AutoMigrate)

	assert.Equal(t, "EUR", cfg.Forex.BaseCurrency)
	assert.Equal(t, time.Hour, cfg.Forex.RequestInterval)
	assert.Equal(t, uint32(3), cfg.Forex.BreakerFailures)
	assert.Equal(t, "https://api.apilayer.com/exchangerates_data", cfg.Forex.APIURL)

	assert.Equal(t, 5*time.Minute, cfg.Gateway.SignatureTolerance)
	assert.Equal(t, 1024, cfg.Webhook.QueueCapacity)
	assert.Equal(t, 72*time.Hour, cfg.Webhook.DedupTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)

	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "order-confirmations", cfg.Kafka.ConfirmationTopic)

	assert.Equal(t, int32(6), cfg.Basket.InternalPrecision)
	assert.Equal(t, "EUR", cfg.Basket.DefaultCurrency)

	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	content := []byte(`
server:
  port: 9090
  mode: "release"
  trusted_proxies: ["10.0.0.0/8"]
forex:
  api_key: "abc123"
  base_currency: "usd"
  request_interval: "30m"
gateway:
  webhook_secret: "whsec_test"
webhook:
  queue_capacity: 16
kafka:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
basket:
  default_currency: "gbp"
log:
  level: "debug"
  pretty: true
`)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "abc123", cfg.Forex.APIKey)
	assert.Equal(t, "USD", cfg.Forex.BaseCurrency, "currency codes are upper-cased")
	assert.Equal(t, 30*time.Minute, cfg.Forex.RequestInterval)
	assert.Equal(t, "whsec_test", cfg.Gateway.WebhookSecret)
	assert.Equal(t, 16, cfg.Webhook.QueueCapacity)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "GBP", cfg.Basket.DefaultCurrency)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SFC_SERVER_PORT", "3000")
	t.Setenv("SFC_FOREX_API_KEY", "env-key")
	t.Setenv("SFC_WEBHOOK_QUEUE_CAPACITY", "8")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "env-key", cfg.Forex.APIKey)
	assert.Equal(t, 8, cfg.Webhook.QueueCapacity)
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("SFC_GATEWAY_SECRET_KEY", "")
	require.NoError(t, os.Unsetenv("SFC_GATEWAY_SECRET_KEY"))

	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("SFC_GATEWAY_SECRET_KEY=sk_test_dotenv\n"), 0600))

	require.NoError(t, loadDotEnv(envPath))
	assert.Equal(t, "sk_test_dotenv", os.Getenv("SFC_GATEWAY_SECRET_KEY"))
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dbCfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "shop",
		Password: "pw",
		DBName:   "storefront",
		SSLMode:  "disable",
	}

	assert.Equal(t, "postgres://shop:pw@localhost:5432/storefront?sslmode=disable", dbCfg.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "redis.local:6380", RedisConfig{Host: "redis.local", Port: 6380}.Addr())
}
