package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("QAFORUM_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, "file:qaforum.db", cfg.Store.DSN)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "qaforum-events", cfg.Kafka.Topic)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, Log{Level: "info", Format: "json"}, cfg.Log)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("QAFORUM_ADDR", "127.0.0.1:9000")
	t.Setenv("QAFORUM_STORE_DRIVER", "MySQL")
	t.Setenv("QAFORUM_STORE_DSN", "qa:pw@tcp(db:3306)/qaforum")
	t.Setenv("QAFORUM_BCRYPT_COST", "4")
	t.Setenv("QAFORUM_REDIS_URL", "redis://cache:6379/0")
	t.Setenv("QAFORUM_TOKEN_CACHE_TTL", "90s")
	t.Setenv("QAFORUM_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("QAFORUM_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("QAFORUM_LOG_FORMAT", "console")
	t.Setenv("QAFORUM_SHUTDOWN_TIMEOUT", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, Store{Driver: StoreMySQL, DSN: "qa:pw@tcp(db:3306)/qaforum"}, cfg.Store)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, Redis{URL: "redis://cache:6379/0", TTL: 90 * time.Second}, cfg.Redis)
	assert.Equal(t, "k1:9092,k2:9092", cfg.Kafka.Brokers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, time.Minute, cfg.ShutdownTimeout)
}

func TestLoadPortFallback(t *testing.T) {
	t.Setenv("QAFORUM_ADDR", "")
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Addr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"QAFORUM_STORE_DRIVER":     "mongo",
		"QAFORUM_BCRYPT_COST":      "99",
		"QAFORUM_SHUTDOWN_TIMEOUT": "0s",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
