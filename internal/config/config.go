// Package config reads server settings from QAFORUM_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	StoreSQLite = "sqlite"
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Config struct {
	Addr            string
	Store           Store
	BcryptCost      int
	Redis           Redis
	Kafka           Kafka
	CORSOrigins     []string
	Log             Log
	ShutdownTimeout time.Duration
}

type Store struct {
	Driver string
	DSN    string
}

// Redis enables the token cache when URL is set.
type Redis struct {
	URL string
	TTL time.Duration
}

// Kafka enables event publishing when Brokers is set.
type Kafka struct {
	Brokers string
	Topic   string
}

type Log struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QAFORUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", "")
	v.SetDefault("store.driver", StoreSQLite)
	v.SetDefault("store.dsn", "file:qaforum.db")
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("redis_url", "")
	v.SetDefault("token_cache_ttl", "10m")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "qaforum-events")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_timeout", "5s")
	_ = v.BindEnv("port", "PORT")

	addr := v.GetString("addr")
	if addr == "" {
		if port := v.GetString("port"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}

	cfg := Config{
		Addr: addr,
		Store: Store{
			Driver: strings.ToLower(v.GetString("store.driver")),
			DSN:    v.GetString("store.dsn"),
		},
		BcryptCost: v.GetInt("bcrypt_cost"),
		Redis: Redis{
			URL: v.GetString("redis_url"),
			TTL: v.GetDuration("token_cache_ttl"),
		},
		Kafka: Kafka{
			Brokers: v.GetString("kafka_brokers"),
			Topic:   v.GetString("kafka_topic"),
		},
		CORSOrigins:     splitList(v.GetString("cors_origins")),
		Log:             Log{Level: v.GetString("log_level"), Format: v.GetString("log_format")},
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}

	switch cfg.Store.Driver {
	case StoreSQLite, StoreMySQL, StoreMemory:
	default:
		return Config{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("shutdown timeout must be positive")
	}
	if cfg.Redis.URL != "" && cfg.Redis.TTL <= 0 {
		return Config{}, fmt.Errorf("token cache ttl must be positive")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
