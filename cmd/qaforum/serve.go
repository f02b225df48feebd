package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/alphabot-ai/qaforum/internal/auth"
	"github.com/alphabot-ai/qaforum/internal/cache"
	"github.com/alphabot-ai/qaforum/internal/config"
	"github.com/alphabot-ai/qaforum/internal/events"
	httpapp "github.com/alphabot-ai/qaforum/internal/http"
	"github.com/alphabot-ai/qaforum/internal/logging"
	"github.com/alphabot-ai/qaforum/internal/store"
	"github.com/alphabot-ai/qaforum/internal/store/memory"
	"github.com/alphabot-ai/qaforum/internal/store/sqlstore"
)

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "listen address (overrides QAFORUM_ADDR)"},
		&cli.StringFlag{Name: "store", Usage: "sqlite, mysql or memory (overrides QAFORUM_STORE_DRIVER)"},
		&cli.StringFlag{Name: "dsn", Usage: "store DSN (overrides QAFORUM_STORE_DSN)"},
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if v := c.String("addr"); v != "" {
		cfg.Addr = v
	}
	if v := c.String("store"); v != "" {
		cfg.Store.Driver = v
	}
	if v := c.String("dsn"); v != "" {
		cfg.Store.DSN = v
	}
	return cfg, nil
}

func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreSQLite, config.StoreMySQL:
		return sqlstore.Open(cfg.Store.Driver, cfg.Store.DSN)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func runServer(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	authOpts := []auth.Option{auth.WithCost(cfg.BcryptCost), auth.WithLogger(logger)}
	if cfg.Redis.URL != "" {
		tc, err := cache.Dial(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			return err
		}
		defer tc.Close()
		authOpts = append(authOpts, auth.WithCache(tc))
		logger.Info().Dur("ttl", cfg.Redis.TTL).Msg("token cache enabled")
	}
	authSvc := auth.NewService(st, authOpts...)

	pub := newPublisher(cfg, logger)
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Error().Err(err).Msg("close event publisher")
		}
	}()

	server := httpapp.NewServer(st, authSvc, pub, logger, cfg)
	errc := make(chan error, 1)
	go func() {
		errc <- server.Start(cfg.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errc
}

func newPublisher(cfg config.Config, logger zerolog.Logger) events.Publisher {
	if cfg.Kafka.Brokers == "" {
		return events.Nop{}
	}
	logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing events")
	return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
}

func runMigrate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Store.Driver == config.StoreMemory {
		return errors.New("the memory store has no schema to migrate")
	}
	st, err := sqlstore.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer st.Close()
	fmt.Printf("✓ %s schema is up to date\n", cfg.Store.Driver)
	return nil
}
