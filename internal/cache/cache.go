// Package cache keeps resolved access tokens in Redis so authenticated
// requests skip the user store.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alphabot-ai/qaforum/internal/model"
)

const keyPrefix = "qaforum:token:"

type TokenCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Dial parses a redis:// URL and checks the server is reachable.
func Dial(ctx context.Context, url string, ttl time.Duration) (*TokenCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb, ttl), nil
}

func New(rdb *redis.Client, ttl time.Duration) *TokenCache {
	return &TokenCache{rdb: rdb, ttl: ttl}
}

// cachedUser is the subset of model.User an authenticated request needs.
// Credentials are never written to Redis.
type cachedUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *TokenCache) Get(ctx context.Context, token string) (model.User, bool, error) {
	raw, err := c.rdb.Get(ctx, Key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	var cu cachedUser
	if err := json.Unmarshal(raw, &cu); err != nil {
		return model.User{}, false, fmt.Errorf("decode cached user: %w", err)
	}
	return model.User{ID: cu.ID, Name: cu.Name, CreatedAt: cu.CreatedAt, AccessToken: token}, true, nil
}

func (c *TokenCache) Set(ctx context.Context, token string, user model.User) error {
	raw, err := json.Marshal(cachedUser{ID: user.ID, Name: user.Name, CreatedAt: user.CreatedAt})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, Key(token), raw, c.ttl).Err()
}

func (c *TokenCache) Close() error {
	return c.rdb.Close()
}

// Key is the Redis key for token. Only a digest of the token is stored.
func Key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}
