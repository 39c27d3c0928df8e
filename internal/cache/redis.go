package cache

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/redis/go-redis/v9"
)

// ErrStateNotFound is returned when an OAuth state is unknown, expired or
// already consumed.
var ErrStateNotFound = errors.New("oauth state not found")

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes the Redis client from config.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{Addr: cfg.RedisAddr}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB != 0 {
		opts.DB = cfg.RedisDB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func keyForOAuthState(state string) string { return "oauth:line:state:" + state }

func keyForWebhookEvent(id string) string { return "webhook:line:event:" + id }

// SaveOAuthState stores the payload bound to an OAuth state value.
func (c *RedisCache) SaveOAuthState(ctx context.Context, state, payload string, ttl time.Duration) error {
	return c.Client.Set(ctx, keyForOAuthState(state), payload, ttl).Err()
}

// ConsumeOAuthState returns the payload and deletes it, so a state is usable once.
func (c *RedisCache) ConsumeOAuthState(ctx context.Context, state string) (string, error) {
	val, err := c.Client.GetDel(ctx, keyForOAuthState(state)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrStateNotFound
	}
	return val, err
}

// FirstDelivery reports whether a webhook event id is seen for the first
// time within ttl. Redelivered events return false.
func (c *RedisCache) FirstDelivery(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	return c.Client.SetNX(ctx, keyForWebhookEvent(eventID), 1, ttl).Result()
}
