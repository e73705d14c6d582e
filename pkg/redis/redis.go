package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const blacklistValue = "revoked"

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(cfg *config.RedisConfig) (*redis.Client, error) {
	logger.Info("Initializing Redis connection", logger.Fields{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, logger.Fields{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return client, nil
}

// TokenBlacklist stores revoked access-token ids until the token would have expired anyway.
type TokenBlacklist struct {
	client redis.Cmdable
}

func NewTokenBlacklist(client redis.Cmdable) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}

func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	logger.Debug("Adding token to blacklist", logger.Fields{
		"expiry": ttl.String(),
	})

	if err := b.client.Set(ctx, blacklistKey(jti), blacklistValue, ttl).Err(); err != nil {
		logger.Error("Failed to blacklist token", err)
		return err
	}
	return nil
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	val, err := b.client.Get(ctx, blacklistKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err)
		return false, err
	}
	return val == blacklistValue, nil
}
