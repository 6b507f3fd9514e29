package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// ClientName shows up in CLIENT LIST, which makes it easy to tell the
	// review API's connections apart from ad-hoc redis-cli sessions.
	ClientName string
}

// DefaultRedisConfig returns defaults matching the local compose setup.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:       "localhost",
		Port:       6379,
		Password:   "",
		DB:         0,
		ClientName: "review-api",
	}
}

// Addr returns the Redis address string.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewRedisClient creates a new Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr(),
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: cfg.ClientName,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
