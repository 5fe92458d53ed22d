package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"mynature/internal/logger"
)

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Log.Info("redis connected")
	return client, nil
}
