// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"bookdesk/config"

	"github.com/go-redis/redis/v8"
)

// SessionCacheClient holds gateway principals keyed by token hash.
var SessionCacheClient *redis.Client

// InitSessionCache connects the session cache using the DB from AppConfig.
func InitSessionCache() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("connect to Redis (Session Cache): %w", err)
	}
	SessionCacheClient = client
	return nil
}

// GetSessionCacheClient returns the session cache client, or nil when Redis
// is not configured.
func GetSessionCacheClient() *redis.Client {
	return SessionCacheClient
}
