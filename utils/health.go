package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Backend   bool      `json:"backend"`
	Redis     *bool     `json:"redis,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Healthy reports whether every configured dependency answered the last probe.
func (h HealthStatus) Healthy() bool {
	return h.Backend && (h.Redis == nil || *h.Redis)
}

// BackendPinger is satisfied by the scheduling backend client.
type BackendPinger interface {
	Health(ctx context.Context) error
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// CheckHealth probes the backend and, when configured, Redis, and stores
// the result.
func CheckHealth(ctx context.Context, backend BackendPinger, redisClient *redis.Client) HealthStatus {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := HealthStatus{CheckedAt: time.Now()}
	if err := backend.Health(probeCtx); err != nil {
		zap.L().Warn("Backend health probe failed", zap.Error(err))
	} else {
		status.Backend = true
	}
	if redisClient != nil {
		ok := redisClient.Ping(probeCtx).Err() == nil
		if !ok {
			zap.L().Warn("Redis health probe failed")
		}
		status.Redis = &ok
	}

	mu.Lock()
	currentHealth = status
	mu.Unlock()
	return status
}

// StartHealthMonitor performs periodic health checks until ctx is done.
func StartHealthMonitor(ctx context.Context, interval time.Duration, backend BackendPinger, redisClient *redis.Client) {
	go func() {
		CheckHealth(ctx, backend, redisClient)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CheckHealth(ctx, backend, redisClient)
			}
		}
	}()
}
