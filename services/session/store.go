// Package session resolves bearer tokens to principals and keeps one
// booking reconciler per live dashboard session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"bookdesk/models"
	"bookdesk/utils"
)

// ErrNotFound is returned when no principal is cached for a token hash.
var ErrNotFound = errors.New("principal not cached")

// PrincipalStore caches principals keyed by token hash.
type PrincipalStore interface {
	Get(ctx context.Context, tokenHash string) (models.Principal, error)
	Save(ctx context.Context, tokenHash string, p models.Principal, ttl time.Duration) error
	Delete(ctx context.Context, tokenHash string) error
}

// RedisPrincipalStore keeps principals as JSON under PrincipalCachePrefix.
type RedisPrincipalStore struct {
	client *redis.Client
}

func NewRedisPrincipalStore(client *redis.Client) *RedisPrincipalStore {
	return &RedisPrincipalStore{client: client}
}

func (s *RedisPrincipalStore) Get(ctx context.Context, tokenHash string) (models.Principal, error) {
	data, err := s.client.Get(ctx, utils.PrincipalCachePrefix+tokenHash).Result()
	if err == redis.Nil {
		return models.Principal{}, ErrNotFound
	}
	if err != nil {
		return models.Principal{}, fmt.Errorf("failed to read principal: %w", err)
	}
	var p models.Principal
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return models.Principal{}, fmt.Errorf("failed to unmarshal principal: %w", err)
	}
	return p, nil
}

func (s *RedisPrincipalStore) Save(ctx context.Context, tokenHash string, p models.Principal, ttl time.Duration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal principal: %w", err)
	}
	if err := s.client.Set(ctx, utils.PrincipalCachePrefix+tokenHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save principal: %w", err)
	}
	return nil
}

func (s *RedisPrincipalStore) Delete(ctx context.Context, tokenHash string) error {
	return s.client.Del(ctx, utils.PrincipalCachePrefix+tokenHash).Err()
}

type memoryEntry struct {
	principal models.Principal
	expires   time.Time
}

// MemoryPrincipalStore is used when no Redis address is configured.
type MemoryPrincipalStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryPrincipalStore() *MemoryPrincipalStore {
	return &MemoryPrincipalStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryPrincipalStore) Get(_ context.Context, tokenHash string) (models.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tokenHash]
	if !ok {
		return models.Principal{}, ErrNotFound
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.entries, tokenHash)
		return models.Principal{}, ErrNotFound
	}
	return e.principal, nil
}

func (s *MemoryPrincipalStore) Save(_ context.Context, tokenHash string, p models.Principal, ttl time.Duration) error {
	e := memoryEntry{principal: p}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[tokenHash] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryPrincipalStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	delete(s.entries, tokenHash)
	s.mu.Unlock()
	return nil
}
