package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"bookdesk/models"
	"bookdesk/services/booking"
	"bookdesk/utils"
)

// Factory builds the reconciler for a new dashboard session.
type Factory func(token string, p models.Principal) *booking.Reconciler

// Registry keeps one reconciler per bearer token.
type Registry struct {
	factory Factory
	idleTTL time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*booking.Reconciler
}

func NewRegistry(factory Factory, idleTTL time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory:  factory,
		idleTTL:  idleTTL,
		logger:   logger.Named("registry"),
		sessions: make(map[string]*booking.Reconciler),
	}
}

// Get returns the reconciler for token, creating it on first use. A cached
// reconciler whose principal no longer matches is replaced.
func (r *Registry) Get(token string, p models.Principal) *booking.Reconciler {
	key := utils.HashToken(token)

	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.sessions[key]; ok {
		cur := rec.Principal()
		if cur.Email == p.Email && cur.Role == p.Role {
			return rec
		}
	}
	rec := r.factory(token, p)
	r.sessions[key] = rec
	r.logger.Debug("Session opened", zap.String("email", p.Email), zap.String("role", string(p.Role)))
	return rec
}

// Drop forgets the reconciler for token.
func (r *Registry) Drop(token string) {
	key := utils.HashToken(token)
	r.mu.Lock()
	delete(r.sessions, key)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle since before now-idleTTL. Sessions with a
// mutation in flight are kept. It returns the number evicted.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)
	evicted := 0

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, rec := range r.sessions {
		if rec.LastActivity().After(cutoff) || len(rec.Pending()) > 0 {
			continue
		}
		delete(r.sessions, key)
		evicted++
	}
	if evicted > 0 {
		r.logger.Info("Evicted idle sessions", zap.Int("count", evicted), zap.Int("remaining", len(r.sessions)))
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}
