package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"bookdesk/models"
	"bookdesk/utils"
)

// Authenticator turns bearer tokens into principals. Cached principals are
// preferred; a cache miss falls back to the token's own claims.
type Authenticator struct {
	store  PrincipalStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthenticator(store PrincipalStore, ttl time.Duration, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{store: store, ttl: ttl, logger: logger.Named("auth"), now: time.Now}
}

// Resolve returns the principal behind token.
func (a *Authenticator) Resolve(ctx context.Context, token string) (models.Principal, error) {
	hash := utils.HashToken(token)
	p, err := a.store.Get(ctx, hash)
	if err == nil {
		if !p.ExpiresAt.IsZero() && !a.now().Before(p.ExpiresAt) {
			_ = a.store.Delete(ctx, hash)
			return models.Principal{}, utils.ErrTokenExpired
		}
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		// Fall through to the claims.
		a.logger.Warn("Principal cache read failed", zap.Error(err))
	}

	p, err = utils.PrincipalFromToken(token, a.now())
	if err != nil {
		return models.Principal{}, err
	}
	a.save(ctx, hash, p)
	return p, nil
}

// Remember caches the principal for a freshly issued token. The role and
// email reported by the backend take precedence over the claims.
func (a *Authenticator) Remember(ctx context.Context, resp models.LoginResponse) (models.Principal, error) {
	p, err := utils.PrincipalFromToken(resp.Token, a.now())
	if err != nil {
		return models.Principal{}, err
	}
	if resp.Role.Valid() {
		p.Role = resp.Role
	}
	if resp.Email != "" {
		p.Email = resp.Email
	}
	a.save(ctx, utils.HashToken(resp.Token), p)
	return p, nil
}

// Forget drops the cached principal for token.
func (a *Authenticator) Forget(ctx context.Context, token string) error {
	return a.store.Delete(ctx, utils.HashToken(token))
}

func (a *Authenticator) save(ctx context.Context, hash string, p models.Principal) {
	ttl := a.ttl
	if !p.ExpiresAt.IsZero() {
		if left := p.ExpiresAt.Sub(a.now()); ttl <= 0 || left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return
	}
	if err := a.store.Save(ctx, hash, p, ttl); err != nil {
		a.logger.Warn("Failed to cache principal", zap.Error(err))
	}
}
