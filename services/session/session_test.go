package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt"

	"bookdesk/models"
	"bookdesk/services/booking"
	"bookdesk/utils"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func userToken(t *testing.T, email string, exp time.Time) string {
	return signToken(t, jwt.MapClaims{
		"sub":         email,
		"authorities": []string{"ROLE_USER"},
		"exp":         exp.Unix(),
	})
}

func TestMemoryStoreExpires(t *testing.T) {
	s := NewMemoryPrincipalStore()
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	p := models.Principal{Email: "a@x.io", Role: models.RoleUser}
	if err := s.Save(ctx, "h", p, time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "h")
	if err != nil || got.Email != p.Email {
		t.Fatalf("get = %+v, %v", got, err)
	}

	now = now.Add(time.Minute)
	if _, err := s.Get(ctx, "h"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after ttl, got %v", err)
	}
}

func TestResolveFallsBackToClaimsAndCaches(t *testing.T) {
	store := NewMemoryPrincipalStore()
	a := NewAuthenticator(store, 30*time.Minute, nil)
	tok := userToken(t, "ann@x.io", time.Now().Add(time.Hour))

	p, err := a.Resolve(context.Background(), tok)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Email != "ann@x.io" || p.Role != models.RoleUser {
		t.Fatalf("principal = %+v", p)
	}
	if _, err := store.Get(context.Background(), utils.HashToken(tok)); err != nil {
		t.Fatalf("principal was not cached: %v", err)
	}
}

func TestResolveRejectsExpiredAndGarbage(t *testing.T) {
	a := NewAuthenticator(NewMemoryPrincipalStore(), time.Minute, nil)

	expired := userToken(t, "old@x.io", time.Now().Add(-time.Minute))
	if _, err := a.Resolve(context.Background(), expired); !errors.Is(err, utils.ErrTokenExpired) {
		t.Fatalf("expired: got %v", err)
	}
	if _, err := a.Resolve(context.Background(), "not-a-jwt"); !errors.Is(err, utils.ErrMalformedToken) {
		t.Fatalf("garbage: got %v", err)
	}
	noRole := signToken(t, jwt.MapClaims{"sub": "x@x.io", "exp": time.Now().Add(time.Hour).Unix()})
	if _, err := a.Resolve(context.Background(), noRole); err == nil {
		t.Fatal("expected error for token without a role")
	}
}

func TestRememberPrefersBackendRoleAndForget(t *testing.T) {
	store := NewMemoryPrincipalStore()
	a := NewAuthenticator(store, time.Hour, nil)
	tok := userToken(t, "doc@x.io", time.Now().Add(time.Hour))

	p, err := a.Remember(context.Background(), models.LoginResponse{Token: tok, Role: models.RoleProvider, Email: "doc@x.io"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if p.Role != models.RoleProvider {
		t.Fatalf("role = %s, want PROVIDER", p.Role)
	}
	got, err := a.Resolve(context.Background(), tok)
	if err != nil || got.Role != models.RoleProvider {
		t.Fatalf("resolve after remember = %+v, %v", got, err)
	}

	if err := a.Forget(context.Background(), tok); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(context.Background(), utils.HashToken(tok)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected principal forgotten, got %v", err)
	}
}

func TestRegistryReusesAndEvicts(t *testing.T) {
	built := 0
	reg := NewRegistry(func(token string, p models.Principal) *booking.Reconciler {
		built++
		return booking.NewReconciler(nil, p, nil)
	}, time.Minute, nil)

	ann := models.Principal{Email: "ann@x.io", Role: models.RoleUser}
	first := reg.Get("tok-1", ann)
	if again := reg.Get("tok-1", ann); again != first {
		t.Fatal("expected the same reconciler for the same token")
	}
	reg.Get("tok-2", ann)
	if built != 2 || reg.Len() != 2 {
		t.Fatalf("built=%d len=%d, want 2/2", built, reg.Len())
	}

	// Same token, different principal: replaced.
	if other := reg.Get("tok-1", models.Principal{Email: "ann@x.io", Role: models.RoleProvider}); other == first {
		t.Fatal("expected a fresh reconciler after the role changed")
	}

	reg.Drop("tok-2")
	if reg.Len() != 1 {
		t.Fatalf("len after drop = %d", reg.Len())
	}

	if n := reg.Sweep(time.Now()); n != 0 {
		t.Fatalf("fresh session evicted: %d", n)
	}
	if n := reg.Sweep(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if reg.Len() != 0 {
		t.Fatalf("len after sweep = %d", reg.Len())
	}
}

func TestRedisPrincipalStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	s := NewRedisPrincipalStore(client)
	ctx := context.Background()

	hash := utils.HashToken("redis-test-" + time.Now().String())
	defer s.Delete(ctx, hash)

	if _, err := s.Get(ctx, hash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	p := models.Principal{UserID: 3, Email: "r@x.io", Role: models.RoleAdmin}
	if err := s.Save(ctx, hash, p, time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, hash)
	if err != nil || got.UserID != 3 || got.Role != models.RoleAdmin {
		t.Fatalf("get = %+v, %v", got, err)
	}
}
