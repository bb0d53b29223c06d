package iam

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/db/models"
	"github.com/terraconstructs/authgate/internal/sessionstore"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	svc      Service
	users    *mockUserRepository
	roles    *mockRoleRepository
	store    *sessionstore.MemoryStore
	codec    *auth.TokenCodec
	verifier *plainVerifier

	mu  sync.RWMutex
	now time.Time
}

func (f *fixture) clock() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// newFixture seeds apiuser (USER), admin (ADMIN) and a disabled user ghost.
func newFixture(t *testing.T, opts ...func(*IAMServiceDependencies, *IAMServiceConfig)) *fixture {
	t.Helper()

	f := &fixture{
		now: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		users: newMockUserRepository(
			&models.User{ID: "u-1", Username: "apiuser", PasswordHash: "plain:apipass", Status: models.StatusEnabled},
			&models.User{ID: "u-2", Username: "admin", PasswordHash: "plain:adminpass", Status: models.StatusEnabled},
			&models.User{ID: "u-3", Username: "ghost", PasswordHash: "plain:ghostpass", Status: models.StatusDisabled},
			&models.User{ID: "u-4", Username: "nohash", Status: models.StatusEnabled},
		),
		roles:    newMockRoleRepository(),
		verifier: &plainVerifier{},
	}
	f.roles.set("u-1", "USER")
	f.roles.set("u-2", "ADMIN")
	f.roles.set("u-3", "USER")

	codec, err := auth.NewTokenCodec([]byte(testSecret), auth.WithClock(f.clock))
	if err != nil {
		t.Fatalf("NewTokenCodec failed: %v", err)
	}
	f.codec = codec
	f.store = sessionstore.NewMemoryStore(sessionstore.WithClock(f.clock))

	deps := IAMServiceDependencies{
		Users:     f.users,
		Roles:     f.roles,
		Sessions:  f.store,
		Codec:     f.codec,
		Passwords: f.verifier,
	}
	cfg := IAMServiceConfig{
		BearerHeader:      DefaultBearerHeader,
		BearerPrefix:      DefaultBearerPrefix,
		SessionCookieName: auth.DefaultSessionCookieName,
		TokenTTL:          24 * time.Hour,
	}
	for _, opt := range opts {
		opt(&deps, &cfg)
	}

	svc, err := NewIAMService(deps, cfg)
	if err != nil {
		t.Fatalf("NewIAMService failed: %v", err)
	}
	f.svc = svc
	return f
}

func bearerRequest(token string) AuthRequest {
	return AuthRequest{
		Headers: http.Header{"Authorization": []string{"Bearer " + token}},
	}
}

func sessionRequest(id string) AuthRequest {
	return AuthRequest{
		Headers: http.Header{},
		Cookies: []*http.Cookie{{Name: auth.DefaultSessionCookieName, Value: id}},
	}
}

func mustAuthenticated(t *testing.T, a auth.Authentication) auth.Authenticated {
	t.Helper()
	authenticated, ok := a.(auth.Authenticated)
	if !ok {
		t.Fatalf("expected Authenticated, got %T", a)
	}
	return authenticated
}

func mustAnonymous(t *testing.T, a auth.Authentication) {
	t.Helper()
	if _, ok := a.(auth.Anonymous); !ok {
		t.Fatalf("expected Anonymous, got %#v", a)
	}
}
