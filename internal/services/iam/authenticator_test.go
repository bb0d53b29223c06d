package iam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/sessionstore"
)

func TestBearerAuthenticator_NoCredential(t *testing.T) {
	f := newFixture(t)
	a := NewBearerAuthenticator(f.codec, NewResolver(f.users, f.roles), "", DefaultBearerPrefix)

	for name, headers := range map[string]http.Header{
		"no header":    {},
		"other scheme": {"Authorization": []string{"Basic Zm9vOmJhcg=="}},
		"lowercase":    {"Authorization": []string{"bearer abc"}},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := a.Authenticate(context.Background(), AuthRequest{Headers: headers})
			if got != nil || err != nil {
				t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
			}
		})
	}
}

func TestBearerAuthenticator_RejectsInvalidToken(t *testing.T) {
	f := newFixture(t)
	a := NewBearerAuthenticator(f.codec, NewResolver(f.users, f.roles), "", DefaultBearerPrefix)

	got, err := a.Authenticate(context.Background(), bearerRequest("not.a.token"))
	if got != nil {
		t.Fatalf("expected no result, got %v", got)
	}
	if !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestBearerAuthenticator_UnknownSubject(t *testing.T) {
	f := newFixture(t)
	a := NewBearerAuthenticator(f.codec, NewResolver(f.users, f.roles), "", DefaultBearerPrefix)

	token, err := f.codec.Issue("nobody", nil, DefaultTokenTTL)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = a.Authenticate(context.Background(), bearerRequest(token))
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestBearerAuthenticator_Success(t *testing.T) {
	f := newFixture(t)
	a := NewBearerAuthenticator(f.codec, NewResolver(f.users, f.roles), "", DefaultBearerPrefix)

	token, err := f.codec.Issue("admin", nil, DefaultTokenTTL)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	got, err := a.Authenticate(context.Background(), bearerRequest(token))
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.Method != auth.MethodBearer || got.Principal.Subject() != "admin" || !got.Principal.HasAuthority("ADMIN") {
		t.Fatalf("unexpected result: %+v", got)
	}
	if a.Method() != auth.MethodBearer {
		t.Fatalf("unexpected method %q", a.Method())
	}
}

func TestSessionAuthenticator(t *testing.T) {
	ctx := context.Background()
	store := sessionstore.NewMemoryStore()
	a := NewSessionAuthenticator(store, "")

	if got, err := a.Authenticate(ctx, AuthRequest{Headers: http.Header{}}); got != nil || err != nil {
		t.Fatalf("expected (nil, nil) without cookie, got (%v, %v)", got, err)
	}

	if _, err := a.Authenticate(ctx, sessionRequest("unknown")); !errors.Is(err, sessionstore.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	sess, err := store.Create(ctx, auth.NewPrincipal("admin", []string{"ADMIN"}))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := a.Authenticate(ctx, sessionRequest(sess.ID))
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.Method != auth.MethodSession || got.SessionID != sess.ID || got.Principal.Subject() != "admin" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestSessionAuthenticator_StoreOutage(t *testing.T) {
	a := NewSessionAuthenticator(failingStore{err: errors.New("connection refused")}, "")

	_, err := a.Authenticate(context.Background(), sessionRequest("anything"))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestNewAuthRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/hello", nil)
	r.Header.Set("Authorization", "Bearer abc")
	r.AddCookie(&http.Cookie{Name: auth.DefaultSessionCookieName, Value: "sid"})

	req := NewAuthRequest(r)
	if req.Headers.Get("Authorization") != "Bearer abc" {
		t.Fatalf("header not captured")
	}
	if req.cookie(auth.DefaultSessionCookieName) != "sid" {
		t.Fatalf("cookie not captured")
	}
	if req.cookie("missing") != "" {
		t.Fatalf("missing cookie should be empty")
	}
}
