package iam

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/terraconstructs/authgate/internal/sessionstore"
)

func TestLoginBearer_Success(t *testing.T) {
	f := newFixture(t)

	issued, err := f.svc.LoginBearer(context.Background(), Credentials{Username: "apiuser", Password: "apipass"})
	if err != nil {
		t.Fatalf("LoginBearer failed: %v", err)
	}

	if issued.Type != "Bearer" {
		t.Errorf("expected type Bearer, got %s", issued.Type)
	}
	if issued.Subject != "apiuser" {
		t.Errorf("expected subject apiuser, got %s", issued.Subject)
	}
	if issued.ExpiresIn != 24*time.Hour {
		t.Errorf("expected 24h lifetime, got %s", issued.ExpiresIn)
	}

	payload, err := f.codec.Validate(issued.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if payload.Subject != "apiuser" {
		t.Errorf("expected token subject apiuser, got %s", payload.Subject)
	}
}

func TestLoginSession_Success(t *testing.T) {
	f := newFixture(t)

	principal, id, err := f.svc.LoginSession(context.Background(), Credentials{Username: "admin", Password: "adminpass"})
	if err != nil {
		t.Fatalf("LoginSession failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a session id")
	}
	if principal.Subject() != "admin" || !slices.Equal(principal.Authorities(), []string{"ADMIN"}) {
		t.Errorf("unexpected principal %s %v", principal.Subject(), principal.Authorities())
	}

	session, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if session.Principal.Subject() != "admin" {
		t.Errorf("stored principal is %s", session.Principal.Subject())
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	tests := []struct {
		name     string
		creds    Credentials
		disabled bool
	}{
		{"wrong password", Credentials{Username: "apiuser", Password: "wrong"}, false},
		{"unknown user", Credentials{Username: "nobody", Password: "apipass"}, false},
		{"disabled user with correct password", Credentials{Username: "ghost", Password: "ghostpass"}, true},
		{"user without password hash", Credentials{Username: "nohash", Password: ""}, false},
		{"empty credentials", Credentials{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, bearerErr := f.svc.LoginBearer(context.Background(), tt.creds)
			_, _, sessionErr := f.svc.LoginSession(context.Background(), tt.creds)

			for _, err := range []error{bearerErr, sessionErr} {
				if !errors.Is(err, ErrBadCredentials) {
					t.Fatalf("expected ErrBadCredentials, got %v", err)
				}
				if errors.Is(err, ErrStoreUnavailable) {
					t.Errorf("credential failure must not look like a store failure")
				}
				if errors.Is(err, ErrUserDisabled) != tt.disabled {
					t.Errorf("ErrUserDisabled match = %v, want %v", !tt.disabled, tt.disabled)
				}
			}
			if f.store.Len() != 0 {
				t.Errorf("failed login must not create a session")
			}
		})
	}
}

func TestLogin_UnknownUserStillVerifiesPassword(t *testing.T) {
	f := newFixture(t)

	_, _ = f.svc.LoginBearer(context.Background(), Credentials{Username: "nobody", Password: "x"})

	if f.verifier.calls != 1 {
		t.Errorf("expected one password comparison for unknown user, got %d", f.verifier.calls)
	}
}

func TestLogin_PasswordCheckedBeforeStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.LoginBearer(context.Background(), Credentials{Username: "ghost", Password: "wrong"})
	if !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if errors.Is(err, ErrUserDisabled) {
		t.Errorf("a wrong password must not reveal that the account is disabled")
	}
}

func TestLogin_StoreUnavailable(t *testing.T) {
	t.Run("identity store", func(t *testing.T) {
		f := newFixture(t)
		f.users.err = errors.New("connection refused")

		_, err := f.svc.LoginBearer(context.Background(), Credentials{Username: "apiuser", Password: "apipass"})
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
		if errors.Is(err, ErrBadCredentials) {
			t.Errorf("store failure must not look like bad credentials")
		}
	})

	t.Run("session store", func(t *testing.T) {
		f := newFixture(t, func(deps *IAMServiceDependencies, _ *IAMServiceConfig) {
			deps.Sessions = failingStore{err: errors.New("redis down")}
		})

		_, _, err := f.svc.LoginSession(context.Background(), Credentials{Username: "apiuser", Password: "apipass"})
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
	})
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := loginSession(t, f, "apiuser", "apipass")

	mustAuthenticated(t, f.svc.AuthenticateRequest(ctx, sessionRequest(id)))

	if err := f.svc.Logout(ctx, id); err != nil {
		t.Fatalf("first Logout failed: %v", err)
	}
	if _, err := f.store.Get(ctx, id); !errors.Is(err, sessionstore.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after logout, got %v", err)
	}
	mustAnonymous(t, f.svc.AuthenticateRequest(ctx, sessionRequest(id)))

	if err := f.svc.Logout(ctx, id); err != nil {
		t.Errorf("second Logout failed: %v", err)
	}
	if err := f.svc.Logout(ctx, ""); err != nil {
		t.Errorf("Logout with empty id failed: %v", err)
	}
	if err := f.svc.Logout(ctx, "never-existed"); err != nil {
		t.Errorf("Logout with unknown id failed: %v", err)
	}
}

func TestIssueToken(t *testing.T) {
	f := newFixture(t)

	issued, err := f.svc.IssueToken(context.Background(), "admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if issued.ExpiresIn != time.Hour {
		t.Errorf("expected 1h lifetime, got %s", issued.ExpiresIn)
	}
	if !f.codec.ValidateAgainstSubject(issued.Token, "admin") {
		t.Errorf("issued token does not validate for admin")
	}

	if _, err := f.svc.IssueToken(context.Background(), "ghost", 0); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound for disabled user, got %v", err)
	}
}

func TestCredentials_StringOmitsPassword(t *testing.T) {
	creds := Credentials{Username: "apiuser", Password: "s3cret-value"}

	for _, out := range []string{creds.String(), fmt.Sprintf("%v", creds), fmt.Sprint(creds)} {
		if strings.Contains(out, "s3cret-value") {
			t.Errorf("password leaked in %q", out)
		}
	}
}
