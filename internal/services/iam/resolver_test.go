package iam

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestResolve_EnabledUser(t *testing.T) {
	f := newFixture(t)
	f.roles.set("u-1", "USER", "report_viewer")

	principal, err := f.svc.Resolve(context.Background(), "apiuser")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if principal.Subject() != "apiuser" {
		t.Errorf("expected subject apiuser, got %s", principal.Subject())
	}
	// Codes are used verbatim: no ROLE_ prefix, no case change.
	want := []string{"USER", "report_viewer"}
	if !slices.Equal(principal.Authorities(), want) {
		t.Errorf("expected authorities %v, got %v", want, principal.Authorities())
	}
}

func TestResolve_NoRoles(t *testing.T) {
	f := newFixture(t)

	principal, err := f.svc.Resolve(context.Background(), "nohash")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(principal.Authorities()) != 0 {
		t.Errorf("expected no authorities, got %v", principal.Authorities())
	}
}

func TestResolve_NotFound(t *testing.T) {
	f := newFixture(t)

	for _, username := range []string{"nobody", "ghost", ""} {
		_, err := f.svc.Resolve(context.Background(), username)
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("Resolve(%q): expected ErrUserNotFound, got %v", username, err)
		}
	}
}

func TestResolve_StoreErrors(t *testing.T) {
	t.Run("user lookup", func(t *testing.T) {
		f := newFixture(t)
		f.users.err = errors.New("connection refused")

		_, err := f.svc.Resolve(context.Background(), "apiuser")
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
		if errors.Is(err, ErrUserNotFound) {
			t.Errorf("store failure must not look like a missing user")
		}
	})

	t.Run("role lookup", func(t *testing.T) {
		f := newFixture(t)
		f.roles.err = errors.New("timeout")

		_, err := f.svc.Resolve(context.Background(), "apiuser")
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
	})
}
