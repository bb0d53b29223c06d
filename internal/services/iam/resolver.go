package iam

import (
	"context"
	"errors"
	"fmt"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/db/models"
	"github.com/terraconstructs/authgate/internal/repository"
)

// Resolver maps a username to a Principal.
//
// Nothing is cached: role membership and the enabled flag are re-read on every
// call, so a user disabled after a token was issued stops resolving at once.
// Role changes reach bearer clients only through this path; sessions keep the
// authorities captured at login.
type Resolver struct {
	users repository.UserRepository
	roles repository.RoleRepository
}

// NewResolver creates a resolver over the identity store.
func NewResolver(users repository.UserRepository, roles repository.RoleRepository) *Resolver {
	return &Resolver{users: users, roles: roles}
}

// Resolve loads the enabled user named username and its role codes.
//
// Returns ErrUserNotFound when the user is absent, disabled or deleted, and an
// error matching ErrStoreUnavailable when the store fails.
func (r *Resolver) Resolve(ctx context.Context, username string) (auth.Principal, error) {
	if username == "" {
		return auth.Principal{}, ErrUserNotFound
	}

	user, err := r.users.FindEnabledByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.Principal{}, ErrUserNotFound
		}
		return auth.Principal{}, fmt.Errorf("%w: find user: %w", ErrStoreUnavailable, err)
	}

	return r.principalFor(ctx, user)
}

// principalFor builds the Principal for an already loaded, enabled user.
func (r *Resolver) principalFor(ctx context.Context, user *models.User) (auth.Principal, error) {
	codes, err := r.roles.FindRoleCodesByUserID(ctx, user.ID)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("%w: load roles: %w", ErrStoreUnavailable, err)
	}
	// Role codes are authorities verbatim: no prefix, no case folding.
	return auth.NewPrincipal(user.Username, codes), nil
}
