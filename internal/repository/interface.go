package repository

import (
	"context"
	"errors"
	"time"

	"github.com/terraconstructs/authgate/internal/db/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// UserRepository is the identity store's user read path plus the admin writes the CLI needs.
type UserRepository interface {
	// FindEnabledByUsername returns the user only if it is enabled and not deleted.
	// Disabled, deleted and absent users all yield ErrNotFound.
	FindEnabledByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByUsername returns the user regardless of status (ErrNotFound if absent).
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetStatus(ctx context.Context, userID string, status int) error
	List(ctx context.Context) ([]models.User, error)
}

// RoleRepository reads and manages role definitions.
type RoleRepository interface {
	// FindRoleCodesByUserID returns the codes of the enabled roles assigned to
	// userID. It returns an empty, non-nil slice when the user has none.
	FindRoleCodesByUserID(ctx context.Context, userID string) ([]string, error)
	GetByCode(ctx context.Context, code string) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) error
	List(ctx context.Context) ([]models.Role, error)
}

// UserRoleRepository manages user to role assignments.
type UserRoleRepository interface {
	// Assign is idempotent; assigning an existing pair is not an error.
	Assign(ctx context.Context, userID, roleID string) error
	// Revoke is idempotent; revoking a missing pair is not an error.
	Revoke(ctx context.Context, userID, roleID string) error
}

// SessionRepository persists server-side sessions keyed by token hash.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// GetActiveByTokenHash returns a session that is neither revoked nor expired at now.
	GetActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.Session, error)
	// RevokeByTokenHash marks the session revoked. Revoking an absent or already
	// revoked session is not an error.
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	// DeleteStale removes revoked sessions and sessions expired before now.
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
}
