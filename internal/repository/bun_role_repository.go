package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/terraconstructs/authgate/internal/db/bunx"
	"github.com/terraconstructs/authgate/internal/db/models"
	"github.com/uptrace/bun"
)

// ========================================
// Role Repository
// ========================================

// BunRoleRepository implements RoleRepository using Bun ORM
type BunRoleRepository struct {
	db *bun.DB
}

// NewBunRoleRepository creates a new Bun-based role repository
func NewBunRoleRepository(db *bun.DB) *BunRoleRepository {
	return &BunRoleRepository{db: db}
}

// FindRoleCodesByUserID returns the codes of the enabled roles assigned to a user
func (r *BunRoleRepository) FindRoleCodesByUserID(ctx context.Context, userID string) ([]string, error) {
	codes := make([]string, 0)
	err := r.db.NewSelect().
		Model((*models.Role)(nil)).
		Column("r.role_code").
		Join("JOIN user_roles AS ur ON ur.role_id = r.id").
		Where("ur.user_id = ?", userID).
		Where("r.status = ?", models.StatusEnabled).
		Order("r.role_code ASC").
		Scan(ctx, &codes)
	if err != nil {
		return nil, fmt.Errorf("find role codes for user: %w", err)
	}
	return codes, nil
}

// GetByCode retrieves a role by its code
func (r *BunRoleRepository) GetByCode(ctx context.Context, code string) (*models.Role, error) {
	role := new(models.Role)
	err := r.db.NewSelect().
		Model(role).
		Where("role_code = ?", code).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %q: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("get role by code: %w", err)
	}
	return role, nil
}

// Create inserts a new role
func (r *BunRoleRepository) Create(ctx context.Context, role *models.Role) error {
	if role.ID == "" {
		role.ID = bunx.NewUUIDv7()
	}
	now := time.Now()
	role.CreatedAt = now
	role.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(role).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// List retrieves all roles
func (r *BunRoleRepository) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.NewSelect().
		Model(&roles).
		Order("role_code ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// ========================================
// UserRole Repository
// ========================================

// BunUserRoleRepository implements UserRoleRepository using Bun ORM
type BunUserRoleRepository struct {
	db *bun.DB
}

// NewBunUserRoleRepository creates a new Bun-based user role repository
func NewBunUserRoleRepository(db *bun.DB) *BunUserRoleRepository {
	return &BunUserRoleRepository{db: db}
}

// Assign links a role to a user
func (r *BunUserRoleRepository) Assign(ctx context.Context, userID, roleID string) error {
	ur := &models.UserRole{
		ID:        bunx.NewUUIDv7(),
		UserID:    userID,
		RoleID:    roleID,
		CreatedAt: time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(ur).
		On("CONFLICT (user_id, role_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// Revoke removes a role from a user
func (r *BunUserRoleRepository) Revoke(ctx context.Context, userID, roleID string) error {
	_, err := r.db.NewDelete().
		Model((*models.UserRole)(nil)).
		Where("user_id = ?", userID).
		Where("role_id = ?", roleID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}
