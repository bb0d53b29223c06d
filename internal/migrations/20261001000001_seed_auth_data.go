package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/db/bunx"
	"github.com/terraconstructs/authgate/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20261001000001, down_20261001000001)
}

// Role codes seeded by default.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type seedUser struct {
	username string
	password string
	nickname string
	role     string
}

// Demo accounts. Rotate or disable them before exposing a deployment.
var seedUsers = []seedUser{
	{username: "apiuser", password: "apipass", nickname: "API User", role: RoleUser},
	{username: "admin", password: "adminpass", nickname: "Administrator", role: RoleAdmin},
}

// up_20261001000001 seeds the default roles and demo users
func up_20261001000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] seeding default roles...")

	now := time.Now()
	defaultRoles := []models.Role{
		{RoleCode: RoleUser, RoleName: "User", Description: "API access"},
		{RoleCode: RoleAdmin, RoleName: "Administrator", Description: "Administrative access"},
	}

	roleIDs := make(map[string]string, len(defaultRoles))
	for _, role := range defaultRoles {
		role.ID = bunx.NewUUIDv7()
		role.Status = models.StatusEnabled
		role.CreatedAt = now
		role.UpdatedAt = now

		_, err := db.NewInsert().
			Model(&role).
			On("CONFLICT (role_code) DO NOTHING"). // Idempotent
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.RoleCode, err)
		}

		// Re-read so a pre-existing row's ID is used for assignments
		var id string
		if err := db.NewSelect().Model((*models.Role)(nil)).Column("id").Where("role_code = ?", role.RoleCode).Scan(ctx, &id); err != nil {
			return fmt.Errorf("failed to load role %s: %w", role.RoleCode, err)
		}
		roleIDs[role.RoleCode] = id
	}
	fmt.Println(" OK")

	fmt.Print(" [up] seeding demo users...")
	for _, su := range seedUsers {
		hash, err := auth.HashPassword(su.password, auth.PasswordCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", su.username, err)
		}

		user := models.User{
			ID:           bunx.NewUUIDv7(),
			Username:     su.username,
			PasswordHash: hash,
			Nickname:     su.nickname,
			Status:       models.StatusEnabled,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, err = db.NewInsert().
			Model(&user).
			On("CONFLICT (username) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", su.username, err)
		}

		var userID string
		if err := db.NewSelect().Model((*models.User)(nil)).Column("id").Where("username = ?", su.username).Scan(ctx, &userID); err != nil {
			return fmt.Errorf("failed to load user %s: %w", su.username, err)
		}

		_, err = db.NewInsert().
			Model(&models.UserRole{
				ID:        bunx.NewUUIDv7(),
				UserID:    userID,
				RoleID:    roleIDs[su.role],
				CreatedAt: now,
			}).
			On("CONFLICT (user_id, role_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to assign role %s to %s: %w", su.role, su.username, err)
		}
	}
	fmt.Println(" OK")

	return nil
}

// down_20261001000001 removes the demo users and default roles
func down_20261001000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] removing seed data...")

	usernames := make([]string, 0, len(seedUsers))
	for _, su := range seedUsers {
		usernames = append(usernames, su.username)
	}

	if _, err := db.NewDelete().
		Model((*models.User)(nil)).
		Where("username IN (?)", bun.In(usernames)).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete seed users: %w", err)
	}

	if _, err := db.NewDelete().
		Model((*models.Role)(nil)).
		Where("role_code IN (?)", bun.In([]string{RoleUser, RoleAdmin})).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete seed roles: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
