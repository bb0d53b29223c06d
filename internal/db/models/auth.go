package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Status values shared by users and roles.
const (
	StatusDisabled = 0
	StatusEnabled  = 1
)

// User is an account that can log in with a username and password.
// Only enabled, non-deleted users may authenticate.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk,type:uuid"`
	Username     string    `bun:"username,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"` // bcrypt
	Email        string    `bun:"email"`
	Phone        string    `bun:"phone"`
	Nickname     string    `bun:"nickname"`
	Avatar       string    `bun:"avatar"`
	Status       int       `bun:"status,notnull"`
	Deleted      bool      `bun:"deleted,notnull,default:false"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Enabled reports whether the user may authenticate.
func (u *User) Enabled() bool {
	return u != nil && u.Status == StatusEnabled && !u.Deleted
}

// Role is a named grant. RoleCode is used verbatim as the authority string.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID          string    `bun:"id,pk,type:uuid"`
	RoleCode    string    `bun:"role_code,notnull,unique"`
	RoleName    string    `bun:"role_name"`
	Description string    `bun:"description"`
	Status      int       `bun:"status,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// UserRole assigns a role to a user.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	ID        string    `bun:"id,pk,type:uuid"`
	UserID    string    `bun:"user_id,notnull,type:uuid"` // FK to users(id)
	RoleID    string    `bun:"role_id,notnull,type:uuid"` // FK to roles(id)
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Authorities is a list of role codes persisted as a JSON array.
type Authorities []string

// Scan implements sql.Scanner for reading from database
func (a *Authorities) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = Authorities{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan Authorities: expected []byte or string, got %T", value)
	}
	return json.Unmarshal(raw, a)
}

// Value implements driver.Valuer for writing to database
func (a Authorities) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Session is a server-side session bound to the principal that logged in.
// The session handle itself is never stored, only its SHA256 hash.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:sess"`

	ID          string      `bun:"id,pk,type:uuid"`
	TokenHash   string      `bun:"token_hash,notnull,unique"`
	Subject     string      `bun:"subject,notnull"`
	Authorities Authorities `bun:"authorities,type:text,notnull"`
	CreatedAt   time.Time   `bun:"created_at,notnull,default:current_timestamp"`
	ExpiresAt   time.Time   `bun:"expires_at,notnull"`
	Revoked     bool        `bun:"revoked,notnull,default:false"`
	RevokedAt   *time.Time  `bun:"revoked_at"`
}
