package iam

import (
	"context"
	"strings"
	"sync"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/db/models"
	"github.com/terraconstructs/authgate/internal/repository"
	"github.com/terraconstructs/authgate/internal/sessionstore"
)

// mockUserRepository for testing
type mockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User // username → user
	err   error                   // returned by every call when set
}

func newMockUserRepository(users ...*models.User) *mockUserRepository {
	m := &mockUserRepository{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.Username] = u
	}
	return m
}

func (m *mockUserRepository) FindEnabledByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := m.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !u.Enabled() {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepository) SetStatus(ctx context.Context, userID string, status int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			u.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

// mockRoleRepository for testing
type mockRoleRepository struct {
	mu    sync.RWMutex
	codes map[string][]string // userID → role codes
	err   error
	calls int
}

func newMockRoleRepository() *mockRoleRepository {
	return &mockRoleRepository{codes: make(map[string][]string)}
}

func (m *mockRoleRepository) set(userID string, codes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[userID] = codes
}

func (m *mockRoleRepository) FindRoleCodesByUserID(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]string{}, m.codes[userID]...), nil
}

func (m *mockRoleRepository) GetByCode(ctx context.Context, code string) (*models.Role, error) {
	return nil, repository.ErrNotFound
}

func (m *mockRoleRepository) Create(ctx context.Context, role *models.Role) error {
	return nil
}

func (m *mockRoleRepository) List(ctx context.Context) ([]models.Role, error) {
	return []models.Role{}, nil
}

func (m *mockRoleRepository) callCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// plainVerifier treats "plain:<password>" as the hash of password.
type plainVerifier struct {
	mu    sync.Mutex
	calls int
}

func (v *plainVerifier) Verify(plaintext, hash string) bool {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	return strings.HasPrefix(hash, "plain:") && strings.TrimPrefix(hash, "plain:") == plaintext
}

// failingStore is a session store whose backend is down.
type failingStore struct {
	err error
}

func (f failingStore) Create(ctx context.Context, principal auth.Principal) (*sessionstore.Session, error) {
	return nil, f.err
}

func (f failingStore) Get(ctx context.Context, id string) (*sessionstore.Session, error) {
	return nil, f.err
}

func (f failingStore) Invalidate(ctx context.Context, id string) error {
	return f.err
}
