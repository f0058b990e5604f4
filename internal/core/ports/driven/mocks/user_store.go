package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/egbay/book-collection/internal/core/domain"
	"github.com/egbay/book-collection/internal/core/ports/driven"
)

// Ensure MockUserStore implements UserStore
var _ driven.UserStore = (*MockUserStore)(nil)

// MockUserStore is an in-memory implementation of UserStore for testing
type MockUserStore struct {
	mu       sync.RWMutex
	accounts map[int64]*domain.Account
	byEmail  map[string]int64
	nextID   int64

	// FailWith, when set, makes every call return this error. Used to
	// exercise the internal-error path.
	FailWith error
}

// NewMockUserStore creates a new MockUserStore
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		accounts: make(map[int64]*domain.Account),
		byEmail:  make(map[string]int64),
	}
}

func (m *MockUserStore) Create(ctx context.Context, email, passwordHash string, role domain.Role) (*domain.Account, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[email]; ok {
		return nil, domain.ErrAlreadyExists
	}

	m.nextID++
	now := time.Now()
	account := &domain.Account{
		ID:           m.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.accounts[account.ID] = account
	m.byEmail[email] = account.ID

	return copyAccount(account), nil
}

func (m *MockUserStore) Get(ctx context.Context, id int64) (*domain.Account, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAccount(account), nil
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAccount(m.accounts[id]), nil
}

func (m *MockUserStore) UpdateRefreshHash(ctx context.Context, id int64, hash *string) error {
	if m.FailWith != nil {
		return m.FailWith
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}

	account.RefreshTokenHash = copyHash(hash)
	account.UpdatedAt = time.Now()
	return nil
}

func (m *MockUserStore) RotateRefreshHash(ctx context.Context, id int64, oldHash, newHash string) error {
	if m.FailWith != nil {
		return m.FailWith
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	if account.RefreshTokenHash == nil || *account.RefreshTokenHash != oldHash {
		return domain.ErrNotFound
	}

	account.RefreshTokenHash = &newHash
	account.UpdatedAt = time.Now()
	return nil
}

// Helper methods for testing

// StoredRefreshHash returns the current refresh hash for assertions
func (m *MockUserStore) StoredRefreshHash(id int64) *string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil
	}
	return copyHash(account.RefreshTokenHash)
}

func (m *MockUserStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}

func copyAccount(a *domain.Account) *domain.Account {
	cp := *a
	cp.RefreshTokenHash = copyHash(a.RefreshTokenHash)
	return &cp
}

func copyHash(h *string) *string {
	if h == nil {
		return nil
	}
	cp := *h
	return &cp
}
