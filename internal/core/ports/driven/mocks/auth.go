package mocks

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/egbay/book-collection/internal/core/domain"
	"github.com/egbay/book-collection/internal/core/ports/driven"
)

// Ensure mocks implement the ports
var (
	_ driven.PasswordHasher = (*MockPasswordHasher)(nil)
	_ driven.TokenIssuer    = (*MockTokenIssuer)(nil)
)

// MockPasswordHasher prefixes instead of hashing. NOT secure - testing only.
type MockPasswordHasher struct{}

// NewMockPasswordHasher creates a new MockPasswordHasher
func NewMockPasswordHasher() *MockPasswordHasher {
	return &MockPasswordHasher{}
}

func (m *MockPasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", domain.ErrInvalidInput
	}
	return "hashed:" + plaintext, nil
}

func (m *MockPasswordHasher) Verify(plaintext, hash string) bool {
	return plaintext != "" && hash == "hashed:"+plaintext
}

// mockTokenPayload carries a jti like the real issuer's tokens, so two tokens
// issued in the same second for the same account still differ.
type mockTokenPayload struct {
	domain.TokenClaims
	ID string `json:"jti"`
}

// MockTokenIssuer issues base64-encoded JSON tokens. NOT secure - testing only.
type MockTokenIssuer struct {
	AccessLifetime  time.Duration
	RefreshLifetime time.Duration
}

// NewMockTokenIssuer creates a new MockTokenIssuer with short lifetimes
func NewMockTokenIssuer() *MockTokenIssuer {
	return &MockTokenIssuer{
		AccessLifetime:  time.Minute,
		RefreshLifetime: time.Hour,
	}
}

func (m *MockTokenIssuer) Issue(accountID int64, email string, role domain.Role, kind domain.TokenKind) (string, error) {
	lifetime := m.AccessLifetime
	if kind == domain.TokenKindRefresh {
		lifetime = m.RefreshLifetime
	}

	now := time.Now()
	payload := mockTokenPayload{
		TokenClaims: domain.TokenClaims{
			AccountID: accountID,
			Email:     email,
			Kind:      kind,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(lifetime).Unix(),
		},
		ID: uuid.NewString(),
	}
	if kind == domain.TokenKindAccess {
		payload.Role = role
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (m *MockTokenIssuer) Verify(token string, kind domain.TokenKind) (*domain.TokenClaims, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil || !strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		return nil, domain.ErrTokenInvalid
	}

	var payload mockTokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, domain.ErrTokenInvalid
	}

	if payload.Kind != kind {
		return nil, domain.ErrTokenWrongKind
	}
	if time.Now().Unix() > payload.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	claims := payload.TokenClaims
	return &claims, nil
}

// IssueExpired mints a token whose expiry is already in the past
func (m *MockTokenIssuer) IssueExpired(accountID int64, email string, role domain.Role, kind domain.TokenKind) string {
	payload := mockTokenPayload{
		TokenClaims: domain.TokenClaims{
			AccountID: accountID,
			Email:     email,
			Role:      role,
			Kind:      kind,
			IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
			ExpiresAt: time.Now().Add(-time.Second).Unix(),
		},
		ID: uuid.NewString(),
	}
	data, _ := json.Marshal(payload)
	return base64.StdEncoding.EncodeToString(data)
}
