package driven

import (
	"context"

	"github.com/egbay/book-collection/internal/core/domain"
)

// PasswordHasher handles one-way hashing of secrets. Hashing is intentionally
// CPU-expensive, so it takes a context and may block.
type PasswordHasher interface {
	// Hash produces a randomly salted digest. Fails on empty plaintext.
	Hash(ctx context.Context, plaintext string) (string, error)

	// Verify recomputes and compares in constant time
	Verify(plaintext, hash string) bool
}

// TokenIssuer mints and verifies signed, time-bounded tokens. Purely
// functional over its two signing secrets; no storage.
type TokenIssuer interface {
	// Issue encodes subject, claims and expiry and signs with the key
	// matching kind. The role claim is carried on access tokens only.
	Issue(accountID int64, email string, role domain.Role, kind domain.TokenKind) (string, error)

	// Verify checks signature, kind and expiry. Fails with
	// domain.ErrTokenExpired, domain.ErrTokenWrongKind or
	// domain.ErrTokenInvalid so callers can tell the cases apart.
	Verify(token string, kind domain.TokenKind) (*domain.TokenClaims, error)
}
