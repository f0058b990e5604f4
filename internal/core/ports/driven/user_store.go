package driven

import (
	"context"

	"github.com/egbay/book-collection/internal/core/domain"
)

// UserStore is the credential store contract. The auth core mutates only the
// refresh-hash field of an account; everything else is written once at creation.
type UserStore interface {
	// Create inserts a new account and returns it with the store-assigned
	// id and timestamps. Returns domain.ErrAlreadyExists on a duplicate email.
	Create(ctx context.Context, email, passwordHash string, role domain.Role) (*domain.Account, error)

	// Get retrieves an account by id
	Get(ctx context.Context, id int64) (*domain.Account, error)

	// GetByEmail retrieves an account by its normalized email
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	// UpdateRefreshHash unconditionally overwrites the stored refresh-token
	// hash. nil clears it (logout).
	UpdateRefreshHash(ctx context.Context, id int64, hash *string) error

	// RotateRefreshHash replaces the stored refresh-token hash only if it
	// still equals oldHash. Returns domain.ErrNotFound when the account is
	// gone or the stored hash no longer matches, so exactly one of two
	// concurrent rotations against the same stale hash can win.
	RotateRefreshHash(ctx context.Context, id int64, oldHash, newHash string) error
}
