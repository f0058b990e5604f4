package driving

import (
	"context"

	"github.com/egbay/book-collection/internal/core/domain"
)

// SessionService orchestrates registration, login, refresh rotation and logout
type SessionService interface {
	// Register creates an account with the default USER role.
	// Fails with domain.ErrAlreadyExists on a duplicate email and
	// domain.ErrInvalidInput on an empty email or password.
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.AccountSummary, error)

	// Login verifies credentials and issues a token pair. A new login
	// invalidates all previously issued refresh tokens for the account.
	Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenPair, error)

	// Refresh exchanges a valid refresh token for a new pair, rotating the
	// stored hash so the presented token becomes permanently unusable.
	Refresh(ctx context.Context, req domain.RefreshRequest) (*domain.TokenPair, error)

	// Logout clears the stored refresh hash. Idempotent.
	Logout(ctx context.Context, accountID int64) error

	// ValidateAccount is a raw lookup: (nil, nil) when the account does not
	// exist. Used by the guard to re-confirm the account is still present.
	ValidateAccount(ctx context.Context, accountID int64) (*domain.Account, error)
}
