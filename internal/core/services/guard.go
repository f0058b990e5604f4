package services

import (
	"context"
	"log/slog"

	"github.com/egbay/book-collection/internal/core/domain"
	"github.com/egbay/book-collection/internal/core/ports/driven"
	"github.com/egbay/book-collection/internal/core/ports/driving"
)

// Ensure authGuard implements AuthGuard
var _ driving.AuthGuard = (*authGuard)(nil)

// authGuard enforces the two-stage check: authentication, then the role
// requirement from the policy table. Fail-closed: an operation with no
// declared policy requires an authenticated caller.
type authGuard struct {
	issuer   driven.TokenIssuer
	sessions driving.SessionService
	policies domain.PolicyTable
	logger   *slog.Logger
}

// NewAuthGuard creates a new AuthGuard over the given policy table
func NewAuthGuard(
	issuer driven.TokenIssuer,
	sessions driving.SessionService,
	policies domain.PolicyTable,
	logger *slog.Logger,
) driving.AuthGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &authGuard{
		issuer:   issuer,
		sessions: sessions,
		policies: policies,
		logger:   logger,
	}
}

// Authorize authenticates the bearer token and evaluates the operation's role
// requirement. Authentication must fully succeed before the role check runs,
// so a domain.ErrForbidden always implies a previously valid access token.
func (g *authGuard) Authorize(ctx context.Context, operation, bearerToken string) (*domain.AuthContext, error) {
	policy := g.policies.Lookup(operation)

	// Public operations bypass authentication entirely
	if policy.Public {
		return nil, nil
	}

	if bearerToken == "" {
		return nil, domain.ErrUnauthorized
	}

	claims, err := g.issuer.Verify(bearerToken, domain.TokenKindAccess)
	if err != nil {
		return nil, err
	}

	// Re-confirm the account still exists; a deleted or deactivated account
	// must not ride out its token lifetime.
	account, err := g.sessions.ValidateAccount(ctx, claims.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		g.logger.Info("authenticated account no longer exists",
			"operation", operation, "account_id", claims.AccountID)
		return nil, domain.ErrUnauthorized
	}

	if !policy.Allows(claims.Role) {
		g.logger.Info("operation forbidden",
			"operation", operation, "account_id", claims.AccountID, "role", claims.Role)
		return nil, domain.ErrForbidden
	}

	return &domain.AuthContext{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}
