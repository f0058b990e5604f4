package driving

import (
	"context"

	"github.com/egbay/book-collection/internal/core/domain"
)

// AuthGuard is the authorization predicate applied to every inbound operation.
type AuthGuard interface {
	// Authorize runs the two-stage check for the named operation:
	// authentication of the bearer token, then the role requirement from the
	// policy table. Returns the authenticated context on success, (nil, nil)
	// for public operations, domain.ErrUnauthorized (or a token error) when
	// authentication fails, and domain.ErrForbidden when the role check fails.
	Authorize(ctx context.Context, operation, bearerToken string) (*domain.AuthContext, error)
}
