package domain

import "time"

// TokenKind distinguishes the two signed token types. Each kind is signed with
// its own secret so one can never be replayed as the other.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenClaims is the decoded payload of a signed token
type TokenClaims struct {
	AccountID int64     `json:"sub"`
	Email     string    `json:"email"`
	Role      Role      `json:"role,omitempty"` // Access tokens only
	Kind      TokenKind `json:"kind"`
	IssuedAt  int64     `json:"iat"`
	ExpiresAt int64     `json:"exp"`
}

// TokenPair is returned once, in plaintext, after login or refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthContext carries the authenticated identity through a request
type AuthContext struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// IsAdmin checks if the authenticated account is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration attempt
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh attempt
type RefreshRequest struct {
	AccountID    int64  `json:"account_id"`
	RefreshToken string `json:"refresh_token"`
}

// AccessPolicy declares who may call an operation. The zero value is the
// fail-closed default: any authenticated account, no public access.
type AccessPolicy struct {
	// Public skips authentication entirely (register/login/refresh only)
	Public bool
	// RequiredRoles limits the operation to the listed roles.
	// Empty means any authenticated account.
	RequiredRoles []Role
}

// Allows reports whether the role satisfies the policy's role requirement
func (p AccessPolicy) Allows(role Role) bool {
	if len(p.RequiredRoles) == 0 {
		return true
	}
	for _, r := range p.RequiredRoles {
		if r == role {
			return true
		}
	}
	return false
}

// PolicyTable maps operation names to access policies. Operations absent from
// the table get the fail-closed default: authenticated-only, never public.
type PolicyTable map[string]AccessPolicy

// Lookup returns the policy for an operation, falling back to the
// authenticated-only default for undeclared operations.
func (t PolicyTable) Lookup(operation string) AccessPolicy {
	if p, ok := t[operation]; ok {
		return p
	}
	return AccessPolicy{}
}

// AccessTokenLifetime and RefreshTokenLifetime are the default token
// lifetimes, overridable through configuration at startup.
const (
	AccessTokenLifetime  = 15 * time.Minute
	RefreshTokenLifetime = 7 * 24 * time.Hour
)
