package domain

import "time"

// Role defines account permission level
type Role string

const (
	RoleUser  Role = "USER"  // Default role for self-registered accounts
	RoleAdmin Role = "ADMIN" // Administrative operations
)

// IsValid reports whether the role is one of the closed set
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is the identity record backing authentication.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	Role         Role      `json:"role"`
	// RefreshTokenHash holds a bcrypt hash of the most recently issued refresh
	// token's digest. nil means no active session (logged out or never logged in).
	RefreshTokenHash *string   `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AccountSummary is a safe view of an account (no hashes)
type AccountSummary struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToSummary converts an Account to AccountSummary
func (a *Account) ToSummary() *AccountSummary {
	return &AccountSummary{
		ID:        a.ID,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

// IsAdmin checks if the account has admin privileges
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// HasSession reports whether a refresh token is currently outstanding
func (a *Account) HasSession() bool {
	return a.RefreshTokenHash != nil
}
