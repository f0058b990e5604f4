package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/egbay/book-collection/internal/core/domain"
	"github.com/egbay/book-collection/internal/core/ports/driven"
)

// Ensure Hasher implements PasswordHasher
var _ driven.PasswordHasher = (*Hasher)(nil)

// HasherConfig holds password hashing configuration.
// The cost factor is fixed here at startup, never caller-supplied.
type HasherConfig struct {
	// Cost is the bcrypt cost factor
	Cost int

	// MaxConcurrent caps how many hash computations run at once so a burst
	// of logins cannot starve concurrent requests
	MaxConcurrent int
}

// DefaultHasherConfig returns the production defaults
func DefaultHasherConfig() HasherConfig {
	return HasherConfig{
		Cost:          bcrypt.DefaultCost,
		MaxConcurrent: 8,
	}
}

// Hasher hashes and verifies secrets using bcrypt
type Hasher struct {
	cost int
	sem  chan struct{}
}

// NewHasher creates a Hasher from the given configuration
func NewHasher(cfg HasherConfig) *Hasher {
	cost := cfg.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}

	return &Hasher{
		cost: cost,
		sem:  make(chan struct{}, maxConcurrent),
	}
}

// Hash generates a salted bcrypt digest of the plaintext.
// Empty plaintext is rejected before any work is done.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", domain.ErrInvalidInput
	}

	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify checks if the plaintext matches a bcrypt hash.
// bcrypt's comparison is constant-time over the digest. Comparison recomputes
// the digest, so it is as expensive as hashing and shares the same semaphore.
func (h *Hasher) Verify(plaintext, hash string) bool {
	if plaintext == "" {
		return false
	}

	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
