package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/egbay/book-collection/internal/core/domain"
	"github.com/egbay/book-collection/internal/core/ports/driven"
)

// Ensure Issuer implements TokenIssuer
var _ driven.TokenIssuer = (*Issuer)(nil)

// jwtClaims wraps domain.TokenClaims for JWT compatibility
type jwtClaims struct {
	Email string           `json:"email"`
	Role  domain.Role      `json:"role,omitempty"`
	Kind  domain.TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// IssuerConfig holds the token signing configuration. It is built once at
// startup and never mutated; secrets come from the environment, not literals.
type IssuerConfig struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	AccessLifetime  time.Duration
	RefreshLifetime time.Duration
}

// DefaultIssuerConfig returns the default lifetimes for the given secrets
func DefaultIssuerConfig(accessSecret, refreshSecret string) IssuerConfig {
	return IssuerConfig{
		AccessSecret:    []byte(accessSecret),
		RefreshSecret:   []byte(refreshSecret),
		AccessLifetime:  domain.AccessTokenLifetime,
		RefreshLifetime: domain.RefreshTokenLifetime,
	}
}

// Issuer mints and verifies HS256-signed tokens. Access and refresh tokens
// are signed with distinct secrets so one kind cannot pass as the other.
type Issuer struct {
	cfg IssuerConfig
}

// NewIssuer creates an Issuer from the given configuration
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("issuer: signing secrets must not be empty")
	}
	if cfg.AccessLifetime <= 0 {
		cfg.AccessLifetime = domain.AccessTokenLifetime
	}
	if cfg.RefreshLifetime <= 0 {
		cfg.RefreshLifetime = domain.RefreshTokenLifetime
	}
	return &Issuer{cfg: cfg}, nil
}

// Issue creates a signed token of the given kind. The expiry is part of the
// signed payload. Role is carried on access tokens only.
func (i *Issuer) Issue(accountID int64, email string, role domain.Role, kind domain.TokenKind) (string, error) {
	now := time.Now()

	claims := jwtClaims{
		Email: email,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti makes every token unique; iat alone has whole-second
			// resolution, so back-to-back tokens would otherwise collide
			// and rotation would re-issue the token it just retired.
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", accountID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime(kind))),
		},
	}
	if kind == domain.TokenKindAccess {
		claims.Role = role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret(kind))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks signature, expiry and kind against the expected kind.
// The three failure modes stay distinct: domain.ErrTokenExpired,
// domain.ErrTokenWrongKind and domain.ErrTokenInvalid.
func (i *Issuer) Verify(tokenString string, kind domain.TokenKind) (*domain.TokenClaims, error) {
	claims, err := i.parse(tokenString, i.secret(kind))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		// A token of the other kind fails signature here. Re-check with the
		// other secret so callers can tell wrong-kind from garbage.
		if _, probeErr := i.parse(tokenString, i.secret(otherKind(kind))); probeErr == nil || errors.Is(probeErr, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenWrongKind
		}
		return nil, domain.ErrTokenInvalid
	case err != nil:
		return nil, domain.ErrTokenInvalid
	}

	if claims.Kind != kind {
		return nil, domain.ErrTokenWrongKind
	}

	var accountID int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &accountID); err != nil {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.TokenClaims{
		AccountID: accountID,
		Email:     claims.Email,
		Role:      claims.Role,
		Kind:      claims.Kind,
		IssuedAt:  claims.IssuedAt.Unix(),
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

func (i *Issuer) parse(tokenString string, secret []byte) (*jwtClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (i *Issuer) secret(kind domain.TokenKind) []byte {
	if kind == domain.TokenKindRefresh {
		return i.cfg.RefreshSecret
	}
	return i.cfg.AccessSecret
}

func (i *Issuer) lifetime(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenKindRefresh {
		return i.cfg.RefreshLifetime
	}
	return i.cfg.AccessLifetime
}

func otherKind(kind domain.TokenKind) domain.TokenKind {
	if kind == domain.TokenKindAccess {
		return domain.TokenKindRefresh
	}
	return domain.TokenKindAccess
}
