package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/egbay/book-collection/internal/core/domain"
	"github.com/egbay/book-collection/internal/core/ports/driven"
	"github.com/egbay/book-collection/internal/core/ports/driving"
)

// Ensure sessionService implements SessionService
var _ driving.SessionService = (*sessionService)(nil)

// sessionService implements the SessionService interface.
// It is the only component with stateful security invariants: it owns the
// refresh-hash lifecycle on the account record.
type sessionService struct {
	userStore driven.UserStore
	hasher    driven.PasswordHasher
	issuer    driven.TokenIssuer
	logger    *slog.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	userStore driven.UserStore,
	hasher driven.PasswordHasher,
	issuer driven.TokenIssuer,
	logger *slog.Logger,
) driving.SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionService{
		userStore: userStore,
		hasher:    hasher,
		issuer:    issuer,
		logger:    logger,
	}
}

// Register creates a new account with the default USER role
func (s *sessionService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AccountSummary, error) {
	log := s.opLogger("register")

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	// Check for an existing account first for a clean conflict error; the
	// store's unique constraint still backstops races.
	existing, err := s.userStore.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, s.internal(log, "email lookup failed", err)
	}
	if existing != nil {
		log.Info("registration rejected, email taken")
		return nil, domain.ErrAlreadyExists
	}

	passwordHash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, domain.ErrInvalidInput
		}
		return nil, s.internal(log, "password hashing failed", err)
	}

	account, err := s.userStore.Create(ctx, email, passwordHash, domain.RoleUser)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, s.internal(log, "account creation failed", err)
	}

	log.Info("account registered", "account_id", account.ID)
	return account.ToSummary(), nil
}

// Login verifies credentials and issues a token pair. The stored refresh hash
// is overwritten, so every prior refresh token for the account dies here.
func (s *sessionService) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenPair, error) {
	log := s.opLogger("login")

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	// The same error for "no such account" and "wrong password" so callers
	// cannot enumerate registered emails.
	account, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("login rejected")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, s.internal(log, "email lookup failed", err)
	}

	if !s.hasher.Verify(req.Password, account.PasswordHash) {
		log.Info("login rejected", "account_id", account.ID)
		return nil, domain.ErrInvalidCredentials
	}

	pair, refreshHash, err := s.issuePair(ctx, account)
	if err != nil {
		return nil, s.internal(log, "token issuance failed", err)
	}

	if err := s.userStore.UpdateRefreshHash(ctx, account.ID, &refreshHash); err != nil {
		return nil, s.internal(log, "refresh hash update failed", err)
	}

	log.Info("login succeeded", "account_id", account.ID)
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair and rotates the
// stored hash. The compare-and-swap on the store guarantees that of two
// concurrent refreshes with the same stale token, at most one wins.
func (s *sessionService) Refresh(ctx context.Context, req domain.RefreshRequest) (*domain.TokenPair, error) {
	log := s.opLogger("refresh")

	claims, err := s.issuer.Verify(req.RefreshToken, domain.TokenKindRefresh)
	if err != nil {
		log.Info("refresh rejected", "account_id", req.AccountID, "reason", err.Error())
		return nil, err
	}
	if claims.AccountID != req.AccountID {
		log.Info("refresh rejected, subject mismatch", "account_id", req.AccountID)
		return nil, domain.ErrTokenInvalid
	}

	account, err := s.userStore.Get(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, s.internal(log, "account lookup failed", err)
	}

	if !account.HasSession() || !s.hasher.Verify(digestToken(req.RefreshToken), *account.RefreshTokenHash) {
		log.Info("refresh rejected", "account_id", account.ID)
		return nil, domain.ErrTokenInvalid
	}

	pair, newHash, err := s.issuePair(ctx, account)
	if err != nil {
		return nil, s.internal(log, "token issuance failed", err)
	}

	if err := s.userStore.RotateRefreshHash(ctx, account.ID, *account.RefreshTokenHash, newHash); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Lost the rotation race to a concurrent refresh or logout
			log.Info("refresh rejected, rotation conflict", "account_id", account.ID)
			return nil, domain.ErrTokenInvalid
		}
		return nil, s.internal(log, "refresh hash rotation failed", err)
	}

	log.Info("refresh succeeded", "account_id", account.ID)
	return pair, nil
}

// Logout clears the stored refresh hash. Logging out an account that has no
// session, or that does not exist, is not an error.
func (s *sessionService) Logout(ctx context.Context, accountID int64) error {
	log := s.opLogger("logout")

	if err := s.userStore.UpdateRefreshHash(ctx, accountID, nil); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return s.internal(log, "refresh hash clear failed", err)
	}

	log.Info("logout succeeded", "account_id", accountID)
	return nil
}

// ValidateAccount is a raw lookup with no error on miss
func (s *sessionService) ValidateAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.userStore.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, s.internal(s.opLogger("validate_account"), "account lookup failed", err)
	}
	return account, nil
}

// issuePair mints an access/refresh pair and the bcrypt hash of the refresh
// token that the caller must persist. The plaintext pair is returned once.
func (s *sessionService) issuePair(ctx context.Context, account *domain.Account) (*domain.TokenPair, string, error) {
	accessToken, err := s.issuer.Issue(account.ID, account.Email, account.Role, domain.TokenKindAccess)
	if err != nil {
		return nil, "", err
	}

	refreshToken, err := s.issuer.Issue(account.ID, account.Email, account.Role, domain.TokenKindRefresh)
	if err != nil {
		return nil, "", err
	}

	refreshHash, err := s.hasher.Hash(ctx, digestToken(refreshToken))
	if err != nil {
		return nil, "", err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, refreshHash, nil
}

// opLogger returns a logger carrying the operation name and a fresh
// correlation id so related entries can be tied together.
func (s *sessionService) opLogger(operation string) *slog.Logger {
	return s.logger.With("operation", operation, "correlation_id", uuid.NewString())
}

// internal logs the full diagnostic detail server-side and surfaces an
// opaque failure to the caller.
func (s *sessionService) internal(log *slog.Logger, msg string, err error) error {
	log.Error(msg, "error", err)
	return domain.ErrInternal
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// digestToken pre-digests a signed token before bcrypt, which only accepts
// inputs up to 72 bytes. Signed tokens are always longer than that.
func digestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
