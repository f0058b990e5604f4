package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/egbay/book-collection/internal/core/domain"
	"github.com/egbay/book-collection/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.UserStore = (*UserStore)(nil)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// UserStore implements driven.UserStore using PostgreSQL
type UserStore struct {
	db *DB
}

// NewUserStore creates a new UserStore
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new account; the database assigns id and timestamps
func (s *UserStore) Create(ctx context.Context, email, passwordHash string, role domain.Role) (*domain.Account, error) {
	query := `
		INSERT INTO accounts (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, role, refresh_token_hash, created_at, updated_at
	`

	account, err := scanAccount(s.db.QueryRowContext(ctx, query, email, passwordHash, string(role)))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}

	return account, nil
}

// Get retrieves an account by ID
func (s *UserStore) Get(ctx context.Context, id int64) (*domain.Account, error) {
	query := `
		SELECT id, email, password_hash, role, refresh_token_hash, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	return scanAccount(s.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves an account by email
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT id, email, password_hash, role, refresh_token_hash, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`

	return scanAccount(s.db.QueryRowContext(ctx, query, email))
}

// UpdateRefreshHash unconditionally overwrites the refresh-token hash
func (s *UserStore) UpdateRefreshHash(ctx context.Context, id int64, hash *string) error {
	query := `UPDATE accounts SET refresh_token_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := s.db.ExecContext(ctx, query, NullString(hash), time.Now(), id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// RotateRefreshHash swaps the refresh-token hash only if the stored value
// still matches oldHash. The conditional UPDATE is atomic at the row level,
// so only one of two concurrent rotations against the same hash succeeds.
func (s *UserStore) RotateRefreshHash(ctx context.Context, id int64, oldHash, newHash string) error {
	query := `
		UPDATE accounts
		SET refresh_token_hash = $1, updated_at = $2
		WHERE id = $3 AND refresh_token_hash = $4
	`

	result, err := s.db.ExecContext(ctx, query, newHash, time.Now(), id, oldHash)
	if err != nil {
		return err
	}

	return requireRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var refreshHash sql.NullString

	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&refreshHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	account.RefreshTokenHash = StringPtr(refreshHash)
	return &account, nil
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
