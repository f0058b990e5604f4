package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/egbay/book-collection/internal/core/domain"
	"github.com/egbay/book-collection/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.UserStore = (*UserStore)(nil)

const (
	// Key prefixes for Redis
	accountPrefix = "account:"
	emailPrefix   = "account:email:"
	refreshPrefix = "account:refresh:"
	idCounterKey  = "account:next_id"
)

// accountRecord is the stored shape of an account. The refresh hash lives in
// its own key so rotation can compare-and-swap it atomically.
type accountRecord struct {
	ID           int64       `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Role         domain.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// UserStore implements driven.UserStore using Redis
type UserStore struct {
	client *redis.Client
}

// NewUserStore creates a new Redis-backed UserStore
func NewUserStore(client *redis.Client) *UserStore {
	return &UserStore{client: client}
}

// Create allocates an id, claims the email index and stores the record.
// The SETNX on the email index makes duplicate registration lose atomically.
func (s *UserStore) Create(ctx context.Context, email, passwordHash string, role domain.Role) (*domain.Account, error) {
	id, err := s.client.Incr(ctx, idCounterKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate account id: %w", err)
	}

	claimed, err := s.client.SetNX(ctx, emailPrefix+email, id, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim email index: %w", err)
	}
	if !claimed {
		return nil, domain.ErrAlreadyExists
	}

	now := time.Now().UTC()
	record := accountRecord{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account: %w", err)
	}

	if err := s.client.Set(ctx, accountKey(id), data, 0).Err(); err != nil {
		// Roll the index back so the email is not claimed by a ghost record
		s.client.Del(ctx, emailPrefix+email)
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	return record.toDomain(nil), nil
}

// Get retrieves an account by ID
func (s *UserStore) Get(ctx context.Context, id int64) (*domain.Account, error) {
	data, err := s.client.Get(ctx, accountKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var record accountRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	refreshHash, err := s.refreshHash(ctx, id)
	if err != nil {
		return nil, err
	}

	return record.toDomain(refreshHash), nil
}

// GetByEmail retrieves an account by its email index
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	id, err := s.client.Get(ctx, emailPrefix+email).Int64()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return s.Get(ctx, id)
}

// UpdateRefreshHash unconditionally overwrites or clears the refresh hash
func (s *UserStore) UpdateRefreshHash(ctx context.Context, id int64, hash *string) error {
	exists, err := s.client.Exists(ctx, accountKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to check account: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	if hash == nil {
		if err := s.client.Del(ctx, refreshPrefix+idString(id)).Err(); err != nil {
			return fmt.Errorf("failed to clear refresh hash: %w", err)
		}
		return nil
	}

	if err := s.client.Set(ctx, refreshPrefix+idString(id), *hash, 0).Err(); err != nil {
		return fmt.Errorf("failed to set refresh hash: %w", err)
	}
	return nil
}

// rotateScript atomically swaps the refresh hash only when the stored value
// still matches, so concurrent rotations cannot both succeed.
var rotateScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		redis.call("set", KEYS[1], ARGV[2])
		return 1
	else
		return 0
	end
`)

// RotateRefreshHash compare-and-swaps the stored refresh hash
func (s *UserStore) RotateRefreshHash(ctx context.Context, id int64, oldHash, newHash string) error {
	result, err := rotateScript.Run(ctx, s.client, []string{refreshPrefix + idString(id)}, oldHash, newHash).Result()
	if err != nil {
		return fmt.Errorf("failed to rotate refresh hash: %w", err)
	}
	if result.(int64) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UserStore) refreshHash(ctx context.Context, id int64) (*string, error) {
	hash, err := s.client.Get(ctx, refreshPrefix+idString(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh hash: %w", err)
	}
	return &hash, nil
}

func (r accountRecord) toDomain(refreshHash *string) *domain.Account {
	return &domain.Account{
		ID:               r.ID,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		Role:             r.Role,
		RefreshTokenHash: refreshHash,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func accountKey(id int64) string {
	return accountPrefix + idString(id)
}

func idString(id int64) string {
	return fmt.Sprintf("%d", id)
}
