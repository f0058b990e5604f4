package services

import (
	"context"
	"errors"
	"testing"

	"github.com/egbay/book-collection/internal/core/domain"
	"github.com/egbay/book-collection/internal/core/ports/driven/mocks"
)

func newTestSessionService() (*mocks.MockUserStore, *mocks.MockTokenIssuer, *sessionService) {
	userStore := mocks.NewMockUserStore()
	hasher := mocks.NewMockPasswordHasher()
	issuer := mocks.NewMockTokenIssuer()
	svc := NewSessionService(userStore, hasher, issuer, nil).(*sessionService)
	return userStore, issuer, svc
}

func mustRegister(t *testing.T, svc *sessionService, email, password string) *domain.AccountSummary {
	t.Helper()
	account, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return account
}

func mustLogin(t *testing.T, svc *sessionService, email, password string) *domain.TokenPair {
	t.Helper()
	pair, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return pair
}

func TestSessionService_Register(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.RegisterRequest
		wantErr error
	}{
		{
			name:    "valid registration",
			req:     domain.RegisterRequest{Email: "a@x.com", Password: "pw123"},
			wantErr: nil,
		},
		{
			name:    "empty email",
			req:     domain.RegisterRequest{Email: "", Password: "pw123"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "empty password",
			req:     domain.RegisterRequest{Email: "a@x.com", Password: ""},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "whitespace email",
			req:     domain.RegisterRequest{Email: "   ", Password: "pw123"},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, svc := newTestSessionService()

			account, err := svc.Register(context.Background(), tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if account.Email != tt.req.Email {
				t.Errorf("expected email %s, got %s", tt.req.Email, account.Email)
			}
			if account.Role != domain.RoleUser {
				t.Errorf("expected default role USER, got %s", account.Role)
			}
			if account.ID == 0 {
				t.Error("expected store-assigned id")
			}
		})
	}
}

func TestSessionService_Register_DuplicateEmail(t *testing.T) {
	userStore, _, svc := newTestSessionService()

	first := mustRegister(t, svc, "a@x.com", "pw123")
	before, _ := userStore.Get(context.Background(), first.ID)

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "a@x.com",
		Password: "other-password",
	})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// The existing account's password hash must be untouched
	after, _ := userStore.Get(context.Background(), first.ID)
	if after.PasswordHash != before.PasswordHash {
		t.Error("expected existing password hash to be unchanged")
	}
	if userStore.Count() != 1 {
		t.Errorf("expected 1 account, got %d", userStore.Count())
	}
}

func TestSessionService_Register_NormalizesEmail(t *testing.T) {
	_, _, svc := newTestSessionService()

	account := mustRegister(t, svc, "  User@X.Com ", "pw123")
	if account.Email != "user@x.com" {
		t.Errorf("expected normalized email, got %s", account.Email)
	}

	// The normalized form collides with the original
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "user@x.com",
		Password: "pw123",
	})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for normalized duplicate, got %v", err)
	}
}

func TestSessionService_Login(t *testing.T) {
	_, issuer, svc := newTestSessionService()
	mustRegister(t, svc, "a@x.com", "pw123")

	pair := mustLogin(t, svc, "a@x.com", "pw123")

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	// The access token must verify as an access token carrying role USER
	claims, err := issuer.Verify(pair.AccessToken, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("access token failed verification: %v", err)
	}
	if claims.Role != domain.RoleUser {
		t.Errorf("expected role USER in access token, got %s", claims.Role)
	}
	if claims.Email != "a@x.com" {
		t.Errorf("expected email in claims, got %s", claims.Email)
	}

	// The refresh token verifies as refresh and carries no role
	refreshClaims, err := issuer.Verify(pair.RefreshToken, domain.TokenKindRefresh)
	if err != nil {
		t.Fatalf("refresh token failed verification: %v", err)
	}
	if refreshClaims.Role != "" {
		t.Errorf("expected no role in refresh token, got %s", refreshClaims.Role)
	}
}

func TestSessionService_Login_IndistinguishableFailures(t *testing.T) {
	_, _, svc := newTestSessionService()
	mustRegister(t, svc, "a@x.com", "pw123")

	// Unknown email and wrong password must return the exact same error so
	// callers cannot probe which emails are registered.
	_, unknownErr := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "nobody@x.com",
		Password: "pw123",
	})
	_, wrongPwErr := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "a@x.com",
		Password: "wrong",
	})

	if !errors.Is(unknownErr, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", unknownErr)
	}
	if !errors.Is(wrongPwErr, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", wrongPwErr)
	}
	if unknownErr.Error() != wrongPwErr.Error() {
		t.Error("expected identical error text for both failure modes")
	}
}

func TestSessionService_Login_OverwritesPriorSession(t *testing.T) {
	userStore, _, svc := newTestSessionService()
	account := mustRegister(t, svc, "a@x.com", "pw123")

	first := mustLogin(t, svc, "a@x.com", "pw123")
	second := mustLogin(t, svc, "a@x.com", "pw123")

	// The first login's refresh token is dead after the second login
	_, err := svc.Refresh(context.Background(), domain.RefreshRequest{
		AccountID:    account.ID,
		RefreshToken: first.RefreshToken,
	})
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected first refresh token to be invalidated, got %v", err)
	}

	// The second login's refresh token still works
	_, err = svc.Refresh(context.Background(), domain.RefreshRequest{
		AccountID:    account.ID,
		RefreshToken: second.RefreshToken,
	})
	if err != nil {
		t.Errorf("expected second refresh token to remain valid, got %v", err)
	}

	if userStore.StoredRefreshHash(account.ID) == nil {
		t.Error("expected a stored refresh hash after refresh")
	}
}

func TestSessionService_Refresh_RotatesToken(t *testing.T) {
	_, _, svc := newTestSessionService()
	account := mustRegister(t, svc, "a@x.com", "pw123")
	pair := mustLogin(t, svc, "a@x.com", "pw123")

	rotated, err := svc.Refresh(context.Background(), domain.RefreshRequest{
		AccountID:    account.ID,
		RefreshToken: pair.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if rotated.RefreshToken == pair.RefreshToken {
		t.Error("expected a new refresh token after rotation")
	}
	if rotated.AccessToken == "" {
		t.Error("expected a new access token")
	}

	// The original refresh token is single-use: the second presentation fails
	_, err = svc.Refresh(context.Background(), domain.RefreshRequest{
		AccountID:    account.ID,
		RefreshToken: pair.RefreshToken,
	})
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected rotated-away token to fail, got %v", err)
	}

	// The rotated pair keeps working
	_, err = svc.Refresh(context.Background(), domain.RefreshRequest{
		AccountID:    account.ID,
		RefreshToken: rotated.RefreshToken,
	})
	if err != nil {
		t.Errorf("expected rotated refresh token to be valid, got %v", err)
	}
}

func TestSessionService_Refresh_Failures(t *testing.T) {
	_, issuer, svc := newTestSessionService()
	account := mustRegister(t, svc, "a@x.com", "pw123")
	pair := mustLogin(t, svc, "a@x.com", "pw123")

	other := mustRegister(t, svc, "b@x.com", "pw456")

	tests := []struct {
		name    string
		req     domain.RefreshRequest
		wantErr error
	}{
		{
			name:    "garbage token",
			req:     domain.RefreshRequest{AccountID: account.ID, RefreshToken: "not-a-token"},
			wantErr: domain.ErrTokenInvalid,
		},
		{
			name:    "access token presented as refresh",
			req:     domain.RefreshRequest{AccountID: account.ID, RefreshToken: pair.AccessToken},
			wantErr: domain.ErrTokenWrongKind,
		},
		{
			name: "expired refresh token",
			req: domain.RefreshRequest{
				AccountID:    account.ID,
				RefreshToken: issuer.IssueExpired(account.ID, "a@x.com", "", domain.TokenKindRefresh),
			},
			wantErr: domain.ErrTokenExpired,
		},
		{
			name:    "subject mismatch",
			req:     domain.RefreshRequest{AccountID: other.ID, RefreshToken: pair.RefreshToken},
			wantErr: domain.ErrTokenInvalid,
		},
		{
			name:    "account without session",
			req:     domain.RefreshRequest{AccountID: other.ID, RefreshToken: mustTokenFor(t, issuer, other.ID)},
			wantErr: domain.ErrTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Refresh(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func mustTokenFor(t *testing.T, issuer *mocks.MockTokenIssuer, accountID int64) string {
	t.Helper()
	token, err := issuer.Issue(accountID, "b@x.com", "", domain.TokenKindRefresh)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func TestSessionService_Refresh_ConcurrentRotationSingleWinner(t *testing.T) {
	userStore, _, svc := newTestSessionService()
	account := mustRegister(t, svc, "a@x.com", "pw123")
	pair := mustLogin(t, svc, "a@x.com", "pw123")

	// Simulate losing the race: another refresh rotates the hash between our
	// read and our write. The mock's CAS makes the stale write fail.
	winner, err := svc.Refresh(context.Background(), domain.RefreshRequest{
		AccountID:    account.ID,
		RefreshToken: pair.RefreshToken,
	})
	if err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}

	_, err = svc.Refresh(context.Background(), domain.RefreshRequest{
		AccountID:    account.ID,
		RefreshToken: pair.RefreshToken,
	})
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected loser to fail with ErrTokenInvalid, got %v", err)
	}

	// The winner's token is the only valid one
	if _, err := svc.Refresh(context.Background(), domain.RefreshRequest{
		AccountID:    account.ID,
		RefreshToken: winner.RefreshToken,
	}); err != nil {
		t.Errorf("expected winner's token to remain valid, got %v", err)
	}

	if userStore.StoredRefreshHash(account.ID) == nil {
		t.Error("expected stored refresh hash to survive the race")
	}
}

func TestSessionService_Logout(t *testing.T) {
	userStore, _, svc := newTestSessionService()
	account := mustRegister(t, svc, "a@x.com", "pw123")
	pair := mustLogin(t, svc, "a@x.com", "pw123")

	if err := svc.Logout(context.Background(), account.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if userStore.StoredRefreshHash(account.ID) != nil {
		t.Error("expected refresh hash to be cleared")
	}

	// Previously valid refresh token is dead
	_, err := svc.Refresh(context.Background(), domain.RefreshRequest{
		AccountID:    account.ID,
		RefreshToken: pair.RefreshToken,
	})
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected refresh after logout to fail, got %v", err)
	}

	// Logout is idempotent
	if err := svc.Logout(context.Background(), account.ID); err != nil {
		t.Errorf("expected repeated logout to succeed, got %v", err)
	}

	// Logout of an unknown account is a no-op, not an error
	if err := svc.Logout(context.Background(), 9999); err != nil {
		t.Errorf("expected logout of unknown account to succeed, got %v", err)
	}
}

func TestSessionService_ValidateAccount(t *testing.T) {
	_, _, svc := newTestSessionService()
	account := mustRegister(t, svc, "a@x.com", "pw123")

	found, err := svc.ValidateAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.ID != account.ID {
		t.Error("expected account to be found")
	}

	missing, err := svc.ValidateAccount(context.Background(), 9999)
	if err != nil {
		t.Fatalf("expected no error on miss, got %v", err)
	}
	if missing != nil {
		t.Error("expected nil account on miss")
	}
}

func TestSessionService_StoreFailuresAreOpaque(t *testing.T) {
	userStore := mocks.NewMockUserStore()
	userStore.FailWith = errors.New("connection refused")
	svc := NewSessionService(userStore, mocks.NewMockPasswordHasher(), mocks.NewMockTokenIssuer(), nil)

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "a@x.com",
		Password: "pw123",
	})
	if !errors.Is(err, domain.ErrInternal) {
		t.Errorf("expected ErrInternal for register, got %v", err)
	}

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "a@x.com",
		Password: "pw123",
	})
	if !errors.Is(err, domain.ErrInternal) {
		t.Errorf("expected ErrInternal for login, got %v", err)
	}

	if err := svc.Logout(context.Background(), 1); !errors.Is(err, domain.ErrInternal) {
		t.Errorf("expected ErrInternal for logout, got %v", err)
	}

	// The raw store error must never leak to callers
	if err != nil && err.Error() != domain.ErrInternal.Error() {
		t.Error("expected opaque internal error text")
	}
}

func TestSessionService_FullLifecycleScenario(t *testing.T) {
	// register a@x.com/pw123 -> login -> refresh rotates -> old token fails
	_, _, svc := newTestSessionService()

	account := mustRegister(t, svc, "a@x.com", "pw123")
	pair := mustLogin(t, svc, "a@x.com", "pw123")

	rotated, err := svc.Refresh(context.Background(), domain.RefreshRequest{
		AccountID:    account.ID,
		RefreshToken: pair.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("expected rotation to issue a different refresh token")
	}

	_, err = svc.Refresh(context.Background(), domain.RefreshRequest{
		AccountID:    account.ID,
		RefreshToken: pair.RefreshToken,
	})
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected original refresh token to fail after rotation, got %v", err)
	}
}
