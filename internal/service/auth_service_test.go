package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-manager/internal/auth"
	"github.com/spec-kit/ticket-manager/internal/domain"
	"github.com/spec-kit/ticket-manager/internal/repository"
	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

type fakeResetRepo struct {
	mu     sync.Mutex
	nextID int64
	tokens map[string]*repository.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{nextID: 1, tokens: map[string]*repository.PasswordResetToken{}}
}

func (r *fakeResetRepo) Create(ctx context.Context, token *repository.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = r.nextID
	r.nextID++
	token.CreatedAt = time.Now().UTC()
	clone := *token
	r.tokens[token.Token] = &clone
	return nil
}

func (r *fakeResetRepo) GetByToken(ctx context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *token
	return &clone, nil
}

func (r *fakeResetRepo) MarkUsed(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.ID == id {
			now := time.Now().UTC()
			token.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

type authFixture struct {
	svc   *AuthService
	users *fakeUserRepo
	admin *domain.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	userRepo := newFakeUserRepo()
	svc := NewAuthService(AuthDependencies{
		UserRepo:        userRepo,
		ResetRepo:       newFakeResetRepo(),
		Tokens:          auth.NewTokenManager("test-secret", 60),
		BcryptCost:      4, // min cost keeps tests fast
		ResetTTLMinutes: 30,
	})
	hash, err := auth.HashPassword("admin-pass", 4)
	require.NoError(t, err)
	admin := userRepo.add(domain.User{
		Username:        "admin",
		Email:           "admin@example.org",
		PasswordHash:    hash,
		PermissionLevel: domain.PermissionAdmin,
		IsActive:        true,
	})
	return &authFixture{svc: svc, users: userRepo, admin: admin}
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	result, err := f.svc.Login(context.Background(), "admin", "admin-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, f.admin.ID, result.User.ID)
	assert.True(t, result.ExpiresAt.After(time.Now()))
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), "admin", "wrong")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
}

func TestLoginUnknownUserIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), "ghost", "whatever")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newAuthFixture(t)
	hash, err := auth.HashPassword("pass-1234", 4)
	require.NoError(t, err)
	f.users.add(domain.User{Username: "old", Email: "old@example.org", PasswordHash: hash, PermissionLevel: domain.PermissionEditor})

	_, err = f.svc.Login(context.Background(), "old", "pass-1234")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
}

func TestRegisterRequiresAdmin(t *testing.T) {
	f := newAuthFixture(t)
	editor := f.users.add(domain.User{Username: "editor", Email: "e@example.org", PermissionLevel: domain.PermissionEditor, IsActive: true})

	_, err := f.svc.Register(context.Background(), editor, RegisterInput{
		Username: "new", Email: "new@example.org", Password: "long-enough",
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), f.admin, RegisterInput{
		Username: "admin", Email: "other@example.org", Password: "long-enough",
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, f.admin, RegisterInput{
		Username:        "nurse1",
		Email:           "Nurse1@Example.org",
		Password:        "secret-pass",
		PermissionLevel: domain.PermissionEditor,
	})
	require.NoError(t, err)
	assert.Equal(t, "nurse1@example.org", user.Email)
	assert.True(t, user.IsActive)

	result, err := f.svc.Login(ctx, "nurse1", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ChangePassword(ctx, f.admin, "admin-pass", "brand-new-pass"))

	_, err := f.svc.Login(ctx, "admin", "admin-pass")
	require.Error(t, err)
	_, err = f.svc.Login(ctx, "admin", "brand-new-pass")
	require.NoError(t, err)
}

func TestResetTokenFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	token, err := f.svc.CreateResetToken(ctx, f.admin, f.admin.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)

	require.NoError(t, f.svc.ResetPassword(ctx, token.Token, "reset-password"))

	_, err = f.svc.Login(ctx, "admin", "reset-password")
	require.NoError(t, err)

	// Tokens are single use.
	err = f.svc.ResetPassword(ctx, token.Token, "another-password")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
}
