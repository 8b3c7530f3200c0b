package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-manager/internal/auth"
	"github.com/spec-kit/ticket-manager/internal/domain"
	"github.com/spec-kit/ticket-manager/internal/repository"
	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

// AuthService handles login, registration and password lifecycle.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	tokens     *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies bundles auth service requirements.
type AuthDependencies struct {
	UserRepo        repository.UserRepository
	ResetRepo       repository.PasswordResetRepository
	Tokens          *auth.TokenManager
	BcryptCost      int
	ResetTTLMinutes int
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	resetTTL := time.Duration(deps.ResetTTLMinutes) * time.Minute
	if resetTTL <= 0 {
		resetTTL = 30 * time.Minute
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.ResetRepo,
		tokens:     deps.Tokens,
		bcryptCost: deps.BcryptCost,
		resetTTL:   resetTTL,
	}
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Login authenticates a username/password pair and issues a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("username and password required", nil)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.NewPersistenceFailure(err)
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Username, user.PermissionLevel)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	Name            *string
	Surnames        *string
	PermissionLevel int
	DefaultCenterID *int64
}

// Register creates a user account. Only administrators can create
// accounts, and only they choose the permission level.
func (s *AuthService) Register(ctx context.Context, actor *domain.User, input RegisterInput) (*domain.User, error) {
	if !actor.Can(domain.PermissionAdmin) {
		return nil, apperrors.NewForbidden("only administrators can create accounts")
	}

	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if username == "" || email == "" {
		return nil, apperrors.NewValidationError("username and email required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	level := input.PermissionLevel
	if level < domain.PermissionAdmin || level > domain.PermissionViewer {
		level = domain.PermissionViewer
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already taken", map[string]any{"username": username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewPersistenceFailure(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Username:        username,
		Email:           email,
		Name:            input.Name,
		Surnames:        input.Surnames,
		PasswordHash:    hash,
		PermissionLevel: level,
		DefaultCenterID: input.DefaultCenterID,
		IsActive:        true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return user, nil
}

// ChangePassword verifies the current password and replaces it.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, current, next string) error {
	if err := auth.ComparePassword(actor.PasswordHash, current); err != nil {
		return apperrors.NewUnauthorized("current password incorrect")
	}
	if len(next) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	actor.PasswordHash = hash
	if err := s.users.Update(ctx, actor); err != nil {
		return apperrors.NewPersistenceFailure(err)
	}
	return nil
}

// CreateResetToken issues a one-time password reset token for a user.
// Admin-initiated: the token is handed to the user out of band.
func (s *AuthService) CreateResetToken(ctx context.Context, actor *domain.User, userID int64) (*repository.PasswordResetToken, error) {
	if !actor.Can(domain.PermissionAdmin) {
		return nil, apperrors.NewForbidden("only administrators can reset passwords")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.NewPersistenceFailure(err)
	}

	token := &repository.PasswordResetToken{
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return token, nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, tokenStr, next string) error {
	if len(next) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("invalid reset token")
		}
		return apperrors.NewPersistenceFailure(err)
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewUnauthorized("reset token expired")
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.NewPersistenceFailure(err)
	}
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		return apperrors.NewPersistenceFailure(err)
	}
	return nil
}
