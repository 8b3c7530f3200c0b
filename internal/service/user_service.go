package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-manager/internal/domain"
	"github.com/spec-kit/ticket-manager/internal/repository"
	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

// UserService handles account listing and profile management.
type UserService struct {
	users repository.UserRepository
	refs  repository.ReferenceRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, refs repository.ReferenceRepository) *UserService {
	return &UserService{users: users, refs: refs}
}

// GetUser fetches one account. Non-admins may only read themselves.
func (s *UserService) GetUser(ctx context.Context, actor *domain.User, id int64) (*domain.User, error) {
	if actor.ID != id && !actor.Can(domain.PermissionAdmin) {
		return nil, apperrors.NewForbidden("cannot read other accounts")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return user, nil
}

// ListUsers returns accounts; inactive accounts only for admins.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User, includeInactive bool) ([]domain.User, error) {
	if includeInactive && !actor.Can(domain.PermissionAdmin) {
		includeInactive = false
	}
	users, err := s.users.List(ctx, includeInactive)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return users, nil
}

// UserUpdateInput carries optional profile fields.
type UserUpdateInput struct {
	Email           *string
	Name            *string
	Surnames        *string
	PermissionLevel *int
	DefaultCenterID *int64
	IsActive        *bool
}

// UpdateUser patches an account. Permission level and activation flags
// are admin-only; users may edit their own profile fields.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.User, id int64, input UserUpdateInput) (*domain.User, error) {
	isAdmin := actor.Can(domain.PermissionAdmin)
	if actor.ID != id && !isAdmin {
		return nil, apperrors.NewForbidden("cannot modify other accounts")
	}
	if (input.PermissionLevel != nil || input.IsActive != nil) && !isAdmin {
		return nil, apperrors.NewForbidden("only administrators can change permissions")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.NewPersistenceFailure(err)
	}

	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email == "" {
			return nil, apperrors.NewValidationError("email cannot be empty", nil)
		}
		if email != user.Email {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewPersistenceFailure(err)
			}
			user.Email = email
		}
	}
	if input.Name != nil {
		user.Name = input.Name
	}
	if input.Surnames != nil {
		user.Surnames = input.Surnames
	}
	if input.PermissionLevel != nil {
		level := *input.PermissionLevel
		if level < domain.PermissionAdmin || level > domain.PermissionViewer {
			return nil, apperrors.NewValidationError("permission level out of range", map[string]any{"permission_level": level})
		}
		user.PermissionLevel = level
	}
	if input.DefaultCenterID != nil {
		if *input.DefaultCenterID == 0 {
			user.DefaultCenterID = nil
		} else {
			if _, err := s.refs.GetCenterByID(ctx, *input.DefaultCenterID); err != nil {
				return nil, apperrors.NewValidationError("invalid center id", map[string]any{"center_id": *input.DefaultCenterID})
			}
			user.DefaultCenterID = input.DefaultCenterID
		}
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return user, nil
}

// DeactivateUser disables an account without removing its history.
func (s *UserService) DeactivateUser(ctx context.Context, actor *domain.User, id int64) error {
	if !actor.Can(domain.PermissionAdmin) {
		return apperrors.NewForbidden("only administrators can deactivate accounts")
	}
	if actor.ID == id {
		return apperrors.NewValidationError("cannot deactivate your own account", nil)
	}
	if err := s.users.Deactivate(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return apperrors.NewPersistenceFailure(err)
	}
	return nil
}
