package dto

import (
	"time"

	"github.com/spec-kit/ticket-manager/internal/domain"
)

// LoginRequest payload for the token endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// RegisterUserRequest payload for account creation.
type RegisterUserRequest struct {
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	Name            *string `json:"name"`
	Surnames        *string `json:"surnames"`
	PermissionLevel int     `json:"permission_level"`
	DefaultCenterID *int64  `json:"default_center_id"`
}

// UpdateUserRequest payload. Absent fields stay unchanged.
type UpdateUserRequest struct {
	Email           *string `json:"email"`
	Name            *string `json:"name"`
	Surnames        *string `json:"surnames"`
	PermissionLevel *int    `json:"permission_level"`
	DefaultCenterID *int64  `json:"default_center_id"`
	IsActive        *bool   `json:"is_active"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ResetPasswordRequest consumes a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetTokenResponse returns an admin-issued reset token.
type ResetTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public account shape.
type UserResponse struct {
	ID              int64   `json:"id"`
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	Name            *string `json:"name"`
	Surnames        *string `json:"surnames"`
	DisplayName     string  `json:"display_name"`
	PermissionLevel int     `json:"permission_level"`
	DefaultCenterID *int64  `json:"default_center_id"`
	IsActive        bool    `json:"is_active"`
}

// NewUserResponse maps a domain user; the password hash never leaves.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Name:            u.Name,
		Surnames:        u.Surnames,
		DisplayName:     u.DisplayName(),
		PermissionLevel: u.PermissionLevel,
		DefaultCenterID: u.DefaultCenterID,
		IsActive:        u.IsActive,
	}
}
