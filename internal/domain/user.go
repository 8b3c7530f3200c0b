package domain

import "time"

// Permission levels. Lower numbers carry more privilege.
const (
	PermissionAdmin  = 1
	PermissionEditor = 2
	PermissionViewer = 3
)

// User is the domain model for support-desk operators and reporters.
type User struct {
	ID              int64
	Username        string
	Email           string
	Name            *string
	Surnames        *string
	PasswordHash    string
	PermissionLevel int
	DefaultCenterID *int64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName returns the best human-readable identifier for a user.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		if u.Surnames != nil && *u.Surnames != "" {
			return *u.Name + " " + *u.Surnames
		}
		return *u.Name
	}
	return u.Username
}

// Can reports whether the user holds at least the required permission
// level (level 1 is the strongest).
func (u *User) Can(required int) bool {
	return u.PermissionLevel <= required
}
