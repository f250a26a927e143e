package model

import "time"

// Role is the access level stored on a user profile.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a stored role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

// AppUser is the profile document kept in the users collection, keyed by UID.
type AppUser struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RegisterRequest is the payload for account creation. Field rules are
// enforced by the auth service so the form messages stay exact.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest changes the display name.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required,max=100"`
}
