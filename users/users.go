package users

import (
	"fmt"
	"strings"
)

// RoleType represents the role the Auth API assigns to a user
type RoleType string

const (
	RoleAdmin  RoleType = "admin"  // Can manage users and sources
	RoleUser   RoleType = "user"   // Regular analyst
	RoleViewer RoleType = "viewer" // Read-only access
)

// Profile is the user record returned by GET /auth/me and the admin endpoints.
type Profile struct {
	ID       int      `json:"id"`
	Email    string   `json:"email"`
	Role     RoleType `json:"role,omitempty"`
	IsActive bool     `json:"is_active"`
	FullName string   `json:"full_name,omitempty"`
}

// IsEmpty reports whether the profile carries no identity at all.
func (p Profile) IsEmpty() bool {
	return p.ID == 0 && strings.TrimSpace(p.Email) == ""
}

// HasRole compares roles case-insensitively.
func (p Profile) HasRole(role RoleType) bool {
	return strings.EqualFold(string(p.Role), string(role))
}

// DisplayName prefers the full name and falls back to the email address.
func (p Profile) DisplayName() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return p.Email
}

// Update is the PATCH body for /admin/users/{id}. Nil fields are left unchanged.
type Update struct {
	Role     *RoleType `json:"role,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
}

// ParseRole validates a role string from a form or flag.
func ParseRole(s string) (RoleType, error) {
	switch r := RoleType(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleUser, RoleViewer:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}
