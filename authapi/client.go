// Package authapi is the HTTP client for the remote media-scan Auth API.
package authapi

import (
	"context"

	"github.com/mediascan/console/users"
)

// Auth API paths, relative to the configured base URL
const (
	RouteLogin      = "/auth/login"
	RouteRegister   = "/auth/register"
	RouteMe         = "/auth/me"
	RouteAdminUsers = "/admin/users"
)

// Client is the subset of the Auth API the session lifecycle depends on.
type Client interface {
	// Login exchanges an identifier and secret for a bearer token.
	Login(ctx context.Context, identifier, secret string) (string, error)
	// Register creates an account. It does not log the caller in.
	Register(ctx context.Context, identifier, secret string) error
	// Me resolves the profile that owns token.
	Me(ctx context.Context, token string) (users.Profile, error)
}

// AdminClient covers the user-management endpoints reserved to admins.
type AdminClient interface {
	ListUsers(ctx context.Context, token string) ([]users.Profile, error)
	UpdateUser(ctx context.Context, token string, userID int, update users.Update) (users.Profile, error)
	DeleteUser(ctx context.Context, token string, userID int) error
}
