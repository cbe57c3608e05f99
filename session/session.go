// Package session owns the process-wide authentication state: the bearer
// token, the resolved user profile, and the loading/error status.
//
// A Manager is created once per running application and mutated only through
// Initialize, Login, Register and Logout. Readers take immutable snapshots.
package session

import (
	"time"

	"github.com/mediascan/console/users"
)

// Status is the lifecycle position of the session.
type Status int

const (
	Initializing Status = iota
	Authenticating
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Authenticating:
		return "authenticating"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Settled reports whether no session operation is pending.
func (s Status) Settled() bool {
	return s == Ready || s == Failed
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// User is the verified profile merged with the token it was resolved from.
type User struct {
	users.Profile
	Token string `json:"-"`
}

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	Status    Status    `json:"status"`
	User      *User     `json:"user,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Authenticated reports whether a verified user is present.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// Token returns the bearer token of the verified user, or "".
func (s Snapshot) Token() string {
	if s.User == nil {
		return ""
	}
	return s.User.Token
}

// HasRole reports whether the verified user holds role.
func (s Snapshot) HasRole(role users.RoleType) bool {
	return s.User != nil && s.User.HasRole(role)
}

// Result is the outcome of a user-initiated operation. Failures never escape
// as errors; Message carries what the view should show and Err the cause.
type Result struct {
	OK      bool
	Message string
	Err     error
}

func success() Result {
	return Result{OK: true}
}

func failure(msg string, err error) Result {
	return Result{OK: false, Message: msg, Err: err}
}
