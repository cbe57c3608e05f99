// Package guard decides whether a route may render for the current session.
//
// Decide is pure: it reads a session snapshot and never blocks, errors or
// triggers network calls. The server package adapts decisions to HTTP.
package guard

import (
	"github.com/mediascan/console/session"
	"github.com/mediascan/console/users"
)

// Requirement is what a route demands of the session.
type Requirement struct {
	auth bool
	role users.RoleType
}

var (
	// Public routes render regardless of the session
	Public = Requirement{}
	// Authenticated routes need a verified user
	Authenticated = Requirement{auth: true}
)

// Role requires a verified user holding role.
func Role(role users.RoleType) Requirement {
	return Requirement{auth: true, role: role}
}

func (r Requirement) String() string {
	switch {
	case !r.auth:
		return "public"
	case r.role == "":
		return "authenticated"
	default:
		return "role:" + string(r.role)
	}
}

type Action int

const (
	Render Action = iota
	Loading
	RedirectLogin
	RedirectHome
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "unknown"
	}
}

// Decision is the outcome for one route visit.
type Decision struct {
	Action Action
	// Unavailable is set on RedirectLogin when the session could not be
	// established at all, so the login screen can say so.
	Unavailable bool
}

// Decide maps a snapshot and requirement to a Decision. The attempted
// location is not remembered; after login the caller lands on the home page.
func Decide(snap session.Snapshot, req Requirement) Decision {
	if !req.auth {
		return Decision{Action: Render}
	}

	switch snap.Status {
	case session.Initializing, session.Authenticating:
		return Decision{Action: Loading}
	case session.Failed:
		if snap.User == nil {
			return Decision{Action: RedirectLogin, Unavailable: true}
		}
	}

	if snap.User == nil {
		return Decision{Action: RedirectLogin}
	}
	if req.role != "" && !snap.HasRole(req.role) {
		return Decision{Action: RedirectHome}
	}
	return Decision{Action: Render}
}
