// Package guard decides whether a route may be entered given the current
// session and role. It holds no state; the HTTP middleware feeds it.
package guard

import (
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/session"
)

// Landing routes.
const (
	LoginRoute     = "/login"
	AdminLanding   = "/admin"
	StudentLanding = "/dashboard"
)

// Requirement is what a route asks of its visitor.
type Requirement int

const (
	// RequireSession admits any signed-in user.
	RequireSession Requirement = iota
	// RequireAdmin admits signed-in admins only.
	RequireAdmin
	// RequireStudent admits signed-in students only.
	RequireStudent
)

// Kind is the outcome of a guard decision.
type Kind int

const (
	Pending Kind = iota
	RedirectLogin
	RedirectHome
	Allow
)

func (k Kind) String() string {
	switch k {
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// State is everything a guard looks at.
type State struct {
	SessionLoading bool
	RoleLoading    bool
	User           *session.User
	Role           model.Role
}

// Decision is the guard outcome. Landing is set for RedirectLogin and
// RedirectHome.
type Decision struct {
	Kind    Kind
	Landing string
}

// Decide applies the guard rules in order. Nothing is decided while the
// session or the role is still loading. Once settled, no user goes to login
// and an unmet role goes to the visitor's own landing route.
func Decide(s State, req Requirement) Decision {
	if s.SessionLoading || s.RoleLoading {
		return Decision{Kind: Pending}
	}
	if s.User == nil {
		return Decision{Kind: RedirectLogin, Landing: LoginRoute}
	}

	switch req {
	case RequireAdmin:
		if s.Role != model.RoleAdmin {
			return Decision{Kind: RedirectHome, Landing: Landing(s.Role)}
		}
	case RequireStudent:
		if s.Role == model.RoleAdmin {
			return Decision{Kind: RedirectHome, Landing: AdminLanding}
		}
	}
	return Decision{Kind: Allow}
}

// Landing returns the home route for role.
func Landing(role model.Role) string {
	if role == model.RoleAdmin {
		return AdminLanding
	}
	return StudentLanding
}
