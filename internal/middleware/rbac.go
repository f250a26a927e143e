package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examforge/internal/guard"
	"github.com/stemsi/examforge/internal/profile"
	"github.com/stemsi/examforge/internal/response"
	"github.com/stemsi/examforge/internal/session"
)

// RoleResolver resolves the role of a signed-in user.
type RoleResolver interface {
	Resolve(ctx context.Context, user *session.User) profile.State
}

// RequireAdmin admits admins. Everyone else is sent to their own landing route.
func RequireAdmin(resolver RoleResolver) gin.HandlerFunc {
	return RequireRole(resolver, guard.RequireAdmin)
}

// RequireStudent admits students. Admins are sent to the admin landing route.
func RequireStudent(resolver RoleResolver) gin.HandlerFunc {
	return RequireRole(resolver, guard.RequireStudent)
}

// RequireRole runs the route guard for req. It must follow RequireSession.
func RequireRole(resolver RoleResolver, req guard.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)

		var st profile.State
		if user != nil {
			st = resolver.Resolve(c.Request.Context(), user)
		}

		d := guard.Decide(guard.State{User: user, RoleLoading: st.Loading, Role: st.Role}, req)
		switch d.Kind {
		case guard.Pending:
			c.Header("Retry-After", "1")
			response.AbortFail(c, http.StatusServiceUnavailable, response.ErrAccessPending)
		case guard.RedirectLogin:
			response.AbortFailWithFields(c, http.StatusUnauthorized, response.ErrTokenRequired, map[string]string{"redirect": d.Landing})
		case guard.RedirectHome:
			code := response.ErrStudentAccessOnly
			if req == guard.RequireAdmin {
				code = response.ErrAdminAccessOnly
			}
			response.AbortFailWithFields(c, http.StatusForbidden, code, map[string]string{"redirect": d.Landing})
		default:
			c.Set(ContextKeyRole, st.Role)
			c.Next()
		}
	}
}
