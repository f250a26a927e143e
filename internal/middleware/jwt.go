package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examforge/internal/guard"
	"github.com/stemsi/examforge/internal/identity"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/response"
	"github.com/stemsi/examforge/internal/session"
)

const (
	// ContextKeyClaims is the Gin context key for verified token claims.
	ContextKeyClaims = "claims"
	// ContextKeyUser is the Gin context key for the signed-in user.
	ContextKeyUser = "user"
	// ContextKeyRole is the Gin context key for the resolved role.
	ContextKeyRole = "role"
)

// TokenVerifier checks a bearer token and its session.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Claims, error)
}

// RequireSession admits requests carrying a live session token, from the
// Authorization header or the ?token= query (WebSocket clients cannot send
// headers). Rejections point the client at the login route.
func RequireSession(verifier TokenVerifier, hub *session.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			abortToLogin(c, response.ErrTokenRequired)
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			code := response.ErrTokenInvalid
			if errors.Is(err, identity.ErrSessionRevoked) {
				code = response.ErrSessionInvalidated
			}
			abortToLogin(c, code)
			return
		}

		user := &session.User{UID: claims.UID, Email: claims.Email}
		if current, ok := hub.Current(claims.UID); ok {
			user = current
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// GetClaims retrieves the token claims from the Gin context.
func GetClaims(c *gin.Context) *identity.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*identity.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetUser retrieves the signed-in user from the Gin context.
func GetUser(c *gin.Context) *session.User {
	val, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, _ := val.(*session.User)
	return user
}

// GetRole retrieves the role resolved by the role guard.
func GetRole(c *gin.Context) model.Role {
	role, _ := c.Get(ContextKeyRole)
	r, _ := role.(model.Role)
	return r
}

func bearerToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Query("token")
}

func abortToLogin(c *gin.Context, code response.ErrCode) {
	d := guard.Decide(guard.State{}, guard.RequireSession)
	response.AbortFailWithFields(c, http.StatusUnauthorized, code, map[string]string{"redirect": d.Landing})
}
