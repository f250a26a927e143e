// Package identity signs users up and in, issues bearer tokens and reports
// failures with provider error codes.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrSessionRevoked is returned by Verify for a token whose session ended.
var ErrSessionRevoked = errors.New("session revoked")

// Claims is the JWT payload of an issued token.
type Claims struct {
	jwt.RegisteredClaims
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Token       string    `json:"token"`
	SessionID   string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Provider is the identity backend contract. Session changes are announced
// on the session hub the provider was built with.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	SignOut(ctx context.Context, uid, sessionID string) error
	Verify(ctx context.Context, token string) (*Claims, error)
}
