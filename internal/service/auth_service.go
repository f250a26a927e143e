package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/examforge/internal/guard"
	"github.com/stemsi/examforge/internal/identity"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stemsi/examforge/internal/validator"
)

// Form messages for the register and login screens.
const (
	MsgNameTooShort     = "Name must be at least 2 characters long."
	MsgInvalidEmail     = "Please enter a valid email address."
	MsgPasswordTooShort = "Password must be at least 6 characters long."
)

const minNameLength = 2

// FormError rejects one form field before anything is sent to the provider.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string {
	return e.Message
}

// RoleLookup resolves the effective role for a UID.
type RoleLookup interface {
	Role(ctx context.Context, uid string) (model.Role, error)
}

// AuthResult is returned by register and login.
type AuthResult struct {
	*identity.Session
	Role     model.Role `json:"role"`
	Redirect string     `json:"redirect"`
}

// Profile is the signed-in user as the client sees it.
type Profile struct {
	UID         string     `json:"uid"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        model.Role `json:"role"`
	Landing     string     `json:"landing"`
}

// AuthService runs the register, login and profile flows on top of the
// identity provider and the users collection.
type AuthService struct {
	provider identity.Provider
	users    *repository.UserRepository
	roles    RoleLookup
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(provider identity.Provider, users *repository.UserRepository, roles RoleLookup, log zerolog.Logger) *AuthService {
	return &AuthService{
		provider: provider,
		users:    users,
		roles:    roles,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// Register creates the account, sets its display name and writes the
// profile document.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*AuthResult, error) {
	name := validator.SanitizeInput(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if len([]rune(name)) < minNameLength {
		return nil, &FormError{Field: "name", Message: MsgNameTooShort}
	}
	if !validator.IsValidEmail(email) {
		return nil, &FormError{Field: "email", Message: MsgInvalidEmail}
	}
	if !validator.IsValidPassword(req.Password) {
		return nil, &FormError{Field: "password", Message: MsgPasswordTooShort}
	}

	sess, err := s.provider.SignUp(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.provider.UpdateDisplayName(ctx, sess.UID, name); err != nil {
		return nil, err
	}
	sess.DisplayName = name

	if err := s.users.CreateUserDocument(ctx, sess.UID, sess.Email, name); err != nil {
		return nil, fmt.Errorf("create user document: %w", err)
	}

	s.log.Info().Str("uid", sess.UID).Msg("User registered")
	return s.result(ctx, sess), nil
}

// Login signs the user in.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*AuthResult, error) {
	if !validator.IsValidEmail(req.Email) {
		return nil, &FormError{Field: "email", Message: MsgInvalidEmail}
	}
	if !validator.IsValidPassword(req.Password) {
		return nil, &FormError{Field: "password", Message: MsgPasswordTooShort}
	}

	sess, err := s.provider.SignIn(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, err
	}
	return s.result(ctx, sess), nil
}

// Logout ends the session the request was made with.
func (s *AuthService) Logout(ctx context.Context, claims *identity.Claims) error {
	return s.provider.SignOut(ctx, claims.UID, claims.ID)
}

// Me returns the profile of the signed-in user. A missing profile document
// falls back to what the token carries.
func (s *AuthService) Me(ctx context.Context, uid, email, displayName string) (*Profile, error) {
	p := &Profile{UID: uid, Email: email, DisplayName: displayName}

	u, err := s.users.Get(ctx, uid)
	switch {
	case err == nil:
		p.Email = u.Email
		p.DisplayName = u.DisplayName
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	p.Role, _ = s.roles.Role(ctx, uid)
	p.Landing = guard.Landing(p.Role)
	return p, nil
}

// UpdateProfile changes the display name on the account and the profile.
func (s *AuthService) UpdateProfile(ctx context.Context, uid, displayName string) error {
	name := validator.SanitizeInput(displayName)
	if len([]rune(name)) < minNameLength {
		return &FormError{Field: "display_name", Message: MsgNameTooShort}
	}
	if err := s.provider.UpdateDisplayName(ctx, uid, name); err != nil {
		return err
	}
	return s.users.UpdateDisplayName(ctx, uid, name)
}

func (s *AuthService) result(ctx context.Context, sess *identity.Session) *AuthResult {
	role, _ := s.roles.Role(ctx, sess.UID)
	return &AuthResult{Session: sess, Role: role, Redirect: guard.Landing(role)}
}
