package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/examforge/internal/config"
	"github.com/stemsi/examforge/internal/docstore"
	"github.com/stemsi/examforge/internal/session"
	"github.com/stemsi/examforge/internal/validator"
	"golang.org/x/crypto/bcrypt"
)

const (
	credentialsCollection = "credentials"
	accountsCollection    = "accounts"
)

// credential is keyed by normalized email.
type credential struct {
	UID          string    `json:"uid"`
	PasswordHash string    `json:"password_hash"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// account is keyed by UID.
type account struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// LocalProvider keeps credentials in the document store, hashes passwords
// with bcrypt and issues HS256 tokens whose sessions live in a SessionStore.
type LocalProvider struct {
	cfg      *config.Config
	store    docstore.Store
	sessions SessionStore
	hub      *session.Hub
	log      zerolog.Logger
}

// NewLocalProvider creates a new LocalProvider.
func NewLocalProvider(cfg *config.Config, store docstore.Store, sessions SessionStore, hub *session.Hub, log zerolog.Logger) *LocalProvider {
	return &LocalProvider{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		hub:      hub,
		log:      log.With().Str("component", "identity").Logger(),
	}
}

// SignUp creates an account and signs it in.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if !validator.IsValidEmail(email) {
		return nil, newError(CodeInvalidEmail)
	}
	if !validator.IsValidPassword(password) {
		return nil, newError(CodeWeakPassword)
	}

	var existing credential
	switch err := p.store.Get(ctx, credentialsCollection, email, &existing); {
	case err == nil:
		return nil, newError(CodeEmailAlreadyInUse)
	case !errors.Is(err, docstore.ErrNotFound):
		return nil, fmt.Errorf("lookup credential: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct := account{UID: uuid.NewString(), Email: email}
	cred := credential{UID: acct.UID, PasswordHash: string(hash), CreatedAt: time.Now().UTC()}
	// A credential never exists without its account.
	if err := p.store.Set(ctx, accountsCollection, acct.UID, acct); err != nil {
		return nil, fmt.Errorf("store account: %w", err)
	}
	if err := p.store.Insert(ctx, credentialsCollection, email, cred); err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return nil, newError(CodeEmailAlreadyInUse)
		}
		return nil, fmt.Errorf("store credential: %w", err)
	}

	p.log.Info().Str("uid", acct.UID).Msg("Account created")
	return p.issue(ctx, acct)
}

// SignIn checks the password and issues a new session. Unknown emails and
// wrong passwords fail identically.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if !validator.IsValidEmail(email) {
		return nil, newError(CodeInvalidEmail)
	}

	var cred credential
	if err := p.store.Get(ctx, credentialsCollection, email, &cred); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, newError(CodeInvalidCredential)
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, newError(CodeInvalidCredential)
	}
	if cred.Disabled {
		return nil, newError(CodeUserDisabled)
	}

	acct := account{UID: cred.UID, Email: email}
	if err := p.store.Get(ctx, accountsCollection, cred.UID, &acct); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return p.issue(ctx, acct)
}

// UpdateDisplayName changes the account's display name.
func (p *LocalProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	var acct account
	if err := p.store.Get(ctx, accountsCollection, uid, &acct); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return newError(CodeUserNotFound)
		}
		return fmt.Errorf("load account: %w", err)
	}

	acct.DisplayName = displayName
	if err := p.store.Set(ctx, accountsCollection, uid, acct, docstore.Merge()); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	p.publish(acct)
	return nil
}

// SignOut ends one session. The user is reported signed out only once their
// last session is gone.
func (p *LocalProvider) SignOut(ctx context.Context, uid, sessionID string) error {
	if err := p.sessions.Delete(ctx, uid, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	active, err := p.sessions.Active(ctx, uid)
	if err != nil {
		p.log.Warn().Err(err).Str("uid", uid).Msg("Session scan failed, keeping user signed in")
		return nil
	}
	if !active {
		p.hub.Publish(session.Event{UID: uid})
	}
	return nil
}

// Verify parses a token and checks its session is still live.
func (p *LocalProvider) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(p.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UID == "" {
		return nil, errors.New("invalid token claims")
	}

	live, err := p.sessions.Exists(ctx, claims.UID, claims.ID)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

func (p *LocalProvider) issue(ctx context.Context, acct account) (*Session, error) {
	jti := uuid.NewString()
	now := time.Now()
	expires := now.Add(p.cfg.JWTExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   acct.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		UID:   acct.UID,
		Email: acct.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	if err := p.sessions.Save(ctx, acct.UID, jti, p.cfg.JWTExpiry); err != nil {
		return nil, err
	}

	p.publish(acct)
	return &Session{
		UID:         acct.UID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		Token:       signed,
		SessionID:   jti,
		ExpiresAt:   expires,
	}, nil
}

func (p *LocalProvider) publish(acct account) {
	p.hub.Publish(session.Event{
		UID:  acct.UID,
		User: &session.User{UID: acct.UID, Email: acct.Email, DisplayName: acct.DisplayName},
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
