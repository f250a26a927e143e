package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examforge/internal/config"
	"github.com/stemsi/examforge/internal/docstore"
	"github.com/stemsi/examforge/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memorySessions struct {
	mu   sync.Mutex
	live map[string]bool
}

func newMemorySessions() *memorySessions {
	return &memorySessions{live: make(map[string]bool)}
}

func (m *memorySessions) Save(_ context.Context, uid, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[uid+"/"+jti] = true
	return nil
}

func (m *memorySessions) Exists(_ context.Context, uid, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[uid+"/"+jti], nil
}

func (m *memorySessions) Delete(_ context.Context, uid, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, uid+"/"+jti)
	return nil
}

func (m *memorySessions) Active(_ context.Context, uid string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, live := range m.live {
		if live && strings.HasPrefix(key, uid+"/") {
			return true, nil
		}
	}
	return false, nil
}

func newTestProvider(t *testing.T) (*LocalProvider, *session.Hub) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
	hub := session.NewHub()
	return NewLocalProvider(cfg, docstore.NewMemory(), newMemorySessions(), hub, zerolog.Nop()), hub
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"Wrong password", newError(CodeWrongPassword), "Incorrect password. Please try again."},
		{"Invalid credential", newError(CodeInvalidCredential), "Invalid email or password. Please check your credentials and try again."},
		{"Email in use", newError(CodeEmailAlreadyInUse), "An account with this email already exists."},
		{"Too many requests", newError(CodeTooManyRequests), "Too many failed attempts. Please try again later."},
		{"Wrapped code", errors.Join(errors.New("ctx"), newError(CodeUserDisabled)), "This account has been disabled."},
		{"Unknown code with message", &Error{Code: "auth/quota-exceeded", Message: "Quota exceeded."}, "Quota exceeded."},
		{"Unknown code without message", &Error{Code: "auth/quota-exceeded"}, FallbackMessage},
		{"Not a provider error", errors.New("dial tcp: refused"), FallbackMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Message(tc.err))
		})
	}
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(newError(CodeInvalidEmail)))
	assert.False(t, IsAuthError(&Error{Code: "storage/unknown"}))
	assert.False(t, IsAuthError(errors.New("plain")))
}

func TestLocalProvider_SignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	p, hub := newTestProvider(t)

	var events []session.Event
	hub.Subscribe(func(ev session.Event) { events = append(events, ev) })

	created, err := p.SignUp(ctx, "  Ada@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.NotEmpty(t, created.Token)

	claims, err := p.Verify(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.UID, claims.UID)

	signedIn, err := p.SignIn(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.UID, signedIn.UID)
	assert.NotEqual(t, created.SessionID, signedIn.SessionID)

	require.Len(t, events, 2)
	assert.True(t, events[0].SignedIn())
}

func TestLocalProvider_Failures(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	_, err := p.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	_, err = p.SignUp(ctx, "ada@example.com", "another1")
	assert.Equal(t, CodeEmailAlreadyInUse, CodeOf(err))

	_, err = p.SignUp(ctx, "not-an-email", "secret1")
	assert.Equal(t, CodeInvalidEmail, CodeOf(err))

	_, err = p.SignUp(ctx, "bob@example.com", "123")
	assert.Equal(t, CodeWeakPassword, CodeOf(err))

	_, err = p.SignIn(ctx, "ada@example.com", "wrong-password")
	assert.Equal(t, CodeInvalidCredential, CodeOf(err))

	_, err = p.SignIn(ctx, "nobody@example.com", "secret1")
	assert.Equal(t, CodeInvalidCredential, CodeOf(err))
	assert.Equal(t, "Invalid email or password. Please check your credentials and try again.", Message(err))
}

func TestLocalProvider_SignOutRevokesToken(t *testing.T) {
	ctx := context.Background()
	p, hub := newTestProvider(t)

	s, err := p.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	_, ok := hub.Current(s.UID)
	require.True(t, ok)

	require.NoError(t, p.SignOut(ctx, s.UID, s.SessionID))

	_, err = p.Verify(ctx, s.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
	_, ok = hub.Current(s.UID)
	assert.False(t, ok)
}

func TestLocalProvider_SignOutKeepsUserWhileOtherSessionsLive(t *testing.T) {
	ctx := context.Background()
	p, hub := newTestProvider(t)

	laptop, err := p.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	phone, err := p.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	var events []session.Event
	unsubscribe := hub.Subscribe(func(ev session.Event) { events = append(events, ev) })
	defer unsubscribe()

	require.NoError(t, p.SignOut(ctx, laptop.UID, laptop.SessionID))
	_, ok := hub.Current(laptop.UID)
	assert.True(t, ok)
	assert.Empty(t, events)

	_, err = p.Verify(ctx, phone.Token)
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, phone.UID, phone.SessionID))
	_, ok = hub.Current(phone.UID)
	assert.False(t, ok)
	require.Len(t, events, 1)
	assert.False(t, events[0].SignedIn())
}

// failingAccounts refuses account writes until healed.
type failingAccounts struct {
	*docstore.Memory
	broken bool
}

func (f *failingAccounts) Set(ctx context.Context, collection, id string, doc any, opts ...docstore.SetOption) error {
	if f.broken && collection == accountsCollection {
		return errors.New("unavailable")
	}
	return f.Memory.Set(ctx, collection, id, doc, opts...)
}

func TestLocalProvider_SignUpRetryAfterAccountWriteFailure(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: bcrypt.MinCost}
	store := &failingAccounts{Memory: docstore.NewMemory(), broken: true}
	p := NewLocalProvider(cfg, store, newMemorySessions(), session.NewHub(), zerolog.Nop())

	_, err := p.SignUp(ctx, "ada@example.com", "secret1")
	require.Error(t, err)
	assert.False(t, IsAuthError(err))

	store.broken = false
	s, err := p.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
}

func TestLocalProvider_VerifyRejectsForeignToken(t *testing.T) {
	p, _ := newTestProvider(t)
	_, err := p.Verify(context.Background(), "not.a.token")
	assert.Error(t, err)
}

func TestLocalProvider_UpdateDisplayName(t *testing.T) {
	ctx := context.Background()
	p, hub := newTestProvider(t)

	s, err := p.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, p.UpdateDisplayName(ctx, s.UID, "Ada Lovelace"))

	u, ok := hub.Current(s.UID)
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", u.DisplayName)

	again, err := p.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", again.DisplayName)

	err = p.UpdateDisplayName(ctx, "ghost", "Nobody")
	assert.Equal(t, CodeUserNotFound, CodeOf(err))
}

func TestRedisSessionStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisSessionStore(db)
	ctx := context.Background()
	key := config.CacheKey.SessionKey("u1", "j1")

	mock.ExpectSet(key, "1", time.Hour).SetVal("OK")
	require.NoError(t, store.Save(ctx, "u1", "j1", time.Hour))

	mock.ExpectExists(key).SetVal(1)
	live, err := store.Exists(ctx, "u1", "j1")
	require.NoError(t, err)
	assert.True(t, live)

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, store.Delete(ctx, "u1", "j1"))

	mock.ExpectExists(key).SetVal(0)
	live, err = store.Exists(ctx, "u1", "j1")
	require.NoError(t, err)
	assert.False(t, live)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSessionStore_Active(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisSessionStore(db)
	ctx := context.Background()
	pattern := config.CacheKey.SessionPattern("u1")

	mock.ExpectScan(0, pattern, sessionScanCount).SetVal([]string{}, 42)
	mock.ExpectScan(42, pattern, sessionScanCount).SetVal([]string{config.CacheKey.SessionKey("u1", "j2")}, 0)
	active, err := store.Active(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, active)

	mock.ExpectScan(0, pattern, sessionScanCount).SetVal([]string{}, 0)
	active, err = store.Active(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, active)

	assert.NoError(t, mock.ExpectationsWereMet())
}
