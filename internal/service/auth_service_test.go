package service

import (
	"context"
	"testing"
	"time"

	"github.com/stemsi/examforge/internal/config"
	"github.com/stemsi/examforge/internal/docstore"
	"github.com/stemsi/examforge/internal/identity"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stemsi/examforge/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixedRoles map[string]model.Role

func (f fixedRoles) Role(_ context.Context, uid string) (model.Role, error) {
	if r, ok := f[uid]; ok {
		return r, nil
	}
	return model.RoleStudent, nil
}

func newAuthService(t *testing.T) (*AuthService, *repository.UserRepository, fixedRoles) {
	t.Helper()
	store := docstore.NewMemory()
	cfg := &config.Config{JWTSecret: "secret", JWTExpiry: time.Hour, BcryptCost: bcrypt.MinCost}
	provider := identity.NewLocalProvider(cfg, store, &memorySessions{}, session.NewHub(), nopLog)
	users := repository.NewUserRepository(store)
	roles := fixedRoles{}
	return NewAuthService(provider, users, roles, nopLog), users, roles
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _, _ := newAuthService(t)

	tests := []struct {
		name  string
		req   model.RegisterRequest
		field string
		msg   string
	}{
		{"Short name", model.RegisterRequest{Name: " <a> ", Email: "a@b.co", Password: "secret1"}, "name", MsgNameTooShort},
		{"Bad email", model.RegisterRequest{Name: "Ada", Email: "ada@", Password: "secret1"}, "email", MsgInvalidEmail},
		{"Short password", model.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "12345"}, "password", MsgPasswordTooShort},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			var fe *FormError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.field, fe.Field)
			assert.Equal(t, tc.msg, fe.Message)
		})
	}
}

func TestAuthService_RegisterCreatesProfile(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newAuthService(t)

	res, err := svc.Register(ctx, model.RegisterRequest{Name: "  Ada <Lovelace> ", Email: " Ada@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", res.DisplayName)
	assert.Equal(t, model.RoleStudent, res.Role)
	assert.Equal(t, "/dashboard", res.Redirect)
	assert.NotEmpty(t, res.Token)

	u, err := users.Get(ctx, res.UID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "Ada Lovelace", u.DisplayName)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = svc.Register(ctx, model.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	assert.Equal(t, "An account with this email already exists.", identity.Message(err))
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	svc, _, roles := newAuthService(t)

	reg, err := svc.Register(ctx, model.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	roles[reg.UID] = model.RoleAdmin

	res, err := svc.Login(ctx, model.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.Role)
	assert.Equal(t, "/admin", res.Redirect)

	_, err = svc.Login(ctx, model.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.Equal(t, "Invalid email or password. Please check your credentials and try again.", identity.Message(err))

	_, err = svc.Login(ctx, model.LoginRequest{Email: " ada@example.com", Password: "secret1"})
	var fe *FormError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, MsgInvalidEmail, fe.Message)

	_, err = svc.Login(ctx, model.LoginRequest{Email: "ada@example.com", Password: "123"})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, MsgPasswordTooShort, fe.Message)
}

func TestAuthService_MeAndUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuthService(t)

	reg, err := svc.Register(ctx, model.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateProfile(ctx, reg.UID, "Countess Ada"))

	me, err := svc.Me(ctx, reg.UID, reg.Email, "")
	require.NoError(t, err)
	assert.Equal(t, "Countess Ada", me.DisplayName)
	assert.Equal(t, model.RoleStudent, me.Role)
	assert.Equal(t, "/dashboard", me.Landing)

	err = svc.UpdateProfile(ctx, reg.UID, "A")
	var fe *FormError
	assert.ErrorAs(t, err, &fe)

	ghost, err := svc.Me(ctx, "ghost", "ghost@example.com", "Ghost")
	require.NoError(t, err)
	assert.Equal(t, "Ghost", ghost.DisplayName)
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	cfg := &config.Config{JWTSecret: "secret", JWTExpiry: time.Hour, BcryptCost: bcrypt.MinCost}
	provider := identity.NewLocalProvider(cfg, store, &memorySessions{}, session.NewHub(), nopLog)
	svc := NewAuthService(provider, repository.NewUserRepository(store), fixedRoles{}, nopLog)

	res, err := svc.Register(ctx, model.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	claims, err := provider.Verify(ctx, res.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	_, err = provider.Verify(ctx, res.Token)
	assert.ErrorIs(t, err, identity.ErrSessionRevoked)
}
