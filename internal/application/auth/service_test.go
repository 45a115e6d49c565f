package auth_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/escabi/escabiapi/internal/application"
	appauth "github.com/escabi/escabiapi/internal/application/auth"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/escabi/escabiapi/internal/infrastructure/memory"
	"github.com/escabi/escabiapi/internal/infrastructure/ratelimit"
	"github.com/escabi/escabiapi/internal/infrastructure/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string { return fmt.Sprintf("user-%d", s.n.Add(1)) }

func birth(yearsAgo int) *time.Time {
	b := time.Now().UTC().AddDate(-yearsAgo, 0, -1)
	return &b
}

type fixture struct {
	svc    *appauth.Service
	tokens *security.JWT
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens := security.NewJWT("test-secret", time.Minute)
	svc := appauth.NewService(
		memory.NewUserRepository(),
		security.Bcrypt{Cost: 4},
		tokens,
		ratelimit.NewMemory(5, time.Minute),
		&seqIDs{},
		nil,
		appauth.Config{MinimumAge: 18},
		application.NewInstrumentation(nil, "test"),
	)
	return &fixture{svc: svc, tokens: tokens}
}

func (f *fixture) register(t *testing.T, name string, b *time.Time) *domuser.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), domuser.NewUserParams{
		Username: name, Email: name + "@example.com", Password: "password123", BirthDate: b,
	})
	require.NoError(t, err)
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "ana", birth(30))
	assert.Equal(t, []domuser.Role{domuser.RoleCustomer}, u.Roles)
	assert.False(t, u.AgeVerified)
	assert.NotEqual(t, "password123", u.PasswordHash)

	tok, err := f.svc.Login(context.Background(), appauth.LoginInput{Login: "ana@example.com", Password: "password123", ClientIP: "1.1.1.1"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)

	id, err := f.tokens.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.False(t, id.AgeVerified)
}

func TestRegisterRejects(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ana", nil)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, domuser.NewUserParams{Username: "ana", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, appauth.ErrDuplicate)
	_, err = f.svc.Register(ctx, domuser.NewUserParams{Username: "bob", Email: "ANA@example.com", Password: "password123"})
	assert.ErrorIs(t, err, appauth.ErrDuplicate)
	_, err = f.svc.Register(ctx, domuser.NewUserParams{Username: "bob", Email: "bob@example.com", Password: "short"})
	assert.ErrorIs(t, err, appauth.ErrValidation)
}

func TestLoginFailuresAndRateLimit(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ana", nil)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, appauth.LoginInput{Login: "ana", Password: "wrong-password", ClientIP: "9.9.9.9"})
	assert.ErrorIs(t, err, domuser.ErrInvalidCredential)
	_, err = f.svc.Login(ctx, appauth.LoginInput{Login: "nobody", Password: "password123", ClientIP: "9.9.9.9"})
	assert.ErrorIs(t, err, domuser.ErrInvalidCredential)

	for i := 0; i < 3; i++ {
		_, err = f.svc.Login(ctx, appauth.LoginInput{Login: "ana", Password: "password123", ClientIP: "9.9.9.9"})
		require.NoError(t, err)
	}
	_, err = f.svc.Login(ctx, appauth.LoginInput{Login: "ana", Password: "password123", ClientIP: "9.9.9.9"})
	assert.ErrorIs(t, err, appauth.ErrRateLimited)

	_, err = f.svc.Login(ctx, appauth.LoginInput{Login: "ana", Password: "password123", ClientIP: "8.8.8.8"})
	assert.NoError(t, err)
}

func TestVerifyAge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	adult := f.register(t, "adult", birth(18))
	res, err := f.svc.VerifyAge(ctx, domuser.Identity{UserID: adult.ID})
	require.NoError(t, err)
	assert.True(t, res.User.AgeVerified)
	assert.Equal(t, 18, res.Age)
	id, err := f.tokens.Verify(res.Token.AccessToken)
	require.NoError(t, err)
	assert.True(t, id.AgeVerified)

	me, err := f.svc.Me(ctx, domuser.Identity{UserID: adult.ID})
	require.NoError(t, err)
	assert.True(t, me.AgeVerified)

	minor := f.register(t, "minor", birth(17))
	_, err = f.svc.VerifyAge(ctx, domuser.Identity{UserID: minor.ID})
	assert.ErrorIs(t, err, appauth.ErrUnderage)

	unknown := f.register(t, "nobirth", nil)
	_, err = f.svc.VerifyAge(ctx, domuser.Identity{UserID: unknown.ID})
	assert.ErrorIs(t, err, appauth.ErrValidation)
	assert.ErrorIs(t, err, appauth.ErrMissingBirth)

	assert.Equal(t, 18, f.svc.MinimumAge())
}
