package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-approval/internal/application/port/porttest"
	"github.com/garyjia/expense-approval/internal/domain/apperr"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

const testSecret = "test-secret-with-enough-entropy"

func withCreds(c Credentials) context.Context {
	return WithCredentials(context.Background(), c)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, "expense-approval", time.Hour)
	user := &entity.User{ID: 5, Role: entity.RoleManager}

	token, err := svc.Issue(user)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(5), claims.UserID)
	assert.Equal(t, "MANAGER", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenService_Rejects(t *testing.T) {
	issued := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	svc := NewTokenService(testSecret, "expense-approval", time.Hour)
	svc.now = func() time.Time { return issued }
	token, err := svc.Issue(&entity.User{ID: 1, Role: entity.RoleEmployee})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewTokenService(testSecret, "expense-approval", time.Hour)
		later.now = func() time.Time { return issued.Add(2 * time.Hour) }
		_, err := later.Validate(token)
		require.ErrorIs(t, err, apperr.ErrUnauthenticated)
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService("another-secret", "expense-approval", time.Hour)
		other.now = svc.now
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenService(testSecret, "someone-else", time.Hour)
		other.now = svc.now
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7, Role: "FINANCE"})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.Validate(raw)
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not.a.token")
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})
}

func TestJWTResolver(t *testing.T) {
	store := porttest.NewStore(porttest.DefaultUsers()...)
	tokens := NewTokenService(testSecret, "expense-approval", time.Hour)
	resolver := NewJWTResolver(tokens, store.Users())

	t.Run("resolves the stored user", func(t *testing.T) {
		token, err := tokens.Issue(&entity.User{ID: 7, Role: entity.RoleFinance})
		require.NoError(t, err)

		actor, err := resolver.ResolveActor(withCreds(Credentials{BearerToken: token}))
		require.NoError(t, err)
		assert.Equal(t, "David Brown", actor.FullName)
		assert.Equal(t, entity.RoleFinance, actor.Role)
	})

	t.Run("role mismatch is rejected", func(t *testing.T) {
		token, err := tokens.Issue(&entity.User{ID: 1, Role: entity.RoleFinance})
		require.NoError(t, err)

		_, err = resolver.ResolveActor(withCreds(Credentials{BearerToken: token}))
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("unknown user is rejected", func(t *testing.T) {
		token, err := tokens.Issue(&entity.User{ID: 404, Role: entity.RoleEmployee})
		require.NoError(t, err)

		_, err = resolver.ResolveActor(withCreds(Credentials{BearerToken: token}))
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("no token", func(t *testing.T) {
		_, err := resolver.ResolveActor(context.Background())
		assert.ErrorIs(t, err, ErrNoCredentials)
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})
}

func TestDevHeaderResolver(t *testing.T) {
	store := porttest.NewStore(porttest.DefaultUsers()...)
	resolver := NewDevHeaderResolver(store.Users())

	tests := []struct {
		name    string
		creds   Credentials
		wantID  int64
		wantErr error
	}{
		{"user id header", Credentials{DevUserID: "2"}, 2, nil},
		{"user id wins over role", Credentials{DevUserID: "6", DevRole: "FINANCE"}, 6, nil},
		{"role maps to default user", Credentials{DevRole: "manager"}, 5, nil},
		{"finance role", Credentials{DevRole: "FINANCE"}, 7, nil},
		{"unknown role", Credentials{DevRole: "CEO"}, 0, apperr.ErrUnauthenticated},
		{"bad id", Credentials{DevUserID: "abc"}, 0, apperr.ErrUnauthenticated},
		{"missing user", Credentials{DevUserID: "99"}, 0, apperr.ErrUnauthenticated},
		{"no headers", Credentials{}, 0, ErrNoCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor, err := resolver.ResolveActor(withCreds(tt.creds))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, actor.UserID)
		})
	}
}

func TestChainResolver(t *testing.T) {
	store := porttest.NewStore(porttest.DefaultUsers()...)
	tokens := NewTokenService(testSecret, "expense-approval", time.Hour)
	chain := ChainResolver{NewJWTResolver(tokens, store.Users()), NewDevHeaderResolver(store.Users())}

	t.Run("falls through to dev headers", func(t *testing.T) {
		actor, err := chain.ResolveActor(withCreds(Credentials{DevRole: "EMPLOYEE"}))
		require.NoError(t, err)
		assert.Equal(t, int64(1), actor.UserID)
	})

	t.Run("bad token does not fall through", func(t *testing.T) {
		_, err := chain.ResolveActor(withCreds(Credentials{BearerToken: "bogus", DevRole: "FINANCE"}))
		require.ErrorIs(t, err, apperr.ErrUnauthenticated)
		assert.NotErrorIs(t, err, ErrNoCredentials)
	})

	t.Run("nothing supplied", func(t *testing.T) {
		_, err := chain.ResolveActor(context.Background())
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})
}
