package auth

import (
	"context"
	"testing"

	"librarygql/internal/apperr"
	"librarygql/internal/entity"
	"librarygql/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func newTestService(t *testing.T) (*Service, entity.User) {
	t.Helper()
	users := store.NewMemory().Users()

	hash, err := HashPassword("secret")
	require.NoError(t, err)
	u := entity.User{Username: "alice", FavoriteGenre: "scifi", PasswordHash: hash}
	require.NoError(t, users.Create(context.Background(), &u))

	return NewService(testSecret, 0, users), u
}

func TestService_Login(t *testing.T) {
	svc, alice := newTestService(t)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		token, err := svc.Login(ctx, "alice", "secret")
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := svc.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, claims.UserID)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "wrong")
		assert.True(t, apperr.IsValidation(err))
		assert.EqualError(t, err, "wrong credentials")
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody", "secret")
		assert.True(t, apperr.IsValidation(err))
		assert.EqualError(t, err, "wrong credentials")
	})
}

func TestService_ResolveCurrentUser(t *testing.T) {
	svc, alice := newTestService(t)
	ctx := context.Background()

	token, err := svc.IssueToken(alice)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantUser bool
		wantErr  bool
	}{
		{name: "empty header", header: ""},
		{name: "basic scheme", header: "Basic YWxpY2U6c2VjcmV0"},
		{name: "bearer", header: "Bearer " + token, wantUser: true},
		{name: "lowercase bearer", header: "bearer " + token, wantUser: true},
		{name: "garbage token", header: "Bearer not-a-token", wantErr: true},
		{name: "empty token", header: "Bearer ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.ResolveCurrentUser(ctx, tt.header)
			if tt.wantErr {
				assert.True(t, apperr.IsAuthentication(err))
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			if tt.wantUser {
				require.NotNil(t, u)
				assert.Equal(t, alice.ID, u.ID)
			} else {
				assert.Nil(t, u)
			}
		})
	}

	t.Run("token of a deleted user is anonymous", func(t *testing.T) {
		ghost, err := GenerateToken(testSecret, "ghost", "ffffffffffffffffffffffff", 0)
		require.NoError(t, err)
		u, err := svc.ResolveCurrentUser(ctx, "Bearer "+ghost)
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		forged, err := GenerateToken("other", alice.Username, alice.ID, 0)
		require.NoError(t, err)
		_, err = svc.ResolveCurrentUser(ctx, "Bearer "+forged)
		assert.True(t, apperr.IsAuthentication(err))
	})
}
