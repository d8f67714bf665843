package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecadmin/internal/apperror"
	"ecadmin/internal/domain/model"
	"ecadmin/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIdentityResolver_RoundTrip(t *testing.T) {
	ctx := context.Background()
	users := repotest.NewUsers()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u := model.User{
		ID: "u1", Email: "a@b.com", Username: "alice",
		PasswordHash: "hash", IsAdmin: true, CreatedAt: now, UpdatedAt: now,
	}
	users.Put(u)

	tokens := testTokens()
	pair, err := NewTokenIssuer(users, tokens).Issue(ctx, &u)
	require.NoError(t, err)

	got, err := NewIdentityResolver(users, tokens).Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)

	want := u
	want.PasswordHash = ""
	want.RefreshToken = nil
	assert.Equal(t, &want, got)
}

func TestIdentityResolver_NoToken(t *testing.T) {
	r := NewIdentityResolver(repotest.NewUsers(), testTokens())

	_, err := r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestIdentityResolver_InvalidToken(t *testing.T) {
	r := NewIdentityResolver(repotest.NewUsers(), testTokens())

	_, err := r.Resolve(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
}

// 削除後はまだ期限内のaccess tokenでも通らない
func TestIdentityResolver_DeletedUser(t *testing.T) {
	ctx := context.Background()
	users := repotest.NewUsers()
	users.Put(model.User{ID: "u1", Email: "a@b.com", Username: "alice"})

	tokens := testTokens()
	pair, err := tokens.NewPair("u1")
	require.NoError(t, err)

	r := NewIdentityResolver(users, tokens)
	_, err = r.Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, "u1"))

	_, err = r.Resolve(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityResolver_RepoError(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByID", mock.Anything, "u1").Return(nil, errors.New("db down"))

	tokens := testTokens()
	pair, err := tokens.NewPair("u1")
	require.NoError(t, err)

	_, err = NewIdentityResolver(users, tokens).Resolve(context.Background(), pair.AccessToken)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
}
