package auth

import (
	"context"
	"errors"
	"testing"

	"ecadmin/internal/apperror"
	"ecadmin/internal/domain/model"
	"ecadmin/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLoginUC(t *testing.T, users *repotest.Users, limiter LoginLimiter) *LoginUsecase {
	t.Helper()
	return NewLoginUsecase(newCredentialStore(users), NewTokenIssuer(users, testTokens()), limiter, testLogger())
}

func seedAlice(t *testing.T, users *repotest.Users) {
	t.Helper()
	users.Put(model.User{ID: "u1", Email: "a@b.com", Username: "alice", PasswordHash: mustHash(t, "secret1")})
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	users := repotest.NewUsers()
	seedAlice(t, users)

	limiter := new(MockLoginLimiter)
	limiter.On("Check", mock.Anything, "a@b.com", "1.2.3.4").Return(nil)
	limiter.On("Reset", mock.Anything, "a@b.com", "1.2.3.4").Return(nil)

	out, err := newLoginUC(t, users, limiter).Execute(ctx, LoginInput{Email: "a@b.com", Password: "secret1", IP: "1.2.3.4"})
	require.NoError(t, err)

	assert.Equal(t, "u1", out.User.ID)
	assert.Empty(t, out.User.PasswordHash)
	assert.Nil(t, out.User.RefreshToken)
	assert.NotEmpty(t, out.Tokens.AccessToken)

	stored, _ := users.Get("u1")
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, out.Tokens.RefreshToken, *stored.RefreshToken)

	limiter.AssertExpectations(t)
}

// パスワード違い => refreshは書かれない
func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	users := repotest.NewUsers()
	seedAlice(t, users)

	limiter := new(MockLoginLimiter)
	limiter.On("Check", mock.Anything, "a@b.com", "").Return(nil)
	limiter.On("RecordFailure", mock.Anything, "a@b.com", "").Return(nil)

	_, err := newLoginUC(t, users, limiter).Execute(ctx, LoginInput{Email: "a@b.com", Password: "wrong1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	stored, _ := users.Get("u1")
	assert.Nil(t, stored.RefreshToken)

	limiter.AssertExpectations(t)
	limiter.AssertNotCalled(t, "Reset", mock.Anything, mock.Anything, mock.Anything)
}

// emailなしもパスワード違いと同じエラー
func TestLogin_UnknownEmail_SameError(t *testing.T) {
	ctx := context.Background()
	users := repotest.NewUsers()

	limiter := new(MockLoginLimiter)
	limiter.On("Check", mock.Anything, "x@b.com", "").Return(nil)
	limiter.On("RecordFailure", mock.Anything, "x@b.com", "").Return(nil)

	_, err := newLoginUC(t, users, limiter).Execute(ctx, LoginInput{Email: "x@b.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, apperror.KindInvalidCredentials, apperror.KindOf(err))
}

func TestLogin_RateLimited(t *testing.T) {
	ctx := context.Background()
	users := repotest.NewUsers()
	seedAlice(t, users)

	limiter := new(MockLoginLimiter)
	limiter.On("Check", mock.Anything, "a@b.com", "").Return(ErrTooManyAttempts)

	_, err := newLoginUC(t, users, limiter).Execute(ctx, LoginInput{Email: "a@b.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	stored, _ := users.Get("u1")
	assert.Nil(t, stored.RefreshToken)
}

// Redis障害はログインを止めない
func TestLogin_LimiterUnavailable_FailsOpen(t *testing.T) {
	ctx := context.Background()
	users := repotest.NewUsers()
	seedAlice(t, users)

	limiter := new(MockLoginLimiter)
	limiter.On("Check", mock.Anything, "a@b.com", "").Return(errors.New("redis down"))
	limiter.On("Reset", mock.Anything, "a@b.com", "").Return(errors.New("redis down"))

	out, err := newLoginUC(t, users, limiter).Execute(ctx, LoginInput{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", out.User.ID)
}

func TestRegister_IssuesTokens(t *testing.T) {
	ctx := context.Background()
	users := repotest.NewUsers()

	uc := NewRegisterUserUsecase(newCredentialStore(users), NewTokenIssuer(users, testTokens()))

	out, err := uc.Execute(ctx, RegisterUserInput{Email: "a@b.com", Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", out.User.Email)
	assert.Empty(t, out.User.PasswordHash)
	assert.NotEmpty(t, out.Tokens.AccessToken)

	stored, ok := users.Get(out.User.ID)
	require.True(t, ok)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, out.Tokens.RefreshToken, *stored.RefreshToken)

	_, err = uc.Execute(ctx, RegisterUserInput{Email: "other@b.com", Username: "alice", Password: "secret1"})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

// refreshの保存に失敗 => 作った会員は消える
func TestRegister_IssueFailure_DiscardsUser(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)

	var created *model.User
	users.On("ExistsByEmailOrUsername", mock.Anything, "a@b.com", "alice", "").Return(false, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*model.User) }).
		Return(nil)
	users.On("SetRefreshToken", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(errors.New("db down"))
	users.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	uc := NewRegisterUserUsecase(newCredentialStore(users), NewTokenIssuer(users, testTokens()))

	out, err := uc.Execute(ctx, RegisterUserInput{Email: "a@b.com", Username: "alice", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	assert.Nil(t, out.User)

	require.NotNil(t, created)
	users.AssertCalled(t, "Delete", mock.Anything, created.ID)
	users.AssertExpectations(t)
}

// 取り消し自体も失敗した場合は両方のエラーを返す
func TestRegister_IssueFailure_DiscardFails(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)

	issueErr := errors.New("db down")
	discardErr := errors.New("delete failed")
	users.On("ExistsByEmailOrUsername", mock.Anything, "a@b.com", "alice", "").Return(false, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
	users.On("SetRefreshToken", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(issueErr)
	users.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(discardErr)

	uc := NewRegisterUserUsecase(newCredentialStore(users), NewTokenIssuer(users, testTokens()))

	_, err := uc.Execute(ctx, RegisterUserInput{Email: "a@b.com", Username: "alice", Password: "secret1"})
	assert.ErrorIs(t, err, issueErr)
	assert.ErrorIs(t, err, discardErr)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	users.AssertExpectations(t)
}

// 既に消えている会員の取り消しは成功扱い
func TestCredentialStore_Discard_Missing(t *testing.T) {
	err := newCredentialStore(repotest.NewUsers()).Discard(context.Background(), "missing")
	assert.NoError(t, err)
}

func TestLogout_UnknownUser(t *testing.T) {
	err := NewLogoutUsecase(repotest.NewUsers()).Execute(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
