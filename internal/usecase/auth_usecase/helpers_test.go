package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"ecadmin/internal/domain/model"
	"ecadmin/internal/repository"
	"ecadmin/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username, excludeID string) (bool, error) {
	args := m.Called(ctx, email, username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	us, _ := args.Get(0).([]model.User)
	return us, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id string, patch repository.UserPatch) (*model.User, error) {
	args := m.Called(ctx, id, patch)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =====================
// Mock: LoginLimiter
// =====================

type MockLoginLimiter struct {
	mock.Mock
}

func (m *MockLoginLimiter) Check(ctx context.Context, email, ip string) error {
	return m.Called(ctx, email, ip).Error(0)
}

func (m *MockLoginLimiter) RecordFailure(ctx context.Context, email, ip string) error {
	return m.Called(ctx, email, ip).Error(0)
}

func (m *MockLoginLimiter) Reset(ctx context.Context, email, ip string) error {
	return m.Called(ctx, email, ip).Error(0)
}

// =====================
// helper
// =====================

type uuidGen struct{}

func (uuidGen) NewID() string { return uuid.NewString() }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func testHasher() *BcryptPasswordHasher {
	return NewBcryptPasswordHasher(bcrypt.MinCost)
}

func testTokens() *token.Manager {
	return token.NewManager(token.Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := testHasher().Hash(plain)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return h
}

func newCredentialStore(users repository.UserRepository) *CredentialStore {
	return NewCredentialStore(users, testHasher(), uuidGen{}, fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
}
