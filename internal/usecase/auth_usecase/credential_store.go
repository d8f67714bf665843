package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ecadmin/internal/apperror"
	"ecadmin/internal/domain/model"
	"ecadmin/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	// 重複（email / username）
	ErrDuplicateIdentity = apperror.Conflict("User already exists")
	// emailに該当なし（外にはErrInvalidCredentialsとして見せる）
	ErrIdentityNotFound = apperror.NotFound("No user found")
	// メールまたはパスワードが違う
	ErrInvalidCredentials = apperror.New(apperror.KindInvalidCredentials, "Invalid user credentials")
)

// 平文パスワードからハッシュへ。比較もここ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain string, hashed string) bool
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// CredentialStore は会員の作成とパスワード照合を担当する。
type CredentialStore struct {
	users  repository.UserRepository
	hasher PasswordHasher
	idGen  IDGenerator
	clock  Clock

	dummyOnce sync.Once
	dummyHash string
}

// DI
func NewCredentialStore(
	users repository.UserRepository,
	hasher PasswordHasher,
	idGen IDGenerator,
	clock Clock,
) *CredentialStore {
	return &CredentialStore{
		users:  users,
		hasher: hasher,
		idGen:  idGen,
		clock:  clock,
	}
}

// Create はemail / usernameが未使用なら会員を作成する。
func (s *CredentialStore) Create(ctx context.Context, email, username, password string) (*model.User, error) {
	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)

	// email / username 重複チェック
	exists, err := s.users.ExistsByEmailOrUsername(ctx, email, username, "")
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if exists {
		return nil, ErrDuplicateIdentity
	}

	// パスワードをハッシュ化
	hashed, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &model.User{
		ID:           s.idGen.NewID(),
		Email:        email,
		Username:     username,
		PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
		IsAdmin:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// チェック後に別リクエストが先に作った場合もDBのunique indexで弾かれる
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrDuplicateIdentity
		}
		return nil, apperror.Internal(err)
	}

	return user, nil
}

// Discard は作成直後の会員を取り消す（登録の後続処理が失敗した時用）。
func (s *CredentialStore) Discard(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return apperror.Internal(err)
	}
	return nil
}

// FindByCredentials はemailとパスワードで会員を特定する。
func (s *CredentialStore) FindByCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// 存在しないemailでも同じだけbcryptを回す
			s.hasher.Verify(password, s.dummy())
			return nil, ErrIdentityNotFound
		}
		return nil, apperror.Internal(err)
	}

	if !s.VerifyPassword(user, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// VerifyPassword はハッシュ比較のみ（平文比較はしない）
func (s *CredentialStore) VerifyPassword(user *model.User, candidate string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return s.hasher.Verify(candidate, user.PasswordHash)
}

// HashPassword はプロフィール更新でも使う。
func (s *CredentialStore) HashPassword(password string) (string, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperror.Validation("password is too long")
		}
		return "", apperror.Internal(err)
	}
	return hashed, nil
}

func (s *CredentialStore) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

// bcryptでハッシュ化
func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// 平文(plain)をbcryptで比較
func (h *BcryptPasswordHasher) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
