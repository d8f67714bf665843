package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecadmin/internal/domain/model"
	domainrepo "ecadmin/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// unique_violation
const pgUniqueViolation = "23505"

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return domainrepo.ErrDuplicateUser
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// emailでユーザーを1件取得
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userGormRepository) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where(query, arg).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &u, nil
}

// 空文字の条件は無視する
func (r *userGormRepository) ExistsByEmailOrUsername(ctx context.Context, email, username, excludeID string) (bool, error) {
	if email == "" && username == "" {
		return false, nil
	}

	q := r.db.WithContext(ctx).Model(&model.User{})
	switch {
	case email != "" && username != "":
		q = q.Where("(email = ? OR username = ?)", email, username)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		q = q.Where("username = ?", username)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// 新しい順
func (r *userGormRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// 差分だけ更新する
func (r *userGormRepository) Update(ctx context.Context, id string, patch domainrepo.UserPatch) (*model.User, error) {
	changes := map[string]any{}
	if patch.Email != nil {
		changes["email"] = *patch.Email
	}
	if patch.Username != nil {
		changes["username"] = *patch.Username
	}
	if patch.PasswordHash != nil {
		changes["password_hash"] = *patch.PasswordHash
	}
	if patch.IsAdmin != nil {
		changes["is_admin"] = *patch.IsAdmin
	}

	if len(changes) > 0 {
		changes["updated_at"] = time.Now()
		if err := r.updateColumns(ctx, id, changes); err != nil {
			return nil, err
		}
	}

	return r.FindByID(ctx, id)
}

// refresh_tokenを上書き（nilならNULL）
func (r *userGormRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	return r.updateColumns(ctx, id, map[string]any{
		"refresh_token": token,
		"updated_at":    time.Now(),
	})
}

func (r *userGormRepository) updateColumns(ctx context.Context, id string, changes map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(changes)

	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domainrepo.ErrDuplicateUser
		}
		return fmt.Errorf("update user: %w", res.Error)
	}

	// 0件更新は「対象がない」
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

func (r *userGormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.User{})

	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
