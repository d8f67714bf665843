package repository

import (
	"context"
	"errors"

	"ecadmin/internal/domain/model"
)

var (
	// ユーザーが見つかりませんを統一
	ErrUserNotFound = errors.New("user not found")
	// email / username の重複
	ErrDuplicateUser = errors.New("user already exists")
)

// プロフィール更新の差分。nilは変更なし。
type UserPatch struct {
	Email        *string
	Username     *string
	PasswordHash *string
	IsAdmin      *bool
}

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（重複はErrDuplicateUser）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// email か username のどちらかが使われているか。excludeIDのユーザーは除く。
	ExistsByEmailOrUsername(ctx context.Context, email, username, excludeID string) (bool, error)
	// 全件取得
	List(ctx context.Context) ([]model.User, error)
	// 差分更新して更新後を返す
	Update(ctx context.Context, userID string, patch UserPatch) (*model.User, error)
	// refresh tokenを上書き（nilで削除）。1行の更新なので最後の書き込みが勝つ。
	SetRefreshToken(ctx context.Context, userID string, token *string) error
	Delete(ctx context.Context, userID string) error
}
