package auth

import (
	"context"
	"errors"

	"ecadmin/internal/apperror"
	"ecadmin/internal/repository"
)

type LogoutUsecase struct {
	users repository.UserRepository
}

func NewLogoutUsecase(users repository.UserRepository) *LogoutUsecase {
	return &LogoutUsecase{users: users}
}

// refreshを削除（失効）。発行済みaccess tokenは期限まで有効なまま。
func (u *LogoutUsecase) Execute(ctx context.Context, userID string) error {
	if err := u.users.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidToken
		}
		return apperror.Internal(err)
	}
	return nil
}
