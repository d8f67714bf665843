package auth

import (
	"context"
	"errors"

	"ecadmin/internal/apperror"
	"ecadmin/internal/domain/model"
	"ecadmin/internal/repository"
)

var (
	ErrNoToken      = apperror.Unauthorized("Unauthorized request")
	ErrInvalidToken = apperror.Unauthorized("Invalid Access Token")
)

// IdentityResolver はaccess tokenから現在の会員を引く。
type IdentityResolver struct {
	users  repository.UserRepository
	tokens TokenCodec
}

// DI
func NewIdentityResolver(users repository.UserRepository, tokens TokenCodec) *IdentityResolver {
	return &IdentityResolver{users: users, tokens: tokens}
}

// Resolve は毎回DBから会員を引き直す（tokenのclaimsは信用しない）。
// 署名不正・期限切れ・会員削除済みはすべて同じErrInvalidToken。
func (r *IdentityResolver) Resolve(ctx context.Context, raw string) (*model.User, error) {
	if raw == "" {
		return nil, ErrNoToken
	}

	userID, err := r.tokens.ParseAccess(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, apperror.Internal(err)
	}

	return user.Sanitized(), nil
}
