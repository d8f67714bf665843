package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"ecadmin/internal/apperror"
	"ecadmin/internal/domain/model"
	"ecadmin/internal/repository"
	"ecadmin/internal/token"
)

// JWTを発行・検証する約束
type TokenCodec interface {
	NewPair(userID string) (token.Pair, error)
	ParseAccess(raw string) (string, error)
	ParseRefresh(raw string) (string, error)
}

// TokenIssuer はaccess / refreshを発行し、refreshを会員レコードに保存する。
type TokenIssuer struct {
	users  repository.UserRepository
	tokens TokenCodec
}

// DI
func NewTokenIssuer(users repository.UserRepository, tokens TokenCodec) *TokenIssuer {
	return &TokenIssuer{users: users, tokens: tokens}
}

// Issue は前回のrefreshを無条件に上書きする。
// 同じ会員の同時ログインは最後に書いた方が残り、他方のrefreshは無効になる。
func (i *TokenIssuer) Issue(ctx context.Context, user *model.User) (token.Pair, error) {
	pair, err := i.tokens.NewPair(user.ID)
	if err != nil {
		return token.Pair{}, apperror.Internal(err)
	}

	refresh := pair.RefreshToken
	if err := i.users.SetRefreshToken(ctx, user.ID, &refresh); err != nil {
		return token.Pair{}, apperror.Internal(err)
	}
	return pair, nil
}

// VerifyRefresh は署名・期限に加え、会員レコードに保存中のrefreshと一致するかを見る。
// 更新エンドポイントは公開していない。
func (i *TokenIssuer) VerifyRefresh(ctx context.Context, raw string) (*model.User, error) {
	userID, err := i.tokens.ParseRefresh(raw)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid Refresh Token")
	}

	user, err := i.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.Unauthorized("Invalid Refresh Token")
		}
		return nil, apperror.Internal(err)
	}

	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(raw)) != 1 {
		return nil, apperror.Unauthorized("Invalid Refresh Token")
	}
	return user.Sanitized(), nil
}
