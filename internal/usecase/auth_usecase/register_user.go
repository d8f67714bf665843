package auth

import (
	"context"
	"errors"

	"ecadmin/internal/domain/model"
	"ecadmin/internal/token"
)

// 会員登録の入力
type RegisterUserInput struct {
	Email    string
	Username string
	Password string
}

// 会員登録の出力（Userはpassword / refresh抜き）
type RegisterUserOutput struct {
	User   *model.User
	Tokens token.Pair
}

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	credentials *CredentialStore
	issuer      *TokenIssuer
}

// DI
func NewRegisterUserUsecase(credentials *CredentialStore, issuer *TokenIssuer) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		credentials: credentials,
		issuer:      issuer,
	}
}

// 会員登録実行（登録と同時にログイン状態にする）
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	var out RegisterUserOutput

	user, err := u.credentials.Create(ctx, in.Email, in.Username, in.Password)
	if err != nil {
		return out, err
	}

	pair, err := u.issuer.Issue(ctx, user)
	if err != nil {
		// token発行に失敗したら作った会員を消す（再登録で重複にならないように）
		if derr := u.credentials.Discard(ctx, user.ID); derr != nil {
			return out, errors.Join(err, derr)
		}
		return out, err
	}

	out.User = user.Sanitized()
	out.Tokens = pair
	return out, nil
}
