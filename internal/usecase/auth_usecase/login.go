package auth

import (
	"context"
	"errors"
	"log/slog"

	"ecadmin/internal/apperror"
	"ecadmin/internal/domain/model"
	"ecadmin/internal/token"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// handlerがJSONとCookieにする
type LoginOutput struct {
	User   *model.User
	Tokens token.Pair
}

// ログイン試行回数の制限
type LoginLimiter interface {
	Check(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email, ip string) error
}

// 試行制限超過
var ErrTooManyAttempts = apperror.New(apperror.KindTooManyRequests, "Too many login attempts, try again later")

type LoginUsecase struct {
	credentials *CredentialStore
	issuer      *TokenIssuer
	limiter     LoginLimiter
	log         *slog.Logger
}

func NewLoginUsecase(
	credentials *CredentialStore,
	issuer *TokenIssuer,
	limiter LoginLimiter,
	log *slog.Logger,
) *LoginUsecase {
	return &LoginUsecase{
		credentials: credentials,
		issuer:      issuer,
		limiter:     limiter,
		log:         log,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput
	email := NormalizeEmail(in.Email)

	//試行制限（Redis障害時は通す）
	if err := u.limiter.Check(ctx, email, in.IP); err != nil {
		if apperror.KindOf(err) == apperror.KindTooManyRequests {
			return out, err
		}
		u.log.WarnContext(ctx, "login limiter check failed", "error", err)
	}

	user, err := u.credentials.FindByCredentials(ctx, email, in.Password)
	if err != nil {
		// emailなし / パスワード違いは区別せず返す
		if errors.Is(err, ErrIdentityNotFound) || errors.Is(err, ErrInvalidCredentials) {
			if lerr := u.limiter.RecordFailure(ctx, email, in.IP); lerr != nil {
				u.log.WarnContext(ctx, "login limiter record failed", "error", lerr)
			}
			return out, ErrInvalidCredentials
		}
		return out, err
	}

	if err := u.limiter.Reset(ctx, email, in.IP); err != nil {
		u.log.WarnContext(ctx, "login limiter reset failed", "error", err)
	}

	//access / refresh発行（refreshは会員レコードに上書き）
	pair, err := u.issuer.Issue(ctx, user)
	if err != nil {
		return out, err
	}

	//出力（passwordは返さない）
	out.User = user.Sanitized()
	out.Tokens = pair
	return out, nil
}
