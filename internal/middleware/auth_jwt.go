package middleware

import (
	"context"
	"net/http"
	"strings"

	"ecadmin/internal/domain/model"
	"ecadmin/internal/session"

	"github.com/labstack/echo/v4"
)

// 解決済みの会員（*model.User、password / refresh抜き）
const CtxIdentityKey = "identity"

// access tokenから会員を引く約束
type IdentityResolver interface {
	Resolve(ctx context.Context, raw string) (*model.User, error)
}

// AuthJWT はCookie → Authorizationヘッダの順でaccess tokenを探し、
// DBから引き直した会員をcontextに入れる。失敗は型付きエラーで返し、境界で401になる。
func AuthJWT(resolver IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractAccessToken(c.Request())

			user, err := resolver.Resolve(c.Request().Context(), raw)
			if err != nil {
				return err
			}

			//contextへ保存
			c.Set(CtxIdentityKey, user)
			return next(c)
		}
	}
}

// CurrentUser はAuthJWTが入れた会員を取り出す。
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(CtxIdentityKey).(*model.User)
	return user, ok && user != nil
}

func extractAccessToken(r *http.Request) string {
	//Cookie優先
	if ck, err := r.Cookie(session.AccessTokenCookie); err == nil && ck.Value != "" {
		return ck.Value
	}

	//Bearer形式か確認してtokenを抜く
	authz := r.Header.Get("Authorization")
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
