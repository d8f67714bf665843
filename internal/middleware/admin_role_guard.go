package middleware

import (
	"ecadmin/internal/apperror"

	"github.com/labstack/echo/v4"
)

// RequirePrivileged はAuthJWTの後ろでだけ使う。
// 管理者でなければForbidden（境界では401として返る）。
func RequirePrivileged() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return apperror.Unauthorized("Unauthorized request")
			}

			//USERは拒否、ADMINだけ許可
			if !user.IsAdmin {
				return apperror.Forbidden("Not authorized as Admin")
			}

			return next(c)
		}
	}
}
