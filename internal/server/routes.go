package server

import (
	"ecadmin/internal/middleware"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes は /api/v1/users 配下を登録する。
// 管理者ルートは必ずAuthJWT → RequirePrivilegedの順。
func RegisterRoutes(e *echo.Echo, resolver middleware.IdentityResolver, h Handlers) {
	authRequired := middleware.AuthJWT(resolver)
	adminOnly := middleware.RequirePrivileged()

	users := e.Group("/api/v1/users")

	//公開
	users.POST("/register", h.Auth.Register)
	users.POST("/create", h.Auth.Register)
	users.POST("/login", h.Auth.Login)

	//ログイン必須
	users.GET("/logout", h.Auth.Logout, authRequired)
	users.GET("/profile", h.User.Profile, authRequired)
	users.PUT("/profile", h.User.UpdateProfile, authRequired)

	//管理者
	users.GET("", h.AdminUser.List, authRequired, adminOnly)
	users.GET("/", h.AdminUser.List, authRequired, adminOnly)
	users.GET("/audit-logs", h.AdminUser.AuditLogs, authRequired, adminOnly)
	users.GET("/:userId", h.AdminUser.Get, authRequired, adminOnly)
	users.PATCH("/:userId", h.AdminUser.Update, authRequired, adminOnly)
	users.DELETE("/:userId", h.AdminUser.Delete, authRequired, adminOnly)
}
