package handler

import (
	"net/http"

	"ecadmin/internal/middleware"
	"ecadmin/internal/usecase"
	auth "ecadmin/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// 管理者向けの会員操作。ルート側でAuthJWT + RequirePrivilegedを通してから呼ばれる。
type AdminUserHandler struct {
	uc *usecase.UserUsecase
}

func NewAdminUserHandler(uc *usecase.UserUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

// GET /audit-logs?userId=&action=&limit=&offset=
type auditLogsQuery struct {
	ActorID string `query:"actorId" json:"actorId" validate:"omitempty,uuid"`
	UserID  string `query:"userId" json:"userId" validate:"omitempty,uuid"`
	Action  string `query:"action" json:"action" validate:"omitempty,oneof=UPDATE_USER DELETE_USER"`
	Limit   int    `query:"limit" json:"limit" validate:"omitempty,min=1,max=200"`
	Offset  int    `query:"offset" json:"offset" validate:"omitempty,min=0"`
}

type adminUpdateUserRequest struct {
	Username string `json:"userName" validate:"omitempty,alphanum,min=3,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	IsAdmin  *bool  `json:"isAdmin"`
}

func (h *AdminUserHandler) List(c echo.Context) error {
	users, err := h.uc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return writeOK(c, http.StatusOK, users, "Users fetched successfully")
}

func (h *AdminUserHandler) Get(c echo.Context) error {
	user, err := h.uc.Get(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return writeOK(c, http.StatusOK, user, "User fetched successfully")
}

func (h *AdminUserHandler) Update(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return auth.ErrNoToken
	}

	var req adminUpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.uc.AdminUpdate(c.Request().Context(), actor.ID, c.Param("userId"), usecase.AdminUserUpdateInput{
		Email:    req.Email,
		Username: req.Username,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		return err
	}
	return writeOK(c, http.StatusOK, user, "User updated successfully")
}

func (h *AdminUserHandler) Delete(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return auth.ErrNoToken
	}

	if err := h.uc.Delete(c.Request().Context(), actor.ID, c.Param("userId")); err != nil {
		return err
	}
	return writeOK(c, http.StatusOK, nil, "User deleted successfully")
}

// AuditLogs は管理者による会員の更新・削除履歴。
func (h *AdminUserHandler) AuditLogs(c echo.Context) error {
	var q auditLogsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	logs, err := h.uc.AuditLogs(c.Request().Context(), usecase.AuditLogQuery{
		ActorUserID:  q.ActorID,
		TargetUserID: q.UserID,
		Action:       q.Action,
		Limit:        q.Limit,
		Offset:       q.Offset,
	})
	if err != nil {
		return err
	}
	return writeOK(c, http.StatusOK, logs, "Audit logs fetched successfully")
}
