package handler

import (
	"net/http"

	"ecadmin/internal/middleware"
	"ecadmin/internal/usecase"
	auth "ecadmin/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// 本人のプロフィール
type UserHandler struct {
	uc *usecase.UserUsecase
}

func NewUserHandler(uc *usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

// 少なくともuserName / emailのどちらかが必要（usecase側で確認）
type updateProfileRequest struct {
	Username string `json:"userName" validate:"omitempty,alphanum,min=3,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
}

// GET /profile
func (h *UserHandler) Profile(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return auth.ErrNoToken
	}
	return writeOK(c, http.StatusOK, user, "User profile fetched successfully")
}

// PUT /profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return auth.ErrNoToken
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.uc.UpdateProfile(c.Request().Context(), user.ID, usecase.ProfileUpdateInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return writeOK(c, http.StatusOK, updated, "User profile updated successfully")
}
