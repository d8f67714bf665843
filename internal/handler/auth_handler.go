package handler

import (
	"errors"
	"net/http"

	"ecadmin/internal/apperror"
	"ecadmin/internal/middleware"
	"ecadmin/internal/session"
	auth "ecadmin/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase // 会員登録usecase
	loginUC    *auth.LoginUsecase        // ログインusecase
	logoutUC   *auth.LogoutUsecase       // ログアウトusecase
	cookies    *session.CookieManager
}

// DIコンストラクタ
func NewAuthHandler(
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	logoutUC *auth.LogoutUsecase,
	cookies *session.CookieManager,
) *AuthHandler {
	return &AuthHandler{
		registerUC: registerUC,
		loginUC:    loginUC,
		logoutUC:   logoutUC,
		cookies:    cookies,
	}
}

// POST /register のリクエストボディ。
type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"userName" validate:"required,alphanum,min=3,max=20"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// POST /login のリクエストボディ。
// 長さチェックはしない（間違ったパスワードは400ではなく401にする）
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register は会員を作り、そのままログイン状態にする。
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.cookies.Attach(c, out.Tokens)
	return writeOK(c, http.StatusCreated, out.User, "User created successfully")
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.RealIP(),
	})
	if err != nil {
		return err
	}

	h.cookies.Attach(c, out.Tokens)
	return writeOK(c, http.StatusOK, out.User, "User loggedIn successfully")
}

// Logout はrefresh tokenを消し、Cookieも外す。access tokenは期限まで有効のまま。
func (h *AuthHandler) Logout(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return auth.ErrNoToken
	}

	if err := h.logoutUC.Execute(c.Request().Context(), user.ID); err != nil {
		return err
	}

	h.cookies.Clear(c)
	return writeOK(c, http.StatusOK, nil, "User logged out")
}

// bindAndValidate はJSONの読み込みとvalidateをまとめて行う。
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusUnsupportedMediaType {
			return err
		}
		return apperror.Validation("Invalid request body")
	}
	return c.Validate(req)
}
