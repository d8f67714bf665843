package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"ecadmin/internal/apperror"

	"github.com/labstack/echo/v4"
)

// 全レスポンス共通の形
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
	Data    any      `json:"data"`
}

const internalMessage = "Internal Server Error"

func writeOK(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, Response{
		Success: true,
		Message: message,
		Errors:  []string{},
		Data:    data,
	})
}

// ErrorHandler はecho全体のエラー境界。
// *apperror.Error はKindどおりのステータス、それ以外は中身を出さず500にする。
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := toResponse(err)
		if status >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.ErrorContext(c.Request().Context(), "write error response", "error", werr)
		}
	}
}

func toResponse(err error) (int, Response) {
	body := Response{Success: false, Errors: []string{}, Data: nil}

	if ae, ok := apperror.As(err); ok {
		status := ae.Status()
		body.Message = ae.Message
		if ae.Kind == apperror.KindInternal {
			body.Message = internalMessage
		}
		if len(ae.Errors) > 0 {
			body.Errors = ae.Errors
		}
		return status, body
	}

	//ルーティングの404 / 405など
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		body.Message = http.StatusText(he.Code)
		if msg, ok := he.Message.(string); ok && msg != "" {
			body.Message = msg
		}
		return he.Code, body
	}

	body.Message = internalMessage
	return http.StatusInternalServerError, body
}
