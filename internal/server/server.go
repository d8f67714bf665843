package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ecadmin/internal/config"
	"ecadmin/internal/handler"
	"ecadmin/internal/middleware"
	"ecadmin/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10 * time.Second

// Handlers はルートに載せるハンドラ一式。
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	AdminUser *handler.AdminUserHandler
}

// New はミドルウェアとルートを組んだechoを返す。
func New(cfg config.Config, log *slog.Logger, resolver middleware.IdentityResolver, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Validator = validator.New()
	e.IPExtractor = ipExtractor(cfg)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true, // Cookieを送らせる
	}))

	RegisterRoutes(e, resolver, h)
	return e
}

// ipExtractor はc.RealIP()の取り方を決める。
// 信用するプロキシがなければX-Forwarded-For / X-Real-IPは見ない（ログイン試行制限のIPキーを偽装させない）。
func ipExtractor(cfg config.Config) echo.IPExtractor {
	if len(cfg.TrustedProxies) == 0 {
		return echo.ExtractIPDirect()
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, ipNet := range cfg.TrustedProxies {
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// Run はctxがキャンセルされるまで待ち受け、その後graceful shutdownする。
func Run(ctx context.Context, e *echo.Echo, addr string, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("server shutting down")
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
