// Package session はaccess / refresh tokenのCookieを付け外しする。
package session

import (
	"net/http"
	"time"

	"ecadmin/internal/token"

	"github.com/labstack/echo/v4"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieManager は常に同じ属性（HttpOnly / Secure / SameSite=Strict / Path=/）でCookieを扱う。
// 削除時の属性がセット時と違うとブラウザに古いCookieが残る。
type CookieManager struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// DI
func NewCookieManager(accessTTL, refreshTTL time.Duration) *CookieManager {
	return &CookieManager{accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// Attach はaccess / refreshの2つのCookieをセットする。
func (m *CookieManager) Attach(c echo.Context, pair token.Pair) {
	c.SetCookie(m.cookie(AccessTokenCookie, pair.AccessToken, m.accessTTL))
	c.SetCookie(m.cookie(RefreshTokenCookie, pair.RefreshToken, m.refreshTTL))
}

// Clear は同じ属性で2つのCookieを失効させる。
func (m *CookieManager) Clear(c echo.Context) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		ck := m.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
}

func (m *CookieManager) cookie(name, value string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
	if ttl > 0 {
		ck.MaxAge = int(ttl.Seconds())
		ck.Expires = m.now().Add(ttl)
	}
	return ck
}
