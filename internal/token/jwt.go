// Package token はaccess / refresh のJWTを署名・検証する。
// どちらもclaimsは sub（ユーザーID）と iat / exp / jti だけ。roleやemailは入れない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 署名不正・期限切れ・形式不正をまとめた1つのエラー
var ErrInvalidToken = errors.New("invalid token")

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// access / refresh の組
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Manager struct {
	cfg Config
	now func() time.Time
}

// DI
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, now: time.Now}
}

// テスト用に時計を差し替える
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *Manager) AccessTTL() time.Duration  { return m.cfg.AccessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

// NewPair はuserIDのaccess / refreshを同時に発行する。
func (m *Manager) NewPair(userID string) (Pair, error) {
	now := m.now()

	access, accessExp, err := m.sign(userID, m.cfg.AccessSecret, m.cfg.AccessTTL, now)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := m.sign(userID, m.cfg.RefreshSecret, m.cfg.RefreshTTL, now)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ParseAccess は署名と期限を確認してsubを返す。
func (m *Manager) ParseAccess(raw string) (string, error) {
	return m.parse(raw, m.cfg.AccessSecret)
}

func (m *Manager) ParseRefresh(raw string) (string, error) {
	return m.parse(raw, m.cfg.RefreshSecret)
}

func (m *Manager) sign(userID string, secret []byte, ttl time.Duration, now time.Time) (string, time.Time, error) {
	exp := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		// 同じ秒に2回ログインしても別のトークンになるように
		ID: uuid.NewString(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *Manager) parse(raw string, secret []byte) (string, error) {
	if raw == "" {
		return "", ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || tok == nil || !tok.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
