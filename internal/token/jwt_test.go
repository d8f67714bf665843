package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
}

func TestNewPair_RoundTrip(t *testing.T) {
	m := newTestManager()

	pair, err := m.NewPair("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	sub, err := m.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)

	sub, err = m.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestNewPair_ClaimsAreMinimal(t *testing.T) {
	m := newTestManager()
	pair, err := m.NewPair("user-1")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(pair.AccessToken, claims)
	require.NoError(t, err)

	for k := range claims {
		assert.Contains(t, []string{"sub", "iat", "exp", "jti"}, k)
	}
	assert.NotContains(t, claims, "role")
	assert.NotContains(t, claims, "email")
}

func TestNewPair_DistinctEachCall(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestManager().WithClock(func() time.Time { return fixed })

	p1, err := m.NewPair("user-1")
	require.NoError(t, err)
	p2, err := m.NewPair("user-1")
	require.NoError(t, err)

	assert.NotEqual(t, p1.RefreshToken, p2.RefreshToken)
}

func TestParse_SecretsAreIndependent(t *testing.T) {
	m := newTestManager()
	pair, err := m.NewPair("user-1")
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccess_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	m := newTestManager().WithClock(func() time.Time { return issuedAt })

	pair, err := m.NewPair("user-1")
	require.NoError(t, err)

	_, err = newTestManager().ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccess_TamperedSignature(t *testing.T) {
	m := newTestManager()
	pair, err := m.NewPair("user-1")
	require.NoError(t, err)

	parts := strings.Split(pair.AccessToken, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = m.ParseAccess(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccess_WrongAlg(t *testing.T) {
	m := newTestManager()

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = m.ParseAccess(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccess_NoExpiry(t *testing.T) {
	m := newTestManager()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).
		SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = m.ParseAccess(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccess_Garbage(t *testing.T) {
	m := newTestManager()

	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := m.ParseAccess(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestManager_TTLs(t *testing.T) {
	m := newTestManager()
	assert.Equal(t, 15*time.Minute, m.AccessTTL())
	assert.Equal(t, 24*time.Hour, m.RefreshTTL())
}
