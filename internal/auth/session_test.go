// internal/auth/session_test.go
package auth

import (
	"crypto/ed25519"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndAuthenticate(t *testing.T) {
	require.NoError(t, Init(time.Hour))

	userID := uuid.New()
	token, err := CreateJWT(userID)
	require.NoError(t, err)

	got, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestAuthenticateRejectsForeignKey(t *testing.T) {
	require.NoError(t, Init(0))
	token, err := CreateJWT(uuid.New())
	require.NoError(t, err)

	// rotate keys; the old token no longer verifies
	require.NoError(t, Init(0))
	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	require.NoError(t, Init(0))
	claims := jwt.MapClaims{"sub": uuid.NewString(), "exp": time.Now().Add(-time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(privateKey)
	require.NoError(t, err)

	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestAuthenticateRejectsNonUUIDSubject(t *testing.T) {
	require.NoError(t, Init(0))
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{"sub": "alice"}).SignedString(privateKey)
	require.NoError(t, err)

	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestUserFromRequest(t *testing.T) {
	require.NoError(t, Init(time.Hour))
	userID := uuid.New()
	token, err := CreateJWT(userID)
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/games", nil)
		r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		got, err := UserFromRequest(r)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("bearer", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/games", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		got, err := UserFromRequest(r)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("malformed header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/games", nil)
		r.Header.Set("Authorization", "Basic abc")
		_, err := UserFromRequest(r)
		assert.Error(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/games", nil)
		_, err := UserFromRequest(r)
		assert.ErrorIs(t, err, ErrNoToken)
	})
}

func TestInitFromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "key")
	pubPath := filepath.Join(dir, "key.pub")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o644))

	require.NoError(t, InitFromPath(privPath, pubPath, 0))
	userID := uuid.New()
	token, err := CreateJWT(userID)
	require.NoError(t, err)
	got, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	require.NoError(t, os.WriteFile(pubPath, []byte("short"), 0o644))
	assert.Error(t, InitFromPath(privPath, pubPath, 0))
}
