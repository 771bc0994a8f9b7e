package client

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func configWithToken(t *testing.T, token string) *Config {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte(token+"\n"), 0600))
	return &Config{
		Service: Service{
			Server:    "https://graph.example.com",
			TokenFile: tokenPath,
		},
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "admin@contoso.com",
	})
	s, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func TestConnectWithValidToken(t *testing.T) {
	config := configWithToken(t, signedToken(t, time.Now().Add(time.Hour)))

	session, err := Connect(config)
	require.NoError(t, err)
	defer session.Close()

	require.Equal(t, "https://graph.example.com", session.Server())
	// compliance server falls back to the management server
	require.Equal(t, "https://graph.example.com", session.ComplianceServer())

	req, err := http.NewRequest(http.MethodGet, "https://graph.example.com/v1.0/groups", nil)
	require.NoError(t, err)
	session.Authorize(req)
	require.Contains(t, req.Header.Get("Authorization"), "Bearer ")
}

func TestConnectRejectsExpiredToken(t *testing.T) {
	config := configWithToken(t, signedToken(t, time.Now().Add(-time.Hour)))

	_, err := Connect(config)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expired")
}

func TestConnectAcceptsOpaqueToken(t *testing.T) {
	config := configWithToken(t, "opaque-session-token")

	session, err := Connect(config)
	require.NoError(t, err)
	session.Close()
}

func TestConnectEmptyTokenFile(t *testing.T) {
	config := configWithToken(t, "")

	_, err := Connect(config)
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}

func TestConnectMissingTokenFile(t *testing.T) {
	config := &Config{
		Service: Service{
			Server:    "https://graph.example.com",
			TokenFile: filepath.Join(t.TempDir(), "missing"),
		},
	}
	_, err := Connect(config)
	require.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	config := configWithToken(t, "opaque-session-token")
	session, err := Connect(config)
	require.NoError(t, err)
	session.Close()
	session.Close()
}
