package client

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the connect-once handle shared by every API call in a command
// run. It owns the HTTP client and the bearer token for the lifetime of the
// process and must be closed when the command finishes.
type Session struct {
	httpClient *http.Client
	config     *Config
	token      string
	expiresAt  time.Time
	closed     bool
}

// Connect reads the externally-issued token, rejects it if already expired,
// and returns a live session. The sign-in flow that mints the token is not
// this tool's job.
func Connect(config *Config) (*Session, error) {
	raw, err := os.ReadFile(config.tokenFilePath())
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return nil, fmt.Errorf("token file %s is empty", config.tokenFilePath())
	}

	expiresAt, err := tokenExpiry(token)
	if err != nil {
		return nil, fmt.Errorf("inspecting token: %w", err)
	}
	if !expiresAt.IsZero() && time.Now().After(expiresAt) {
		return nil, fmt.Errorf("token expired at %s, sign in again", expiresAt.Format(time.RFC3339))
	}

	httpClient, err := NewHTTPClientFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	return &Session{
		httpClient: httpClient,
		config:     config,
		token:      token,
		expiresAt:  expiresAt,
	}, nil
}

// ConnectFromConfigFile is the Connect variant used by the CLI layer.
func ConnectFromConfigFile(filename string) (*Session, error) {
	config, err := ParseConfigFile(filename)
	if err != nil {
		return nil, err
	}
	return Connect(config)
}

// tokenExpiry reads the exp claim without verifying the signature. The
// token is validated by the remote service; locally we only want to fail
// fast on an obviously stale one. Opaque (non-JWT) tokens pass through
// with a zero expiry.
func tokenExpiry(token string) (time.Time, error) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// HTTPClient returns the session's HTTP client.
func (s *Session) HTTPClient() *http.Client {
	return s.httpClient
}

// Server returns the management API base URL.
func (s *Session) Server() string {
	return s.config.Service.Server
}

// ComplianceServer returns the compliance API base URL, falling back to the
// management server when not configured separately.
func (s *Session) ComplianceServer() string {
	if s.config.Service.ComplianceServer != "" {
		return s.config.Service.ComplianceServer
	}
	return s.config.Service.Server
}

// Authorize attaches the bearer token to an outgoing request.
func (s *Session) Authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
}

// Close releases the session's connections. Safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.httpClient.CloseIdleConnections()
}
