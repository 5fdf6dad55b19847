// Package session issues and validates the console's session tokens.
//
// A session token is an HS256 JWT whose subject is the id of the
// connection it was issued for. Presenting it as a bearer token binds the
// request to that connection.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rhuss/vdbconsole/pkg/auth"
)

// MinSecretLength is the shortest accepted signing secret, in bytes.
const MinSecretLength = 32

// DefaultTTL is the session lifetime when Config.TTL is zero.
const DefaultTTL = 12 * time.Hour

var (
	// ErrWeakSecret indicates the signing secret is too short.
	ErrWeakSecret = errors.New("session secret too short")

	// ErrRevoked indicates the token's connection no longer exists.
	ErrRevoked = fmt.Errorf("session revoked: %w", auth.ErrConnectionClosed)
)

// Config holds the session settings.
type Config struct {
	// Secret signs and verifies tokens (at least MinSecretLength bytes).
	Secret []byte

	// TTL is the token lifetime. Default: 12 hours.
	TTL time.Duration

	// Issuer is written to and required in the iss claim. Default: "vdbconsole".
	Issuer string

	// Active reports whether a connection id is still open. Tokens for
	// closed connections are rejected. Nil skips the check.
	Active func(connectionID string) bool
}

// Claims are the session token claims.
type Claims struct {
	Username string `json:"usr,omitempty"`
	jwtlib.RegisteredClaims
}

// Manager issues tokens and authenticates requests carrying them.
type Manager struct {
	cfg Config
	now func() time.Time
}

var _ auth.Authenticator = (*Manager)(nil)

// New creates a session manager.
func New(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrWeakSecret, MinSecretLength, len(cfg.Secret))
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "vdbconsole"
	}
	return &Manager{cfg: cfg, now: time.Now}, nil
}

// SetActive installs the connection liveness check.
func (m *Manager) SetActive(active func(connectionID string) bool) {
	m.cfg.Active = active
}

// Issue signs a token for connectionID.
func (m *Manager) Issue(connectionID, username string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.cfg.TTL)
	claims := Claims{
		Username: username,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   connectionID,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expires),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}
	return token, expires, nil
}

// Parse validates a token and returns its claims.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(tokenStr, claims,
		func(*jwtlib.Token) (any, error) { return m.cfg.Secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(m.cfg.Issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Authenticate validates the bearer token of r.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: token invalid, expired, or its connection is closed
//   - Yes: identity bound to the token's connection
func (m *Manager) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		return auth.AuthResult{Decision: auth.No, Err: errors.New("empty bearer token")}
	}

	claims, err := m.Parse(tokenStr)
	if err != nil {
		slog.Debug("session token rejected", "error", err)
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("%w: %w", auth.ErrUnauthenticated, err)}
	}
	if m.cfg.Active != nil && !m.cfg.Active(claims.Subject) {
		return auth.AuthResult{Decision: auth.No, Err: ErrRevoked}
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject:      claims.Subject,
			Username:     claims.Username,
			ConnectionID: claims.Subject,
		},
	}
}
