package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "flatline"
	// DefaultTokenTTL is how long an operator session token stays valid.
	DefaultTokenTTL = 24 * time.Hour
)

var errMissingToken = errors.New("missing bearer token")

// Auth issues and verifies HS256 operator session tokens.
type Auth struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewAuth returns nil when key is empty, which disables authentication.
func NewAuth(key string, ttl time.Duration, now func() time.Time) *Auth {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Auth{key: []byte(key), ttl: ttl, now: now}
}

// Issue signs a token for username.
func (a *Auth) Issue(username string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks raw and returns its subject.
func (a *Auth) Verify(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errMissingToken
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// tokenFromRequest reads a bearer header, falling back to the token query
// parameter for websocket clients that cannot set headers.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
