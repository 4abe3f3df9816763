package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errNoSession = errors.New("no valid session")

// Authenticator verifies player bearer tokens. Tokens are HS256 JWTs issued
// by the identity provider; the subject claim is the user id.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Issue signs a token for userID. Used by tests and local tooling.
func (a *Authenticator) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify returns the user id carried by token.
func (a *Authenticator) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", errNoSession, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errNoSession
	}
	return claims.Subject, nil
}

// playerFromRequest reads the bearer token, falling back to the token query
// parameter for EventSource and WebSocket clients that cannot set headers.
func playerFromRequest(r *http.Request, auth *Authenticator) (string, error) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", errNoSession
	}
	return auth.Verify(token)
}
