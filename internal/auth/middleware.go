package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Middleware resolves the board credential of a request.
type Middleware struct {
	tokenSecret []byte
	boardSecret string
}

func New(tokenSecret []byte, boardSecret string) Middleware {
	return Middleware{tokenSecret: tokenSecret, boardSecret: boardSecret}
}

// Credential returns the password sent with the request body when present.
// Otherwise a valid bearer token stands in for the board secret. An empty
// string means no credential was supplied.
func (m Middleware) Credential(r *http.Request, password string) string {
	if password != "" {
		return password
	}

	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	if err := ParseToken(m.tokenSecret, strings.TrimPrefix(h, "Bearer ")); err != nil {
		return ""
	}
	return m.boardSecret
}

// Matches reports whether password equals the board secret.
func (m Middleware) Matches(password string) bool {
	if m.boardSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(m.boardSecret)) == 1
}
