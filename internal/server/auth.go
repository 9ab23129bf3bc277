package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Auth validates HS256 bearer tokens and enforces the admin subject on
// protected routes.
type Auth struct {
	secret      []byte
	adminUserID string
}

// NewAuth wires the shared secret and the privileged subject.
func NewAuth(secret, adminUserID string) *Auth {
	return &Auth{secret: []byte(secret), adminUserID: adminUserID}
}

// RequireAdmin wraps a handler, rejecting requests without a valid token
// whose subject is the configured admin.
func (a *Auth) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := a.verify(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if a.adminUserID == "" || subject != a.adminUserID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// verify parses the Authorization header and returns the token subject.
func (a *Auth) verify(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("invalid authorization header")
	}

	if len(a.secret) == 0 {
		return "", fmt.Errorf("jwt secret is not configured")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject: %w", err)
	}
	return subject, nil
}
