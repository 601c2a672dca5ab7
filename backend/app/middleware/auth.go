package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtutil "growdash-agent/backend/app/jwt"
	"growdash-agent/backend/app/models"
)

type ctxKey int

const (
	ClaimsKey ctxKey = iota + 1
	DeviceKey
)

type Auth struct{ Signer *jwtutil.Signer }

func (a *Auth) claims(r *http.Request) (*jwtutil.Claims, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return nil, false
	}
	claims, err := a.Signer.Parse(strings.TrimPrefix(authz, "Bearer "))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.claims(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthenticated", "a valid bearer token is required")
			return
		}
		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := GetClaims(r.Context()); c == nil || c.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "Forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}
