package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sceneseek/sceneseek/internal/middleware"
)

// claimsKey is the context key for validated claims.
type claimsKey struct{}

// GetClaims retrieves validated claims from context. Returns nil if not present.
func GetClaims(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsKey{}).(*Claims); ok {
		return claims
	}
	return nil
}

// RequireAuth is middleware that validates the Bearer token on every request.
// On success it stores the claims in context and exposes the subject to the
// logging middleware. On failure it responds with 401.
func RequireAuth(svc *JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, r, "missing bearer token")
				return
			}

			claims, err := svc.ValidateToken(token)
			if err != nil {
				unauthorized(w, r, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = middleware.SetSubject(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is middleware that rejects requests whose claims lack the admin
// role. It must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil || !claims.IsAdmin() {
			*r = *r.WithContext(middleware.SetErrorCode(r.Context(), "forbidden"))
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	*r = *r.WithContext(middleware.SetErrorCode(r.Context(), "unauthorized"))
	w.Header().Set("WWW-Authenticate", `Bearer realm="sceneseek"`)
	http.Error(w, msg, http.StatusUnauthorized)
}
