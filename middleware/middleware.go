package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"kirana/globals"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

// JWT claims
type Claims struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, err := ValidateJWT(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
		next(w, r.WithContext(ctx), ps)
	}
}

// OptionalAuth attaches the user id to the context when a valid token is
// present and proceeds regardless. Checkout uses this: orders may be placed
// anonymously.
func OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if claims, err := ValidateJWT(r.Header.Get("Authorization")); err == nil {
			ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
			r = r.WithContext(ctx)
		}
		next(w, r, ps)
	}
}

// RequireRole gates a handler on the authenticated user's role.
func RequireRole(role string, next httprouter.Handle) httprouter.Handle {
	return Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if got, _ := r.Context().Value(globals.RoleKey).(string); got != role {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r, ps)
	})
}

func ValidateJWT(header string) (*Claims, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, fmt.Errorf("invalid token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(token *jwt.Token) (any, error) {
		return globals.JwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	return claims, nil
}

// UserID returns the authenticated user id from the request context, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(globals.UserIDKey).(string)
	return id
}
