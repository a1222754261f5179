package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const (
	CtxOperatorID    ctxKey = "operator_id"
	CtxOperatorEmail ctxKey = "operator_email"
)

// OperatorFromContext returns the authenticated operator id set by JWTAuth.
func OperatorFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxOperatorID).(string)
	return id, ok && id != ""
}

// JWTAuth guards the operator endpoints with the HS256 bearer token issued
// at login. Verified claims are placed on the request context.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Missing bearer token", http.StatusUnauthorized)
				return
			}

			parsed, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
			if err != nil || !parsed.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := parsed.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}
			operatorID, _ := claims["sub"].(string)
			if operatorID == "" {
				http.Error(w, "Invalid token subject", http.StatusUnauthorized)
				return
			}
			email, _ := claims["email"].(string)

			ctx := context.WithValue(r.Context(), CtxOperatorID, operatorID)
			ctx = context.WithValue(ctx, CtxOperatorEmail, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
