package middleware

import (
	"context"
	"net/http"
	"strings"

	"fuelcoupons/internal/token"
)

const ctxStation ctxKey = "station"

// StationContext carries the verified claims of a station access token.
type StationContext struct {
	StationID   int64
	DispenserID int64
}

// StationFromContext returns the station context set by StationAuth, if any.
func StationFromContext(ctx context.Context) (StationContext, bool) {
	sc, ok := ctx.Value(ctxStation).(StationContext)
	return sc, ok
}

// StationAuth verifies the ES256 station access token on redemption
// endpoints. When no verifier is configured the chain passes through
// unauthenticated, which is the development default.
func StationAuth(verifier *token.Verifier, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !required {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Missing station access token", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.VerifyStationToken(parts[1])
			if err != nil {
				http.Error(w, "Invalid station access token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxStation, StationContext{
				StationID:   claims.StationID,
				DispenserID: claims.DispenserID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
