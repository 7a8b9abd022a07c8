// Package middleware carries the ledger API's auth and throttling layers.
package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/storycreative/ledger/internal/auth"
	"github.com/storycreative/ledger/internal/http/respond"
	"github.com/storycreative/ledger/internal/user"
)

// RequireAuth verifies the bearer token and puts the session user on the
// request context. Requests without a live session get 401.
func RequireAuth(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respond.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			u, err := svc.Verify(token)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ToContext(r.Context(), u)))
		})
	}
}

// RequireOperation checks the session role against the policy table before
// the handler runs, so a forbidden mutation never reaches storage.
func RequireOperation(op user.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.FromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			if !u.Role.Can(op) {
				respond.Error(w, http.StatusForbidden, "insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoginLimiter throttles credential guessing on the login route.
func LoginLimiter(perMinute int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				respond.Error(w, http.StatusTooManyRequests, "too many login attempts")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from the Authorization header, or "".
func BearerToken(r *http.Request) string {
	return bearerToken(r)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}
