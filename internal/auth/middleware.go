package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
)

type contextKey struct{}

// WithEmail returns a context carrying the authenticated email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, contextKey{}, email)
}

// EmailFromContext returns the authenticated email, or "".
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(contextKey{}).(string)
	return email
}

// Failed authentication attempts allowed per IP per window.
const (
	FailureLimit  = 10
	FailureWindow = time.Minute
)

// RequireSession redirects requests without a valid session to /login.
// The session email is added to the request context.
func RequireSession(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := sessions.Validate(r)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
		})
	}
}

// RequireAPIKey authenticates API calls with a Bearer API key or, failing
// that, a session cookie. Safe methods pass through unless requireReads is
// set. Failed attempts are rate limited per IP and answer 429 once the
// limit is reached.
func RequireAPIKey(apiKeys *APIKeyStore, sessions *SessionStore, requireReads bool) func(http.Handler) http.Handler {
	deny := httprate.LimitByIP(FailureLimit, FailureWindow)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireReads && isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if key, ok := bearerToken(r); ok {
				email, err := apiKeys.Validate(key)
				if err != nil {
					http.Error(w, "Internal error", http.StatusInternalServerError)
					return
				}
				if email != "" {
					next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
					return
				}
				deny.ServeHTTP(w, r)
				return
			}

			if email, err := sessions.Validate(r); err == nil {
				next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
				return
			}
			deny.ServeHTTP(w, r)
		})
	}
}

// RequireSessionAPI is RequireSession for JSON endpoints: it answers 401
// instead of redirecting.
func RequireSessionAPI(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := sessions.Validate(r)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	key := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return key, key != ""
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}
