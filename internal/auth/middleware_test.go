package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// echoEmail writes the context email so tests can see who was authenticated.
var echoEmail = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(EmailFromContext(r.Context())))
})

func TestRequireSessionRedirectsUnauthenticated(t *testing.T) {
	f := testFixture(t)
	handler := RequireSession(f.sessions)(echoEmail)

	r := httptest.NewRequest("GET", "/studio", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if w.Header().Get("Location") != "/login" {
		t.Errorf("location = %q, want /login", w.Header().Get("Location"))
	}
}

func TestRequireSessionAllowsAuthenticated(t *testing.T) {
	f := testFixture(t)
	handler := RequireSession(f.sessions)(echoEmail)

	r := httptest.NewRequest("GET", "/studio", nil)
	r.AddCookie(f.sessionCookie(t, testAdmin))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != testAdmin {
		t.Errorf("context email = %q", w.Body.String())
	}
}

func TestRequireSessionAPIAnswers401(t *testing.T) {
	f := testFixture(t)
	handler := RequireSessionAPI(f.sessions)(echoEmail)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/keys", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAPIKey(t *testing.T) {
	f := testFixture(t)
	raw, _, err := f.apiKeys.Create("CLI", "agent@example.com")
	if err != nil {
		t.Fatalf("create key: %v", err)
	}
	cookie := f.sessionCookie(t, testAdmin)

	tests := []struct {
		name         string
		method       string
		bearer       string
		cookie       bool
		requireReads bool
		wantStatus   int
		wantEmail    string
	}{
		{"read passes without auth", "GET", "", false, false, http.StatusOK, ""},
		{"read requires auth when asked", "GET", "", false, true, http.StatusUnauthorized, ""},
		{"write without auth", "POST", "", false, false, http.StatusUnauthorized, ""},
		{"write with key", "POST", raw, false, false, http.StatusOK, "agent@example.com"},
		{"write with bad key", "DELETE", "le_nope", false, false, http.StatusUnauthorized, ""},
		{"write with session", "PUT", "", true, false, http.StatusOK, testAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAPIKey(f.apiKeys, f.sessions, tt.requireReads)(echoEmail)
			r := httptest.NewRequest(tt.method, "/api/properties", nil)
			if tt.bearer != "" {
				r.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			if tt.cookie {
				r.AddCookie(cookie)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantEmail != "" && w.Body.String() != tt.wantEmail {
				t.Errorf("email = %q, want %q", w.Body.String(), tt.wantEmail)
			}
		})
	}
}

func TestRequireAPIKeyRateLimitsFailures(t *testing.T) {
	f := testFixture(t)
	handler := RequireAPIKey(f.apiKeys, f.sessions, false)(echoEmail)

	var last int
	for i := 0; i < FailureLimit+1; i++ {
		r := httptest.NewRequest("POST", "/api/properties", nil)
		r.RemoteAddr = "203.0.113.9:4000"
		r.Header.Set("Authorization", "Bearer le_wrong")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		last = w.Code
		if i < FailureLimit && last != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, last)
		}
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after limit = %d, want 429", last)
	}

	// A different client is unaffected.
	r := httptest.NewRequest("POST", "/api/properties", nil)
	r.RemoteAddr = "198.51.100.7:4000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("other client status = %d, want 401", w.Code)
	}
}
