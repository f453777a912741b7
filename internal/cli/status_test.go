package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func runStatusWith(t *testing.T, serverURL, key string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LE_SERVER_URL", serverURL)
	t.Setenv("LE_API_KEY", key)

	var out bytes.Buffer
	if err := runStatus(&out); err != nil {
		t.Fatalf("status: %v", err)
	}
	return out.String()
}

func TestStatusNoAPIKey(t *testing.T) {
	out := runStatusWith(t, "http://localhost:9999", "")
	if !strings.Contains(out, "API Key: not configured") {
		t.Errorf("output = %q", out)
	}
}

func TestStatusShortAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	out := runStatusWith(t, srv.URL, "le_ab")
	if !strings.Contains(out, "API Key: le_ab…") {
		t.Errorf("output = %q", out)
	}
}

func TestStatusUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out := runStatusWith(t, url, "le_testapikey1234567890")
	if !strings.Contains(out, "cannot reach server") {
		t.Errorf("output = %q", out)
	}
}

func TestStatusWithServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/inquiries" {
			t.Errorf("path = %q, want /api/inquiries", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer le_validkey1234567890abc" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]\n"))
	}))
	defer srv.Close()

	out := runStatusWith(t, srv.URL, "le_validkey1234567890abc")
	if !strings.Contains(out, "connected and authenticated") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "API Key: le_valid…") {
		t.Errorf("output = %q, want 8 character key prefix", out)
	}
}

func TestStatusWithInvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	out := runStatusWith(t, srv.URL, "le_badkey1234567890abcde")
	if !strings.Contains(out, "invalid API key") {
		t.Errorf("output = %q", out)
	}
}

func TestStatusUnexpectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	out := runStatusWith(t, srv.URL, "le_key1234567890")
	if !strings.Contains(out, "unexpected response (500)") {
		t.Errorf("output = %q", out)
	}
}
