package cli

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"le_abc123def456", false},
		{"le_", false},
		{"", true},
		{"abc123def456", true},
		{"xx_abc123", true},
	}
	for _, tt := range tests {
		if err := validateAPIKey(tt.key); (err != nil) != tt.wantErr {
			t.Errorf("validateAPIKey(%q) err = %v, wantErr %v", tt.key, err, tt.wantErr)
		}
	}
}

func TestLoginSavesKeyAndServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LE_SERVER_URL", "")

	var opened, verified string
	f := loginFlow{
		in:     strings.NewReader("  le_pastedkey\n"),
		out:    &bytes.Buffer{},
		server: "https://estates.example.com/",
		open:   func(url string) error { opened = url; return nil },
		verify: func(server, key string) error { verified = server + " " + key; return nil },
	}
	if err := f.run(); err != nil {
		t.Fatalf("login: %v", err)
	}
	if opened != "https://estates.example.com/cli/auth" {
		t.Errorf("opened = %q", opened)
	}
	if verified != "https://estates.example.com/ le_pastedkey" {
		t.Errorf("verified = %q", verified)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "le_pastedkey" || cfg.ServerURL != "https://estates.example.com/" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoginKeepsServerWithoutFlag(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LE_SERVER_URL", "")
	if err := saveConfig(CLIConfig{ServerURL: "http://saved:9000"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var out bytes.Buffer
	f := loginFlow{in: strings.NewReader("le_key"), out: &out, open: func(string) error { return errors.New("no display") }}
	if err := f.run(); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out.String(), "http://saved:9000/cli/auth") {
		t.Errorf("output = %q, want saved server auth URL", out.String())
	}
	if !strings.Contains(out.String(), "no display") {
		t.Error("expected browser failure to be reported")
	}
	if cfg, _ := loadConfig(); cfg.ServerURL != "http://saved:9000" || cfg.APIKey != "le_key" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoginDoesNotSaveRejectedKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	tests := []struct {
		name  string
		input string
	}{
		{"bad format", "not-a-key\n"},
		{"server rejects", "le_revoked\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			f := loginFlow{in: strings.NewReader(tt.input), out: &bytes.Buffer{}, server: srv.URL, verify: checkKey}
			if err := f.run(); err == nil {
				t.Fatal("expected error")
			}
			if cfg, _ := loadConfig(); cfg.APIKey != "" {
				t.Error("rejected key was saved")
			}
		})
	}
}

func TestCheckKeyAcceptsWorkingKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer le_good" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	if err := checkKey(srv.URL, "le_good"); err != nil {
		t.Errorf("check: %v", err)
	}
}

func TestLogout(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	if err := runLogout(&out); err != nil {
		t.Fatalf("logout with no config: %v", err)
	}
	if out.String() != "Not logged in.\n" {
		t.Errorf("output = %q", out.String())
	}

	if err := saveConfig(CLIConfig{APIKey: "le_testkey123", ServerURL: "http://myhost:9090"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	out.Reset()
	if err := runLogout(&out); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(out.String(), "Logged out") {
		t.Errorf("output = %q", out.String())
	}
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "" || cfg.ServerURL != "http://myhost:9090" {
		t.Errorf("cfg = %+v, want key cleared and server kept", cfg)
	}
}
