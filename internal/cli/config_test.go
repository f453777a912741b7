package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{
		ServerURL: "http://myhost:9090",
		APIKey:    "le_testapikey123",
	}
	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "le", "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not found: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg != (CLIConfig{}) {
		t.Errorf("cfg = %+v, want zero value", cfg)
	}
}

func TestConfigLoadMalformed(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	dir := filepath.Join(tmp, ".config", "le")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server_url: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRemoteConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    CLIConfig
		envURL  string
		envKey  string
		wantURL string
		wantKey string
	}{
		{"defaults", CLIConfig{}, "", "", defaultServerURL, ""},
		{"from file", CLIConfig{ServerURL: "http://file:1", APIKey: "le_file"}, "", "", "http://file:1", "le_file"},
		{"env wins", CLIConfig{ServerURL: "http://file:1", APIKey: "le_file"}, "http://env:2", "le_env", "http://env:2", "le_env"},
		{"env key only", CLIConfig{ServerURL: "http://file:1"}, "", "le_env", "http://file:1", "le_env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("LE_SERVER_URL", tt.envURL)
			t.Setenv("LE_API_KEY", tt.envKey)
			if err := saveConfig(tt.file); err != nil {
				t.Fatalf("save: %v", err)
			}

			if got := getServerURL(); got != tt.wantURL {
				t.Errorf("server url = %q, want %q", got, tt.wantURL)
			}
			if got := getAPIKey(); got != tt.wantKey {
				t.Errorf("api key = %q, want %q", got, tt.wantKey)
			}
		})
	}
}
