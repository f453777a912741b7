package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAPIKeyCreate(t *testing.T) {
	f := testFixture(t)

	raw, key, err := f.apiKeys.Create("  laptop ", testAdmin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(raw, apiKeyPrefix) || len(raw) != len(apiKeyPrefix)+2*secretBytes {
		t.Errorf("raw key = %q", raw)
	}
	if key.ID == 0 || key.Name != "laptop" || key.Email != testAdmin {
		t.Errorf("key = %+v", key)
	}
	if key.KeyPrefix != raw[:shownPrefix] {
		t.Errorf("prefix = %q, want %q", key.KeyPrefix, raw[:shownPrefix])
	}

	var hash string
	if err := f.db.QueryRow("SELECT key_hash FROM api_keys WHERE id = ?", key.ID).Scan(&hash); err != nil {
		t.Fatalf("read row: %v", err)
	}
	if hash != digestOf(raw) {
		t.Error("stored hash is not the digest of the raw key")
	}
}

func TestAPIKeyValidate(t *testing.T) {
	f := testFixture(t)
	raw, _, err := f.apiKeys.Create("cli", "agent@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"valid", raw, "agent@example.com"},
		{"wrong prefix", "xx_" + raw[len(apiKeyPrefix):], ""},
		{"unknown", apiKeyPrefix + "0000", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.apiKeys.Validate(tt.key)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if got != tt.want {
				t.Errorf("email = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKeyRecordsLastUse(t *testing.T) {
	f := testFixture(t)
	raw, _, err := f.apiKeys.Create("cli", testAdmin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	keys, err := f.apiKeys.List(testAdmin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if keys[0].LastUsedAt != nil {
		t.Errorf("unused key has last used %v", keys[0].LastUsedAt)
	}

	f.clock.advance(time.Hour)
	if _, err := f.apiKeys.Validate(raw); err != nil {
		t.Fatalf("validate: %v", err)
	}
	keys, err = f.apiKeys.List(testAdmin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := keys[0].LastUsedAt; got == nil || !got.Equal(f.clock.now()) {
		t.Errorf("last used = %v, want %v", got, f.clock.now())
	}
}

func TestAPIKeyListNewestFirst(t *testing.T) {
	f := testFixture(t)
	for _, name := range []string{"first", "second", "third"} {
		if _, _, err := f.apiKeys.Create(name, testAdmin); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		f.clock.advance(time.Minute)
	}
	if _, _, err := f.apiKeys.Create("other", "agent@example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}

	keys, err := f.apiKeys.List(testAdmin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, k := range keys {
		names = append(names, k.Name)
	}
	if got := strings.Join(names, ","); got != "third,second,first" {
		t.Errorf("keys = %s, want third,second,first", got)
	}
}

func TestAPIKeyDelete(t *testing.T) {
	f := testFixture(t)
	raw, key, err := f.apiKeys.Create("cli", testAdmin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.apiKeys.Delete(key.ID, "agent@example.com"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("delete by other owner err = %v, want ErrKeyNotFound", err)
	}
	if err := f.apiKeys.Delete(key.ID, testAdmin); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.apiKeys.Delete(key.ID, testAdmin); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("second delete err = %v, want ErrKeyNotFound", err)
	}
	if email, _ := f.apiKeys.Validate(raw); email != "" {
		t.Errorf("deleted key still validates as %q", email)
	}
}

func TestAPIKeyDeleteAll(t *testing.T) {
	f := testFixture(t)
	for i := 0; i < 2; i++ {
		if _, _, err := f.apiKeys.Create("k", "agent@example.com"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, _, err := f.apiKeys.Create("k", testAdmin); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.apiKeys.DeleteAll("agent@example.com"); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n := f.count(t, "api_keys"); n != 1 {
		t.Errorf("keys left = %d, want 1", n)
	}
}
