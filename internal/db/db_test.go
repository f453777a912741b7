package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "estates.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return d
}

func columnsOf(t *testing.T, d *sql.DB, table string) []string {
	t.Helper()
	rows, err := d.Query(fmt.Sprintf("SELECT name FROM pragma_table_info('%s') ORDER BY cid", table))
	if err != nil {
		t.Fatalf("table info %s: %v", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			t.Errorf("close rows: %v", err)
		}
	}()
	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return cols
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "estates.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file: %v", err)
	}
}

func TestOpenRejectsUnwritableLocation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain-file")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	// A regular file cannot be a parent directory.
	if _, err := Open(filepath.Join(file, "estates.db")); err == nil {
		t.Fatal("expected error")
	}
}

func TestPragmas(t *testing.T) {
	d := openTestDB(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
	}
	for _, tt := range tests {
		t.Run(tt.pragma, func(t *testing.T) {
			var got string
			if err := d.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
				t.Fatalf("query: %v", err)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.pragma, got, tt.want)
			}
		})
	}
}

func TestSchema(t *testing.T) {
	d := openTestDB(t)

	want := map[string]string{
		"properties": "id,title,description,price,location,beds,baths,sqft,parking,beachfront,type," +
			"images,thumbnail_image,sort_order,created_at,updated_at,map_location,features",
		"property_types":      "id,name,sort_order,created_at",
		"inquiries":           "id,property_id,name,email,phone,message,created_at",
		"snapshots":           "key,value,updated_at",
		"auth_tokens":         "id,token,email,expires_at,used,created_at",
		"sessions":            "id,email,expires_at,created_at",
		"passkey_credentials": "id,email,name,credential_json,created_at,last_used_at",
		"api_keys":            "id,name,key_prefix,key_hash,email,created_at,last_used_at",
		"authorized_users":    "id,email,name,created_at",
	}
	for table, cols := range want {
		t.Run(table, func(t *testing.T) {
			if got := strings.Join(columnsOf(t, d, table), ","); got != cols {
				t.Errorf("columns\n got %s\nwant %s", got, cols)
			}
		})
	}
}

func TestReopenKeepsDataAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estates.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := d.Exec("INSERT INTO authorized_users (email) VALUES ('agent@example.com')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Every migration and column addition runs again on this open.
	d, err = Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()
	var n int
	if err := d.QueryRow("SELECT COUNT(*) FROM authorized_users").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("users after reopen = %d, want 1", n)
	}
}

func TestAddColumnIfNotExists(t *testing.T) {
	d := openTestDB(t)

	for i := 0; i < 2; i++ {
		if err := addColumnIfNotExists(d, "inquiries", "source", "TEXT NOT NULL DEFAULT ''"); err != nil {
			t.Fatalf("add %d: %v", i+1, err)
		}
	}
	cols := columnsOf(t, d, "inquiries")
	if cols[len(cols)-1] != "source" {
		t.Errorf("columns = %v, want source last", cols)
	}
	if n := len(slices.DeleteFunc(cols, func(c string) bool { return c != "source" })); n != 1 {
		t.Errorf("source added %d times", n)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", "/home/agent")

	p, err := DefaultPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if want := filepath.Join("/home/agent", ".luxury-estates", "estates.db"); p != want {
		t.Errorf("path = %q, want %q", p, want)
	}
}

func TestOpenMySQLRejectsBadDSN(t *testing.T) {
	if _, err := OpenMySQL(context.Background(), "no-slash-here"); err == nil {
		t.Fatal("expected dsn parse error")
	}
}
