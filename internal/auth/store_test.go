package auth

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/luxury-estates/internal/db"
)

const testAdmin = "admin@example.com"

// testClock is shared by every store in a fixture so tests can move time.
type testClock struct{ t time.Time }

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type authFixture struct {
	db       *sql.DB
	clock    *testClock
	tokens   *TokenStore
	sessions *SessionStore
	apiKeys  *APIKeyStore
	passkeys *PasskeyStore
	users    *UserStore
}

func testFixture(t *testing.T) *authFixture {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	clk := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	f := &authFixture{
		db:       d,
		clock:    clk,
		tokens:   NewTokenStore(d),
		sessions: NewSessionStore(d, false),
		apiKeys:  NewAPIKeyStore(d),
		passkeys: NewPasskeyStore(d),
		users:    NewUserStore(d, testAdmin),
	}
	f.tokens.now = clk.now
	f.sessions.now = clk.now
	f.apiKeys.now = clk.now
	f.passkeys.now = clk.now
	f.users.now = clk.now
	return f
}

func (f *authFixture) sessionCookie(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if err := f.sessions.Create(w, email); err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// count returns the number of rows in table.
func (f *authFixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
