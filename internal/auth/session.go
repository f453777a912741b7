package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// SessionTTL is the lifetime of a studio session.
	SessionTTL = 30 * 24 * time.Hour
	cookieName = "le_session"
)

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("no valid session")

// SessionStore keeps studio sessions. The cookie holds a random id and the
// table holds its digest.
type SessionStore struct {
	db     *sql.DB
	secure bool
	now    func() time.Time
}

// NewSessionStore creates a session store. secure sets the Secure flag on
// the session cookie.
func NewSessionStore(db *sql.DB, secure bool) *SessionStore {
	return &SessionStore{db: db, secure: secure, now: time.Now}
}

// Create starts a session for email and sets the cookie.
func (s *SessionStore) Create(w http.ResponseWriter, email string) error {
	raw, digest, err := newSecret("")
	if err != nil {
		return err
	}
	expires := s.now().UTC().Add(SessionTTL)
	if _, err := s.db.Exec(
		"INSERT INTO sessions (id, email, expires_at) VALUES (?, ?, ?)",
		digest, email, expires,
	); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	http.SetCookie(w, s.cookie(raw, expires))
	return nil
}

// Validate returns the email of the request's session.
func (s *SessionStore) Validate(r *http.Request) (string, error) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}

	var email string
	err = s.db.QueryRow(
		"SELECT email FROM sessions WHERE id = ? AND expires_at > ?",
		digestOf(c.Value), s.now().UTC(),
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("querying session: %w", err)
	}
	return email, nil
}

// Destroy ends the request's session, if any, and clears the cookie.
func (s *SessionStore) Destroy(w http.ResponseWriter, r *http.Request) error {
	if c, err := r.Cookie(cookieName); err == nil {
		if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", digestOf(c.Value)); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
	}
	expired := s.cookie("", time.Unix(0, 0))
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	return nil
}

// DestroyAll ends every session of email. Removing a studio user calls it.
func (s *SessionStore) DestroyAll(email string) error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE email = ?", email); err != nil {
		return fmt.Errorf("deleting sessions for %s: %w", email, err)
	}
	return nil
}

// Cleanup removes expired sessions.
func (s *SessionStore) Cleanup() error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE expires_at <= ?", s.now().UTC()); err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	return nil
}

func (s *SessionStore) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
