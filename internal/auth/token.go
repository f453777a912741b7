package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LoginLinkTTL is how long a magic link stays valid.
const LoginLinkTTL = 15 * time.Minute

// ErrInvalidToken covers unknown, used and expired magic link tokens.
var ErrInvalidToken = errors.New("invalid or expired login link")

// TokenStore issues single-use magic link tokens.
type TokenStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenStore creates a token store.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db, now: time.Now}
}

// Create issues a token for email and returns the raw value for the link.
func (s *TokenStore) Create(email string) (string, error) {
	raw, digest, err := newSecret("")
	if err != nil {
		return "", err
	}
	if _, err := s.db.Exec(
		"INSERT INTO auth_tokens (token, email, expires_at) VALUES (?, ?, ?)",
		digest, email, s.now().UTC().Add(LoginLinkTTL),
	); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return raw, nil
}

// Validate consumes a token and returns its email. Claiming and checking
// happen in one statement, so of two concurrent verifications only one
// succeeds.
func (s *TokenStore) Validate(raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalidToken
	}
	var email string
	err := s.db.QueryRow(
		`UPDATE auth_tokens SET used = 1
		 WHERE token = ? AND used = 0 AND expires_at > ?
		 RETURNING email`,
		digestOf(raw), s.now().UTC(),
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("claiming token: %w", err)
	}
	return email, nil
}

// Cleanup removes expired and used tokens.
func (s *TokenStore) Cleanup() error {
	if _, err := s.db.Exec(
		"DELETE FROM auth_tokens WHERE used = 1 OR expires_at <= ?", s.now().UTC(),
	); err != nil {
		return fmt.Errorf("cleaning up tokens: %w", err)
	}
	return nil
}
