package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	apiKeyPrefix = "le_"
	// shownPrefix is how much of a key the settings page shows.
	shownPrefix = 8
)

// ErrKeyNotFound is returned when deleting a key the caller does not own.
var ErrKeyNotFound = errors.New("key not found")

// APIKey is a stored key. The raw key is only returned by Create.
type APIKey struct {
	ID         int64
	Name       string
	Email      string
	KeyPrefix  string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// APIKeyStore manages bearer keys for the REST API.
type APIKeyStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(db *sql.DB) *APIKeyStore {
	return &APIKeyStore{db: db, now: time.Now}
}

// Create issues a key owned by email and returns the raw key with its
// stored record.
func (s *APIKeyStore) Create(name, email string) (string, *APIKey, error) {
	raw, digest, err := newSecret(apiKeyPrefix)
	if err != nil {
		return "", nil, err
	}
	k := &APIKey{
		Name:      strings.TrimSpace(name),
		Email:     email,
		KeyPrefix: raw[:shownPrefix],
		CreatedAt: s.now().UTC(),
	}

	res, err := s.db.Exec(
		"INSERT INTO api_keys (name, key_prefix, key_hash, email, created_at) VALUES (?, ?, ?, ?, ?)",
		k.Name, k.KeyPrefix, digest, k.Email, k.CreatedAt,
	)
	if err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}
	if k.ID, err = res.LastInsertId(); err != nil {
		return "", nil, fmt.Errorf("getting key id: %w", err)
	}
	return raw, k, nil
}

// List returns the keys owned by email, newest first.
func (s *APIKeyStore) List(email string) ([]APIKey, error) {
	rows, err := s.db.Query(
		`SELECT id, name, email, key_prefix, created_at, last_used_at
		 FROM api_keys WHERE email = ? ORDER BY created_at DESC, id DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.Email, &k.KeyPrefix, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Delete removes a key if it belongs to email.
func (s *APIKeyStore) Delete(id int64, email string) error {
	res, err := s.db.Exec("DELETE FROM api_keys WHERE id = ? AND email = ?", id, email)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	} else if n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// DeleteAll removes every key owned by email.
func (s *APIKeyStore) DeleteAll(email string) error {
	if _, err := s.db.Exec("DELETE FROM api_keys WHERE email = ?", email); err != nil {
		return fmt.Errorf("deleting keys for %s: %w", email, err)
	}
	return nil
}

// Validate returns the owner of a raw key, or "" when the key is unknown,
// and records the use.
func (s *APIKeyStore) Validate(raw string) (string, error) {
	if !strings.HasPrefix(raw, apiKeyPrefix) {
		return "", nil
	}
	var email string
	err := s.db.QueryRow(
		"UPDATE api_keys SET last_used_at = ? WHERE key_hash = ? RETURNING email",
		s.now().UTC(), digestOf(raw),
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("validating key: %w", err)
	}
	return email, nil
}
