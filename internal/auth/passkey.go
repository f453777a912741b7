package auth

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// ErrCredentialNotFound is returned when a passkey does not exist for the
// caller.
var ErrCredentialNotFound = errors.New("passkey not found")

// PasskeyUser adapts a studio email to webauthn.User.
type PasskeyUser struct {
	email       string
	credentials []webauthn.Credential
}

// NewPasskeyUser wraps email and its registered credentials.
func NewPasskeyUser(email string, credentials []webauthn.Credential) *PasskeyUser {
	return &PasskeyUser{email: email, credentials: credentials}
}

// WebAuthnID is the sha256 of the email, so it never changes for a user.
func (u *PasskeyUser) WebAuthnID() []byte {
	sum := sha256.Sum256([]byte(u.email))
	return sum[:]
}

func (u *PasskeyUser) WebAuthnName() string                       { return u.email }
func (u *PasskeyUser) WebAuthnDisplayName() string                { return u.email }
func (u *PasskeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// StoredCredential is a registered passkey and its bookkeeping.
type StoredCredential struct {
	ID         string
	Email      string
	Name       string
	CreatedAt  time.Time
	LastUsedAt *time.Time
	Credential webauthn.Credential
}

// PasskeyStore persists WebAuthn credentials.
type PasskeyStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPasskeyStore creates a passkey store.
func NewPasskeyStore(db *sql.DB) *PasskeyStore {
	return &PasskeyStore{db: db, now: time.Now}
}

func credentialID(cred *webauthn.Credential) string {
	return hex.EncodeToString(cred.ID)
}

// Save registers cred for email under a display name.
func (s *PasskeyStore) Save(email, name string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	if _, err := s.db.Exec(
		"INSERT INTO passkey_credentials (id, email, name, credential_json, created_at) VALUES (?, ?, ?, ?, ?)",
		credentialID(cred), email, name, string(data), s.now().UTC(),
	); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// RecordLogin stores the credential state returned by a successful login,
// which carries the authenticator's new sign count.
func (s *PasskeyStore) RecordLogin(email string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	res, err := s.db.Exec(
		"UPDATE passkey_credentials SET credential_json = ?, last_used_at = ? WHERE id = ? AND email = ?",
		string(data), s.now().UTC(), credentialID(cred), email,
	)
	if err != nil {
		return fmt.Errorf("updating credential: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	} else if n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

// ListByEmail returns the passkeys registered by email, oldest first.
func (s *PasskeyStore) ListByEmail(email string) ([]StoredCredential, error) {
	rows, err := s.db.Query(
		`SELECT id, email, name, created_at, last_used_at, credential_json
		 FROM passkey_credentials WHERE email = ? ORDER BY created_at, id`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var out []StoredCredential
	for rows.Next() {
		var (
			sc   StoredCredential
			data string
		)
		if err := rows.Scan(&sc.ID, &sc.Email, &sc.Name, &sc.CreatedAt, &sc.LastUsedAt, &data); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &sc.Credential); err != nil {
			return nil, fmt.Errorf("decoding credential %s: %w", sc.ID, err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// WebAuthnCredentials returns the raw credentials for a login or
// registration ceremony.
func (s *PasskeyStore) WebAuthnCredentials(email string) ([]webauthn.Credential, error) {
	stored, err := s.ListByEmail(email)
	if err != nil {
		return nil, err
	}
	creds := make([]webauthn.Credential, 0, len(stored))
	for _, sc := range stored {
		creds = append(creds, sc.Credential)
	}
	return creds, nil
}

// Registered reports whether anyone has registered a passkey.
func (s *PasskeyStore) Registered() (bool, error) {
	var ok bool
	if err := s.db.QueryRow("SELECT EXISTS (SELECT 1 FROM passkey_credentials)").Scan(&ok); err != nil {
		return false, fmt.Errorf("checking passkeys: %w", err)
	}
	return ok, nil
}

// Delete removes a passkey owned by email.
func (s *PasskeyStore) Delete(id, email string) error {
	res, err := s.db.Exec("DELETE FROM passkey_credentials WHERE id = ? AND email = ?", id, email)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	} else if n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

// DeleteAll removes every passkey registered by email.
func (s *PasskeyStore) DeleteAll(email string) error {
	if _, err := s.db.Exec("DELETE FROM passkey_credentials WHERE email = ?", email); err != nil {
		return fmt.Errorf("deleting passkeys for %s: %w", email, err)
	}
	return nil
}
