package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// User is someone other than the admin who may sign into the studio.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore is the studio allow list. The configured admin email is always
// allowed and never stored.
type UserStore struct {
	db    *sql.DB
	admin string
	now   func() time.Time
}

// NewUserStore creates a user store with adminEmail as the admin.
func NewUserStore(db *sql.DB, adminEmail string) *UserStore {
	return &UserStore{db: db, admin: normalizeEmail(adminEmail), now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const userColumns = "id, email, name, created_at"

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// IsAdmin reports whether email is the configured admin.
func (s *UserStore) IsAdmin(email string) bool {
	return s.admin != "" && normalizeEmail(email) == s.admin
}

// IsAuthorized reports whether email may request a login link. Lookup
// failures deny access.
func (s *UserStore) IsAuthorized(email string) bool {
	email = normalizeEmail(email)
	if email == "" {
		return false
	}
	if email == s.admin {
		return true
	}
	_, err := s.GetByEmail(email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		slog.Warn("checking authorized user", "email", email, "error", err)
	}
	return err == nil
}

// Add allows email into the studio.
func (s *UserStore) Add(email, name string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.New("email is required")
	}

	res, err := s.db.Exec(
		"INSERT INTO authorized_users (email, name, created_at) VALUES (?, ?, ?)",
		email, strings.TrimSpace(name), s.now().UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns the user with id.
func (s *UserStore) GetByID(id int64) (*User, error) {
	return s.get("id = ?", id)
}

// GetByEmail returns the user with email, ignoring case.
func (s *UserStore) GetByEmail(email string) (*User, error) {
	return s.get("LOWER(email) = ?", normalizeEmail(email))
}

func (s *UserStore) get(where string, arg any) (*User, error) {
	u, err := scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM authorized_users WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// List returns the stored users ordered by email.
func (s *UserStore) List() ([]*User, error) {
	rows, err := s.db.Query("SELECT " + userColumns + " FROM authorized_users ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Delete removes the user with id.
func (s *UserStore) Delete(id int64) error {
	res, err := s.db.Exec("DELETE FROM authorized_users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	} else if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AllEmails returns the admin email followed by every stored email, each
// once. Passkey login resolves user handles against it.
func (s *UserStore) AllEmails() ([]string, error) {
	users, err := s.List()
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(users)+1)
	if s.admin != "" {
		emails = append(emails, s.admin)
	}
	for _, u := range users {
		if e := normalizeEmail(u.Email); e != s.admin {
			emails = append(emails, e)
		}
	}
	return emails, nil
}
