package inquiry

import (
	"database/sql"
	"fmt"
	"log/slog"
)

const selectColumns = "SELECT id, property_id, name, email, phone, message, created_at FROM inquiries"

// Repository provides data access for inquiries.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an inquiry repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add stores a validated inquiry for a property.
func (r *Repository) Add(propertyID string, f Form) (*Inquiry, error) {
	if propertyID == "" {
		return nil, fmt.Errorf("%w: property id is required", ErrInvalid)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	f.normalize()

	result, err := r.db.Exec(
		"INSERT INTO inquiries (property_id, name, email, phone, message) VALUES (?, ?, ?, ?, ?)",
		propertyID, f.Name, f.Email, f.Phone, f.Message,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting inquiry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	var inq Inquiry
	if err := scan(r.db.QueryRow(selectColumns+" WHERE id = ?", id), &inq); err != nil {
		return nil, fmt.Errorf("reading back inquiry: %w", err)
	}
	return &inq, nil
}

// ListByPropertyID returns the inquiries for one property, newest first.
func (r *Repository) ListByPropertyID(propertyID string) ([]*Inquiry, error) {
	return r.query(selectColumns+" WHERE property_id = ? ORDER BY id DESC", propertyID)
}

// List returns every inquiry, newest first.
func (r *Repository) List() ([]*Inquiry, error) {
	return r.query(selectColumns + " ORDER BY id DESC")
}

// Delete removes an inquiry by ID.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM inquiries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting inquiry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("inquiry %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteByPropertyID removes every inquiry about a property and returns how
// many were removed. Listings may live in another backend, so this runs
// from the delete path instead of a foreign key.
func (r *Repository) DeleteByPropertyID(propertyID string) (int64, error) {
	result, err := r.db.Exec("DELETE FROM inquiries WHERE property_id = ?", propertyID)
	if err != nil {
		return 0, fmt.Errorf("deleting inquiries for %s: %w", propertyID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

func (r *Repository) query(q string, args ...any) ([]*Inquiry, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inquiries: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var out []*Inquiry
	for rows.Next() {
		var inq Inquiry
		if err := scan(rows, &inq); err != nil {
			return nil, fmt.Errorf("scanning inquiry: %w", err)
		}
		out = append(out, &inq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inquiries: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner, inq *Inquiry) error {
	return s.Scan(&inq.ID, &inq.PropertyID, &inq.Name, &inq.Email, &inq.Phone, &inq.Message, &inq.CreatedAt)
}
