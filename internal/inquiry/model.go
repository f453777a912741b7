// Package inquiry stores contact requests sent from a property page.
package inquiry

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var (
	// ErrInvalid is wrapped by validation failures.
	ErrInvalid = errors.New("invalid inquiry")
	// ErrNotFound is returned when deleting an unknown inquiry.
	ErrNotFound = errors.New("inquiry not found")
)

// Inquiry is a visitor's message about a listing.
type Inquiry struct {
	ID         int64     `json:"id"`
	PropertyID string    `json:"propertyId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Form is the submitted contact form.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (f *Form) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Message = strings.TrimSpace(f.Message)
}

// Validate reports the first missing or malformed field.
func (f Form) Validate() error {
	f.normalize()
	switch {
	case f.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case f.Email == "":
		return fmt.Errorf("%w: email is required", ErrInvalid)
	case f.Message == "":
		return fmt.Errorf("%w: message is required", ErrInvalid)
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return fmt.Errorf("%w: email %q is not valid", ErrInvalid, f.Email)
	}
	return nil
}
