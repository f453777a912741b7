// Package auth provides studio authentication via magic link email,
// passkeys, sessions and API keys.
package auth

import (
	"strings"

	"github.com/evcraddock/luxury-estates/internal/email"
)

// Config holds authentication configuration.
type Config struct {
	AdminEmail string
	SMTPHost   string
	SMTPPort   string
	SMTPUser   string
	SMTPPass   string
	SMTPFrom   string
	DevMode    bool
	BaseURL    string // e.g. http://localhost:8080
}

// SMTP returns the mail settings.
func (c Config) SMTP() email.SMTPConfig {
	return email.SMTPConfig{
		Host: c.SMTPHost,
		Port: c.SMTPPort,
		User: c.SMTPUser,
		Pass: c.SMTPPass,
		From: c.SMTPFrom,
	}
}

// SecureCookies reports whether session cookies need the Secure flag.
func (c Config) SecureCookies() bool {
	return !c.DevMode && strings.HasPrefix(c.BaseURL, "https://")
}
