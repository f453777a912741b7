package auth

import (
	"fmt"
	"log/slog"

	"github.com/evcraddock/luxury-estates/internal/email"
)

// Mailer sends magic link emails.
type Mailer struct {
	config Config
	sender email.Sender
}

// NewMailer creates a mailer that delivers through SMTP.
func NewMailer(config Config) *Mailer {
	return &Mailer{config: config, sender: email.SMTP{Config: config.SMTP()}}
}

// NewMailerWithSender creates a mailer that delivers through sender.
func NewMailerWithSender(config Config, sender email.Sender) *Mailer {
	return &Mailer{config: config, sender: sender}
}

// SendMagicLink sends a studio login link or logs it in dev mode.
// Returns the magic link URL.
func (m *Mailer) SendMagicLink(to, token string) (string, error) {
	return m.send(to, "/auth/verify?token="+token,
		"Luxury Estates Studio Login Link",
		"Click the link below to sign in to the Luxury Estates studio:")
}

// SendCLIMagicLink sends a link that completes a CLI login.
func (m *Mailer) SendCLIMagicLink(to, token string) (string, error) {
	return m.send(to, "/cli/auth/verify?token="+token,
		"Luxury Estates CLI Login Link",
		"Click the link below to sign in to the le command line tool:")
}

func (m *Mailer) send(to, path, subject, intro string) (string, error) {
	link := m.config.BaseURL + path

	if m.config.DevMode {
		slog.Info("magic link", "email", to, "link", link)
		return link, nil
	}

	body := fmt.Sprintf("%s\n\n%s\n\nThis link expires in %d minutes and can only be used once.",
		intro, link, int(LoginLinkTTL.Minutes()))
	if err := m.sender.Send([]string{to}, subject, body); err != nil {
		return "", fmt.Errorf("sending email: %w", err)
	}
	return link, nil
}
