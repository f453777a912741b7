package email

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// ErrNotConfigured is returned by SMTP.Send without a host and sender.
var ErrNotConfigured = errors.New("SMTP not configured")

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured reports whether a host and sender address are set.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// Sender delivers a plain-text message.
type Sender interface {
	Send(to []string, subject, body string) error
}

// SMTP is a Sender backed by an SMTP server. Port 465 uses implicit TLS;
// any other port is upgraded with STARTTLS when the server offers it.
type SMTP struct {
	Config SMTPConfig
	// Timeout bounds the dial. Zero means 30 seconds.
	Timeout time.Duration
}

// Send implements Sender.
func (s SMTP) Send(to []string, subject, body string) (err error) {
	cfg := s.Config
	if !cfg.IsConfigured() {
		return ErrNotConfigured
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	c, err := s.dial()
	if err != nil {
		return err
	}
	defer func() {
		if qerr := c.Quit(); qerr != nil && err == nil {
			err = fmt.Errorf("smtp quit: %w", qerr)
		}
	}()

	if cfg.User != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}
	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(buildMessage(cfg.From, to, subject, body, time.Now())); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return w.Close()
}

func (s SMTP) dial() (*smtp.Client, error) {
	cfg := s.Config
	port := cfg.Port
	if port == "" {
		port = "587"
	}
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	addr := net.JoinHostPort(cfg.Host, port)
	tlsCfg := &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	d := &net.Dialer{Timeout: timeout}

	var conn net.Conn
	var err error
	if port == "465" {
		conn, err = tls.DialWithDialer(d, "tcp", addr, tlsCfg)
	} else {
		conn, err = d.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}
	if port != "465" {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsCfg); err != nil {
				_ = c.Close()
				return nil, fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	return c, nil
}

// buildMessage renders an RFC 5322 plain-text message with CRLF line
// endings.
func buildMessage(from string, to []string, subject, body string, date time.Time) []byte {
	var b strings.Builder
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", from)
	header("To", strings.Join(to, ", "))
	header("Subject", subject)
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}
