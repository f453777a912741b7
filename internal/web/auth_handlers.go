package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/luxury-estates/internal/auth"
)

// Shown for every submitted address so the form cannot be used to probe
// which emails are registered.
const loginSentMessage = "If that email is registered, a login link has been sent. Check your inbox."

// linkFlow is one way of signing in by emailed link. The studio and the
// CLI share the ceremony and differ in page, mail and where the new
// session lands.
type linkFlow struct {
	name    string
	page    string
	title   string
	landing string
	send    func(to, token string) (string, error)
	// offerPasskeys shows the passkey button only once one is registered.
	offerPasskeys bool
}

type authPage struct {
	chrome
	Message     string
	Error       string
	APIKey      string
	HasPasskeys bool
}

// authHandlers serves magic link sign-in, logout and the CLI key handoff.
type authHandlers struct {
	tokens   *auth.TokenStore
	sessions *auth.SessionStore
	users    *auth.UserStore
	passkeys *auth.PasskeyStore
	apiKeys  *auth.APIKeyStore
	render   func(w http.ResponseWriter, name string, data any)

	studio, cli linkFlow
}

func newAuthHandlers(s *Server) *authHandlers {
	return &authHandlers{
		tokens:   s.tokens,
		sessions: s.sessions,
		users:    s.users,
		passkeys: s.passkeys,
		apiKeys:  s.apiKeys,
		render:   s.render,
		studio: linkFlow{
			name: "magic_link", page: "login.html", title: "Sign In",
			landing: "/studio", send: s.mailer.SendMagicLink,
		},
		cli: linkFlow{
			name: "cli_magic_link", page: "cli_auth.html", title: "CLI Login",
			landing: "/cli/auth/complete", send: s.mailer.SendCLIMagicLink,
			offerPasskeys: true,
		},
	}
}

func (h *authHandlers) show(w http.ResponseWriter, f linkFlow, p authPage) {
	p.Title = f.title
	if f.offerPasskeys && p.APIKey == "" {
		ok, err := h.passkeys.Registered()
		if err != nil {
			slog.Warn("checking passkeys", "error", err)
		}
		p.HasPasskeys = ok
	}
	h.render(w, f.page, p)
}

func (h *authHandlers) form(f linkFlow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.show(w, f, authPage{})
	}
}

// request mails a link when the address may sign in. The answer is the
// same either way.
func (h *authHandlers) request(f linkFlow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
		if email == "" {
			h.show(w, f, authPage{Error: "Email is required"})
			return
		}

		if !h.users.IsAuthorized(email) {
			slog.Info("login requested for unknown email", "email", email, "flow", f.name)
		} else if token, err := h.tokens.Create(email); err != nil {
			slog.Error("creating login token", "error", err)
		} else if _, err := f.send(email, token); err != nil {
			slog.Error("sending login link", "email", email, "error", err)
		}
		h.show(w, f, authPage{Message: loginSentMessage})
	}
}

// verify redeems a link and starts a session.
func (h *authHandlers) verify(f linkFlow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			h.show(w, f, authPage{Error: "Invalid login link"})
			return
		}
		email, err := h.tokens.Validate(token)
		if err != nil {
			h.show(w, f, authPage{Error: "Invalid or expired login link. Please request a new one."})
			return
		}
		if err := h.sessions.Create(w, email); err != nil {
			slog.Error("creating session", "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		slog.Info("login success", "email", email, "method", f.name)
		http.Redirect(w, r, f.landing, http.StatusSeeOther)
	}
}

// handleCLIComplete mints an API key for the session user and shows it
// once for `le login` to read.
func (h *authHandlers) handleCLIComplete(w http.ResponseWriter, r *http.Request) {
	email, err := h.sessions.Validate(r)
	if err != nil {
		http.Redirect(w, r, "/cli/auth", http.StatusSeeOther)
		return
	}
	raw, _, err := h.apiKeys.Create("CLI", email)
	if err != nil {
		slog.Error("creating api key", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	slog.Info("cli key issued", "email", email)
	h.show(w, h.cli, authPage{APIKey: raw})
}

func (h *authHandlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		slog.Warn("destroying session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
