package web

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/evcraddock/luxury-estates/internal/auth"
)

const (
	passkeyLoginCookie = "le_passkey_login"
	passkeyCeremonyTTL = 5 * time.Minute
)

// ceremonies holds WebAuthn session data between the begin and finish
// calls. Each entry can be taken once and only within the TTL.
type ceremonies struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string]ceremony
}

type ceremony struct {
	data    *webauthn.SessionData
	started time.Time
}

func newCeremonies(ttl time.Duration) *ceremonies {
	return &ceremonies{ttl: ttl, now: time.Now, pending: make(map[string]ceremony)}
}

// put stores data under key, replacing any earlier ceremony, and drops
// stale entries.
func (c *ceremonies) put(key string, data *webauthn.SessionData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, p := range c.pending {
		if now.Sub(p.started) > c.ttl {
			delete(c.pending, k)
		}
	}
	c.pending[key] = ceremony{data: data, started: now}
}

func (c *ceremonies) take(key string) (*webauthn.SessionData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[key]
	delete(c.pending, key)
	if !ok || c.now().Sub(p.started) > c.ttl {
		return nil, false
	}
	return p.data, true
}

// passkeyHandlers runs passkey registration (for signed-in users, keyed by
// email) and discoverable login (keyed by the challenge cookie).
type passkeyHandlers struct {
	wan      *webauthn.WebAuthn
	passkeys *auth.PasskeyStore
	sessions *auth.SessionStore
	users    *auth.UserStore
	secure   bool

	registrations *ceremonies
	logins        *ceremonies
}

func newPasskeyHandlers(cfg auth.Config, passkeys *auth.PasskeyStore, sessions *auth.SessionStore, users *auth.UserStore) (*passkeyHandlers, error) {
	origin := strings.TrimSuffix(cfg.BaseURL, "/")
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Luxury Estates",
		RPID:          u.Hostname(),
		RPOrigins:     []string{origin},
	})
	if err != nil {
		return nil, err
	}
	return &passkeyHandlers{
		wan:           wan,
		passkeys:      passkeys,
		sessions:      sessions,
		users:         users,
		secure:        cfg.SecureCookies(),
		registrations: newCeremonies(passkeyCeremonyTTL),
		logins:        newCeremonies(passkeyCeremonyTTL),
	}, nil
}

// passkeyUser loads email's credentials for a ceremony.
func (h *passkeyHandlers) passkeyUser(email string) (*auth.PasskeyUser, error) {
	creds, err := h.passkeys.WebAuthnCredentials(email)
	if err != nil {
		return nil, err
	}
	return auth.NewPasskeyUser(email, creds), nil
}

func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFromContext(r.Context())
	user, err := h.passkeyUser(email)
	if err != nil {
		slog.Error("loading credentials", "email", email, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	// Authenticators that already hold a passkey for this user are refused.
	var exclude []protocol.CredentialDescriptor
	for _, c := range user.WebAuthnCredentials() {
		exclude = append(exclude, c.Descriptor())
	}
	creation, data, err := h.wan.BeginRegistration(user, webauthn.WithExclusions(exclude))
	if err != nil {
		slog.Error("beginning registration", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	h.registrations.put(email, data)
	render.JSON(w, r, creation)
}

func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFromContext(r.Context())
	data, ok := h.registrations.take(email)
	if !ok {
		http.Error(w, "No registration in progress", http.StatusBadRequest)
		return
	}
	user, err := h.passkeyUser(email)
	if err != nil {
		slog.Error("loading credentials", "email", email, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	cred, err := h.wan.FinishRegistration(user, *data, r)
	if err != nil {
		slog.Warn("finishing registration", "email", email, "error", err)
		http.Error(w, "Registration failed", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}
	if err := h.passkeys.Save(email, name, cred); err != nil {
		slog.Error("saving credential", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	slog.Info("passkey registered", "email", email, "name", name)
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, data, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	h.logins.put(data.Challenge, data)

	http.SetCookie(w, &http.Cookie{
		Name:     passkeyLoginCookie,
		Value:    data.Challenge,
		Path:     "/passkey/",
		MaxAge:   int(passkeyCeremonyTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	render.JSON(w, r, assertion)
}

// handleFinishLogin verifies the assertion, records the credential's new
// state and starts a session.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(passkeyLoginCookie)
	if err != nil {
		http.Error(w, "No login in progress", http.StatusBadRequest)
		return
	}
	data, ok := h.logins.take(c.Value)
	if !ok {
		http.Error(w, "No login in progress", http.StatusBadRequest)
		return
	}

	var email string
	resolve := func(_, userHandle []byte) (webauthn.User, error) {
		emails, err := h.users.AllEmails()
		if err != nil {
			return nil, err
		}
		for _, e := range emails {
			if bytes.Equal(auth.NewPasskeyUser(e, nil).WebAuthnID(), userHandle) {
				user, err := h.passkeyUser(e)
				if err != nil {
					return nil, err
				}
				email = e
				return user, nil
			}
		}
		return nil, protocol.ErrBadRequest.WithDetails("unknown user")
	}

	_, cred, err := h.wan.FinishPasskeyLogin(resolve, *data, r)
	if err != nil {
		slog.Warn("finishing passkey login", "error", err)
		http.Error(w, "Login failed", http.StatusUnauthorized)
		return
	}
	if cred.Authenticator.CloneWarning {
		slog.Warn("passkey sign count went backwards", "email", email)
	}
	if err := h.passkeys.RecordLogin(email, cred); err != nil {
		slog.Warn("recording passkey use", "email", email, "error", err)
	}
	if err := h.sessions.Create(w, email); err != nil {
		slog.Error("creating session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("login success", "email", email, "method", "passkey")
	render.JSON(w, r, map[string]string{"status": "ok"})
}
