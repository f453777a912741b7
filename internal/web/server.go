// Package web provides the HTTP server: the public listing pages, the
// studio, the auth flows and the JSON API.
package web

import (
	"bytes"
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/evcraddock/luxury-estates/internal/auth"
	"github.com/evcraddock/luxury-estates/internal/email"
	"github.com/evcraddock/luxury-estates/internal/inquiry"
	"github.com/evcraddock/luxury-estates/internal/logging"
	"github.com/evcraddock/luxury-estates/internal/metrics"
	"github.com/evcraddock/luxury-estates/internal/property"
	"github.com/evcraddock/luxury-estates/internal/proptype"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Login form posts allowed per IP per minute.
const loginRateLimit = 20

// Deps are the collaborators a Server is built from.
type Deps struct {
	Properties *property.Service
	Types      *proptype.Service
	Inquiries  *inquiry.Repository

	// DB holds the auth tables.
	DB   *sql.DB
	Auth auth.Config

	// Mailer sends magic links. Nil uses SMTP from Auth.
	Mailer *auth.Mailer
	// Notifier delivers inquiry notifications to the admin. Nil uses SMTP
	// when it is configured and otherwise only logs.
	Notifier email.Sender

	// Registry is served at /metrics when set.
	Registry       *prometheus.Registry
	RequestTimeout time.Duration
}

// Server is the HTTP server.
type Server struct {
	props     *property.Service
	types     *proptype.Service
	inquiries *inquiry.Repository
	config    auth.Config
	notifier  email.Sender

	sessions *auth.SessionStore
	tokens   *auth.TokenStore
	apiKeys  *auth.APIKeyStore
	users    *auth.UserStore
	passkeys *auth.PasskeyStore
	mailer   *auth.Mailer

	templates *template.Template
	router    chi.Router
}

// NewServer builds the server and its routes.
func NewServer(d Deps) (*Server, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		props:     d.Properties,
		types:     d.Types,
		inquiries: d.Inquiries,
		config:    d.Auth,
		notifier:  d.Notifier,
		sessions:  auth.NewSessionStore(d.DB, d.Auth.SecureCookies()),
		tokens:    auth.NewTokenStore(d.DB),
		apiKeys:   auth.NewAPIKeyStore(d.DB),
		users:     auth.NewUserStore(d.DB, d.Auth.AdminEmail),
		passkeys:  auth.NewPasskeyStore(d.DB),
		mailer:    d.Mailer,
		templates: tmpl,
	}
	if s.mailer == nil {
		s.mailer = auth.NewMailer(d.Auth)
	}
	if s.notifier == nil && d.Auth.SMTP().IsConfigured() {
		s.notifier = email.SMTP{Config: d.Auth.SMTP()}
	}

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	if err := s.routes(d.Registry, timeout); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes(reg *prometheus.Registry, timeout time.Duration) error {
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static sub-fs: %w", err)
	}

	ah := newAuthHandlers(s)
	ph, err := newPasskeyHandlers(s.config, s.passkeys, s.sessions, s.users)
	if err != nil {
		return fmt.Errorf("configuring passkeys: %w", err)
	}
	kh := &apikeyHandlers{apiKeys: s.apiKeys}
	uh := &userHandlers{users: s.users, sessions: s.sessions, apiKeys: s.apiKeys, passkeys: s.passkeys}

	loginLimit := httprate.LimitByIP(loginRateLimit, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.NotFound(s.handleNotFound)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	r.Get("/health", s.handleHealth)
	if reg != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(reg))
	}

	r.Get("/", s.handleHome)
	r.Get("/buy", s.handleBuy)
	r.Get("/property/{id}", s.handleProperty)
	r.Post("/property/{id}/inquiry", s.handleInquiry)

	r.Get("/login", ah.form(ah.studio))
	r.With(loginLimit).Post("/auth/login", ah.request(ah.studio))
	r.Get("/auth/verify", ah.verify(ah.studio))
	r.Get("/auth/logout", ah.handleLogout)
	r.Post("/auth/logout", ah.handleLogout)

	r.Route("/passkey", func(r chi.Router) {
		r.With(loginLimit).Post("/login/begin", ph.handleBeginLogin)
		r.With(loginLimit).Post("/login/finish", ph.handleFinishLogin)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSessionAPI(s.sessions))
			r.Post("/register/begin", ph.handleBeginRegistration)
			r.Post("/register/finish", ph.handleFinishRegistration)
		})
	})

	r.Get("/cli/auth", ah.form(ah.cli))
	r.With(loginLimit).Post("/cli/auth", ah.request(ah.cli))
	r.Get("/cli/auth/verify", ah.verify(ah.cli))
	r.Get("/cli/auth/complete", ah.handleCLIComplete)

	r.Route("/studio", func(r chi.Router) {
		r.Use(auth.RequireSession(s.sessions))
		r.Get("/", s.handleStudio)
		r.Post("/properties", s.handleStudioCreate)
		r.Post("/properties/compact", s.handleStudioCompact)
		r.Get("/properties/{id}/edit", s.handleStudioEdit)
		r.Post("/properties/{id}", s.handleStudioUpdate)
		r.Post("/properties/{id}/delete", s.handleStudioDelete)
		r.Post("/properties/{id}/move", s.handleStudioMove)
		r.Post("/properties/{id}/locate", s.handleStudioLocate)

		r.Get("/types", s.handleStudioTypes)
		r.Post("/types", s.handleStudioTypeAdd)
		r.Post("/types/{id}/rename", s.handleStudioTypeRename)
		r.Post("/types/{id}/delete", s.handleStudioTypeDelete)
		r.Post("/types/{id}/move", s.handleStudioTypeMove)

		r.Get("/inquiries", s.handleStudioInquiries)
		r.Post("/inquiries/{id}/delete", s.handleStudioInquiryDelete)

		r.Get("/settings", s.handleSettings)
		r.Post("/settings/passkeys/delete", s.handlePasskeyDelete)
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAPIKey(s.apiKeys, s.sessions, false))
			r.Get("/properties", s.apiListProperties)
			r.Post("/properties", s.apiAddProperty)
			r.Post("/properties/reorder", s.apiReorderProperties)
			r.Post("/properties/compact", s.apiCompactProperties)
			r.Get("/properties/{id}", s.apiGetProperty)
			r.Put("/properties/{id}", s.apiUpdateProperty)
			r.Delete("/properties/{id}", s.apiDeleteProperty)
			r.Post("/properties/{id}/locate", s.apiLocateProperty)

			r.Get("/types", s.apiListTypes)
			r.Post("/types", s.apiAddType)
			r.Post("/types/reorder", s.apiReorderTypes)
			r.Put("/types/{id}", s.apiRenameType)
			r.Delete("/types/{id}", s.apiDeleteType)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAPIKey(s.apiKeys, s.sessions, true))
			r.Get("/inquiries", s.apiListInquiries)
			r.Delete("/inquiries/{id}", s.apiDeleteInquiry)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSessionAPI(s.sessions))
			r.Get("/keys", kh.handleListKeys)
			r.Post("/keys", kh.handleCreateKey)
			r.Delete("/keys/{id}", kh.handleDeleteKey)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSessionAPI(s.sessions), s.requireAdmin)
			r.Get("/users", uh.listUsers)
			r.Post("/users", uh.addUser)
			r.Delete("/users/{id}", uh.deleteUser)
		})
	})

	s.router = r
	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Cleanup removes expired sessions and login tokens.
func (s *Server) Cleanup() error {
	if err := s.sessions.Cleanup(); err != nil {
		return err
	}
	return s.tokens.Cleanup()
}

// instrument records request metrics under the matched route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := logging.RoutePattern(r)
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ObserveHTTP(route, r.Method, status, time.Since(start))
	})
}

// requireAdmin answers 403 unless the session belongs to the admin.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.users.IsAdmin(auth.EmailFromContext(r.Context())) {
			apiMessage(w, r, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderStatus(w, http.StatusNotFound, "not_found.html", notFoundData{chrome: s.chrome(r, "Not Found")})
}

// render executes a full page template with status 200.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	s.renderStatus(w, http.StatusOK, name, data)
}

// renderStatus executes a page template into a buffer so a template error
// still yields a clean 500.
func (s *Server) renderStatus(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing response", "template", name, "error", err)
	}
}

// chrome is the page frame shared by every template.
type chrome struct {
	Title   string
	Email   string
	IsAdmin bool
}

func (s *Server) chrome(r *http.Request, title string) chrome {
	c := chrome{Title: title, Email: auth.EmailFromContext(r.Context())}
	if c.Email == "" {
		if email, err := s.sessions.Validate(r); err == nil {
			c.Email = email
		}
	}
	c.IsAdmin = c.Email != "" && s.users.IsAdmin(c.Email)
	return c
}
