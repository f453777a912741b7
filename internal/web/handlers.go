package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/luxury-estates/internal/collection"
	"github.com/evcraddock/luxury-estates/internal/email"
	"github.com/evcraddock/luxury-estates/internal/inquiry"
	"github.com/evcraddock/luxury-estates/internal/property"
	"github.com/evcraddock/luxury-estates/internal/proptype"
)

// Listings shown on the home page.
const featuredCount = 6

// Shown in place of a listing that could not be loaded.
const loadErrorMessage = "Listings are unavailable right now. Please try again shortly."

type homeData struct {
	chrome
	Featured []*property.Property
	Error    string
}

type buyData struct {
	chrome
	Properties  []*property.Property
	Filter      property.Filter
	Types       []string
	BedChoices  []int
	BathChoices []float64
	Error       string
}

type notFoundData struct {
	chrome
	Error string
}

type propertyData struct {
	chrome
	Property *property.Property
	Form     inquiry.Form
	Sent     bool
	Error    string
}

// handleHome renders the landing page with the featured listings.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := homeData{chrome: s.chrome(r, "Discover Your Dream Home")}
	featured, err := s.props.Featured(r.Context(), featuredCount)
	if err != nil {
		slog.Error("loading featured listings", "error", err)
		data.Error = loadErrorMessage
	}
	data.Featured = featured
	s.render(w, "home.html", data)
}

// handleBuy renders the filtered listing.
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	f := property.FilterFromQuery(r.URL.Query())
	data := buyData{
		chrome:      s.chrome(r, "Properties for Sale"),
		Filter:      f,
		BedChoices:  []int{1, 2, 3, 4, 5},
		BathChoices: []float64{1, 1.5, 2, 3, 4},
	}

	props, err := s.props.Search(r.Context(), f)
	if err != nil {
		slog.Error("searching listings", "error", err)
		data.Error = loadErrorMessage
	}
	data.Properties = props
	data.Types = s.typeOptions(r)

	s.render(w, "buy.html", data)
}

// typeOptions returns the type filter choices. Failures degrade to the
// labels that are in use, or to no choices at all.
func (s *Server) typeOptions(r *http.Request) []string {
	names, err := s.types.Names(r.Context())
	if err != nil {
		slog.Warn("loading property types", "error", err)
	}
	labels, err := s.props.Labels(r.Context())
	if err != nil {
		slog.Warn("loading type labels", "error", err)
	}
	return proptype.Options(names, labels)
}

// handleProperty renders the detail page.
func (s *Server) handleProperty(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProperty(w, r)
	if !ok {
		return
	}
	s.render(w, "property.html", propertyData{
		chrome:   s.chrome(r, p.Title),
		Property: p,
		Sent:     r.URL.Query().Get("sent") == "1",
	})
}

// handleInquiry stores a contact form submission and notifies the admin.
func (s *Server) handleInquiry(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProperty(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := inquiry.Form{
		Name:    r.FormValue("name"),
		Email:   r.FormValue("email"),
		Phone:   r.FormValue("phone"),
		Message: r.FormValue("message"),
	}

	inq, err := s.inquiries.Add(p.ID, form)
	if err != nil {
		status, msg := http.StatusInternalServerError, "We could not send your message, please try again."
		if errors.Is(err, inquiry.ErrInvalid) {
			status, msg = http.StatusBadRequest, err.Error()
		} else {
			slog.Error("storing inquiry", "property_id", p.ID, "error", err)
		}
		s.renderStatus(w, status, "property.html", propertyData{
			chrome:   s.chrome(r, p.Title),
			Property: p,
			Form:     form,
			Error:    msg,
		})
		return
	}

	slog.Info("inquiry received", "property_id", p.ID, "inquiry_id", inq.ID)
	s.notifyInquiry(p, inq)

	http.Redirect(w, r, "/property/"+url.PathEscape(p.ID)+"?sent=1#contact", http.StatusSeeOther)
}

// notifyInquiry emails the admin. It never fails the submission.
func (s *Server) notifyInquiry(p *property.Property, inq *inquiry.Inquiry) {
	if s.notifier == nil || s.config.AdminEmail == "" {
		slog.Debug("inquiry notification skipped", "inquiry_id", inq.ID)
		return
	}
	body := email.FormatInquiry(p, inq, s.config.BaseURL)
	if err := s.notifier.Send([]string{s.config.AdminEmail}, email.InquirySubject(p), body); err != nil {
		slog.Warn("sending inquiry notification", "inquiry_id", inq.ID, "error", err)
	}
}

// loadProperty fetches the {id} listing, writing a 404 or 500 page when
// it cannot be shown.
func (s *Server) loadProperty(w http.ResponseWriter, r *http.Request) (*property.Property, bool) {
	p, err := s.props.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, collection.ErrNotFound) {
		s.handleNotFound(w, r)
		return nil, false
	}
	if err != nil {
		slog.Error("loading listing", "id", chi.URLParam(r, "id"), "error", err)
		s.renderStatus(w, http.StatusInternalServerError, "not_found.html",
			notFoundData{chrome: s.chrome(r, "Unavailable"), Error: loadErrorMessage})
		return nil, false
	}
	return p, true
}
