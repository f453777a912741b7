package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/luxury-estates/internal/auth"
	"github.com/evcraddock/luxury-estates/internal/collection"
	"github.com/evcraddock/luxury-estates/internal/inquiry"
	"github.com/evcraddock/luxury-estates/internal/ordering"
	"github.com/evcraddock/luxury-estates/internal/property"
	"github.com/evcraddock/luxury-estates/internal/proptype"
)

// Shown after a failed studio mutation.
const saveFailedMessage = "Could not save, please try again."

type studioData struct {
	chrome
	Properties []*property.Property
	TypeNames  []string
	Draft      property.Draft
	Banner     string
	Error      string
}

type editData struct {
	chrome
	Property  *property.Property
	Draft     property.Draft
	TypeNames []string
	Banner    string
}

type typesData struct {
	chrome
	Types  []*proptype.Item
	Banner string
	Error  string
}

type inquiriesData struct {
	chrome
	Inquiries []*inquiry.Inquiry
	Titles    map[string]string
	Banner    string
	Error     string
}

// bannerFor turns a failed mutation into the message shown above the form.
// Validation problems are shown as is; anything else gets the generic
// banner.
func bannerFor(err error) string {
	switch {
	case errors.Is(err, property.ErrInvalid),
		errors.Is(err, proptype.ErrEmptyName),
		errors.Is(err, proptype.ErrNameTaken):
		return err.Error()
	case errors.Is(err, ordering.ErrIndexOutOfRange):
		return "That position is out of range."
	default:
		return saveFailedMessage
	}
}

func logMutation(r *http.Request, what string, err error) {
	level := slog.LevelWarn
	if statusFor(err) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "studio "+what+" failed", "path", r.URL.Path, "error", err)
}

// indexOf returns the display position of id in list, or -1.
func indexOf[T collection.Record[T]](list []T, id string) int {
	return slices.IndexFunc(list, func(rec T) bool { return rec.GetID() == id })
}

// moveTarget reads the destination of a move form: dir=up|down relative
// to from, or a 1-based position in to.
func moveTarget(r *http.Request, from int) (int, error) {
	switch r.FormValue("dir") {
	case "up":
		return from - 1, nil
	case "down":
		return from + 1, nil
	}
	pos, err := strconv.Atoi(strings.TrimSpace(r.FormValue("to")))
	if err != nil {
		return 0, fmt.Errorf("position %q: %w", r.FormValue("to"), ordering.ErrIndexOutOfRange)
	}
	return pos - 1, nil
}

func (s *Server) typeNames(r *http.Request) []string {
	names, err := s.types.Names(r.Context())
	if err != nil {
		slog.Warn("loading property types", "error", err)
	}
	return names
}

// handleStudio renders the listing manager.
func (s *Server) handleStudio(w http.ResponseWriter, r *http.Request) {
	s.renderStudio(w, r, http.StatusOK, "", property.Draft{})
}

func (s *Server) renderStudio(w http.ResponseWriter, r *http.Request, status int, banner string, d property.Draft) {
	data := studioData{
		chrome:    s.chrome(r, "Studio"),
		TypeNames: s.typeNames(r),
		Draft:     d,
		Banner:    banner,
	}
	props, err := s.props.List(r.Context())
	if err != nil {
		slog.Error("listing properties", "error", err)
		data.Error = loadErrorMessage
	}
	data.Properties = props
	s.renderStatus(w, status, "studio.html", data)
}

func (s *Server) handleStudioCreate(w http.ResponseWriter, r *http.Request) {
	d, err := draftFromForm(r)
	if err == nil {
		_, err = s.props.Add(r.Context(), d)
	}
	if err != nil {
		logMutation(r, "create", err)
		s.renderStudio(w, r, statusFor(err), bannerFor(err), d)
		return
	}
	http.Redirect(w, r, "/studio", http.StatusSeeOther)
}

func (s *Server) handleStudioEdit(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProperty(w, r)
	if !ok {
		return
	}
	s.render(w, "studio_edit.html", editData{
		chrome:    s.chrome(r, "Edit "+p.Title),
		Property:  p,
		Draft:     property.DraftOf(p),
		TypeNames: s.typeNames(r),
	})
}

func (s *Server) handleStudioUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProperty(w, r)
	if !ok {
		return
	}
	d, err := draftFromForm(r)
	if err == nil {
		_, err = s.props.Update(r.Context(), p.ID, d)
	}
	if err != nil {
		logMutation(r, "update", err)
		s.renderStatus(w, statusFor(err), "studio_edit.html", editData{
			chrome:    s.chrome(r, "Edit "+p.Title),
			Property:  p,
			Draft:     d,
			TypeNames: s.typeNames(r),
			Banner:    bannerFor(err),
		})
		return
	}
	http.Redirect(w, r, "/studio", http.StatusSeeOther)
}

func (s *Server) handleStudioDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.deleteProperty(r, chi.URLParam(r, "id")); err != nil {
		logMutation(r, "delete", err)
		s.renderStudio(w, r, statusFor(err), bannerFor(err), property.Draft{})
		return
	}
	http.Redirect(w, r, "/studio", http.StatusSeeOther)
}

func (s *Server) handleStudioMove(w http.ResponseWriter, r *http.Request) {
	err := s.moveProperty(r, chi.URLParam(r, "id"))
	if err != nil {
		logMutation(r, "move", err)
		s.renderStudio(w, r, statusFor(err), bannerFor(err), property.Draft{})
		return
	}
	http.Redirect(w, r, "/studio", http.StatusSeeOther)
}

func (s *Server) moveProperty(r *http.Request, id string) error {
	props, err := s.props.List(r.Context())
	if err != nil {
		return err
	}
	from := indexOf(props, id)
	if from < 0 {
		return fmt.Errorf("property %s: %w", id, collection.ErrNotFound)
	}
	to, err := moveTarget(r, from)
	if err != nil {
		return err
	}
	_, err = s.props.Reorder(r.Context(), from, to)
	return err
}

func (s *Server) handleStudioLocate(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProperty(w, r)
	if !ok {
		return
	}
	located, err := s.props.Locate(r.Context(), p.ID, r.FormValue("address"))
	if err != nil {
		logMutation(r, "locate", err)
		s.renderStatus(w, statusFor(err), "studio_edit.html", editData{
			chrome:    s.chrome(r, "Edit "+p.Title),
			Property:  p,
			Draft:     property.DraftOf(p),
			TypeNames: s.typeNames(r),
			Banner:    bannerFor(err),
		})
		return
	}
	if located.MapLocation == nil {
		slog.Info("no map location found", "property_id", p.ID)
	}
	http.Redirect(w, r, "/studio/properties/"+p.ID+"/edit", http.StatusSeeOther)
}

func (s *Server) handleStudioCompact(w http.ResponseWriter, r *http.Request) {
	if _, err := s.props.Compact(r.Context()); err != nil {
		logMutation(r, "compact", err)
		s.renderStudio(w, r, statusFor(err), bannerFor(err), property.Draft{})
		return
	}
	http.Redirect(w, r, "/studio", http.StatusSeeOther)
}

// handleStudioTypes renders the property type manager.
func (s *Server) handleStudioTypes(w http.ResponseWriter, r *http.Request) {
	s.renderTypes(w, r, http.StatusOK, "")
}

func (s *Server) renderTypes(w http.ResponseWriter, r *http.Request, status int, banner string) {
	data := typesData{chrome: s.chrome(r, "Property Types"), Banner: banner}
	items, err := s.types.List(r.Context())
	if err != nil {
		slog.Error("listing property types", "error", err)
		data.Error = loadErrorMessage
	}
	data.Types = items
	s.renderStatus(w, status, "studio_types.html", data)
}

// typeMutation runs fn and redirects back to the type manager, or
// re-renders it with a banner.
func (s *Server) typeMutation(w http.ResponseWriter, r *http.Request, what string, fn func() error) {
	if err := fn(); err != nil {
		logMutation(r, what, err)
		s.renderTypes(w, r, statusFor(err), bannerFor(err))
		return
	}
	http.Redirect(w, r, "/studio/types", http.StatusSeeOther)
}

func (s *Server) handleStudioTypeAdd(w http.ResponseWriter, r *http.Request) {
	s.typeMutation(w, r, "type add", func() error {
		_, err := s.types.Add(r.Context(), r.FormValue("name"))
		return err
	})
}

func (s *Server) handleStudioTypeRename(w http.ResponseWriter, r *http.Request) {
	s.typeMutation(w, r, "type rename", func() error {
		_, err := s.types.Rename(r.Context(), chi.URLParam(r, "id"), r.FormValue("name"))
		return err
	})
}

func (s *Server) handleStudioTypeDelete(w http.ResponseWriter, r *http.Request) {
	s.typeMutation(w, r, "type delete", func() error {
		return s.types.Delete(r.Context(), chi.URLParam(r, "id"))
	})
}

func (s *Server) handleStudioTypeMove(w http.ResponseWriter, r *http.Request) {
	s.typeMutation(w, r, "type move", func() error {
		items, err := s.types.List(r.Context())
		if err != nil {
			return err
		}
		id := chi.URLParam(r, "id")
		from := indexOf(items, id)
		if from < 0 {
			return fmt.Errorf("property type %s: %w", id, collection.ErrNotFound)
		}
		to, err := moveTarget(r, from)
		if err != nil {
			return err
		}
		_, err = s.types.Reorder(r.Context(), from, to)
		return err
	})
}

// handleStudioInquiries lists contact requests, newest first.
func (s *Server) handleStudioInquiries(w http.ResponseWriter, r *http.Request) {
	s.renderInquiries(w, r, http.StatusOK, "")
}

func (s *Server) renderInquiries(w http.ResponseWriter, r *http.Request, status int, banner string) {
	data := inquiriesData{chrome: s.chrome(r, "Inquiries"), Titles: map[string]string{}, Banner: banner}
	inqs, err := s.inquiries.List()
	if err != nil {
		slog.Error("listing inquiries", "error", err)
		data.Error = "Inquiries are unavailable right now. Please try again shortly."
	}
	data.Inquiries = inqs

	if props, err := s.props.List(r.Context()); err != nil {
		slog.Warn("loading listing titles", "error", err)
	} else {
		for _, p := range props {
			data.Titles[p.ID] = p.Title
		}
	}
	s.renderStatus(w, status, "studio_inquiries.html", data)
}

func (s *Server) handleStudioInquiryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err == nil {
		err = s.inquiries.Delete(id)
	}
	if err != nil {
		logMutation(r, "inquiry delete", err)
		s.renderInquiries(w, r, http.StatusBadRequest, saveFailedMessage)
		return
	}
	http.Redirect(w, r, "/studio/inquiries", http.StatusSeeOther)
}

type settingsData struct {
	chrome
	Passkeys []auth.StoredCredential
	APIKeys  []APIKeyResponse
	Error    string
}

// handleSettings renders passkey and API key management.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFromContext(r.Context())
	data := settingsData{chrome: s.chrome(r, "Settings")}

	passkeys, err := s.passkeys.ListByEmail(email)
	if err != nil {
		slog.Error("loading passkeys", "error", err)
		data.Error = "Could not load your passkeys."
	}
	data.Passkeys = passkeys

	keys, err := s.apiKeys.List(email)
	if err != nil {
		slog.Error("loading api keys", "error", err)
		data.Error = "Could not load your API keys."
	}
	for _, k := range keys {
		data.APIKeys = append(data.APIKeys, keyResponse(k))
	}

	s.render(w, "settings.html", data)
}

func (s *Server) handlePasskeyDelete(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Missing credential ID", http.StatusBadRequest)
		return
	}
	if err := s.passkeys.Delete(id, auth.EmailFromContext(r.Context())); err != nil {
		if errors.Is(err, auth.ErrCredentialNotFound) {
			http.Error(w, "Passkey not found", http.StatusNotFound)
			return
		}
		slog.Error("deleting passkey", "error", err)
		http.Error(w, "Error deleting passkey", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/studio/settings", http.StatusSeeOther)
}

// draftFromForm reads the listing form. Malformed numbers wrap
// property.ErrInvalid.
func draftFromForm(r *http.Request) (property.Draft, error) {
	if err := r.ParseForm(); err != nil {
		return property.Draft{}, fmt.Errorf("%w: %v", property.ErrInvalid, err)
	}

	d := property.Draft{
		Title:          strings.TrimSpace(r.FormValue("title")),
		Description:    strings.TrimSpace(r.FormValue("description")),
		Location:       strings.TrimSpace(r.FormValue("location")),
		Type:           strings.TrimSpace(r.FormValue("type")),
		Parking:        r.FormValue("parking") != "",
		Beachfront:     r.FormValue("beachfront") != "",
		Images:         splitLines(r.FormValue("images")),
		ThumbnailImage: strings.TrimSpace(r.FormValue("thumbnailImage")),
		Features:       splitLines(r.FormValue("features")),
	}

	var numErr error
	num := func(field string, parse func(string) error) {
		v := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(r.FormValue(field)))
		if v == "" || numErr != nil {
			return
		}
		if err := parse(v); err != nil {
			numErr = fmt.Errorf("%w: %s must be a number", property.ErrInvalid, field)
		}
	}
	num("price", func(v string) (err error) { d.Price, err = strconv.ParseInt(v, 10, 64); return })
	num("beds", func(v string) (err error) { d.Beds, err = strconv.Atoi(v); return })
	num("baths", func(v string) (err error) { d.Baths, err = strconv.ParseFloat(v, 64); return })
	num("sqft", func(v string) (err error) { d.Sqft, err = strconv.Atoi(v); return })

	return d, numErr
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
