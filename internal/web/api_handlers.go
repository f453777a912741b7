package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/evcraddock/luxury-estates/internal/inquiry"
	"github.com/evcraddock/luxury-estates/internal/property"
)

// ReorderRequest moves the item at display position From to position To.
type ReorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

// LocateRequest asks for a listing to be geocoded. An empty address uses
// the listing's location text.
type LocateRequest struct {
	Address string `json:"address"`
}

// TypeRequest names a property type.
type TypeRequest struct {
	Name string `json:"name"`
}

// DeleteResponse confirms a removal.
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func decodeReorder(w http.ResponseWriter, r *http.Request) (from, to int, ok bool) {
	var req ReorderRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apiMessage(w, r, http.StatusBadRequest, "invalid JSON body")
		return 0, 0, false
	}
	if req.From == nil || req.To == nil {
		apiMessage(w, r, http.StatusBadRequest, "from and to are required")
		return 0, 0, false
	}
	return *req.From, *req.To, true
}

func (s *Server) apiListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := s.props.Search(r.Context(), property.FilterFromQuery(r.URL.Query()))
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, orEmpty(props))
}

func (s *Server) apiAddProperty(w http.ResponseWriter, r *http.Request) {
	var d property.Draft
	if err := render.DecodeJSON(r.Body, &d); err != nil {
		apiMessage(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p, err := s.props.Add(r.Context(), d)
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusCreated, p)
}

func (s *Server) apiGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.props.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, p)
}

func (s *Server) apiUpdateProperty(w http.ResponseWriter, r *http.Request) {
	var d property.Draft
	if err := render.DecodeJSON(r.Body, &d); err != nil {
		apiMessage(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p, err := s.props.Update(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, p)
}

func (s *Server) apiDeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deleteProperty(r, id); err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, DeleteResponse{ID: id, Deleted: true})
}

// deleteProperty removes a listing and then its inquiries. Inquiries that
// cannot be removed are logged and left behind.
func (s *Server) deleteProperty(r *http.Request, id string) error {
	if err := s.props.Delete(r.Context(), id); err != nil {
		return err
	}
	n, err := s.inquiries.DeleteByPropertyID(id)
	if err != nil {
		slog.Warn("deleting inquiries of removed property", "property_id", id, "error", err)
		return nil
	}
	if n > 0 {
		slog.Info("deleted inquiries of removed property", "property_id", id, "count", n)
	}
	return nil
}

func (s *Server) apiReorderProperties(w http.ResponseWriter, r *http.Request) {
	from, to, ok := decodeReorder(w, r)
	if !ok {
		return
	}
	props, err := s.props.Reorder(r.Context(), from, to)
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, orEmpty(props))
}

func (s *Server) apiCompactProperties(w http.ResponseWriter, r *http.Request) {
	props, err := s.props.Compact(r.Context())
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, orEmpty(props))
}

func (s *Server) apiLocateProperty(w http.ResponseWriter, r *http.Request) {
	var req LocateRequest
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			apiMessage(w, r, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	p, err := s.props.Locate(r.Context(), chi.URLParam(r, "id"), req.Address)
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, p)
}

func (s *Server) apiListTypes(w http.ResponseWriter, r *http.Request) {
	items, err := s.types.List(r.Context())
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, orEmpty(items))
}

func (s *Server) apiAddType(w http.ResponseWriter, r *http.Request) {
	var req TypeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apiMessage(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	item, err := s.types.Add(r.Context(), req.Name)
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusCreated, item)
}

func (s *Server) apiRenameType(w http.ResponseWriter, r *http.Request) {
	var req TypeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apiMessage(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	item, err := s.types.Rename(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, item)
}

func (s *Server) apiDeleteType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.types.Delete(r.Context(), id); err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, DeleteResponse{ID: id, Deleted: true})
}

func (s *Server) apiReorderTypes(w http.ResponseWriter, r *http.Request) {
	from, to, ok := decodeReorder(w, r)
	if !ok {
		return
	}
	items, err := s.types.Reorder(r.Context(), from, to)
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, orEmpty(items))
}

func (s *Server) apiListInquiries(w http.ResponseWriter, r *http.Request) {
	list := s.inquiries.List
	if id := r.URL.Query().Get("propertyId"); id != "" {
		list = func() ([]*inquiry.Inquiry, error) { return s.inquiries.ListByPropertyID(id) }
	}
	inqs, err := list()
	if err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, orEmpty(inqs))
}

func (s *Server) apiDeleteInquiry(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		apiMessage(w, r, http.StatusBadRequest, "invalid inquiry ID")
		return
	}
	if err := s.inquiries.Delete(id); err != nil {
		apiError(w, r, err)
		return
	}
	apiJSON(w, r, http.StatusOK, DeleteResponse{ID: idStr, Deleted: true})
}
