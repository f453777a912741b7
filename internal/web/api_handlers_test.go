package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evcraddock/luxury-estates/internal/inquiry"
	"github.com/evcraddock/luxury-estates/internal/property"
	"github.com/evcraddock/luxury-estates/internal/proptype"
)

func apiRequest(t *testing.T, f *fixture, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return f.do(r)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func intp(n int) *int { return &n }

func TestAPIPropertyCRUD(t *testing.T) {
	f := newFixture(t)
	key := f.apiKey(t)

	w := apiRequest(t, f, "POST", "/api/properties", key, property.Draft{Title: "Cliffside Retreat", Price: 950000, Beds: 3})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	created := decode[property.Property](t, w)
	if created.ID == "" || created.Title != "Cliffside Retreat" {
		t.Fatalf("created = %+v", created)
	}

	w = apiRequest(t, f, "GET", "/api/properties/"+created.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", w.Code, http.StatusOK)
	}

	w = apiRequest(t, f, "PUT", "/api/properties/"+created.ID, key, property.Draft{Title: "Renamed", Price: 1})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if got := decode[property.Property](t, w); got.Title != "Renamed" || got.ID != created.ID {
		t.Errorf("updated = %+v", got)
	}

	w = apiRequest(t, f, "GET", "/api/properties", "", nil)
	if list := decode[[]property.Property](t, w); len(list) != 1 {
		t.Fatalf("list = %d, want 1", len(list))
	}

	w = apiRequest(t, f, "DELETE", "/api/properties/"+created.ID, key, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusOK)
	}
	if resp := decode[DeleteResponse](t, w); !resp.Deleted || resp.ID != created.ID {
		t.Errorf("delete response = %+v", resp)
	}

	w = apiRequest(t, f, "GET", "/api/properties", "", nil)
	if w.Body.String() != "[]\n" {
		t.Errorf("empty list body = %q, want []", w.Body.String())
	}
}

func TestAPIListFilters(t *testing.T) {
	f := newFixture(t)
	f.addProperty(t, property.Draft{Title: "Beach House", Beachfront: true})
	f.addProperty(t, property.Draft{Title: "City Loft"})

	w := apiRequest(t, f, "GET", "/api/properties?beachfront=1", "", nil)
	list := decode[[]property.Property](t, w)
	if len(list) != 1 || list[0].Title != "Beach House" {
		t.Errorf("filtered = %+v", list)
	}
}

func TestAPIWritesRequireAuth(t *testing.T) {
	f := newFixture(t)
	p := f.addProperty(t, property.Draft{Title: "Cliffside Retreat"})

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{"POST", "/api/properties", property.Draft{Title: "X"}},
		{"PUT", "/api/properties/" + p.ID, property.Draft{Title: "X"}},
		{"DELETE", "/api/properties/" + p.ID, nil},
		{"POST", "/api/properties/reorder", ReorderRequest{From: intp(0), To: intp(0)}},
		{"POST", "/api/types", TypeRequest{Name: "Villa"}},
		{"GET", "/api/inquiries", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := apiRequest(t, f, tt.method, tt.path, "", tt.body)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}

	w := apiRequest(t, f, "POST", "/api/properties", "le_bogus", property.Draft{Title: "X"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bogus key status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAPISessionCookieAuthorizesWrites(t *testing.T) {
	f := newFixture(t)
	cookie := f.sessionCookie(t, testAdmin)

	var body bytes.Buffer
	_ = json.NewEncoder(&body).Encode(property.Draft{Title: "From Studio"})
	r := httptest.NewRequest("POST", "/api/properties", &body)
	r.Header.Set("Content-Type", "application/json")
	r.AddCookie(cookie)
	w := f.do(r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestAPIErrorMapping(t *testing.T) {
	f := newFixture(t)
	key := f.apiKey(t)
	p := f.addProperty(t, property.Draft{Title: "Only"})
	if _, err := f.types.Add(context.Background(), "Villa"); err != nil {
		t.Fatalf("add type: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"missing property", "GET", "/api/properties/nope", nil, http.StatusNotFound},
		{"update missing", "PUT", "/api/properties/nope", property.Draft{Title: "X"}, http.StatusNotFound},
		{"delete missing", "DELETE", "/api/properties/nope", nil, http.StatusNotFound},
		{"empty title", "POST", "/api/properties", property.Draft{Price: 5}, http.StatusBadRequest},
		{"negative price", "PUT", "/api/properties/" + p.ID, property.Draft{Title: "X", Price: -1}, http.StatusBadRequest},
		{"reorder out of range", "POST", "/api/properties/reorder", ReorderRequest{From: intp(0), To: intp(3)}, http.StatusBadRequest},
		{"reorder missing field", "POST", "/api/properties/reorder", map[string]int{"from": 0}, http.StatusBadRequest},
		{"duplicate type", "POST", "/api/types", TypeRequest{Name: "VILLA"}, http.StatusConflict},
		{"empty type", "POST", "/api/types", TypeRequest{Name: ""}, http.StatusBadRequest},
		{"rename missing type", "PUT", "/api/types/nope", TypeRequest{Name: "Farm"}, http.StatusNotFound},
		{"delete missing inquiry", "DELETE", "/api/inquiries/42", nil, http.StatusNotFound},
		{"bad inquiry id", "DELETE", "/api/inquiries/abc", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, f, tt.method, tt.path, key, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if resp := decode[errorResponse](t, w); resp.Error == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestAPIInvalidJSON(t *testing.T) {
	f := newFixture(t)
	key := f.apiKey(t)

	r := httptest.NewRequest("POST", "/api/properties", bytes.NewBufferString("{not json"))
	r.Header.Set("Authorization", "Bearer "+key)
	w := f.do(r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPIReorder(t *testing.T) {
	f := newFixture(t)
	key := f.apiKey(t)
	f.addProperty(t, property.Draft{Title: "C"})
	f.addProperty(t, property.Draft{Title: "B"})
	f.addProperty(t, property.Draft{Title: "A"})

	w := apiRequest(t, f, "POST", "/api/properties/reorder", key, ReorderRequest{From: intp(0), To: intp(2)})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	list := decode[[]property.Property](t, w)
	var titles string
	for i, p := range list {
		titles += p.Title
		if p.Order != i {
			t.Errorf("%s order = %d, want %d", p.Title, p.Order, i)
		}
	}
	if titles != "BCA" {
		t.Errorf("order = %q, want BCA", titles)
	}

	w = apiRequest(t, f, "POST", "/api/properties/compact", key, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("compact status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAPIReorderPartialFailure(t *testing.T) {
	backend := newMemBackend[*property.Property]()
	f := newMemFixture(t, backend)
	key := f.apiKey(t)
	for _, title := range []string{"C", "B", "A"} {
		f.addProperty(t, property.Draft{Title: title})
	}

	backend.failUpdatesAfter = backend.updates + 1
	w := apiRequest(t, f, "POST", "/api/properties/reorder", key, ReorderRequest{From: intp(0), To: intp(2)})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusBadGateway, w.Body.String())
	}
	resp := decode[errorResponse](t, w)
	if resp.Applied == nil || *resp.Applied != 1 {
		t.Errorf("applied = %v, want 1", resp.Applied)
	}
	if resp.Total == nil || *resp.Total != 3 {
		t.Errorf("total = %v, want 3", resp.Total)
	}
}

func TestAPIStoreFailureIsInternal(t *testing.T) {
	backend := newMemBackend[*property.Property]()
	backend.listErr = context.DeadlineExceeded
	f := newMemFixture(t, backend)

	w := apiRequest(t, f, "GET", "/api/properties", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if resp := decode[errorResponse](t, w); resp.Error != "internal error" {
		t.Errorf("error = %q, want internal error", resp.Error)
	}
}

func TestAPILocateWithoutGeocoder(t *testing.T) {
	f := newFixture(t)
	key := f.apiKey(t)
	p := f.addProperty(t, property.Draft{Title: "Cliffside Retreat", Location: "Big Sur, CA"})

	w := apiRequest(t, f, "POST", "/api/properties/"+p.ID+"/locate", key, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if got := decode[property.Property](t, w); got.MapLocation != nil {
		t.Errorf("map location = %+v, want none", got.MapLocation)
	}

	w = apiRequest(t, f, "POST", "/api/properties/nope/locate", key, LocateRequest{Address: "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAPITypes(t *testing.T) {
	f := newFixture(t)
	key := f.apiKey(t)

	var ids []string
	for _, name := range []string{"Home", "Condo", "Villa"} {
		w := apiRequest(t, f, "POST", "/api/types", key, TypeRequest{Name: name})
		if w.Code != http.StatusCreated {
			t.Fatalf("create %s status = %d", name, w.Code)
		}
		ids = append(ids, decode[proptype.Item](t, w).ID)
	}

	w := apiRequest(t, f, "GET", "/api/types", "", nil)
	list := decode[[]proptype.Item](t, w)
	if len(list) != 3 {
		t.Fatalf("types = %d, want 3", len(list))
	}

	w = apiRequest(t, f, "PUT", "/api/types/"+ids[0], key, TypeRequest{Name: "Condo"})
	if w.Code != http.StatusConflict {
		t.Errorf("rename to taken status = %d, want %d", w.Code, http.StatusConflict)
	}
	w = apiRequest(t, f, "PUT", "/api/types/"+ids[0], key, TypeRequest{Name: "home"})
	if w.Code != http.StatusOK {
		t.Errorf("rename to own name status = %d, want %d", w.Code, http.StatusOK)
	}

	w = apiRequest(t, f, "POST", "/api/types/reorder", key, ReorderRequest{From: intp(2), To: intp(0)})
	if w.Code != http.StatusOK {
		t.Fatalf("reorder status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := decode[[]proptype.Item](t, w); got[0].ID != list[2].ID {
		t.Errorf("first = %q, want %q", got[0].ID, list[2].ID)
	}

	w = apiRequest(t, f, "DELETE", "/api/types/"+ids[1], key, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAPIInquiries(t *testing.T) {
	f := newFixture(t)
	key := f.apiKey(t)
	a := f.addProperty(t, property.Draft{Title: "A"})
	b := f.addProperty(t, property.Draft{Title: "B"})
	for _, id := range []string{a.ID, a.ID, b.ID} {
		if _, err := f.inquiries.Add(id, inquiry.Form{Name: "N", Email: "n@example.com", Message: "m"}); err != nil {
			t.Fatalf("add inquiry: %v", err)
		}
	}

	w := apiRequest(t, f, "GET", "/api/inquiries", key, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	all := decode[[]inquiry.Inquiry](t, w)
	if len(all) != 3 {
		t.Fatalf("inquiries = %d, want 3", len(all))
	}

	w = apiRequest(t, f, "GET", "/api/inquiries?propertyId="+a.ID, key, nil)
	if got := decode[[]inquiry.Inquiry](t, w); len(got) != 2 {
		t.Errorf("inquiries for a = %d, want 2", len(got))
	}

	w = apiRequest(t, f, "DELETE", "/api/inquiries/"+itoa(all[0].ID), key, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAPIDeletePropertyCascadesInquiries(t *testing.T) {
	f := newFixture(t)
	key := f.apiKey(t)
	p := f.addProperty(t, property.Draft{Title: "A"})
	if _, err := f.inquiries.Add(p.ID, inquiry.Form{Name: "N", Email: "n@example.com", Message: "m"}); err != nil {
		t.Fatalf("add inquiry: %v", err)
	}

	w := apiRequest(t, f, "DELETE", "/api/properties/"+p.ID, key, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	left, err := f.inquiries.ListByPropertyID(p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("inquiries left = %d, want 0", len(left))
	}
}
