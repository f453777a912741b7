package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRegistryExposesCollectors(t *testing.T) {
	reg := NewRegistry()

	ObserveHTTP("/buy", "GET", 200, 12*time.Millisecond)
	ObserveStore("properties", "reorder", errors.New("boom"))
	ObserveExternal("nominatim", "search", 200, 40*time.Millisecond)
	ObserveCache("redis", "miss")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := string(body)

	for _, name := range []string{
		"le_http_requests_total",
		"le_store_operations_total",
		"le_external_requests_total",
		"le_cache_events_total",
	} {
		if !strings.Contains(out, name) {
			t.Errorf("expected %s in output", name)
		}
	}
	if !strings.Contains(out, `result="error"`) {
		t.Error("expected failed store operation to be labelled as error")
	}
}
