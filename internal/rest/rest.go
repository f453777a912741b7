// Package rest implements a collection backend over a PostgREST-style HTTP
// table API, as exposed by hosted Postgres services.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/evcraddock/luxury-estates/internal/collection"
	"github.com/evcraddock/luxury-estates/internal/metrics"
)

const maxResponseBytes = 4 << 20

// Table maps records of type T onto the row shape R the remote table stores.
type Table[T, R any] struct {
	Name    string
	ToRow   func(T) R
	FromRow func(R) (T, error)
	ID      func(T) string
}

// Config holds connection settings for the remote API.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RetryMax overrides the default of 3 retries. Negative disables retries.
	RetryMax int
}

// Backend reads and writes one remote table. It is not an OrderWriter:
// reorders go row by row.
type Backend[T, R any] struct {
	baseURL string
	apiKey  string
	table   Table[T, R]
	http    *retryablehttp.Client
}

// New creates a backend for table.
func New[T, R any](cfg Config, table Table[T, R]) *Backend[T, R] {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 3
	if cfg.RetryMax != 0 {
		rc.RetryMax = max(cfg.RetryMax, 0)
	}
	rc.HTTPClient.Timeout = 10 * time.Second
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}
	rc.Logger = slog.Default()

	return &Backend[T, R]{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		table:   table,
		http:    rc,
	}
}

// List returns every row ordered by sort_order.
func (b *Backend[T, R]) List(ctx context.Context) ([]T, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "sort_order.asc")

	body, err := b.do(ctx, http.MethodGet, q, nil, "list")
	if err != nil {
		return nil, err
	}

	var rows []R
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decoding %s rows: %w", b.table.Name, err)
	}

	recs := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := b.table.FromRow(row)
		if err != nil {
			return nil, fmt.Errorf("mapping %s row: %w", b.table.Name, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Insert creates a row.
func (b *Backend[T, R]) Insert(ctx context.Context, rec T) error {
	_, err := b.do(ctx, http.MethodPost, nil, b.table.ToRow(rec), "insert")
	return err
}

// Update replaces the row with rec's id.
func (b *Backend[T, R]) Update(ctx context.Context, rec T) error {
	id := b.table.ID(rec)
	body, err := b.do(ctx, http.MethodPatch, byID(id), b.table.ToRow(rec), "update")
	if err != nil {
		return err
	}
	return b.requireMatch(body, id)
}

// Delete removes the row with the given id.
func (b *Backend[T, R]) Delete(ctx context.Context, id string) error {
	body, err := b.do(ctx, http.MethodDelete, byID(id), nil, "delete")
	if err != nil {
		return err
	}
	return b.requireMatch(body, id)
}

func byID(id string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	return q
}

// requireMatch checks a return=representation body names at least one row.
func (b *Backend[T, R]) requireMatch(body []byte, id string) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("decoding %s response: %w", b.table.Name, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s %s: %w", b.table.Name, id, collection.ErrNotFound)
	}
	return nil
}

func (b *Backend[T, R]) do(ctx context.Context, method string, q url.Values, payload any, endpoint string) ([]byte, error) {
	u := fmt.Sprintf("%s/rest/v1/%s", b.baseURL, b.table.Name)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s row: %w", b.table.Name, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", b.apiKey)
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	start := time.Now()
	resp, err := b.http.Do(req)
	if err != nil {
		metrics.ObserveExternal("rest", endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("%s %s: %w", method, b.table.Name, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()
	metrics.ObserveExternal("rest", endpoint, resp.StatusCode, time.Since(start))

	data, err := readAllLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", b.table.Name, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, b.table.Name, resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}

func readAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}
