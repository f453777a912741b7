// Package geocode resolves free-text addresses to coordinates through a
// Nominatim search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/evcraddock/luxury-estates/internal/metrics"
)

const (
	DefaultURL = "https://nominatim.openstreetmap.org"
	userAgent  = "luxury-estates/1.0 (+https://github.com/evcraddock/luxury-estates)"
	maxBody    = 1 << 20
)

// ErrNoResults is returned by First when the service knows no match.
var ErrNoResults = errors.New("no geocoding results")

// Candidate is one match for an address.
type Candidate struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"displayName"`
}

// Geocoder looks up addresses.
type Geocoder interface {
	Lookup(ctx context.Context, address string) ([]Candidate, error)
}

// First returns the first candidate g finds for address.
func First(ctx context.Context, g Geocoder, address string) (*Candidate, error) {
	cands, err := g.Lookup(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, fmt.Errorf("%q: %w", address, ErrNoResults)
	}
	return &cands[0], nil
}

// Client queries a Nominatim server. Requests are limited to one per second,
// as the public service requires.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

// NewClient creates a client for the Nominatim server at baseURL. An empty
// baseURL uses the public OpenStreetMap instance.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = slog.Default()

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// First returns the first candidate for address.
func (c *Client) First(ctx context.Context, address string) (*Candidate, error) {
	return First(ctx, c, address)
}

// Lookup returns every candidate for address, best first.
func (c *Client) Lookup(ctx context.Context, address string) ([]Candidate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limit: %w", err)
		}
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", address)
	u := fmt.Sprintf("%s/search?%s", c.baseURL, q.Encode())

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveExternal("nominatim", "search", 0, time.Since(start))
		return nil, fmt.Errorf("searching %q: %w", address, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()
	metrics.ObserveExternal("nominatim", "search", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return parseResults(body)
}

// parseResults decodes a Nominatim search response. Coordinates arrive as
// strings.
func parseResults(body []byte) ([]Candidate, error) {
	var raw []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	out := make([]Candidate, 0, len(raw))
	for _, r := range raw {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing lat %q: %w", r.Lat, err)
		}
		lng, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing lon %q: %w", r.Lon, err)
		}
		out = append(out, Candidate{Lat: lat, Lng: lng, DisplayName: r.DisplayName})
	}
	return out, nil
}
