// Package client provides an HTTP client for the luxury-estates REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/evcraddock/luxury-estates/internal/inquiry"
	"github.com/evcraddock/luxury-estates/internal/property"
	"github.com/evcraddock/luxury-estates/internal/proptype"
)

// Client is an HTTP client for the luxury-estates API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	// Applied and Total are set when a reorder was only partly written.
	Applied *int
	Total   *int
}

func (e *APIError) Error() string {
	if e.Applied != nil && e.Total != nil {
		return fmt.Sprintf("%s (%d of %d order changes applied)", e.Message, *e.Applied, *e.Total)
	}
	return e.Message
}

// ListProperties returns the listings matching f in display order.
func (c *Client) ListProperties(f property.Filter) ([]*property.Property, error) {
	path := "/api/properties"
	if q := f.Values().Encode(); q != "" {
		path += "?" + q
	}
	var props []*property.Property
	if err := c.get(path, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// GetProperty returns one listing.
func (c *Client) GetProperty(id string) (*property.Property, error) {
	var p property.Property
	if err := c.get("/api/properties/"+url.PathEscape(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddProperty creates a listing.
func (c *Client) AddProperty(d property.Draft) (*property.Property, error) {
	var p property.Property
	if err := c.send(http.MethodPost, "/api/properties", d, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProperty replaces the editable fields of a listing.
func (c *Client) UpdateProperty(id string, d property.Draft) (*property.Property, error) {
	var p property.Property
	if err := c.send(http.MethodPut, "/api/properties/"+url.PathEscape(id), d, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProperty removes a listing and its inquiries.
func (c *Client) DeleteProperty(id string) error {
	return c.send(http.MethodDelete, "/api/properties/"+url.PathEscape(id), nil, nil)
}

// ReorderProperties moves the listing at display position from to to and
// returns the renumbered list.
func (c *Client) ReorderProperties(from, to int) ([]*property.Property, error) {
	var props []*property.Property
	if err := c.send(http.MethodPost, "/api/properties/reorder", reorder(from, to), &props); err != nil {
		return nil, err
	}
	return props, nil
}

// CompactProperties renumbers listings 0..n-1.
func (c *Client) CompactProperties() ([]*property.Property, error) {
	var props []*property.Property
	if err := c.send(http.MethodPost, "/api/properties/compact", nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// LocateProperty geocodes a listing. An empty address uses its location.
func (c *Client) LocateProperty(id, address string) (*property.Property, error) {
	var p property.Property
	body := map[string]string{"address": address}
	if err := c.send(http.MethodPost, "/api/properties/"+url.PathEscape(id)+"/locate", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListTypes returns the property types in display order.
func (c *Client) ListTypes() ([]*proptype.Item, error) {
	var items []*proptype.Item
	if err := c.get("/api/types", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddType creates a property type.
func (c *Client) AddType(name string) (*proptype.Item, error) {
	var it proptype.Item
	if err := c.send(http.MethodPost, "/api/types", map[string]string{"name": name}, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// RenameType renames a property type.
func (c *Client) RenameType(id, name string) (*proptype.Item, error) {
	var it proptype.Item
	if err := c.send(http.MethodPut, "/api/types/"+url.PathEscape(id), map[string]string{"name": name}, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// DeleteType removes a property type. Listings keep their label.
func (c *Client) DeleteType(id string) error {
	return c.send(http.MethodDelete, "/api/types/"+url.PathEscape(id), nil, nil)
}

// ReorderTypes moves the type at display position from to to.
func (c *Client) ReorderTypes(from, to int) ([]*proptype.Item, error) {
	var items []*proptype.Item
	if err := c.send(http.MethodPost, "/api/types/reorder", reorder(from, to), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListInquiries returns inquiries, newest first, optionally for one listing.
func (c *Client) ListInquiries(propertyID string) ([]*inquiry.Inquiry, error) {
	path := "/api/inquiries"
	if propertyID != "" {
		path += "?" + url.Values{"propertyId": {propertyID}}.Encode()
	}
	var inqs []*inquiry.Inquiry
	if err := c.get(path, &inqs); err != nil {
		return nil, err
	}
	return inqs, nil
}

// DeleteInquiry removes an inquiry.
func (c *Client) DeleteInquiry(id int64) error {
	return c.send(http.MethodDelete, fmt.Sprintf("/api/inquiries/%d", id), nil, nil)
}

func reorder(from, to int) map[string]int {
	return map[string]int{"from": from, "to": to}
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// send performs a request with an optional JSON body and decodes the
// response.
func (c *Client) send(method, path string, body, result any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "server error: " + http.StatusText(resp.StatusCode)}
		var errResp struct {
			Error   string `json:"error"`
			Applied *int   `json:"applied"`
			Total   *int   `json:"total"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			apiErr.Applied = errResp.Applied
			apiErr.Total = errResp.Total
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
