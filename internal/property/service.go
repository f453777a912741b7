package property

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/evcraddock/luxury-estates/internal/collection"
	"github.com/evcraddock/luxury-estates/internal/geocode"
)

// ErrInvalid wraps validation failures of a listing draft.
var ErrInvalid = errors.New("invalid property")

// Store is the ordered listing collection.
type Store = collection.Store[*Property]

// Locator resolves an address to a point.
type Locator interface {
	First(ctx context.Context, address string) (*geocode.Candidate, error)
}

// Service provides listing business logic on top of the store.
type Service struct {
	store *Store
	geo   Locator
	now   func() time.Time
}

// NewService creates a listing service. geo may be nil, in which case
// listings are never geocoded.
func NewService(store *Store, geo Locator) *Service {
	return &Service{store: store, geo: geo, now: time.Now}
}

// Validate checks a draft before it is stored.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if d.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalid)
	}
	if d.Beds < 0 || d.Baths < 0 || d.Sqft < 0 {
		return fmt.Errorf("%w: beds, baths and sqft must not be negative", ErrInvalid)
	}
	return nil
}

// Add validates and stores a new listing. A listing with a location but no
// map point is geocoded first; a failed lookup leaves it without one.
func (s *Service) Add(ctx context.Context, d Draft) (*Property, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	p := &Property{}
	d.apply(p)
	p.UpdatedAt = s.now()
	if p.MapLocation == nil && p.Location != "" {
		p.MapLocation = s.locate(ctx, p.Location)
	}

	saved, err := s.store.Add(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("saving property: %w", err)
	}
	return saved, nil
}

// Update replaces the editable fields of listing id. The map point is kept
// unless the draft carries one or the location text changed.
func (s *Service) Update(ctx context.Context, id string, d Draft) (*Property, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p := existing.Clone()
	p.MapLocation = nil
	d.apply(p)
	p.UpdatedAt = s.now()

	if d.MapLocation == nil {
		p.MapLocation = existing.MapLocation
		if p.Location != existing.Location && p.Location != "" {
			if loc := s.locate(ctx, p.Location); loc != nil {
				p.MapLocation = loc
			}
		}
	}

	saved, err := s.store.Update(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("saving property: %w", err)
	}
	return saved, nil
}

// Locate geocodes address (or the listing's own location when empty) and
// stores the result on listing id. A failed lookup returns the listing
// unchanged.
func (s *Service) Locate(ctx context.Context, id, address string) (*Property, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(address) == "" {
		address = p.Location
	}

	loc := s.locate(ctx, address)
	if loc == nil {
		return p, nil
	}

	p.MapLocation = loc
	p.UpdatedAt = s.now()
	saved, err := s.store.Update(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("saving location: %w", err)
	}
	return saved, nil
}

func (s *Service) locate(ctx context.Context, address string) *MapLocation {
	if s.geo == nil || strings.TrimSpace(address) == "" {
		return nil
	}
	c, err := s.geo.First(ctx, address)
	if err != nil {
		slog.Warn("geocoding failed", "address", address, "error", err)
		return nil
	}
	return &MapLocation{Lat: c.Lat, Lng: c.Lng, Address: c.DisplayName}
}

// Get returns listing id.
func (s *Service) Get(ctx context.Context, id string) (*Property, error) {
	return s.store.Get(ctx, id)
}

// List returns every listing in display order.
func (s *Service) List(ctx context.Context) ([]*Property, error) {
	return s.store.List(ctx)
}

// Delete removes listing id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Reorder moves the listing at display position from to position to.
func (s *Service) Reorder(ctx context.Context, from, to int) ([]*Property, error) {
	return s.store.Reorder(ctx, from, to)
}

// Compact renumbers listings to 0..n-1.
func (s *Service) Compact(ctx context.Context) ([]*Property, error) {
	return s.store.Compact(ctx)
}

// Featured returns the first n listings in display order.
func (s *Service) Featured(ctx context.Context, n int) ([]*Property, error) {
	return s.Search(ctx, Filter{Limit: n})
}

// Search returns the listings matching f, in display order.
func (s *Service) Search(ctx context.Context, f Filter) ([]*Property, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Property
	for _, p := range all {
		if !f.Match(p) {
			continue
		}
		out = append(out, p)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Labels returns the distinct type labels in use, in display order of
// their first listing.
func (s *Service) Labels(ctx context.Context) ([]string, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, p := range all {
		if p.Type == "" || seen[p.Type] {
			continue
		}
		seen[p.Type] = true
		out = append(out, p.Type)
	}
	return out, nil
}

// Seed stores the sample listings when the collection is empty. It
// returns how many were added.
func (s *Service) Seed(ctx context.Context) (int, error) {
	existing, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	seeds := Seed()
	if s.store.Policy() == collection.InsertFirst {
		// Each add lands in front, so add back to front.
		slices.Reverse(seeds)
	}
	for _, d := range seeds {
		p := &Property{}
		d.apply(p)
		p.UpdatedAt = s.now()
		if _, err := s.store.Add(ctx, p); err != nil {
			return 0, fmt.Errorf("seeding %q: %w", d.Title, err)
		}
	}
	return len(seeds), nil
}
