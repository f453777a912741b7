// Package proptype manages the ordered list of property type labels.
//
// Listings refer to a type by its name, not its id. Renaming or deleting a
// type leaves existing listings untouched.
package proptype

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evcraddock/luxury-estates/internal/collection"
	"github.com/evcraddock/luxury-estates/internal/rest"
	"github.com/evcraddock/luxury-estates/internal/sqlstore"
)

// TableName is the persisted table for property types.
const TableName = "property_types"

var (
	// ErrNameTaken is returned when a name is already used by another type.
	ErrNameTaken = errors.New("property type name already exists")
	// ErrEmptyName is returned when a name is blank.
	ErrEmptyName = errors.New("property type name is required")
)

// Defaults are the types created on a fresh install.
var Defaults = []string{"Home", "Land"}

// Item is a property type.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

func (i *Item) GetID() string { return i.ID }
func (i *Item) SetID(id string) { i.ID = id }
func (i *Item) GetOrder() int { return i.Order }
func (i *Item) SetOrder(o int) { i.Order = o }
func (i *Item) GetCreatedAt() time.Time { return i.CreatedAt }
func (i *Item) SetCreatedAt(t time.Time) { i.CreatedAt = t }

// Clone returns a copy of i.
func (i *Item) Clone() *Item {
	c := *i
	return &c
}

// Row is the persisted shape of an Item.
type Row struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// ToRow converts an item to its persisted shape.
func ToRow(i *Item) Row {
	return Row{ID: i.ID, Name: i.Name, SortOrder: i.Order, CreatedAt: i.CreatedAt}
}

// FromRow converts a persisted row back to an item.
func FromRow(r Row) (*Item, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("property type row has no id")
	}
	return &Item{ID: r.ID, Name: r.Name, Order: r.SortOrder, CreatedAt: r.CreatedAt}, nil
}

// Table describes the property_types table for SQL backends.
func Table() sqlstore.Table[*Item] {
	return sqlstore.Table[*Item]{
		Name:        TableName,
		Columns:     []string{"id", "name", "sort_order", "created_at"},
		OrderColumn: "sort_order",
		Values: func(i *Item) ([]any, error) {
			r := ToRow(i)
			return []any{r.ID, r.Name, r.SortOrder, r.CreatedAt.UTC()}, nil
		},
		Scan: func(row sqlstore.Scanner) (*Item, error) {
			var r Row
			if err := row.Scan(&r.ID, &r.Name, &r.SortOrder, &r.CreatedAt); err != nil {
				return nil, err
			}
			return FromRow(r)
		},
	}
}

// RemoteTable describes the property_types table for the REST backend.
func RemoteTable() rest.Table[*Item, Row] {
	return rest.Table[*Item, Row]{
		Name:    TableName,
		ToRow:   ToRow,
		FromRow: FromRow,
		ID:      (*Item).GetID,
	}
}

// Store is the ordered type collection.
type Store = collection.Store[*Item]

// Service manages property types.
type Service struct {
	store *Store
}

// NewService creates a property type service.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// List returns every type in display order.
func (s *Service) List(ctx context.Context) ([]*Item, error) {
	return s.store.List(ctx)
}

// Names returns the type names in display order.
func (s *Service) Names(ctx context.Context) ([]string, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names, nil
}

// Get returns type id.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.store.Get(ctx, id)
}

// Add creates a type named name.
func (s *Service) Add(ctx context.Context, name string) (*Item, error) {
	name, err := s.checkName(ctx, "", name)
	if err != nil {
		return nil, err
	}
	return s.store.Add(ctx, &Item{Name: name})
}

// Rename changes the name of type id.
func (s *Service) Rename(ctx context.Context, id, name string) (*Item, error) {
	name, err := s.checkName(ctx, id, name)
	if err != nil {
		return nil, err
	}
	it, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	it.Name = name
	return s.store.Update(ctx, it)
}

// Delete removes type id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Reorder moves the type at display position from to position to.
func (s *Service) Reorder(ctx context.Context, from, to int) ([]*Item, error) {
	return s.store.Reorder(ctx, from, to)
}

// Compact renumbers types to 0..n-1.
func (s *Service) Compact(ctx context.Context) ([]*Item, error) {
	return s.store.Compact(ctx)
}

// Seed creates the default types when none exist.
func (s *Service) Seed(ctx context.Context) (int, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) > 0 {
		return 0, nil
	}

	names := slices.Clone(Defaults)
	if s.store.Policy() == collection.InsertFirst {
		slices.Reverse(names)
	}
	for _, n := range names {
		if _, err := s.store.Add(ctx, &Item{Name: n}); err != nil {
			return 0, fmt.Errorf("seeding %q: %w", n, err)
		}
	}
	return len(names), nil
}

// checkName trims name and rejects blanks and case-insensitive duplicates
// of any type other than selfID.
func (s *Service) checkName(ctx context.Context, selfID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	items, err := s.store.List(ctx)
	if err != nil {
		return "", err
	}
	for _, it := range items {
		if it.ID != selfID && strings.EqualFold(it.Name, name) {
			return "", fmt.Errorf("%q: %w", name, ErrNameTaken)
		}
	}
	return name, nil
}

// Options returns the type filter choices for the buy page: the current
// type names followed by any label still used by a listing.
func Options(names, inUse []string) []string {
	out := slices.Clone(names)
	for _, l := range inUse {
		if !slices.ContainsFunc(out, func(n string) bool { return strings.EqualFold(n, l) }) {
			out = append(out, l)
		}
	}
	return out
}

// Listed reports whether label names a current type.
func Listed(names []string, label string) bool {
	return slices.ContainsFunc(names, func(n string) bool { return strings.EqualFold(n, label) })
}
