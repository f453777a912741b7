package collection

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/evcraddock/luxury-estates/internal/metrics"
	"github.com/evcraddock/luxury-estates/internal/ordering"
)

// Store is an ordered collection of records backed by a Backend.
// Mutations are serialized and each one starts from a fresh List, so
// several processes sharing one backend see each other's writes.
type Store[T Record[T]] struct {
	name    string
	backend Backend[T]
	newID   IDFunc
	policy  InsertPolicy
	now     func() time.Time

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*options)

type options struct {
	newID  IDFunc
	policy InsertPolicy
	now    func() time.Time
}

// WithIDFunc sets the identity generator. The default is UUIDs.
func WithIDFunc(f IDFunc) Option {
	return func(o *options) { o.newID = f }
}

// WithInsertPolicy sets where Add places new records. The default is InsertFirst.
func WithInsertPolicy(p InsertPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithClock overrides the creation-time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a store named name (used in logs and metrics).
func New[T Record[T]](name string, backend Backend[T], opts ...Option) *Store[T] {
	o := options{newID: UUIDs, policy: InsertFirst, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		name:    name,
		backend: backend,
		newID:   o.newID,
		policy:  o.policy,
		now:     o.now,
	}
}

// Name returns the collection name.
func (s *Store[T]) Name() string { return s.name }

// Policy returns where Add places new records.
func (s *Store[T]) Policy() InsertPolicy { return s.policy }

// List returns every record sorted by order, ties broken by id.
func (s *Store[T]) List(ctx context.Context) ([]T, error) {
	recs, err := s.sorted(ctx)
	s.observe("list", err)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Get returns the record with the given id.
func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	recs, err := s.sorted(ctx)
	if err != nil {
		s.observe("get", err)
		return zero, err
	}
	for _, r := range recs {
		if r.GetID() == id {
			s.observe("get", nil)
			return r, nil
		}
	}
	err = fmt.Errorf("%s %s: %w", s.name, id, ErrNotFound)
	s.observe("get", err)
	return zero, err
}

// Add stores a copy of rec with a new identity and creation time and
// returns it. Placement follows the store's InsertPolicy.
func (s *Store[T]) Add(ctx context.Context, rec T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.add(ctx, rec)
	s.observe("add", err)
	return out, err
}

func (s *Store[T]) add(ctx context.Context, rec T) (T, error) {
	var zero T
	recs, err := s.sorted(ctx)
	if err != nil {
		return zero, err
	}

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.GetID()
	}

	created := rec.Clone()
	created.SetID(s.newID(ids))
	created.SetCreatedAt(s.now())

	if s.policy == AppendLast {
		next := 0
		if len(recs) > 0 {
			next = recs[len(recs)-1].GetOrder() + 1
		}
		created.SetOrder(next)
		if err := s.backend.Insert(ctx, created); err != nil {
			return zero, fmt.Errorf("inserting %s: %w", s.name, err)
		}
		return created, nil
	}

	// Start below the current minimum so a row left behind by an earlier
	// failure can never tie with the new one.
	first := 0
	if len(recs) > 0 {
		first = recs[0].GetOrder()
	}
	created.SetOrder(first - 1)
	if err := s.backend.Insert(ctx, created); err != nil {
		return zero, fmt.Errorf("inserting %s: %w", s.name, err)
	}

	// Shift from the highest order down so no two rows ever share an order.
	all := append([]T{created}, recs...)
	changes := make([]OrderChange, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		changes = append(changes, OrderChange{ID: all[i].GetID(), Order: all[i].GetOrder() + 1})
	}
	if err := s.writeOrders(ctx, all, changes); err != nil {
		if derr := s.backend.Delete(ctx, created.GetID()); derr != nil {
			slog.Error("removing unplaced record", "collection", s.name, "id", created.GetID(), "error", derr)
		}
		return zero, fmt.Errorf("shifting %s: %w", s.name, err)
	}

	created.SetOrder(first)
	return created, nil
}

// Update replaces every field of the stored record with rec's, except
// identity, creation time and order. The updated record is returned.
func (s *Store[T]) Update(ctx context.Context, rec T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.update(ctx, rec)
	s.observe("update", err)
	return out, err
}

func (s *Store[T]) update(ctx context.Context, rec T) (T, error) {
	var zero T
	recs, err := s.sorted(ctx)
	if err != nil {
		return zero, err
	}

	idx := slices.IndexFunc(recs, func(r T) bool { return r.GetID() == rec.GetID() })
	if idx < 0 {
		return zero, fmt.Errorf("%s %s: %w", s.name, rec.GetID(), ErrNotFound)
	}

	updated := rec.Clone()
	updated.SetOrder(recs[idx].GetOrder())
	updated.SetCreatedAt(recs[idx].GetCreatedAt())
	if err := s.backend.Update(ctx, updated); err != nil {
		return zero, fmt.Errorf("updating %s %s: %w", s.name, rec.GetID(), err)
	}
	return updated, nil
}

// Delete removes the record with the given id. Remaining orders are left
// as they are; gaps do not affect display order.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.backend.Delete(ctx, id)
	if err != nil {
		err = fmt.Errorf("deleting %s %s: %w", s.name, id, err)
	}
	s.observe("delete", err)
	return err
}

// Reorder moves the record at position src of the sorted list to position
// dst and renumbers the collection 0..n-1. It returns the new list.
//
// If the backend is not an OrderWriter, changed rows are written one at a
// time and a failure part way returns a *PartialReorderError.
func (s *Store[T]) Reorder(ctx context.Context, src, dst int) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.reorder(ctx, func(recs []T) ([]T, error) {
		return ordering.Move(recs, src, dst)
	})
	s.observe("reorder", err)
	return out, err
}

// Compact renumbers the collection 0..n-1 without changing its order.
func (s *Store[T]) Compact(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.reorder(ctx, func(recs []T) ([]T, error) {
		return recs, nil
	})
	s.observe("compact", err)
	return out, err
}

func (s *Store[T]) reorder(ctx context.Context, arrange func([]T) ([]T, error)) ([]T, error) {
	recs, err := s.sorted(ctx)
	if err != nil {
		return nil, err
	}

	moved, err := arrange(recs)
	if err != nil {
		return nil, err
	}

	var changes []OrderChange
	for i, r := range moved {
		if r.GetOrder() != i {
			changes = append(changes, OrderChange{ID: r.GetID(), Order: i})
		}
	}
	if err := s.writeOrders(ctx, moved, changes); err != nil {
		return nil, err
	}

	out := make([]T, len(moved))
	for i, r := range moved {
		c := r.Clone()
		c.SetOrder(i)
		out[i] = c
	}
	return out, nil
}

// writeOrders applies changes in the given sequence. recs must contain
// every record named by changes.
func (s *Store[T]) writeOrders(ctx context.Context, recs []T, changes []OrderChange) error {
	if len(changes) == 0 {
		return nil
	}

	if w, ok := s.backend.(OrderWriter); ok {
		if err := w.WriteOrders(ctx, changes); err != nil {
			return fmt.Errorf("writing %s orders: %w", s.name, err)
		}
		return nil
	}

	byID := make(map[string]T, len(recs))
	for _, r := range recs {
		byID[r.GetID()] = r
	}

	for i, c := range changes {
		r, ok := byID[c.ID]
		if !ok {
			return &PartialReorderError{Applied: i, Total: len(changes),
				Err: fmt.Errorf("%s %s: %w", s.name, c.ID, ErrNotFound)}
		}
		u := r.Clone()
		u.SetOrder(c.Order)
		if err := s.backend.Update(ctx, u); err != nil {
			return &PartialReorderError{Applied: i, Total: len(changes), Err: err}
		}
	}
	return nil
}

func (s *Store[T]) sorted(ctx context.Context) ([]T, error) {
	recs, err := s.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.name, err)
	}
	slices.SortFunc(recs, func(a, b T) int {
		if c := cmp.Compare(a.GetOrder(), b.GetOrder()); c != 0 {
			return c
		}
		return cmp.Compare(a.GetID(), b.GetID())
	})
	return recs, nil
}

func (s *Store[T]) observe(op string, err error) {
	metrics.ObserveStore(s.name, op, err)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound), errors.Is(err, ordering.ErrIndexOutOfRange):
		slog.Debug("collection operation rejected", "collection", s.name, "op", op, "error", err)
	default:
		slog.Error("collection operation failed", "collection", s.name, "op", op, "error", err)
	}
}
