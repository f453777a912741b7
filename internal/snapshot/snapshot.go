// Package snapshot implements a collection backend that stores a whole
// collection as one serialized value under a key.
//
// Every mutation reads the current snapshot, changes it in memory and
// writes the full collection back.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/evcraddock/luxury-estates/internal/collection"
)

// Collection keys.
const (
	PropertiesKey    = "properties"
	PropertyTypesKey = "propertyTypes"
)

// KV is a key-value store for snapshots.
type KV interface {
	// Get returns the value at key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Backend stores one collection under a key. It implements
// collection.Backend and collection.OrderWriter.
type Backend[T collection.Record[T]] struct {
	kv  KV
	key string
	mu  sync.Mutex
}

// New creates a backend for the collection stored at key.
func New[T collection.Record[T]](kv KV, key string) *Backend[T] {
	return &Backend[T]{kv: kv, key: key}
}

func (b *Backend[T]) load(ctx context.Context) ([]T, error) {
	data, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", b.key, err)
	}
	if !ok {
		return nil, nil
	}
	var recs []T
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", b.key, err)
	}
	return recs, nil
}

func (b *Backend[T]) save(ctx context.Context, recs []T) error {
	if recs == nil {
		recs = []T{}
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encoding snapshot %s: %w", b.key, err)
	}
	if err := b.kv.Put(ctx, b.key, data); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", b.key, err)
	}
	return nil
}

func (b *Backend[T]) index(recs []T, id string) int {
	return slices.IndexFunc(recs, func(r T) bool { return r.GetID() == id })
}

// List returns the stored collection.
func (b *Backend[T]) List(ctx context.Context) ([]T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(ctx)
}

// Insert appends rec to the snapshot.
func (b *Backend[T]) Insert(ctx context.Context, rec T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	recs, err := b.load(ctx)
	if err != nil {
		return err
	}
	if b.index(recs, rec.GetID()) >= 0 {
		return fmt.Errorf("%s %s already exists", b.key, rec.GetID())
	}
	return b.save(ctx, append(recs, rec.Clone()))
}

// Update replaces the record with rec's id.
func (b *Backend[T]) Update(ctx context.Context, rec T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	recs, err := b.load(ctx)
	if err != nil {
		return err
	}
	i := b.index(recs, rec.GetID())
	if i < 0 {
		return fmt.Errorf("%s %s: %w", b.key, rec.GetID(), collection.ErrNotFound)
	}
	recs[i] = rec.Clone()
	return b.save(ctx, recs)
}

// Delete removes the record with the given id.
func (b *Backend[T]) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	recs, err := b.load(ctx)
	if err != nil {
		return err
	}
	i := b.index(recs, id)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", b.key, id, collection.ErrNotFound)
	}
	return b.save(ctx, slices.Delete(recs, i, i+1))
}

// WriteOrders applies every change with a single overwrite.
func (b *Backend[T]) WriteOrders(ctx context.Context, changes []collection.OrderChange) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	recs, err := b.load(ctx)
	if err != nil {
		return err
	}
	for _, c := range changes {
		i := b.index(recs, c.ID)
		if i < 0 {
			return fmt.Errorf("%s %s: %w", b.key, c.ID, collection.ErrNotFound)
		}
		recs[i].SetOrder(c.Order)
	}
	return b.save(ctx, recs)
}
