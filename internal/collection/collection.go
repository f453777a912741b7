// Package collection provides a generic, persistently ordered record store.
//
// A Store keeps an explicit integer order on every record and exposes the
// add, update, delete and reorder operations shared by properties and
// property types. Persistence is delegated to a Backend.
package collection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an id does not address a record.
var ErrNotFound = errors.New("not found")

// Record is implemented by pointer record types held in a Store.
type Record[T any] interface {
	GetID() string
	SetID(string)
	GetOrder() int
	SetOrder(int)
	GetCreatedAt() time.Time
	SetCreatedAt(time.Time)
	Clone() T
}

// Backend persists records of one collection.
//
// Update and Delete of an unknown id return an error wrapping ErrNotFound.
// List may return records in any order.
type Backend[T any] interface {
	List(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, rec T) error
	Update(ctx context.Context, rec T) error
	Delete(ctx context.Context, id string) error
}

// OrderChange sets the order of one record.
type OrderChange struct {
	ID    string
	Order int
}

// OrderWriter is implemented by backends that can apply several order
// changes atomically. Either every change is applied or none is.
type OrderWriter interface {
	WriteOrders(ctx context.Context, changes []OrderChange) error
}

// PartialReorderError reports a reorder that failed after some rows were
// already written. Rows past Applied are in an unknown state.
type PartialReorderError struct {
	Applied int
	Total   int
	Err     error
}

func (e *PartialReorderError) Error() string {
	return fmt.Sprintf("reorder applied %d of %d changes: %v", e.Applied, e.Total, e.Err)
}

func (e *PartialReorderError) Unwrap() error { return e.Err }

// InsertPolicy decides where Add places a new record.
type InsertPolicy int

const (
	// InsertFirst puts the new record at order 0 and shifts the rest down.
	InsertFirst InsertPolicy = iota
	// AppendLast puts the new record after the current maximum order.
	AppendLast
)

// String returns the config spelling of the policy.
func (p InsertPolicy) String() string {
	switch p {
	case AppendLast:
		return "last"
	default:
		return "first"
	}
}

// ParseInsertPolicy parses "first" or "last". The empty string is InsertFirst.
func ParseInsertPolicy(s string) (InsertPolicy, error) {
	switch s {
	case "", "first":
		return InsertFirst, nil
	case "last":
		return AppendLast, nil
	default:
		return InsertFirst, fmt.Errorf("invalid insert policy %q (want first or last)", s)
	}
}

// IDFunc generates the identity for a new record given the ids already in use.
type IDFunc func(existing []string) string

// UUIDs generates random UUID strings.
func UUIDs(_ []string) string {
	return uuid.NewString()
}

// Sequential generates the next integer after the largest numeric id in use.
// Non-numeric ids are ignored.
func Sequential(existing []string) string {
	var max int64
	for _, id := range existing {
		n, err := strconv.ParseInt(id, 10, 64)
		if err == nil && n > max {
			max = n
		}
	}
	return strconv.FormatInt(max+1, 10)
}
