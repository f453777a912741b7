// Package ordering implements the positional move used to reorder listings.
package ordering

import (
	"errors"
	"fmt"
	"slices"
)

// ErrIndexOutOfRange is returned when a move index does not address an element.
var ErrIndexOutOfRange = errors.New("index out of range")

// Move returns a copy of s with the element at src removed and reinserted
// at dst. Indices follow splice semantics: dst addresses the sequence after
// the removal, so moving forward shifts the elements in between down by one.
// The input slice is not modified.
func Move[T any](s []T, src, dst int) ([]T, error) {
	n := len(s)
	if src < 0 || src >= n {
		return nil, fmt.Errorf("source %d (len %d): %w", src, n, ErrIndexOutOfRange)
	}
	if dst < 0 || dst >= n {
		return nil, fmt.Errorf("destination %d (len %d): %w", dst, n, ErrIndexOutOfRange)
	}

	out := make([]T, 0, n)
	out = append(out, s[:src]...)
	out = append(out, s[src+1:]...)
	return slices.Insert(out, dst, s[src]), nil
}

// Dense reports whether orders is a permutation of 0..len(orders)-1.
func Dense(orders []int) bool {
	seen := make([]bool, len(orders))
	for _, o := range orders {
		if o < 0 || o >= len(orders) || seen[o] {
			return false
		}
		seen[o] = true
	}
	return true
}

// Unique reports whether no two values in orders are equal, i.e. sorting by
// order yields a total order.
func Unique(orders []int) bool {
	seen := make(map[int]struct{}, len(orders))
	for _, o := range orders {
		if _, ok := seen[o]; ok {
			return false
		}
		seen[o] = struct{}{}
	}
	return true
}
