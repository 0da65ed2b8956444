package dflow

import (
	"reflect"

	"github.com/benbjohnson/immutable"
)

// pointerHasher hashes Go pointers (here, ir.Term values, which are
// always backed by a pointer to a concrete term type) by their address.
// Term identity in this analyzer is pointer identity, so this is the
// correct and only sensible key hasher for the dataflow store's maps.
type pointerHasher[T any] struct{}

func (pointerHasher[T]) Hash(v T) uint32 {
	p := reflect.ValueOf(v).Pointer()
	return uint32(p ^ (p >> 32))
}

func (pointerHasher[T]) Equal(a, b T) bool {
	return any(a) == any(b)
}

var _ immutable.Hasher[any] = pointerHasher[any]{}
