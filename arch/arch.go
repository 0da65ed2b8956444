// Package arch defines the Architecture interface the analyzer queries
// for the two architectural facts it needs: byte order (for endian-aware
// bit alignment in mergeReachingValues) and whether a given memory
// location names global storage (global reads/writes are never tracked
// as reaching definitions — see dflow's bookkeeper).
package arch

import "github.com/chubbymaggie/snowman/location"

// Architecture is the external collaborator spec.md §6 names: the
// dataflow analyzer never constructs or owns one, it only queries it.
type Architecture interface {
	ByteOrder() location.ByteOrder
	IsGlobalMemory(location.MemoryLocation) bool
}

// Simple is a minimal Architecture for tests and small embedders: a
// fixed byte order, and a global-memory predicate supplied by the
// caller (global variables are usually identified by address range,
// which only the embedder knows).
type Simple struct {
	Order      location.ByteOrder
	GlobalPred func(location.MemoryLocation) bool
}

func (s Simple) ByteOrder() location.ByteOrder { return s.Order }

func (s Simple) IsGlobalMemory(l location.MemoryLocation) bool {
	if s.GlobalPred == nil {
		return false
	}
	return s.GlobalPred(l)
}
