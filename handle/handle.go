// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package handle implements the index+generation arena pattern used to
// break the cyclic references between a Body and the tree/graph nodes that
// reference it (spec §9). It generalizes gazed-vu's entity-id scheme
// (eid.go) from a single flat entity table to any arena-backed store that
// wants O(1) lookup plus safe detection of stale handles.
package handle

// idBits/genBits split a Handle the same way eid.go splits an eid: enough
// index bits to address a large arena, enough generation bits to recycle
// freed slots many times before a stale handle could alias a fresh one.
const (
	idBits  = 24
	genBits = 8

	// MaxIndex is the largest index a Handle can address.
	MaxIndex = (1 << idBits) - 1
	maxGen   = (1 << genBits) - 1
)

// Handle is an opaque reference into an Arena: an index for O(1) lookup
// plus a generation that invalidates the handle once its slot is freed
// and reused. The zero Handle is never issued by Arena.Create and is used
// as an explicit "no handle" sentinel.
type Handle uint32

// None is the zero value, meaning "no handle assigned".
const None Handle = 0

// Index returns the arena-slot index this handle addresses.
func (h Handle) Index() uint32 { return uint32(h) & MaxIndex }

// Generation returns the generation this handle was issued at.
func (h Handle) Generation() uint32 { return (uint32(h) >> idBits) & maxGen }

// Valid reports whether h is not the None sentinel.
func (h Handle) Valid() bool { return h != None }

func makeHandle(index, generation uint32) Handle {
	return Handle(index&MaxIndex | (generation&maxGen)<<idBits)
}

// Arena allocates and recycles Handles. It does not store any payload
// itself: callers keep a parallel slice indexed by Handle.Index() and use
// Arena only to know whether a given Handle still points at live data.
//
// Unlike gazed-vu's eids (which returns 0 once identifiers are exhausted
// and logs a development error), Arena signals exhaustion to the caller
// via the ok return from Create so the tree/graph can surface it as
// rigid2derr.ErrInvariantViolation instead of silently aliasing slot 0.
type Arena struct {
	generations []uint32 // generation currently live at each index, 1-based (0 = unused slot)
	free        []uint32 // indices available for reuse
}

// NewArena returns an empty Arena.
func NewArena() *Arena { return &Arena{} }

// Create allocates a new Handle. ok is false only once every index up to
// MaxIndex has been issued and none are free to recycle.
func (a *Arena) Create() (h Handle, ok bool) {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		return makeHandle(idx, a.generations[idx]), true
	}
	idx := uint32(len(a.generations))
	if idx > MaxIndex {
		return None, false
	}
	a.generations = append(a.generations, 1)
	return makeHandle(idx, 1), true
}

// Release invalidates h. Any Handle previously issued for the same index
// (including h itself) will fail Valid-through-Arena checks from now on,
// until the index is recycled by a future Create and a fresh Handle is
// constructed for it.
func (a *Arena) Release(h Handle) {
	idx := h.Index()
	if idx >= uint32(len(a.generations)) {
		return
	}
	a.generations[idx]++
	if a.generations[idx] > maxGen {
		a.generations[idx] = 1 // wrap rather than leak the slot forever.
	}
	a.free = append(a.free, idx)
}

// Contains reports whether h still refers to live data: its index is
// in range and its generation matches what Arena last issued for that
// index. A handle into a freed-and-not-yet-reused slot, or one whose
// slot was recycled for a different occupant, reports false.
func (a *Arena) Contains(h Handle) bool {
	idx := h.Index()
	if idx >= uint32(len(a.generations)) {
		return false
	}
	return a.generations[idx] == h.Generation()
}
