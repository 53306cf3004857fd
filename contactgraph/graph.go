// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package contactgraph tracks which bodies are currently touching, and
// partitions them into connected components ("islands") so the solver
// can decide which islands are eligible to sleep (spec §4.3).
//
// It is backed by katalvlaran/lvlath's core.Graph (vertices = bodies,
// edges = contacts) and dfs.DFS with WithFullTraversal for the
// per-tick island walk — the same "treat the contact set as a graph and
// run a forest traversal" idea the teacher's own broad phase never
// needed (gazed-vu/physics/broad.go is O(n^2) with no island concept at
// all), so this package is grounded directly on lvlath's own dfs
// package rather than on gazed-vu.
package contactgraph

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"

	"github.com/galvlogic/rigid2d/body"
	"github.com/galvlogic/rigid2d/rigid2derr"
)

// pairKey canonicalizes an unordered body pair for the edge-id side map,
// lower ID first so (a,b) and (b,a) collide on the same key.
type pairKey struct{ lo, hi body.ID }

func keyOf(a, b body.ID) pairKey {
	if a <= b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

func vertexID(id body.ID) string { return "b" + strconv.FormatUint(uint64(id), 10) }

// Graph is the contact graph: one vertex per tracked body, one edge per
// currently-touching pair, with the contact payload kept in a side map
// since core.Edge carries no metadata field of its own.
type Graph struct {
	g *core.Graph

	bodies map[body.ID]*body.Body

	edgeOf   map[pairKey]string   // pair -> core.Edge.ID
	contacts map[string]*Contact // core.Edge.ID -> Contact

	components []component // cached by the most recent RecomputeComponents call.

	log *slog.Logger
}

// New returns an empty contact graph. A nil logger falls back to
// slog.Default().
func New(logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{
		g:        core.NewGraph(),
		bodies:   make(map[body.ID]*body.Body),
		edgeOf:   make(map[pairKey]string),
		contacts: make(map[string]*Contact),
		log:      logger,
	}
}

// AddBody registers b as a vertex. Idempotent.
func (cg *Graph) AddBody(b *body.Body) error {
	if err := cg.g.AddVertex(vertexID(b.ID())); err != nil {
		return fmt.Errorf("%w: contactgraph add body %d: %v", rigid2derr.ErrInvariantViolation, b.ID(), err)
	}
	cg.bodies[b.ID()] = b
	return nil
}

// RemoveBody deletes b and every contact touching it (spec §4.3: removing
// a body removes its incident edges).
func (cg *Graph) RemoveBody(b *body.Body) error {
	id := b.ID()
	for key, eid := range cg.edgeOf {
		if key.lo == id || key.hi == id {
			delete(cg.edgeOf, key)
			delete(cg.contacts, eid)
		}
	}
	if err := cg.g.RemoveVertex(vertexID(id)); err != nil {
		return fmt.Errorf("%w: contactgraph remove body %d: %v", rigid2derr.ErrNotFound, id, err)
	}
	delete(cg.bodies, id)
	return nil
}

// HasBody reports whether b is currently tracked.
func (cg *Graph) HasBody(b *body.Body) bool {
	_, ok := cg.bodies[b.ID()]
	return ok
}

// GetContact returns the Contact tracking a and b, order-insensitive, and
// whether one exists.
func (cg *Graph) GetContact(a, b *body.Body) (*Contact, bool) {
	eid, ok := cg.edgeOf[keyOf(a.ID(), b.ID())]
	if !ok {
		return nil, false
	}
	c, ok := cg.contacts[eid]
	return c, ok
}

// AddContact records that a and b are touching, creating the edge and a
// fresh Contact if this is a new pair, or returning the existing Contact
// (so the solver can warm-start from last tick's impulses) if not.
// Marks the contact touched this tick either way.
func (cg *Graph) AddContact(a, b *body.Body) (*Contact, error) {
	key := keyOf(a.ID(), b.ID())
	if eid, ok := cg.edgeOf[key]; ok {
		c := cg.contacts[eid]
		c.touched = true
		return c, nil
	}

	eid, err := cg.g.AddEdge(vertexID(a.ID()), vertexID(b.ID()), 0)
	if err != nil {
		return nil, fmt.Errorf("%w: contactgraph add contact %d-%d: %v", rigid2derr.ErrInvariantViolation, a.ID(), b.ID(), err)
	}
	c := &Contact{A: a, B: b, touched: true}
	cg.edgeOf[key] = eid
	cg.contacts[eid] = c
	return c, nil
}

// RemoveContact deletes the edge tracking a and b, if any.
func (cg *Graph) RemoveContact(a, b *body.Body) {
	key := keyOf(a.ID(), b.ID())
	eid, ok := cg.edgeOf[key]
	if !ok {
		return
	}
	if err := cg.g.RemoveEdge(eid); err != nil {
		cg.log.Warn("contactgraph: removing edge already absent from core graph", "error", err)
	}
	delete(cg.edgeOf, key)
	delete(cg.contacts, eid)
}

// ClearTouched marks every tracked contact as not-yet-refreshed. Call once
// at the start of a tick's narrow-phase pass, before re-adding the
// contacts the broad+narrow phase actually finds this tick (spec §4.4
// step 3: "search for contacts").
func (cg *Graph) ClearTouched() {
	for _, c := range cg.contacts {
		c.touched = false
	}
}

// DropInvalidContacts removes every contact not marked touched since the
// last ClearTouched call — pairs whose shapes no longer overlap, or whose
// bodies stopped being collidable (spec §4.4 step 3: "drop invalid
// contacts").
func (cg *Graph) DropInvalidContacts() {
	for key, eid := range cg.edgeOf {
		c := cg.contacts[eid]
		if c.touched {
			continue
		}
		if err := cg.g.RemoveEdge(eid); err != nil {
			cg.log.Warn("contactgraph: dropping invalid contact's edge already absent", "error", err)
		}
		delete(cg.edgeOf, key)
		delete(cg.contacts, eid)
	}
}

// IterateActiveContacts calls fn once for every currently-tracked contact.
// Iteration order is the underlying core.Graph edge order (insertion
// order is not guaranteed across removals, but is stable within a tick).
func (cg *Graph) IterateActiveContacts(fn func(*Contact)) {
	for _, e := range cg.g.Edges() {
		if c, ok := cg.contacts[e.ID]; ok {
			fn(c)
		}
	}
}

// component is a connected component ("island") of the contact graph: the
// set of bodies transitively touching one another, plus the contacts
// wholly inside it (both endpoints present).
type component struct {
	bodies   []*body.Body
	contacts []*Contact
}

// RecomputeComponents repartitions the graph into connected components
// via a single full-forest DFS, replacing whatever partition was cached
// from the previous tick (spec §4.3: "connected components are
// recomputed lazily each tick"). Call once per tick, after
// DropInvalidContacts, before any IsComponentSleepEligible /
// SleepComponent / WakeComponent calls — ComponentCount and friend's
// indices are only valid against the partition from the most recent
// RecomputeComponents call.
func (cg *Graph) RecomputeComponents() error {
	if cg.g.VertexCount() == 0 {
		cg.components = nil
		return nil
	}
	// Vertices() returns a lexicographically sorted slice (spec §5:
	// deterministic iteration order), so the forest walk's start choice
	// and every tie it breaks are reproducible across ticks.
	allIDs := cg.g.Vertices()
	res, err := dfs.DFS(cg.g, allIDs[0], dfs.WithFullTraversal())
	if err != nil {
		return fmt.Errorf("%w: contactgraph component walk: %v", rigid2derr.ErrInvariantViolation, err)
	}

	root := make(map[string]string, len(allIDs))
	var findRoot func(id string) string
	findRoot = func(id string) string {
		if parent, ok := res.Parent[id]; ok {
			r := findRoot(parent)
			root[id] = r
			return r
		}
		root[id] = id
		return id
	}
	for _, id := range allIDs {
		if _, done := root[id]; !done {
			findRoot(id)
		}
	}

	order := make([]string, 0)
	byRoot := make(map[string]*component)
	for _, id := range allIDs {
		r := root[id]
		comp, seen := byRoot[r]
		if !seen {
			comp = &component{}
			byRoot[r] = comp
			order = append(order, r)
		}
		if b, ok := cg.bodies[bodyIDFromVertex(id)]; ok {
			comp.bodies = append(comp.bodies, b)
		}
	}
	for _, e := range cg.g.Edges() {
		if c, ok := cg.contacts[e.ID]; ok {
			r := root[e.From]
			byRoot[r].contacts = append(byRoot[r].contacts, c)
		}
	}

	components := make([]component, 0, len(order))
	for _, r := range order {
		components = append(components, *byRoot[r])
	}
	cg.components = components
	return nil
}

// ComponentCount returns the number of components found by the most
// recent RecomputeComponents call.
func (cg *Graph) ComponentCount() int { return len(cg.components) }

// ComponentBodies returns the bodies belonging to component i.
func (cg *Graph) ComponentBodies(i int) []*body.Body { return cg.components[i].bodies }

// IsComponentSleepEligible reports whether every body in component i is
// individually at rest: speed <= speedMax and the tick-over-tick speed
// delta <= deltaMax (spec §4.3). Static bodies always count as at rest.
func (cg *Graph) IsComponentSleepEligible(i int, speedMax, deltaMax float32) bool {
	for _, b := range cg.components[i].bodies {
		if b.IsStatic() {
			continue
		}
		speed := b.Velocity().Len()
		prevSpeed := b.PreviousVelocity().Len()
		delta := speed - prevSpeed
		if delta < 0 {
			delta = -delta
		}
		if speed > speedMax || delta > deltaMax {
			return false
		}
	}
	return true
}

// SleepComponent marks every body and every wholly-internal contact of
// component i as sleeping (spec §4.3: sleeping a component marks its
// bodies sleeping and its contacts sleeping, skipped during
// iterate-solve).
func (cg *Graph) SleepComponent(i int) {
	comp := cg.components[i]
	for _, b := range comp.bodies {
		b.SetSleeping(true)
	}
	for _, c := range comp.contacts {
		c.Sleeping = true
	}
}

// WakeComponent is the inverse of SleepComponent.
func (cg *Graph) WakeComponent(i int) {
	comp := cg.components[i]
	for _, b := range comp.bodies {
		b.SetSleeping(false)
	}
	for _, c := range comp.contacts {
		c.Sleeping = false
	}
}

func bodyIDFromVertex(vid string) body.ID {
	n, _ := strconv.ParseUint(vid[1:], 10, 32)
	return body.ID(n)
}
