// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package manifold holds the result of the narrow phase: a separation
// normal plus up to two world-space contact points and their penetration
// depths (spec §3). Styled after gazed-vu/physics/contact.go's
// pointOfContact/contactPair pattern, narrowed to the caller-provided,
// reusable scratch object spec §9 calls for ("the narrow phase writes
// into a caller-provided Manifold rather than allocating").
package manifold

import "github.com/galvlogic/rigid2d/vecmath"

// MaxContacts is the most contact points a 2D polygon-polygon manifold
// can produce (spec §4.2: clipping yields 1 or 2 points).
const MaxContacts = 2

// Manifold is the narrow phase's output: a normal pointing from body A
// toward body B, plus 0..MaxContacts contact points and their
// penetration depths. A Manifold with zero points means "no collision"
// even if intermediate SAT steps found overlap (spec §9 open question).
type Manifold struct {
	Normal vecmath.Vector

	count  int
	points [MaxContacts]vecmath.Vector
	depths [MaxContacts]float32
}

// New returns an empty, reusable Manifold.
func New() *Manifold { return &Manifold{} }

// Clear resets the manifold to zero contacts, ready for reuse by the next
// narrow-phase call. Does not zero Normal; callers that care should
// overwrite it before reading Clear'd state.
func (m *Manifold) Clear() { m.count = 0 }

// ContactCount returns how many contact points the manifold currently
// holds (0, 1, or 2).
func (m *Manifold) ContactCount() int { return m.count }

// ContactPoint returns contact point i (0-indexed, i < ContactCount()).
func (m *Manifold) ContactPoint(i int) vecmath.Vector { return m.points[i] }

// Depth returns the penetration depth of contact point i.
func (m *Manifold) Depth(i int) float32 { return m.depths[i] }

// Add appends a contact point and its depth. Callers must not exceed
// MaxContacts; Add silently drops anything beyond it since the clipping
// algorithm in package narrowphase never produces more than two.
func (m *Manifold) Add(point vecmath.Vector, depth float32) {
	if m.count >= MaxContacts {
		return
	}
	m.points[m.count] = point
	m.depths[m.count] = depth
	m.count++
}

// CopyFrom overwrites m with a's normal and contact points.
func (m *Manifold) CopyFrom(a *Manifold) {
	m.Normal = a.Normal
	m.count = a.count
	m.points = a.points
	m.depths = a.depths
}
