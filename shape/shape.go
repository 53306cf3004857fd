// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package shape implements the convex polygon primitive used by the
// rigid2d narrow phase: an ordered list of local-space vertices plus a
// position/rotation and a cached world-space AABB (spec §3).
//
// Styled after gazed-vu/physics/shape.go's Shape interface (box/sphere
// primitives with a cached Aabb), narrowed to the one primitive spec.md
// asks for: an arbitrary convex polygon. Curved shapes are a Non-goal.
package shape

import (
	"math"

	"github.com/galvlogic/rigid2d/vecmath"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max vecmath.Vector
}

// Overlaps reports whether a and b intersect, touching edges counted as
// overlap (broad phase is intentionally conservative; the narrow phase
// applies the real epsilon-aware separating test).
func (a AABB) Overlaps(b AABB) bool {
	if a.Max.X < b.Min.X || b.Max.X < a.Min.X {
		return false
	}
	if a.Max.Y < b.Min.Y || b.Max.Y < a.Min.Y {
		return false
	}
	return true
}

// Contains reports whether a fully encloses b.
func (a AABB) Contains(b AABB) bool {
	return a.Min.X <= b.Min.X && a.Min.Y <= b.Min.Y &&
		a.Max.X >= b.Max.X && a.Max.Y >= b.Max.Y
}

// Union returns the smallest AABB enclosing both a and b.
func Union(a, b AABB) AABB {
	return AABB{Min: vecmath.Min(a.Min, b.Min), Max: vecmath.Max(a.Max, b.Max)}
}

// Area returns the perimeter-based "area" used by the bounding tree's
// insertion heuristic (half the perimeter is the usual Box2D convention;
// any monotonic surrogate for size works equally well here).
func (a AABB) Area() float32 {
	w := a.Max.X - a.Min.X
	h := a.Max.Y - a.Min.Y
	return w + h
}

// Shape is a convex polygon: an ordered, cyclic sequence of local-space
// vertices (edge i runs from vertex i to vertex (i+1)%n) plus a world
// position/rotation and width/height for quick sizing queries. Once a
// Shape is handed to a body it is Locked: further vertex mutation is
// forbidden and only position/rotation may change, which invalidates and
// recomputes the cached world AABB (spec §3).
type Shape struct {
	vertices []vecmath.Vector // local space, n >= 3
	locked   bool

	position vecmath.Vector // world position (x, y); z is carried for parity with 3D engines but unused in 2D collision.
	z        float32
	rotation float64 // radians, double precision per spec §5.
	width    float32
	height   float32

	worldAABB AABB
	dirty     bool // world vertices/AABB need recomputing.

	worldVerts []vecmath.Vector // scratch: world-space vertex cache.
}

// New creates an unlocked polygon shape from local-space vertices listed
// in either winding order. At least 3 vertices are required; New panics
// otherwise since this is a programming error, not a runtime condition
// (spec §7: invariant violations are bugs).
func New(vertices []vecmath.Vector, width, height float32) *Shape {
	if len(vertices) < 3 {
		panic("shape: a polygon needs at least 3 vertices")
	}
	verts := make([]vecmath.Vector, len(vertices))
	copy(verts, vertices)
	s := &Shape{
		vertices:   verts,
		width:      width,
		height:     height,
		worldVerts: make([]vecmath.Vector, len(verts)),
		dirty:      true,
	}
	s.recompute()
	return s
}

// NewBox is a convenience constructor for an axis-aligned rectangle
// centered on the origin in local space, the common case for game bodies.
func NewBox(width, height float32) *Shape {
	hx, hy := width/2, height/2
	return New([]vecmath.Vector{
		vecmath.New(-hx, -hy),
		vecmath.New(hx, -hy),
		vecmath.New(hx, hy),
		vecmath.New(-hx, hy),
	}, width, height)
}

// Lock forbids further vertex mutation. Bodies lock their shape on
// assignment (spec §3); Lock is idempotent.
func (s *Shape) Lock() { s.locked = true }

// Locked reports whether vertex mutation is forbidden.
func (s *Shape) Locked() bool { return s.locked }

// VertexCount returns the number of local-space vertices.
func (s *Shape) VertexCount() int { return len(s.vertices) }

// LocalVertex returns local-space vertex i, indexed cyclically.
func (s *Shape) LocalVertex(i int) vecmath.Vector {
	return s.vertices[s.index(i)]
}

// WorldVertex returns vertex i transformed into world space by the
// shape's current position and rotation, indexed cyclically.
func (s *Shape) WorldVertex(i int) vecmath.Vector {
	s.ensureFresh()
	return s.worldVerts[s.index(i)]
}

// WorldEdge returns the directed edge (worldVertex(i), worldVertex(i+1)).
func (s *Shape) WorldEdge(i int) (begin, end vecmath.Vector) {
	return s.WorldVertex(i), s.WorldVertex(i + 1)
}

func (s *Shape) index(i int) int {
	n := len(s.vertices)
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Position returns the shape's world position.
func (s *Shape) Position() (x, y, z float32) { return s.position.X, s.position.Y, s.z }

// Rotation returns the shape's rotation in radians.
func (s *Shape) Rotation() float64 { return s.rotation }

// Width and Height return the shape's nominal extents, as given to New.
func (s *Shape) Width() float32  { return s.width }
func (s *Shape) Height() float32 { return s.height }

// SetPosition moves the shape in world space, invalidating the cached
// AABB. Allowed after Lock (spec §3: only position/rotation may change).
func (s *Shape) SetPosition(x, y, z float32) {
	s.position = vecmath.New(x, y)
	s.z = z
	s.dirty = true
}

// SetRotation re-orients the shape, invalidating the cached AABB. Allowed
// after Lock.
func (s *Shape) SetRotation(radians float64) {
	s.rotation = radians
	s.dirty = true
}

// AABB returns the cached world-space axis-aligned bounding box,
// recomputing it first if the shape moved or rotated since the last call.
// world_aabb ⊇ actual polygon extent is maintained by recomputing from
// the exact transformed vertices, not from width/height estimates.
func (s *Shape) AABB() AABB {
	s.ensureFresh()
	return s.worldAABB
}

func (s *Shape) ensureFresh() {
	if s.dirty {
		s.recompute()
	}
}

func (s *Shape) recompute() {
	cos := float32(math.Cos(s.rotation))
	sin := float32(math.Sin(s.rotation))
	min := vecmath.New(math.MaxFloat32, math.MaxFloat32)
	max := vecmath.New(-math.MaxFloat32, -math.MaxFloat32)
	for i, v := range s.vertices {
		rotated := vecmath.New(v.X*cos-v.Y*sin, v.X*sin+v.Y*cos)
		world := rotated.Add(s.position)
		s.worldVerts[i] = world
		min = vecmath.Min(min, world)
		max = vecmath.Max(max, world)
	}
	s.worldAABB = AABB{Min: min, Max: max}
	s.dirty = false
}
