// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package narrowphase implements SAT-with-clipping contact generation for
// convex polygons (spec §4.2): find the minimum-penetration separating
// axis, pick reference/incident edges relative to it, then clip the
// incident edge against the reference edge's side planes the way
// gazed-vu/physics/clipping.go's sutherland_hodgman clips polygons
// against planes — specialized here to a single reference edge instead
// of an arbitrary plane list, since two convex polygons only ever need
// two clip planes plus the final depth rejection.
package narrowphase

import (
	"github.com/galvlogic/rigid2d/manifold"
	"github.com/galvlogic/rigid2d/shape"
	"github.com/galvlogic/rigid2d/vecmath"
)

// axisResult is the SAT scratch result for a single shape's set of edges:
// the smallest overlap found and the axis/edge index that produced it.
type axisResult struct {
	depth float32
	edge  int
	axis  vecmath.Vector
}

// Test runs SAT followed by contact clipping between convex polygons a
// and b. It writes the result into out (clearing any prior contents
// first) and reports whether the shapes actually collide. out is the
// caller's scratch Manifold, threaded through per tick per spec §9 to
// avoid narrow-phase allocation.
//
// Per spec §9's open question, a manifold that survives SAT but loses
// every point during clipping reports no collision (ok == false) rather
// than raising an invariant error — the source this is ported from
// documents the same inconsistency without resolving it.
func Test(a, b *shape.Shape, out *manifold.Manifold) (ok bool) {
	out.Clear()

	resA, sepA := bestAxis(a, b)
	if sepA {
		return false
	}
	resB, sepB := bestAxis(b, a)
	if sepB {
		return false
	}

	var refShape, incShape *shape.Shape
	var refEdge int
	var refIsA bool
	if resA.depth < resB.depth {
		refShape, incShape, refEdge, refIsA = a, b, resA.edge, true
	} else {
		refShape, incShape, refEdge, refIsA = b, a, resB.edge, false
	}

	centerA := centroid(a)
	centerB := centroid(b)
	axis := orientTowardB(axisOf(refShape, refEdge), centerA, centerB, refIsA)

	// axis now points from the reference shape toward the incident one.
	// SAT overlap is the same for both parallel edges of a shape, so the
	// reference edge is re-picked as the one facing the incident shape.
	refEdge = findIncidentEdge(refShape, axis.Neg())
	incEdge := findIncidentEdge(incShape, axis)

	refBegin, refEnd := refShape.WorldEdge(refEdge)
	refDir := refEnd.Sub(refBegin).Normalize()

	incBegin, incEnd := incShape.WorldEdge(incEdge)
	points := []vecmath.Vector{incBegin, incEnd}

	// Clip against the reference edge's two side planes (spec §4.2 step 4):
	// u·p >= u·refBegin, then -u·p >= -u·refEnd.
	points = clip(points, refDir, refDir.Dot(refBegin))
	if len(points) < 2 {
		return false
	}
	points = clip(points, refDir.Neg(), refDir.Neg().Dot(refEnd))
	if len(points) < 2 {
		return false
	}

	refNormal := refDir.Left()
	// Orient refNormal to point from the reference edge toward the
	// incident shape's farthest vertex (spec §4.2 step 4).
	incFar := incBegin
	if axis.Dot(incEnd) < axis.Dot(incBegin) {
		incFar = incEnd
	}
	toIncident := incFar.Sub(refBegin)
	if refNormal.Dot(toIncident) < 0 {
		refNormal = refNormal.Neg()
	}

	for _, p := range points {
		depth := refNormal.Dot(p.Sub(refBegin))
		if depth < 0 {
			continue // outside the interaction region (spec §4.2 step 4).
		}
		out.Add(p, depth)
	}
	if out.ContactCount() == 0 {
		return false // spec §9 open question: treat as "no collision", not an invariant error.
	}

	normal := refNormal
	if !refIsA {
		normal = normal.Neg()
	}
	// Final safety net: the stored normal must point from A toward B
	// regardless of which side supplied the reference edge (spec §4.2
	// step 5).
	if normal.Dot(centerB.Sub(centerA)) < 0 {
		normal = normal.Neg()
	}
	out.Normal = normal
	return true
}

// bestAxis runs SAT from s's perspective, projecting both s and other
// onto each of s's edge normals and tracking the edge with the smallest
// overlap. separating is true as soon as any axis fully separates the
// shapes, matching spec §4.2 step 1's early-out.
func bestAxis(s, other *shape.Shape) (best axisResult, separating bool) {
	best.depth = float32Max
	for i := 0; i < s.VertexCount(); i++ {
		axis := axisOf(s, i)
		sMin, sMax := project(s, axis)
		oMin, oMax := project(other, axis)
		if sMax < oMin || oMax < sMin {
			return axisResult{}, true
		}
		// touching-within-epsilon counts as disjoint (spec §4.2 step 1).
		if vecmath.AlmostEqual(sMax, oMin) || vecmath.AlmostEqual(oMax, sMin) {
			return axisResult{}, true
		}
		depth := overlapDepth(sMin, sMax, oMin, oMax)
		if depth < best.depth {
			best = axisResult{depth: depth, edge: i, axis: axis}
		}
	}
	return best, false
}

func overlapDepth(aMin, aMax, bMin, bMax float32) float32 {
	d1 := abs(aMin - bMax)
	d2 := abs(bMin - aMax)
	if d1 < d2 {
		return d1
	}
	return d2
}

// axisOf returns the outward unit normal of s's edge i.
func axisOf(s *shape.Shape, edge int) vecmath.Vector {
	begin, end := s.WorldEdge(edge)
	return end.Sub(begin).Normalize().Right()
}

func project(s *shape.Shape, axis vecmath.Vector) (min, max float32) {
	min, max = float32Max, -float32Max
	for i := 0; i < s.VertexCount(); i++ {
		p := axis.Dot(s.WorldVertex(i))
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max
}

// findIncidentEdge locates the most-extreme vertex of s along -axis (the
// one that penetrates deepest into the other shape) and returns whichever
// adjacent edge is most perpendicular to axis (spec §4.2 step 2): the
// smaller |edge_dir . axis| wins.
func findIncidentEdge(s *shape.Shape, axis vecmath.Vector) int {
	extreme := mostExtremeVertex(s, axis.Neg())
	prevEdge := (extreme - 1 + s.VertexCount()) % s.VertexCount()
	nextEdge := extreme

	prevBegin, prevEnd := s.WorldEdge(prevEdge)
	nextBegin, nextEnd := s.WorldEdge(nextEdge)
	prevAlign := abs(prevEnd.Sub(prevBegin).Normalize().Dot(axis))
	nextAlign := abs(nextEnd.Sub(nextBegin).Normalize().Dot(axis))
	if prevAlign < nextAlign {
		return prevEdge
	}
	return nextEdge
}

// mostExtremeVertex returns the index of the vertex of s with the
// largest projection onto axis.
func mostExtremeVertex(s *shape.Shape, axis vecmath.Vector) int {
	best, bestProj := 0, float32(-float32Max)
	for i := 0; i < s.VertexCount(); i++ {
		p := axis.Dot(s.WorldVertex(i))
		if p > bestProj {
			bestProj = p
			best = i
		}
	}
	return best
}

// clip keeps only the portion of the two-point segment list that
// satisfies axis·p >= offset, interpolating a new endpoint when the
// segment crosses the half-plane boundary — the same
// keep-or-interpolate rule gazed-vu/physics/clipping.go's
// plane_edge_intersection uses, specialized to exactly one edge instead
// of an arbitrary polygon.
func clip(points []vecmath.Vector, axis vecmath.Vector, offset float32) []vecmath.Vector {
	if len(points) != 2 {
		return nil
	}
	d0 := axis.Dot(points[0]) - offset
	d1 := axis.Dot(points[1]) - offset

	out := make([]vecmath.Vector, 0, 2)
	if d0 >= 0 {
		out = append(out, points[0])
	}
	if d1 >= 0 {
		out = append(out, points[1])
	}
	if d0*d1 < 0 {
		t := d0 / (d0 - d1)
		out = append(out, points[0].Add(points[1].Sub(points[0]).Scale(t)))
	}
	return out
}

func centroid(s *shape.Shape) vecmath.Vector {
	sum := vecmath.Zero
	n := s.VertexCount()
	for i := 0; i < n; i++ {
		sum = sum.Add(s.WorldVertex(i))
	}
	return sum.Scale(1 / float32(n))
}

// orientTowardB flips axis so it points from centerA toward centerB,
// matching spec §4.2 step 1's final axis-orientation rule.
func orientTowardB(axis, centerA, centerB vecmath.Vector, refIsA bool) vecmath.Vector {
	dir := centerB.Sub(centerA)
	if refIsA {
		if axis.Dot(dir) < 0 {
			return axis.Neg()
		}
		return axis
	}
	// axis came from B's edge set: it should point from B toward A, then
	// get inverted by the caller's final normal-orientation step.
	if axis.Dot(dir.Neg()) < 0 {
		return axis.Neg()
	}
	return axis
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

const float32Max = 3.4028235e38
