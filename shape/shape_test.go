// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package shape

import (
	"math"
	"testing"

	"github.com/galvlogic/rigid2d/vecmath"
)

func TestNewBoxAABB(t *testing.T) {
	s := NewBox(2, 2)
	ab := s.AABB()
	if !ab.Min.Eq(vecmath.New(-1, -1)) || !ab.Max.Eq(vecmath.New(1, 1)) {
		t.Fatalf("unexpected AABB %+v", ab)
	}
}

func TestSetPositionMovesAABB(t *testing.T) {
	s := NewBox(2, 2)
	s.SetPosition(5, 5, 0)
	ab := s.AABB()
	if !ab.Min.Eq(vecmath.New(4, 4)) || !ab.Max.Eq(vecmath.New(6, 6)) {
		t.Fatalf("unexpected AABB after move: %+v", ab)
	}
}

func TestRotationGrowsAABBForRectangle(t *testing.T) {
	s := NewBox(4, 1)
	unrotated := s.AABB()
	s.SetRotation(math.Pi / 4)
	rotated := s.AABB()
	if rotated.Area() <= unrotated.Area() {
		t.Fatalf("expected a 45 degree rotation of a 4x1 rectangle to grow the AABB")
	}
}

func TestLockAllowsPositionButIsIdempotent(t *testing.T) {
	s := NewBox(2, 2)
	s.Lock()
	s.Lock() // idempotent, must not panic
	s.SetPosition(1, 1, 0)
	if !s.Locked() {
		t.Fatalf("expected shape to report locked")
	}
}

func TestWorldEdgeCyclesAroundVertices(t *testing.T) {
	s := NewBox(2, 2)
	n := s.VertexCount()
	begin, end := s.WorldEdge(n - 1)
	if !end.Eq(s.WorldVertex(0)) {
		t.Fatalf("expected edge n-1 to end at vertex 0, got %+v want %+v", end, s.WorldVertex(0))
	}
	_ = begin
}

func TestNewPanicsOnDegeneratePolygon(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for a polygon with fewer than 3 vertices")
		}
	}()
	New([]vecmath.Vector{{}, {X: 1}}, 1, 1)
}
