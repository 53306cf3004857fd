// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package tree

import (
	"testing"

	"github.com/galvlogic/rigid2d/body"
	"github.com/galvlogic/rigid2d/handle"
	"github.com/galvlogic/rigid2d/shape"
)

func newBody(t *testing.T, id body.ID, x, y float32) *body.Body {
	t.Helper()
	s := shape.NewBox(1, 1)
	s.SetPosition(x, y, 0)
	b, err := body.New(id, s, 1)
	if err != nil {
		t.Fatalf("unexpected error creating body: %v", err)
	}
	return b
}

func TestAddAndQueryFindsOverlap(t *testing.T) {
	tr := New(nil)
	a := newBody(t, 1, 0, 0)
	b := newBody(t, 2, 0.5, 0)
	c := newBody(t, 3, 50, 50)

	for _, bd := range []*body.Body{a, b, c} {
		ok, err := tr.Add(bd)
		if err != nil || !ok {
			t.Fatalf("expected successful add, got ok=%v err=%v", ok, err)
		}
	}

	var hits []*body.Body
	if err := tr.Query(a, &hits); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0] != b {
		t.Fatalf("expected exactly b to overlap a, got %v", hits)
	}
}

func TestAddRejectsDuplicate(t *testing.T) {
	tr := New(nil)
	a := newBody(t, 1, 0, 0)
	if _, err := tr.Add(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := tr.Add(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected duplicate add to report false")
	}
	if tr.Size() != 1 {
		t.Fatalf("expected size 1, got %d", tr.Size())
	}
}

func TestRemoveDropsBodyFromQueries(t *testing.T) {
	tr := New(nil)
	a := newBody(t, 1, 0, 0)
	b := newBody(t, 2, 0.5, 0)
	tr.Add(a)
	tr.Add(b)

	if ok := tr.Remove(b); !ok {
		t.Fatalf("expected remove to succeed")
	}
	if tr.Contains(b) {
		t.Fatalf("expected b no longer in tree")
	}

	var hits []*body.Body
	tr.Query(a, &hits)
	if len(hits) != 0 {
		t.Fatalf("expected no overlaps after removing b, got %v", hits)
	}
}

func TestRemoveUnknownBodyReturnsFalse(t *testing.T) {
	tr := New(nil)
	a := newBody(t, 1, 0, 0)
	if ok := tr.Remove(a); ok {
		t.Fatalf("expected remove of never-added body to report false")
	}
}

func TestUpdateReinsertsWhenMovedOutsideFatMargin(t *testing.T) {
	tr := New(nil)
	a := newBody(t, 1, 0, 0)
	tr.Add(a)

	a.Shape().SetPosition(100, 100, 0)
	if ok := tr.Update(a); !ok {
		t.Fatalf("expected update to report a reinsertion after a large move")
	}
	if !tr.Contains(a) {
		t.Fatalf("expected a to remain in the tree after update")
	}
}

func TestUpdateIsNoOpForTinyMoveWithinMargin(t *testing.T) {
	tr := New(nil)
	a := newBody(t, 1, 0, 0)
	tr.Add(a)

	a.Shape().SetPosition(0.01, 0, 0)
	if ok := tr.Update(a); ok {
		t.Fatalf("expected a tiny move within the fattened margin to be a no-op")
	}
}

func TestQueryRejectsNonEmptyOut(t *testing.T) {
	tr := New(nil)
	a := newBody(t, 1, 0, 0)
	tr.Add(a)

	hits := []*body.Body{newBody(t, 99, 0, 0)}
	if err := tr.Query(a, &hits); err == nil {
		t.Fatalf("expected error for non-empty out slice")
	}
}

func TestManyInsertionsStayBalancedAndQueryable(t *testing.T) {
	tr := New(nil)
	var bodies []*body.Body
	for i := 0; i < 200; i++ {
		x := float32(i) * 2
		bd := newBody(t, body.ID(i+1), x, 0)
		bodies = append(bodies, bd)
		if _, err := tr.Add(bd); err != nil {
			t.Fatalf("unexpected error at i=%d: %v", i, err)
		}
	}
	if tr.Size() != 200 {
		t.Fatalf("expected 200 bodies, got %d", tr.Size())
	}

	// every internal node's height is 1 + max(child heights), and the
	// two child heights differ by at most 1.
	var walk func(h handle.Handle) int
	walk = func(h handle.Handle) int {
		n := tr.at(h)
		if n.isLeaf() {
			return 0
		}
		l, r := walk(n.left), walk(n.right)
		if l-r > 1 || r-l > 1 {
			t.Fatalf("unbalanced node: child heights %d and %d", l, r)
		}
		if n.height != 1+max(l, r) {
			t.Fatalf("stale height %d, want %d", n.height, 1+max(l, r))
		}
		return n.height
	}
	walk(tr.Root())

	var hits []*body.Body
	if err := tr.Query(bodies[0], &hits); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no overlaps for widely spaced boxes, got %v", hits)
	}
}
