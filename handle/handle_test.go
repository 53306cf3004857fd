// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package handle

import "testing"

func TestCreateDistinct(t *testing.T) {
	a := NewArena()
	h0, ok0 := a.Create()
	h1, ok1 := a.Create()
	if !ok0 || !ok1 {
		t.Fatalf("expected both creates to succeed")
	}
	if h0 == h1 {
		t.Errorf("expected distinct handles, got %v and %v", h0, h1)
	}
	if !a.Contains(h0) || !a.Contains(h1) {
		t.Errorf("expected freshly created handles to be contained")
	}
}

func TestReleaseInvalidatesHandle(t *testing.T) {
	a := NewArena()
	h, _ := a.Create()
	a.Release(h)
	if a.Contains(h) {
		t.Errorf("expected released handle to no longer be contained")
	}
}

func TestRecycledIndexGetsNewGeneration(t *testing.T) {
	a := NewArena()
	h0, _ := a.Create()
	a.Release(h0)
	h1, ok := a.Create()
	if !ok {
		t.Fatalf("expected recycle to succeed")
	}
	if h1.Index() != h0.Index() {
		t.Fatalf("expected index reuse, got %d want %d", h1.Index(), h0.Index())
	}
	if h1.Generation() == h0.Generation() {
		t.Errorf("expected a new generation after recycling")
	}
	if a.Contains(h0) {
		t.Errorf("stale handle into a recycled slot must not be contained")
	}
	if !a.Contains(h1) {
		t.Errorf("the fresh handle into the recycled slot must be contained")
	}
}

func TestNoneIsInvalid(t *testing.T) {
	a := NewArena()
	if None.Valid() {
		t.Errorf("None must report invalid")
	}
	if a.Contains(None) {
		t.Errorf("an empty arena must never contain None")
	}
}
