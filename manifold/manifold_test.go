// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package manifold

import (
	"testing"

	"github.com/galvlogic/rigid2d/vecmath"
)

func TestAddAccumulatesPointsAndDepths(t *testing.T) {
	m := New()
	m.Add(vecmath.New(1, 2), 0.1)
	m.Add(vecmath.New(3, 4), 0.2)

	if got := m.ContactCount(); got != 2 {
		t.Fatalf("expected 2 contacts, got %v", got)
	}
	if p := m.ContactPoint(0); !p.Eq(vecmath.New(1, 2)) {
		t.Fatalf("expected point (1,2), got %v", p)
	}
	if d := m.Depth(1); d != 0.2 {
		t.Fatalf("expected depth 0.2, got %v", d)
	}
}

func TestAddDropsBeyondMaxContacts(t *testing.T) {
	m := New()
	m.Add(vecmath.New(0, 0), 0.1)
	m.Add(vecmath.New(1, 0), 0.1)
	m.Add(vecmath.New(2, 0), 0.1) // beyond MaxContacts (2), silently dropped.

	if got := m.ContactCount(); got != MaxContacts {
		t.Fatalf("expected ContactCount clamped to %v, got %v", MaxContacts, got)
	}
}

func TestClearResetsCountButKeepsNormal(t *testing.T) {
	m := New()
	m.Normal = vecmath.New(0, 1)
	m.Add(vecmath.New(1, 1), 0.5)

	m.Clear()

	if got := m.ContactCount(); got != 0 {
		t.Fatalf("expected 0 contacts after Clear, got %v", got)
	}
	if !m.Normal.Eq(vecmath.New(0, 1)) {
		t.Fatalf("expected Clear to leave Normal untouched, got %v", m.Normal)
	}
}

func TestCopyFromOverwritesDestination(t *testing.T) {
	src := New()
	src.Normal = vecmath.New(1, 0)
	src.Add(vecmath.New(5, 5), 0.3)

	dst := New()
	dst.Normal = vecmath.New(0, -1)
	dst.Add(vecmath.New(9, 9), 0.9)
	dst.Add(vecmath.New(8, 8), 0.8)

	dst.CopyFrom(src)

	if got := dst.ContactCount(); got != 1 {
		t.Fatalf("expected CopyFrom to overwrite contact count to 1, got %v", got)
	}
	if !dst.Normal.Eq(vecmath.New(1, 0)) {
		t.Fatalf("expected CopyFrom to overwrite Normal, got %v", dst.Normal)
	}
	if p := dst.ContactPoint(0); !p.Eq(vecmath.New(5, 5)) {
		t.Fatalf("expected CopyFrom to overwrite contact point, got %v", p)
	}
	if d := dst.Depth(0); d != 0.3 {
		t.Fatalf("expected CopyFrom to overwrite depth, got %v", d)
	}
}

func TestNewManifoldStartsEmpty(t *testing.T) {
	m := New()
	if got := m.ContactCount(); got != 0 {
		t.Fatalf("expected a new Manifold to have 0 contacts, got %v", got)
	}
}
