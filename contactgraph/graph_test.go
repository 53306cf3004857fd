// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package contactgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/galvlogic/rigid2d/body"
	"github.com/galvlogic/rigid2d/shape"
	"github.com/galvlogic/rigid2d/vecmath"
)

func newTestBody(t *testing.T, id body.ID) *body.Body {
	t.Helper()
	b, err := body.New(id, shape.NewBox(1, 1), 1)
	require.NoError(t, err)
	return b
}

func TestAddContactIsOrderInsensitive(t *testing.T) {
	cg := New(nil)
	a, b := newTestBody(t, 1), newTestBody(t, 2)
	require.NoError(t, cg.AddBody(a))
	require.NoError(t, cg.AddBody(b))

	c, err := cg.AddContact(a, b)
	require.NoError(t, err)
	require.NotNil(t, c)

	got, ok := cg.GetContact(b, a)
	require.True(t, ok)
	require.Same(t, c, got)
}

func TestAddContactReturnsSameContactOnRepeat(t *testing.T) {
	cg := New(nil)
	a, b := newTestBody(t, 1), newTestBody(t, 2)
	cg.AddBody(a)
	cg.AddBody(b)

	c1, err := cg.AddContact(a, b)
	require.NoError(t, err)
	c1.NormalImpulse[0] = 3.5

	c2, err := cg.AddContact(a, b)
	require.NoError(t, err)
	require.Same(t, c1, c2)
	require.Equal(t, float32(3.5), c2.NormalImpulse[0])
}

func TestDropInvalidContactsRemovesUntouched(t *testing.T) {
	cg := New(nil)
	a, b := newTestBody(t, 1), newTestBody(t, 2)
	cg.AddBody(a)
	cg.AddBody(b)
	cg.AddContact(a, b)

	cg.ClearTouched()
	cg.DropInvalidContacts()

	_, ok := cg.GetContact(a, b)
	require.False(t, ok)
}

func TestDropInvalidContactsKeepsTouched(t *testing.T) {
	cg := New(nil)
	a, b := newTestBody(t, 1), newTestBody(t, 2)
	cg.AddBody(a)
	cg.AddBody(b)
	cg.AddContact(a, b)

	cg.ClearTouched()
	cg.AddContact(a, b) // re-touch this tick.
	cg.DropInvalidContacts()

	_, ok := cg.GetContact(a, b)
	require.True(t, ok)
}

func TestRemoveBodyDropsIncidentContacts(t *testing.T) {
	cg := New(nil)
	a, b := newTestBody(t, 1), newTestBody(t, 2)
	cg.AddBody(a)
	cg.AddBody(b)
	cg.AddContact(a, b)

	require.NoError(t, cg.RemoveBody(a))
	require.False(t, cg.HasBody(a))
	_, ok := cg.GetContact(a, b)
	require.False(t, ok)
}

func TestRecomputeComponentsGroupsTouchingBodies(t *testing.T) {
	cg := New(nil)
	a, b, c := newTestBody(t, 1), newTestBody(t, 2), newTestBody(t, 3)
	cg.AddBody(a)
	cg.AddBody(b)
	cg.AddBody(c) // untouched, isolated.
	cg.AddContact(a, b)

	require.NoError(t, cg.RecomputeComponents())
	require.Equal(t, 2, cg.ComponentCount())

	sizes := []int{len(cg.ComponentBodies(0)), len(cg.ComponentBodies(1))}
	require.ElementsMatch(t, []int{2, 1}, sizes)
}

func TestSleepEligibilityRequiresLowSpeedAndLowDelta(t *testing.T) {
	cg := New(nil)
	a, b := newTestBody(t, 1), newTestBody(t, 2)
	require.NoError(t, a.SetVelocity(vecmath.New(0.01, 0)))
	require.NoError(t, b.SetVelocity(vecmath.New(0.01, 0)))
	cg.AddBody(a)
	cg.AddBody(b)
	cg.AddContact(a, b)
	require.NoError(t, cg.RecomputeComponents())

	require.True(t, cg.IsComponentSleepEligible(0, 0.05, 0.05))

	a.UpdateVelocity(vecmath.New(5, 0), vecmath.Zero)
	require.False(t, cg.IsComponentSleepEligible(0, 0.05, 0.05))
}

func TestSleepComponentMarksBodiesAndContactsSleeping(t *testing.T) {
	cg := New(nil)
	a, b := newTestBody(t, 1), newTestBody(t, 2)
	cg.AddBody(a)
	cg.AddBody(b)
	contact, _ := cg.AddContact(a, b)
	require.NoError(t, cg.RecomputeComponents())

	cg.SleepComponent(0)
	require.True(t, a.Sleeping())
	require.True(t, b.Sleeping())
	require.True(t, contact.Sleeping)

	cg.WakeComponent(0)
	require.False(t, a.Sleeping())
	require.False(t, contact.Sleeping)
}
