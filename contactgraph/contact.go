// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package contactgraph

import (
	"github.com/galvlogic/rigid2d/body"
	"github.com/galvlogic/rigid2d/manifold"
)

// Contact is the persistent per-pair collision state the solver reads and
// writes across ticks: the latest manifold plus, per contact point, the
// accumulated normal/tangent impulses carried forward for warm-starting
// (spec §4.4 step 4) and the Baumgarte bias term precomputed once per
// tick (spec §4.4 step 7).
type Contact struct {
	A, B *body.Body

	Manifold manifold.Manifold

	NormalImpulse  [manifold.MaxContacts]float32
	TangentImpulse [manifold.MaxContacts]float32
	Bias           [manifold.MaxContacts]float32

	Sleeping bool // set by Graph.SleepComponent; skipped during iterate-solve.

	// Handled marks whether this tick's contact-search pass has already
	// processed this pair (spec §4.4 step 2: don't double-process (B, A)
	// after (A, B) was handled). Cleared by the solver during warm-start
	// (step 4), set during contact search (step 2).
	Handled bool

	touched bool // refreshed this tick's narrow phase; drives drop_invalid_contacts.
}

// Other returns whichever endpoint of the contact is not b.
func (c *Contact) Other(b *body.Body) *body.Body {
	if c.A == b {
		return c.B
	}
	return c.A
}
