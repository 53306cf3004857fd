// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package solver

import (
	"fmt"
	"log/slog"

	"github.com/galvlogic/rigid2d/body"
	"github.com/galvlogic/rigid2d/contactgraph"
	"github.com/galvlogic/rigid2d/manifold"
	"github.com/galvlogic/rigid2d/narrowphase"
	"github.com/galvlogic/rigid2d/rigid2derr"
	"github.com/galvlogic/rigid2d/tree"
	"github.com/galvlogic/rigid2d/vecmath"
)

// Solver runs the fixed-timestep tick pipeline over a body factory and
// game-object factory supplied each call (spec §4.4). It owns the static
// and dynamic bounding trees and the contact graph; bodies and game
// objects remain owned by their respective external factories.
type Solver struct {
	cfg Config

	staticTree  *tree.Tree
	dynamicTree *tree.Tree
	graph       *contactgraph.Graph

	scratch manifold.Manifold // reused across every narrow-phase call this tick.
	candBuf []*body.Body      // reused scratch for tree queries.
	bodies  BodyFactory
	log     *slog.Logger
}

// New constructs a Solver with the given config, wired to bodies for its
// on-remove listener (the graph/trees must drop a body's membership the
// instant the factory deletes it, whether that happens inside or outside
// a tick). A nil logger falls back to slog.Default(). cfg.Timestep must
// satisfy 0 < h < 1 and cfg.Iterations must be > 0, else New fails with
// ErrInvalidArgument (spec §4.4).
func New(cfg Config, bodies BodyFactory, logger *slog.Logger) (*Solver, error) {
	if cfg.Timestep <= 0 || cfg.Timestep >= 1 {
		return nil, fmt.Errorf("%w: timestep %g must satisfy 0 < h < 1", rigid2derr.ErrInvalidArgument, cfg.Timestep)
	}
	if cfg.Iterations <= 0 {
		return nil, fmt.Errorf("%w: iterations %d must be > 0", rigid2derr.ErrInvalidArgument, cfg.Iterations)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Solver{
		cfg:         cfg,
		staticTree:  tree.New(logger),
		dynamicTree: tree.New(logger),
		graph:       contactgraph.New(logger),
		bodies:      bodies,
		log:         logger,
	}
	bodies.OnRemove(s.handleBodyRemoved)
	return s, nil
}

// SetGlobalAcceleration and GlobalAcceleration get/set the gravity field
// applied every tick.
func (s *Solver) SetGlobalAcceleration(g vecmath.Vector) { s.cfg.Gravity = g }
func (s *Solver) GlobalAcceleration() vecmath.Vector     { return s.cfg.Gravity }

func (s *Solver) handleBodyRemoved(b *body.Body) {
	s.staticTree.Remove(b)
	s.dynamicTree.Remove(b)
	if s.graph.HasBody(b) {
		if err := s.graph.RemoveBody(b); err != nil {
			s.log.Warn("solver: removing body from contact graph", "error", err)
		}
	}
}

// Update runs one full fixed-timestep tick (spec §4.4 steps 1-9).
func (s *Solver) Update(objects GameObjectFactory, bodies BodyFactory) error {
	if err := s.ensurePartitioning(objects, bodies); err != nil {
		return err
	}
	if err := s.searchForContacts(objects, bodies); err != nil {
		return err
	}
	s.graph.DropInvalidContacts()
	s.warmStart()
	if s.cfg.SleepEnabled {
		if err := s.sleepWakePass(); err != nil {
			return err
		}
	}
	s.precomputeBias()
	s.iterativeSolve()
	s.integrate()
	s.synchronize(objects, bodies)
	return nil
}

// ensurePartitioning is step 1: evict orphans, sync graph membership to
// collidability, and keep every body in the tree matching its static/
// dynamic status.
func (s *Solver) ensurePartitioning(objects GameObjectFactory, bodies BodyFactory) error {
	for _, b := range bodies.Bodies() {
		if b.OwnerID() != 0 {
			if _, ok := objects.Get(b.OwnerID()); !ok {
				bodies.Remove(b.ID()) // triggers handleBodyRemoved via OnRemove.
				continue
			}
		}

		if b.Collidable() {
			if err := s.graph.AddBody(b); err != nil {
				return err
			}
		} else if s.graph.HasBody(b) {
			if err := s.graph.RemoveBody(b); err != nil {
				return err
			}
		}

		target, other := s.dynamicTree, s.staticTree
		if b.IsStatic() {
			target, other = s.staticTree, s.dynamicTree
		}
		if target.Contains(b) {
			target.Update(b)
			continue
		}
		inserted, err := target.Add(b)
		if err != nil {
			return err
		}
		if inserted {
			other.Remove(b) // migrated between static and dynamic.
		}
	}
	return nil
}

// searchForContacts is step 2.
func (s *Solver) searchForContacts(objects GameObjectFactory, bodies BodyFactory) error {
	s.graph.ClearTouched()
	for _, a := range bodies.Bodies() {
		if a.IsStatic() || !a.Collidable() {
			continue
		}
		v := a.Velocity().Add(a.DrainImpulse())
		if err := a.SetVelocity(v); err != nil {
			return err
		}

		s.candBuf = s.candBuf[:0]
		var dynCand []*body.Body
		if err := s.staticTree.Query(a, &s.candBuf); err != nil {
			return err
		}
		if err := s.dynamicTree.Query(a, &dynCand); err != nil {
			return err
		}
		s.candBuf = append(s.candBuf, dynCand...)

		for _, b := range s.candBuf {
			if !b.Collidable() {
				continue
			}
			if s.shouldIgnore(objects, a, b) {
				continue
			}
			if existing, ok := s.graph.GetContact(b, a); ok && existing.Handled {
				continue // (B, A) already processed this tick.
			}

			colliding := narrowphase.Test(a.Shape(), b.Shape(), &s.scratch)
			_, hasExisting := s.graph.GetContact(a, b)
			switch {
			case colliding:
				c, err := s.graph.AddContact(a, b)
				if err != nil {
					return err
				}
				c.Manifold.CopyFrom(&s.scratch)
				c.Handled = true
			case hasExisting:
				s.graph.RemoveContact(a, b)
			}
		}
	}
	return nil
}

// shouldIgnore reports whether A should skip colliding with B because A
// is set to ignore collisions against bodies sharing its owner's parent
// (spec §4.6).
func (s *Solver) shouldIgnore(objects GameObjectFactory, a, b *body.Body) bool {
	if !a.IgnoreOwnerParent() || a.OwnerID() == 0 || b.OwnerID() == 0 {
		return false
	}
	aObj, ok := objects.Get(a.OwnerID())
	if !ok {
		return false
	}
	bObj, ok := objects.Get(b.OwnerID())
	if !ok {
		return false
	}
	if aObj.ParentID() == 0 {
		return false
	}
	return aObj.ParentID() == bObj.ParentID() && aObj.ParentVersion() == bObj.ParentVersion()
}

// warmStart is step 4: reapply last tick's accumulated impulses before
// this tick's iterative solve, and clear the handled flag for the next
// tick's contact search.
func (s *Solver) warmStart() {
	s.graph.IterateActiveContacts(func(c *contactgraph.Contact) {
		c.Handled = false
		if c.Sleeping {
			return
		}
		applyWarmStart(c)
	})
}

func applyWarmStart(c *contactgraph.Contact) {
	a, b := c.A, c.B
	n := c.Manifold.Normal
	tA, tB := n.Left(), n.Right()
	for i := 0; i < c.Manifold.ContactCount(); i++ {
		sep := c.NormalImpulse[i]
		fric := c.TangentImpulse[i]
		if !a.IsStatic() {
			a.SetVelocity(a.Velocity().Add(n.Neg().Scale(sep * a.InverseMass())))
			a.SetVelocity(a.Velocity().Add(tA.Scale(fric * a.InverseMass())))
		}
		if !b.IsStatic() {
			b.SetVelocity(b.Velocity().Add(n.Scale(sep * b.InverseMass())))
			b.SetVelocity(b.Velocity().Add(tB.Scale(fric * b.InverseMass())))
		}
	}
}

// sleepWakePass is step 5.
func (s *Solver) sleepWakePass() error {
	if err := s.graph.RecomputeComponents(); err != nil {
		return err
	}
	for i := 0; i < s.graph.ComponentCount(); i++ {
		if s.graph.IsComponentSleepEligible(i, s.cfg.SleepSpeedMax, s.cfg.SleepDeltaMax) {
			s.graph.SleepComponent(i)
		} else {
			s.graph.WakeComponent(i)
		}
	}
	return nil
}

// precomputeBias is step 6.
func (s *Solver) precomputeBias() {
	s.graph.IterateActiveContacts(func(c *contactgraph.Contact) {
		if c.Sleeping {
			return
		}
		a, b := c.A, c.B
		n := c.Manifold.Normal
		vRel := a.Velocity().Sub(b.Velocity())
		vn := vRel.Dot(n.Neg())
		for i := 0; i < c.Manifold.ContactCount(); i++ {
			if vn < -s.cfg.MinCollisionSpeed {
				depth := c.Manifold.Depth(i)
				over := depth - s.cfg.Slop
				if over < 0 {
					over = 0
				}
				c.Bias[i] = (-a.Restitution()*b.Restitution()*vn + s.cfg.Baumgarte*over) * s.cfg.SeparationDamping
			} else {
				c.Bias[i] = 0
			}
		}
	})
}

// iterativeSolve is step 7.
func (s *Solver) iterativeSolve() {
	for iter := 0; iter < s.cfg.Iterations; iter++ {
		s.graph.IterateActiveContacts(func(c *contactgraph.Contact) {
			if c.Sleeping {
				return
			}
			solveContact(c, s.cfg)
		})
	}
}

func solveContact(c *contactgraph.Contact, cfg Config) {
	a, b := c.A, c.B
	n := c.Manifold.Normal
	invMassSum := a.InverseMass() + b.InverseMass()
	if invMassSum == 0 {
		return // two static bodies never collide per tree invariants, but guard anyway.
	}
	k := 1 / invMassSum

	for i := 0; i < c.Manifold.ContactCount(); i++ {
		vRel := a.Velocity().Sub(b.Velocity())
		tangent := n.Left()

		// Friction first, clamped to the Coulomb cone sized by this
		// contact's current accumulated separation impulse.
		lambdaF := -vRel.Dot(tangent) * k * cfg.FrictionDamping
		maxFriction := a.Friction() * b.Friction() * c.NormalImpulse[i] * cfg.FrictionDamping
		oldF := c.TangentImpulse[i]
		newF := clampAbs(oldF+lambdaF, maxFriction)
		deltaF := newF - oldF
		c.TangentImpulse[i] = newF
		applyImpulse(a, b, tangent, deltaF)

		// Separation.
		vRel = a.Velocity().Sub(b.Velocity())
		vn := vRel.Dot(n.Neg())
		lambda := -k * (vn - c.Bias[i])
		oldN := c.NormalImpulse[i]
		newN := oldN + lambda
		if newN < 0 {
			newN = 0
		}
		deltaN := newN - oldN
		c.NormalImpulse[i] = newN
		applyImpulse(a, b, n.Neg(), deltaN)
	}
}

// applyImpulse applies delta*dir to A scaled by +1/m_A and to B scaled
// by -1/m_B, matching the sign convention in spec §4.4 step 7 where dir
// is passed as the vector that already points the way A receives it
// (i.e. callers pass n.Neg() for the separation impulse and tangent
// directly for friction, since friction has no inherent A/B sign).
func applyImpulse(a, b *body.Body, dir vecmath.Vector, delta float32) {
	if !a.IsStatic() {
		a.SetVelocity(a.Velocity().Add(dir.Scale(delta * a.InverseMass())))
	}
	if !b.IsStatic() {
		b.SetVelocity(b.Velocity().Sub(dir.Scale(delta * b.InverseMass())))
	}
}

func clampAbs(v, limit float32) float32 {
	if limit < 0 {
		limit = 0
	}
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// integrate is step 8.
func (s *Solver) integrate() {
	h := s.cfg.Timestep
	for _, b := range s.bodies.Bodies() {
		if b.IsStatic() || b.Sleeping() {
			continue
		}
		v := b.Velocity()
		if speed := v.Len(); speed > s.cfg.MaxSpeed {
			v = v.Scale(s.cfg.MaxSpeed / speed)
		}

		aPrev := b.PreviousAcceleration()
		dp := v.Scale(h).Add(aPrev.Scale(h / 2))
		x, y, z := b.Shape().Position()
		pos := vecmath.New(x, y).Add(dp)
		b.Shape().SetPosition(pos.X, pos.Y, z)

		aNew := v.Sub(b.PreviousVelocity()).Add(s.cfg.Gravity).Add(aPrev).Scale(h)
		vNew := v.Add(aNew.Scale(h))
		b.UpdateVelocity(vNew, aNew)
	}
	for _, b := range s.bodies.Bodies() {
		if !b.IsStatic() {
			s.dynamicTree.Update(b)
		}
	}
}

// synchronize is step 9.
func (s *Solver) synchronize(objects GameObjectFactory, bodies BodyFactory) {
	for _, b := range bodies.Bodies() {
		if b.OwnerID() == 0 {
			continue
		}
		obj, ok := objects.Get(b.OwnerID())
		if !ok {
			continue
		}
		x, y, _ := b.Shape().Position()
		obj.MoveToCenter(x, y)
	}
}

// Collisions implements the broadband accessor from spec §4.5: tree
// ensure (b is inserted into, or refreshed in, the tree matching its
// static/dynamic status), tree query, and a narrow-phase filter so only
// bodies with an actual shape intersection are appended to out. Unlike
// the tick pipeline, this may be called at any time. Only b is placed in
// a tree here; other bodies are found once an earlier Update or
// Collisions call has placed them in one.
func (s *Solver) Collisions(b *body.Body, out *[]*body.Body) error {
	if len(*out) != 0 {
		return fmt.Errorf("%w: Collisions requires an empty out slice", rigid2derr.ErrInvalidArgument)
	}
	target := s.dynamicTree
	if b.IsStatic() {
		target = s.staticTree
	}
	if target.Contains(b) {
		target.Update(b)
	} else if _, err := target.Add(b); err != nil {
		return err
	}

	var candidates, dynCand []*body.Body
	if err := s.staticTree.Query(b, &candidates); err != nil {
		return err
	}
	if err := s.dynamicTree.Query(b, &dynCand); err != nil {
		return err
	}
	candidates = append(candidates, dynCand...)

	var scratch manifold.Manifold
	for _, cand := range candidates {
		if narrowphase.Test(b.Shape(), cand.Shape(), &scratch) {
			*out = append(*out, cand)
		}
	}
	return nil
}
