// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package body implements the physical state of a single rigid body:
// shape, mass, velocity, material, flags, and the tree/graph handles the
// solver uses for O(1) lookup (spec §3).
//
// Styled after gazed-vu/physics/body.go's Body interface (SetMaterial,
// Push/Stop, pairID) adapted to 2D translation-only motion and to the
// handle-based ownership model from spec §9 instead of embedded cgo
// collision scratch state.
package body

import (
	"fmt"
	"math"

	"github.com/galvlogic/rigid2d/handle"
	"github.com/galvlogic/rigid2d/rigid2derr"
	"github.com/galvlogic/rigid2d/shape"
	"github.com/galvlogic/rigid2d/vecmath"
)

// ID identifies a body within whatever factory owns it (spec §4.6: bodies
// are iterated by compact index by an external body factory).
type ID uint32

// Body is a single rigid body: a locked Shape plus the linear motion and
// material state the solver integrates and collides. Bodies do not own
// their tree or graph membership — the solver's BoundingTree and
// ContactGraph own the nodes and hand back Handles for O(1) lookup,
// breaking the cyclic reference the original engine modeled with direct
// pointers (spec §9).
type Body struct {
	id ID

	shape *shape.Shape

	mass    float32
	invMass float32 // 0 iff mass == 0, i.e. static (spec §3 invariant).

	velocity     vecmath.Vector
	prevVelocity vecmath.Vector
	prevAccel    vecmath.Vector
	extImpulse   vecmath.Vector // buffered external impulse, folded in at next detection phase.

	restitution float32 // e, clamped to [0, 1].
	friction    float32 // mu, clamped to [0, 1].

	collidable        bool
	selectable        bool
	ignoreOwnerParent bool
	sleeping          bool

	treeHandle  handle.Handle
	graphHandle handle.Handle

	ownerID uint32 // external game-object id; 0 means unowned, never orphaned (spec §4.4 step 1).
}

// New creates a body around the given locked shape. mass < 0 is an
// invalid argument (spec §7); mass == 0 means static (infinite mass,
// inverse mass stored as exactly 0, spec §5).
func New(id ID, s *shape.Shape, mass float32) (*Body, error) {
	if mass < 0 {
		return nil, fmt.Errorf("%w: body mass %g must be >= 0", rigid2derr.ErrInvalidArgument, mass)
	}
	s.Lock()
	b := &Body{
		id:         id,
		shape:      s,
		collidable: true,
		selectable: true,
	}
	b.setMass(mass)
	return b, nil
}

func (b *Body) setMass(mass float32) {
	b.mass = mass
	if mass == 0 {
		b.invMass = 0
	} else {
		b.invMass = 1 / mass
	}
}

// ID returns the body's factory identifier.
func (b *Body) ID() ID { return b.id }

// Shape returns the body's locked collision shape.
func (b *Body) Shape() *shape.Shape { return b.shape }

// SetShape replaces and locks a new shape. Per spec §6 this is a full
// replacement, not a mutation of the existing one.
func (b *Body) SetShape(s *shape.Shape) {
	s.Lock()
	b.shape = s
}

// Mass and InverseMass report the body's current material mass state.
func (b *Body) Mass() float32        { return b.mass }
func (b *Body) InverseMass() float32 { return b.invMass }

// SetMass updates the body's mass. A negative mass is an invalid
// argument; zero mass makes the body static.
func (b *Body) SetMass(mass float32) error {
	if mass < 0 {
		return fmt.Errorf("%w: body mass %g must be >= 0", rigid2derr.ErrInvalidArgument, mass)
	}
	b.setMass(mass)
	return nil
}

// IsStatic reports whether the body has infinite mass. Static bodies are
// never integrated (spec §3, §8).
func (b *Body) IsStatic() bool { return b.invMass == 0 }

// Velocity returns the body's current linear velocity.
func (b *Body) Velocity() vecmath.Vector { return b.velocity }

// SetVelocity assigns the body's velocity directly, bypassing impulse
// accumulation. Intended for teleporting/initializing bodies. A nan/inf
// component is an invalid argument (spec §7).
func (b *Body) SetVelocity(v vecmath.Vector) error {
	if !validComponent(v.X) || !validComponent(v.Y) {
		return fmt.Errorf("%w: body velocity %v must be finite", rigid2derr.ErrInvalidArgument, v)
	}
	b.velocity = v
	return nil
}

func validComponent(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// PreviousVelocity returns last tick's velocity, used to derive the
// previous acceleration for velocity-Verlet integration (spec §4.4 step 8).
func (b *Body) PreviousVelocity() vecmath.Vector { return b.prevVelocity }

// PreviousAcceleration returns the acceleration recorded by the last
// UpdateVelocity call.
func (b *Body) PreviousAcceleration() vecmath.Vector { return b.prevAccel }

// AddImpulse buffers an external impulse (e.g. a jump, an explosion) to
// be folded into velocity at the start of the next tick's detection phase
// (spec §4.4 step 2, §5: external mutation is buffered between ticks).
func (b *Body) AddImpulse(j vecmath.Vector) { b.extImpulse = b.extImpulse.Add(j) }

// SetImpulse overwrites the pending external impulse outright.
func (b *Body) SetImpulse(j vecmath.Vector) { b.extImpulse = j }

// DrainImpulse returns the pending external impulse and clears it. Called
// once per tick by the solver.
func (b *Body) DrainImpulse() vecmath.Vector {
	j := b.extImpulse
	b.extImpulse = vecmath.Zero
	return j
}

// UpdateVelocity records the current velocity as the previous velocity
// (for next tick's acceleration-from-delta-v) and the current
// acceleration as the previous acceleration, then assigns v as the new
// velocity. Mirrors the "update_velocity... also records the old v into
// v_prev" contract from spec §4.4 step 8.
func (b *Body) UpdateVelocity(v, accel vecmath.Vector) {
	b.prevVelocity = b.velocity
	b.prevAccel = accel
	b.velocity = v
}

// Restitution and Friction report the body's material coefficients.
func (b *Body) Restitution() float32 { return b.restitution }
func (b *Body) Friction() float32    { return b.friction }

// SetMaterial assigns restitution (bounciness) and friction coefficients,
// each clamped to [0, 1] per spec §3.
func (b *Body) SetMaterial(restitution, friction float32) {
	b.restitution = clamp01(restitution)
	b.friction = clamp01(friction)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Collidable reports whether the body should participate in broad/narrow
// phase at all.
func (b *Body) Collidable() bool     { return b.collidable }
func (b *Body) SetCollidable(v bool) { b.collidable = v }

// Selectable reports whether the body is eligible for picking/selection
// by the (out of scope) game-object layer. Carried through purely as
// state; the physics core never reads it itself.
func (b *Body) Selectable() bool     { return b.selectable }
func (b *Body) SetSelectable(v bool) { b.selectable = v }

// IgnoreOwnerParent reports whether this body should skip collisions
// against bodies that share its owning game-object's parent (spec §4.6).
func (b *Body) IgnoreOwnerParent() bool     { return b.ignoreOwnerParent }
func (b *Body) SetIgnoreOwnerParent(v bool) { b.ignoreOwnerParent = v }

// Sleeping reports whether the body currently skips integration and
// impulse generation (spec §3, §4.3).
func (b *Body) Sleeping() bool { return b.sleeping }

// SetSleeping is called by the solver's sleep/wake pass.
func (b *Body) SetSleeping(v bool) { b.sleeping = v }

// TreeHandle and SetTreeHandle manage the body's back-reference into
// whichever BoundingTree currently owns its leaf node (spec §3, §9).
func (b *Body) TreeHandle() handle.Handle     { return b.treeHandle }
func (b *Body) SetTreeHandle(h handle.Handle) { b.treeHandle = h }

// GraphHandle and SetGraphHandle manage the body's back-reference into
// the ContactGraph's node for this body.
func (b *Body) GraphHandle() handle.Handle     { return b.graphHandle }
func (b *Body) SetGraphHandle(h handle.Handle) { b.graphHandle = h }

// OwnerID and SetOwnerID track the (out of scope) game-object that owns
// this body, so the solver's ensure-partitioning step can detect orphans
// (spec §4.4 step 1). Zero means unowned: such bodies are never orphaned
// since they were never claimed by a game object in the first place.
func (b *Body) OwnerID() uint32     { return b.ownerID }
func (b *Body) SetOwnerID(id uint32) { b.ownerID = id }
