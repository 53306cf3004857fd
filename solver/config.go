// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package solver implements the fixed-timestep sequential-impulse
// constraint solver (spec §4.4): broad phase, narrow phase, warm-start,
// iterative velocity solve, speed clamp, velocity-Verlet integration, and
// sleep/wake coordination through a contact graph, tied together each
// tick in the order gazed-vu/physics/pbd.go's simulation loop uses
// (detect, warm-start, iterate, integrate) — generalized here from that
// file's position-based-dynamics single pass to the spec's full
// sequential-impulse pipeline with a configurable iteration count.
package solver

import "github.com/galvlogic/rigid2d/vecmath"

// Config holds the solver's fixed-timestep constants (spec §4.4, §6).
// Built once at New and treated as immutable afterward; there is no
// file-based config loader here since runtime config loading is out of
// this core's scope.
type Config struct {
	// Timestep is the fixed simulation step h, in seconds. Must be in
	// (0, 1).
	Timestep float32

	// Iterations is the number of velocity-solve passes per tick (N > 0).
	Iterations int

	// Gravity is the global acceleration field applied to every
	// non-static, non-sleeping body each tick.
	Gravity vecmath.Vector

	// MaxSpeed clamps any non-static body's linear speed before
	// integration.
	MaxSpeed float32

	// MinCollisionSpeed is the relative approach speed below which
	// restitution is not applied (prevents resting contacts from
	// perpetually bouncing).
	MinCollisionSpeed float32

	// Baumgarte is the positional-error feedback coefficient β used to
	// compute each contact's velocity bias.
	Baumgarte float32

	// Slop is the penetration slop allowed before Baumgarte bias kicks
	// in, to avoid jitter from floating-point noise at rest.
	Slop float32

	// SeparationDamping scales each contact's precomputed velocity bias.
	// FrictionDamping scales the friction impulse applied each solver
	// iteration and its Coulomb clamp.
	SeparationDamping float32
	FrictionDamping   float32

	// SleepEnabled turns the sleep/wake pass on or off.
	SleepEnabled bool

	// SleepSpeedMax and SleepDeltaMax are the per-body thresholds a
	// component must satisfy to become sleep-eligible (spec §4.3).
	SleepSpeedMax float32
	SleepDeltaMax float32
}

// DefaultConfig returns the constants spec §6 lists as defaults, for the
// given fixed timestep and iteration count.
func DefaultConfig(timestep float32, iterations int) Config {
	return Config{
		Timestep:          timestep,
		Iterations:        iterations,
		Gravity:           vecmath.New(0, -9.8),
		MaxSpeed:          100,
		MinCollisionSpeed: 1,
		Baumgarte:         0.2,
		Slop:              0.01,
		SeparationDamping: 0.8,
		FrictionDamping:   0.9,
		SleepEnabled:      true,
		SleepSpeedMax:     0.05,
		SleepDeltaMax:     0.05,
	}
}
