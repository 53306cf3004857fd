// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package rigid2derr defines the error kinds shared across the rigid2d
// physics core. See spec §7: validation happens at public entry points,
// internal helpers assume preconditions already hold.
package rigid2derr

import "errors"

// Sentinel kinds. Wrap one of these with fmt.Errorf("%w: ...") so callers
// can classify a failure with errors.Is without string matching.
var (
	// ErrInvalidArgument marks a violated precondition on a public input,
	// e.g. negative mass, a non-empty query output slice, a non-positive
	// iteration count, a timestep outside (0, 1), or a nan/inf velocity.
	ErrInvalidArgument = errors.New("rigid2d: invalid argument")

	// ErrInvariantViolation marks a broken internal invariant, e.g. a
	// contact between two static bodies, or a duplicate tree insert.
	// These are bugs: callers should treat them as fatal to the tick.
	ErrInvariantViolation = errors.New("rigid2d: invariant violation")

	// ErrNotFound marks a lookup that did not resolve, e.g. a body handle
	// whose generation no longer matches. Callers are expected to treat
	// this as an ordinary absence, not a failure.
	ErrNotFound = errors.New("rigid2d: not found")
)
