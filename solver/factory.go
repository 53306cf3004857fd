// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package solver

import "github.com/galvlogic/rigid2d/body"

// BodyFactory is the external collaborator that owns bodies (spec §4.6):
// iterated by compact index, looked up and removed by id, with an
// on-remove hook the solver uses to drop a removed body's tree/graph
// membership without the factory needing to know about either.
type BodyFactory interface {
	// Bodies returns every body currently owned, in stable index order.
	Bodies() []*body.Body

	// Get looks up a body by id.
	Get(id body.ID) (*body.Body, bool)

	// Remove deletes a body from the factory, invoking any listener
	// registered via OnRemove.
	Remove(id body.ID)

	// OnRemove registers a listener invoked whenever a body is removed,
	// whether by this factory's own Remove or by the solver's
	// ensure-partitioning pass evicting an orphan.
	OnRemove(listener func(*body.Body))
}

// GameObject is the external game-object the solver synchronizes a
// body's position into, and whose parent linkage drives
// ignore_owner_parent filtering (spec §4.6).
type GameObject interface {
	// MoveToCenter updates the object's world position to match its
	// body's new center after integration.
	MoveToCenter(x, y float32)

	// ParentID and ParentVersion identify the object's parent, if any,
	// for ignore_owner_parent comparisons. A ParentID of 0 means no
	// parent.
	ParentID() uint32
	ParentVersion() uint32
}

// GameObjectFactory is the external collaborator that owns game objects
// (spec §4.6).
type GameObjectFactory interface {
	Get(id uint32) (GameObject, bool)
}
