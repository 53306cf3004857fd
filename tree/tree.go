// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package tree implements the dynamic, self-balancing AABB hierarchy used
// for broad-phase pruning (spec §4.1): internal nodes hold a union AABB,
// leaves hold a body; insert/remove/update keep the tree AVL-balanced so
// query stays O(log n + k).
//
// Nothing in the reference pack implements an incrementally-balanced
// dynamic AABB tree: gazed-vu/physics/broad.go is an O(n^2) brute-force
// broad phase, and the retrieved viamrobotics-rdk BVH
// (spatialmath-bvh.go) only ever bulk-builds a static tree from a fixed
// geometry set. This package is therefore grounded on general AABB-tree
// literature (Box2D's b2DynamicTree rotation cases) rather than a pack
// example, using stdlib only — see DESIGN.md for why no example library
// could supply this piece.
package tree

import (
	"fmt"
	"log/slog"

	"github.com/galvlogic/rigid2d/body"
	"github.com/galvlogic/rigid2d/handle"
	"github.com/galvlogic/rigid2d/rigid2derr"
	"github.com/galvlogic/rigid2d/shape"
	"github.com/galvlogic/rigid2d/vecmath"
)

type node struct {
	aabb   shape.AABB
	parent handle.Handle
	left   handle.Handle // handle.None on a leaf.
	right  handle.Handle
	height int

	body *body.Body // non-nil only on a leaf.
}

func (n *node) isLeaf() bool { return n.left == handle.None && n.right == handle.None }

// Tree is a dynamic AABB hierarchy over a set of bodies. A Solver keeps
// two: one for static bodies, one for dynamic bodies (spec §4.1).
type Tree struct {
	arena *handle.Arena
	nodes []node // parallel to arena indices; nodes[h.Index()] is live iff arena.Contains(h).

	root handle.Handle

	byBody map[body.ID]handle.Handle // body -> its leaf handle, for Contains/Remove/Update.

	log *slog.Logger
}

// New returns an empty Tree. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Tree {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tree{
		arena:  handle.NewArena(),
		byBody: make(map[body.ID]handle.Handle),
		log:    logger,
	}
}

// IsEmpty reports whether the tree currently holds no bodies.
func (t *Tree) IsEmpty() bool { return t.root == handle.None }

// Size returns the number of bodies currently in the tree.
func (t *Tree) Size() int { return len(t.byBody) }

// Contains reports whether b currently has a leaf in this tree.
func (t *Tree) Contains(b *body.Body) bool {
	_, ok := t.byBody[b.ID()]
	return ok
}

// Root returns the tree's root handle, or handle.None if empty.
func (t *Tree) Root() handle.Handle { return t.root }

func (t *Tree) at(h handle.Handle) *node { return &t.nodes[h.Index()] }

func (t *Tree) allocNode() (handle.Handle, error) {
	h, ok := t.arena.Create()
	if !ok {
		return handle.None, fmt.Errorf("%w: tree node arena exhausted", rigid2derr.ErrInvariantViolation)
	}
	idx := h.Index()
	for idx >= uint32(len(t.nodes)) {
		t.nodes = append(t.nodes, node{})
	}
	t.nodes[idx] = node{parent: handle.None, left: handle.None, right: handle.None}
	return h, nil
}

func (t *Tree) freeNode(h handle.Handle) {
	t.arena.Release(h)
}

// fatten pads a leaf's AABB by a flat 0.1 world units on every side so
// small movements don't trigger an immediate remove+reinsert in Update —
// the same intent as gazed-vu's predictedAabb margin.
const fatten = 0.1

func fattenedAABB(ab shape.AABB) shape.AABB {
	pad := vecmath.New(fatten, fatten)
	return shape.AABB{Min: ab.Min.Sub(pad), Max: ab.Max.Add(pad)}
}

// Add inserts body into the tree. Returns false if the body is already
// present (spec §4.1: insert returns bool, false on duplicate). If the
// tree is empty, the new leaf becomes the root; otherwise the insertion
// descends to the sibling leaf whose post-insertion union area would
// be smallest, ties going left, then climbs back up rebalancing.
func (t *Tree) Add(b *body.Body) (bool, error) {
	if t.Contains(b) {
		return false, nil
	}
	leafAABB := fattenedAABB(b.Shape().AABB())
	leaf, err := t.allocNode()
	if err != nil {
		return false, err
	}
	t.at(leaf).aabb = leafAABB
	t.at(leaf).body = b
	t.at(leaf).height = 0

	if t.root == handle.None {
		t.root = leaf
		t.at(leaf).parent = handle.None
		t.byBody[b.ID()] = leaf
		b.SetTreeHandle(leaf)
		return true, nil
	}

	sibling := t.bestSibling(leafAABB)
	if err := t.insertAtSibling(leaf, sibling); err != nil {
		return false, err
	}
	t.byBody[b.ID()] = leaf
	b.SetTreeHandle(leaf)
	return true, nil
}

// bestSibling descends from root always into the child whose
// post-insertion union area would be smaller, ties going left (spec
// §4.1).
func (t *Tree) bestSibling(leafAABB shape.AABB) handle.Handle {
	cur := t.root
	for !t.at(cur).isLeaf() {
		n := t.at(cur)
		leftCost := shape.Union(t.at(n.left).aabb, leafAABB).Area()
		rightCost := shape.Union(t.at(n.right).aabb, leafAABB).Area()
		if rightCost < leftCost {
			cur = n.right
		} else {
			cur = n.left // ties go left.
		}
	}
	return cur
}

func (t *Tree) insertAtSibling(leaf, sibling handle.Handle) error {
	oldParent := t.at(sibling).parent
	newParent, err := t.allocNode()
	if err != nil {
		return err
	}
	t.at(newParent).parent = oldParent
	t.at(newParent).aabb = shape.Union(t.at(sibling).aabb, t.at(leaf).aabb)
	t.at(newParent).height = t.at(sibling).height + 1

	if oldParent == handle.None {
		// sibling was the root; the new internal node becomes the root.
		t.at(newParent).left = sibling
		t.at(newParent).right = leaf
		t.at(sibling).parent = newParent
		t.at(leaf).parent = newParent
		t.root = newParent
		return nil
	}

	op := t.at(oldParent)
	if op.left == sibling {
		op.left = newParent
	} else {
		op.right = newParent
	}
	t.at(newParent).left = sibling
	t.at(newParent).right = leaf
	t.at(sibling).parent = newParent
	t.at(leaf).parent = newParent

	return t.fixupFrom(oldParent)
}

// fixupFrom climbs from n toward the root, recomputing AABB and height
// and applying an AVL rotation at each step where the children's heights
// differ by more than 1 (spec §4.1).
func (t *Tree) fixupFrom(n handle.Handle) error {
	for n != handle.None {
		n = t.balance(n)
		cur := t.at(n)
		cur.height = 1 + max(t.at(cur.left).height, t.at(cur.right).height)
		cur.aabb = shape.Union(t.at(cur.left).aabb, t.at(cur.right).aabb)
		n = cur.parent
	}
	return nil
}

// balance rebalances the subtree rooted at n if needed and returns the
// handle of whatever node now occupies n's former position (itself,
// unless a rotation replaced it).
func (t *Tree) balance(n handle.Handle) handle.Handle {
	cur := t.at(n)
	if cur.isLeaf() {
		return n
	}
	balanceFactor := t.at(cur.right).height - t.at(cur.left).height
	switch {
	case balanceFactor > 1:
		return t.rotateLeft(n) // right-heavy: RR or RL case.
	case balanceFactor < -1:
		return t.rotateRight(n) // left-heavy: LL or LR case.
	default:
		return n
	}
}

// rotateLeft handles a right-heavy node: the RR case rotates directly;
// the RL case (right child is left-heavy) first rotates the right child
// right, turning it into an RR case.
func (t *Tree) rotateLeft(n handle.Handle) handle.Handle {
	parent := t.at(n)
	child := parent.right
	c := t.at(child)
	if t.at(c.left).height > t.at(c.right).height {
		child = t.rotateRightInPlace(child) // RL -> RR
		c = t.at(child)
		parent.right = child
	}
	return t.swapUp(n, child, true)
}

// rotateRight handles a left-heavy node: the LL case rotates directly;
// the LR case (left child is right-heavy) first rotates the left child
// left, turning it into an LL case.
func (t *Tree) rotateRight(n handle.Handle) handle.Handle {
	parent := t.at(n)
	child := parent.left
	c := t.at(child)
	if t.at(c.right).height > t.at(c.left).height {
		child = t.rotateLeftInPlace(child) // LR -> LL
		c = t.at(child)
		parent.left = child
	}
	return t.swapUp(n, child, false)
}

// rotateRightInPlace and rotateLeftInPlace perform a single rotation of
// a child subtree (swapUp re-links the promoted node into that child's
// parent), used only to convert an RL/LR case into a plain RR/LL case
// before swapUp does the real work.
func (t *Tree) rotateRightInPlace(n handle.Handle) handle.Handle {
	return t.swapUp(n, t.at(n).left, false)
}
func (t *Tree) rotateLeftInPlace(n handle.Handle) handle.Handle {
	return t.swapUp(n, t.at(n).right, true)
}

// swapUp promotes child above n: child takes n's old slot (reparented to
// n's former parent), n becomes child's child on the side opposite
// fromRight, and n adopts child's other child. Recomputes both nodes'
// AABB/height afterward.
func (t *Tree) swapUp(n, child handle.Handle, fromRight bool) handle.Handle {
	np := t.at(n)
	cp := t.at(child)

	grandparent := np.parent
	var orphan handle.Handle
	if fromRight {
		orphan = cp.left
		cp.left = n
	} else {
		orphan = cp.right
		cp.right = n
	}

	if fromRight {
		np.right = orphan
	} else {
		np.left = orphan
	}
	if orphan != handle.None {
		t.at(orphan).parent = n
	}

	cp.parent = grandparent
	if grandparent == handle.None {
		t.root = child
	} else {
		gp := t.at(grandparent)
		if gp.left == n {
			gp.left = child
		} else {
			gp.right = child
		}
	}
	np.parent = child

	np.height = 1 + max(t.at(np.left).height, t.at(np.right).height)
	np.aabb = shape.Union(t.at(np.left).aabb, t.at(np.right).aabb)
	cp.height = 1 + max(t.at(cp.left).height, t.at(cp.right).height)
	cp.aabb = shape.Union(t.at(cp.left).aabb, t.at(cp.right).aabb)
	return child
}

// Remove deletes body's leaf from the tree. Returns false if the body was
// not present. The leaf's sibling takes the leaf's parent's place in the
// tree; if the leaf was the root or at depth 1, the tree shrinks directly
// (spec §4.1).
func (t *Tree) Remove(b *body.Body) bool {
	leaf, ok := t.byBody[b.ID()]
	if !ok {
		return false
	}
	delete(t.byBody, b.ID())
	b.SetTreeHandle(handle.None)

	parent := t.at(leaf).parent
	if parent == handle.None {
		// leaf was the root; tree becomes empty.
		t.root = handle.None
		t.freeNode(leaf)
		return true
	}

	p := t.at(parent)
	var sibling handle.Handle
	if p.left == leaf {
		sibling = p.right
	} else {
		sibling = p.left
	}
	grandparent := p.parent

	if grandparent == handle.None {
		// parent was the root; sibling becomes the new root.
		t.root = sibling
		t.at(sibling).parent = handle.None
		t.freeNode(parent)
		t.freeNode(leaf)
		return true
	}

	gp := t.at(grandparent)
	if gp.left == parent {
		gp.left = sibling
	} else {
		gp.right = sibling
	}
	t.at(sibling).parent = grandparent
	t.freeNode(parent)
	t.freeNode(leaf)
	t.fixupFrom(grandparent)
	return true
}

// Update refreshes body's position in the tree after it moved or
// resized. If the body's leaf's fattened AABB still fully contains the
// current shape AABB, this is a no-op; otherwise it removes and
// re-inserts (spec §4.1).
func (t *Tree) Update(b *body.Body) bool {
	leaf, ok := t.byBody[b.ID()]
	if !ok {
		return false
	}
	current := b.Shape().AABB()
	if t.at(leaf).aabb.Contains(current) {
		return false
	}
	t.Remove(b)
	if _, err := t.Add(b); err != nil {
		t.log.Error("tree update failed to reinsert body", "error", err)
	}
	return true
}

// Query appends to out every body in the tree whose AABB overlaps
// query's and which is not query itself. Fails with ErrInvalidArgument
// if out is non-empty on entry (spec §4.1, §6). Uses an explicit stack
// for iterative descent rather than recursion.
func (t *Tree) Query(query *body.Body, out *[]*body.Body) error {
	if len(*out) != 0 {
		return fmt.Errorf("%w: tree query requires an empty out slice", rigid2derr.ErrInvalidArgument)
	}
	if t.root == handle.None {
		return nil
	}
	queryAABB := query.Shape().AABB()

	stack := make([]handle.Handle, 0, 64)
	stack = append(stack, t.root)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur := t.at(n)
		if !cur.aabb.Overlaps(queryAABB) {
			continue
		}
		if cur.isLeaf() {
			if cur.body != query && cur.body.Shape().AABB().Overlaps(queryAABB) {
				*out = append(*out, cur.body)
			}
			continue
		}
		stack = append(stack, cur.left, cur.right)
	}
	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
