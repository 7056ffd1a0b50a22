// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

// ShapePair is a candidate collision pair emitted by a BroadPhase. The
// broad-phase guarantees the pair's body AABBs (and, for BruteForce, the
// shape AABBs) overlap; narrow-phase still has the final say.
type ShapePair struct {
	BodyA, BodyB   *RigidBody
	ShapeA, ShapeB Shape
}

// BroadPhase emits candidate shape pairs for a Space's current bodies.
// Alternative back-ends (spatial hash grid, BVH) must produce the same
// multiset of (shapeA, shapeB) pairs for the same world, modulo order,
// and honour the same early-out rules as BruteForce (§4.F).
type BroadPhase interface {
	// Pairs writes this step's candidate pairs into dst's backing array,
	// discarding any elements dst already holds, and returns the resulting
	// slice. dst is reused across steps to avoid per-step allocation;
	// callers must not retain it past the next call.
	Pairs(bodies []*RigidBody, dst []ShapePair) []ShapePair
}

// BruteForce is the reference BroadPhase: an O(n^2) scan over all body
// pairs with AABB overlap tests, honouring collision filtering.
type BruteForce struct{}

// Pairs implements BroadPhase.
func (BruteForce) Pairs(bodies []*RigidBody, dst []ShapePair) []ShapePair {
	pairs := dst[:0]
	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]
			if !shouldTestBodies(a, b) {
				continue
			}
			if !a.AABB().Overlaps(b.AABB()) {
				continue
			}
			for _, sa := range a.shapes {
				for _, sb := range b.shapes {
					if sa.AABB(a.transform).Overlaps(sb.AABB(b.transform)) {
						pairs = append(pairs, ShapePair{BodyA: a, BodyB: b, ShapeA: sa, ShapeB: sb})
					}
				}
			}
		}
	}
	return pairs
}

// shouldTestBodies applies the broad-phase early-out rules: skip pairs
// where collisions are disabled on either body, both are static, they
// share a non-zero collision group, or the category/mask bitfields
// reject the pair.
func shouldTestBodies(a, b *RigidBody) bool {
	if !a.CollisionEnabled || !b.CollisionEnabled {
		return false
	}
	if a.Type == Static && b.Type == Static {
		return false
	}
	if a.CollisionGroup != 0 && a.CollisionGroup == b.CollisionGroup {
		return false
	}
	if a.CollisionMask&b.CollisionCategory == 0 {
		return false
	}
	if b.CollisionMask&a.CollisionCategory == 0 {
		return false
	}
	return true
}
