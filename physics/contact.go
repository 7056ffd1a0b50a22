// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import "github.com/solidphys/phys2d/math/vec2"

// MaxManifoldContacts is the most contact points a single manifold holds.
const MaxManifoldContacts = 2

// Contact is a single point within a manifold: a point of contact
// between two specific shapes, together with the solver scratch data
// accumulated for it across velocity iterations (and, when matched to a
// prior frame's contact by FeatureID, warm-started from it).
type Contact struct {
	// AnchorA/AnchorB are the contact point expressed as an offset from
	// each body's center of mass, in world-space orientation.
	AnchorA vec2.V
	AnchorB vec2.V

	// Separation is negative when the shapes interpenetrate.
	Separation float64

	// FeatureID is a stable identifier for the geometric feature (edge
	// and/or vertex pair) that produced this contact. Matching
	// FeatureIDs across frames is how warm-starting and the
	// added/persisted/removed lifecycle are implemented.
	FeatureID uint64

	// IsPersisted is set once this contact has been matched to a contact
	// with the same FeatureID in the manifold's previous frame.
	IsPersisted bool

	// Solver scratch, valid only during and immediately after Space.Step.
	NormalImpulse  float64
	TangentImpulse float64
	massNormal     float64
	massTangent    float64
	velocityBias   float64
}

// PairKey identifies a manifold by the ids of the two shapes it spans,
// ordered so that swapping the shapes yields the same key.
type PairKey struct {
	A uint64
	B uint64
}

// newPairKey returns the ordered key for shapes a and b.
func newPairKey(a, b uint64) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Manifold (PersistentContactPair) holds up to MaxManifoldContacts contact
// points between one ordered pair of shapes. A manifold exists in the
// contact store iff the two shapes' AABBs overlapped in the most recent
// broad-phase pass.
type Manifold struct {
	Key PairKey

	BodyA, BodyB   *RigidBody
	ShapeA, ShapeB Shape

	// Normal points from shape A toward shape B, in world space.
	Normal vec2.V

	Contacts     [MaxManifoldContacts]Contact
	ContactCount int

	removeInvoked bool
}

// bodyOrder returns bodyA, bodyB, shapeA, shapeB in the order implied by
// Key (the lower shape id first), regardless of which order a and b were
// discovered in by the broad-phase.
func bodyOrder(a, b *RigidBody, sa, sb Shape) (*RigidBody, *RigidBody, Shape, Shape) {
	if sa.ID() > sb.ID() {
		return b, a, sb, sa
	}
	return a, b, sa, sb
}
