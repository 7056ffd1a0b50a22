// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import "github.com/solidphys/phys2d/math/vec2"

// ContactEvent is the snapshot handed to a ContactListener callback. It is
// fired after narrow-phase has updated the contact store and before the
// solver mutates any impulses, so NormalImpulse/TangentImpulse reflect
// the warm-started (carried forward) values, not this step's solution.
type ContactEvent struct {
	BodyA, BodyB   *RigidBody
	ShapeA, ShapeB Shape
	Normal         vec2.V
	Penetration    float64
	Position       vec2.V
	NormalImpulse  float64
	TangentImpulse float64
	FeatureID      uint64
}

// ContactListener observes the three transitions a manifold's contacts
// can make: first appearance, continued presence across frames (matched
// by FeatureID), and removal (the owning shapes' AABBs separated, or one
// of the shapes/bodies was detached).
type ContactListener interface {
	OnContactAdded(e ContactEvent)
	OnContactPersisted(e ContactEvent)
	OnContactRemoved(e ContactEvent)
}

// NopListener implements ContactListener with no-op callbacks, useful as
// an embeddable base for listeners that only care about one event.
type NopListener struct{}

func (NopListener) OnContactAdded(ContactEvent)     {}
func (NopListener) OnContactPersisted(ContactEvent) {}
func (NopListener) OnContactRemoved(ContactEvent)   {}
