// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import "github.com/solidphys/phys2d/math/vec2"

// ContactStore is the narrow-phase's persistent cache of manifolds,
// keyed by the ordered pair of shape ids. A manifold exists in the store
// iff the two shapes' AABBs overlapped in the most recent broad-phase
// pass (§4.E).
type ContactStore struct {
	manifolds map[PairKey]*Manifold
}

// newContactStore returns an empty store.
func newContactStore() *ContactStore {
	return &ContactStore{manifolds: make(map[PairKey]*Manifold)}
}

// update runs the narrow-phase predicate for a broad-phase pair, merges
// the result with any previously stored manifold (matching contacts by
// feature id for warm-starting and the is_persisted flag), and fires the
// given listener's added/persisted callbacks. warmstart controls whether
// matched contacts copy forward their accumulated impulses.
func (cs *ContactStore) update(bodyA, bodyB *RigidBody, shapeA, shapeB Shape, warmstart bool, listener ContactListener) {
	a, b, sa, sb := bodyOrder(bodyA, bodyB, shapeA, shapeB)
	key := newPairKey(sa.ID(), sb.ID())

	fresh := &Manifold{Key: key, BodyA: a, BodyB: b, ShapeA: sa, ShapeB: sb}
	collidePair(fresh)

	old, existed := cs.manifolds[key]
	for i := 0; i < fresh.ContactCount; i++ {
		c := &fresh.Contacts[i]
		if existed {
			if prev := findByFeature(old, c.FeatureID); prev != nil {
				c.IsPersisted = true
				if warmstart {
					c.NormalImpulse = prev.NormalImpulse
					c.TangentImpulse = prev.TangentImpulse
				}
			}
		}
	}

	cs.manifolds[key] = fresh
	cs.fireLifecycle(old, existed, fresh, listener)
}

// findByFeature returns the contact in m with the given feature id, or
// nil if none match.
func findByFeature(m *Manifold, featureID uint64) *Contact {
	if m == nil {
		return nil
	}
	for i := 0; i < m.ContactCount; i++ {
		if m.Contacts[i].FeatureID == featureID {
			return &m.Contacts[i]
		}
	}
	return nil
}

// fireLifecycle emits on_contact_added for feature ids new to the
// manifold and on_contact_persisted for ones matched to the previous
// frame, after the new contact set has replaced the old one.
func (cs *ContactStore) fireLifecycle(old *Manifold, oldExisted bool, fresh *Manifold, listener ContactListener) {
	if listener == nil {
		return
	}
	for i := 0; i < fresh.ContactCount; i++ {
		c := fresh.Contacts[i]
		event := cs.event(fresh, c)
		if oldExisted && findByFeature(old, c.FeatureID) != nil {
			listener.OnContactPersisted(event)
		} else {
			listener.OnContactAdded(event)
		}
	}
}

// remove deletes the manifold for key, firing on_contact_removed for
// every still-live contact exactly once (guarded by removeInvoked), as
// required when the broad-phase observes the shapes' AABBs no longer
// overlap.
func (cs *ContactStore) remove(key PairKey, listener ContactListener) {
	m, ok := cs.manifolds[key]
	if !ok {
		return
	}
	cs.invokeRemoved(m, listener)
	delete(cs.manifolds, key)
}

// removeForBody removes every manifold that references the given body,
// used when a body is detached from the Space between steps.
func (cs *ContactStore) removeForBody(bodyID uint32, listener ContactListener) {
	for key, m := range cs.manifolds {
		if m.BodyA.ID() == bodyID || m.BodyB.ID() == bodyID {
			cs.invokeRemoved(m, listener)
			delete(cs.manifolds, key)
		}
	}
}

func (cs *ContactStore) invokeRemoved(m *Manifold, listener ContactListener) {
	if m.removeInvoked || listener == nil {
		m.removeInvoked = true
		return
	}
	for i := 0; i < m.ContactCount; i++ {
		listener.OnContactRemoved(cs.event(m, m.Contacts[i]))
	}
	m.removeInvoked = true
}

// event builds the listener-facing snapshot of a contact within m.
func (cs *ContactStore) event(m *Manifold, c Contact) ContactEvent {
	return ContactEvent{
		BodyA:          m.BodyA,
		BodyB:          m.BodyB,
		ShapeA:         m.ShapeA,
		ShapeB:         m.ShapeB,
		Normal:         m.Normal,
		Penetration:    -c.Separation,
		Position:       worldContactPoint(m, c),
		NormalImpulse:  c.NormalImpulse,
		TangentImpulse: c.TangentImpulse,
		FeatureID:      c.FeatureID,
	}
}

// worldContactPoint reconstructs a contact's world position from its
// anchor relative to body A's center of mass.
func worldContactPoint(m *Manifold, c Contact) vec2.V {
	return vec2.Add(m.BodyA.Position, c.AnchorA)
}

// Manifolds exposes every manifold currently tracked, keyed by PairKey.
// Intended for read-only inspection between Step calls.
func (cs *ContactStore) Manifolds() map[PairKey]*Manifold { return cs.manifolds }
