// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"

	"github.com/solidphys/phys2d/math/vec2"
)

func TestBruteForceSkipsStaticStaticPairs(t *testing.T) {
	box1, _ := NewBox(1, 1)
	box2, _ := NewBox(1, 1)
	a := newTestBody(t, Static, vec2.Zero, box1)
	b := newTestBody(t, Static, vec2.V{X: 0.5, Y: 0}, box2)

	pairs := BruteForce{}.Pairs([]*RigidBody{a, b}, nil)
	if len(pairs) != 0 {
		t.Errorf("expected static-static pair to be skipped, got %d pairs", len(pairs))
	}
}

func TestBruteForceSkipsSharedCollisionGroup(t *testing.T) {
	box1, _ := NewBox(1, 1)
	box2, _ := NewBox(1, 1)
	a := newTestBody(t, Dynamic, vec2.Zero, box1)
	b := newTestBody(t, Dynamic, vec2.V{X: 0.5, Y: 0}, box2)
	a.CollisionGroup = 7
	b.CollisionGroup = 7

	pairs := BruteForce{}.Pairs([]*RigidBody{a, b}, nil)
	if len(pairs) != 0 {
		t.Errorf("expected shared-group pair to be filtered out, got %d pairs", len(pairs))
	}
}

func TestBruteForceSkipsMaskMismatch(t *testing.T) {
	box1, _ := NewBox(1, 1)
	box2, _ := NewBox(1, 1)
	a := newTestBody(t, Dynamic, vec2.Zero, box1)
	b := newTestBody(t, Dynamic, vec2.V{X: 0.5, Y: 0}, box2)
	a.CollisionCategory = 1 << 1
	a.CollisionMask = 1 << 1
	b.CollisionCategory = 1 << 2
	b.CollisionMask = 1 << 2

	pairs := BruteForce{}.Pairs([]*RigidBody{a, b}, nil)
	if len(pairs) != 0 {
		t.Errorf("expected category/mask mismatch to be filtered out, got %d pairs", len(pairs))
	}
}

func TestBruteForceEmitsOverlappingDynamicPair(t *testing.T) {
	box1, _ := NewBox(1, 1)
	box2, _ := NewBox(1, 1)
	a := newTestBody(t, Dynamic, vec2.Zero, box1)
	b := newTestBody(t, Dynamic, vec2.V{X: 0.5, Y: 0}, box2)

	pairs := BruteForce{}.Pairs([]*RigidBody{a, b}, nil)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].ShapeA.ID() != box1.ID() || pairs[0].ShapeB.ID() != box2.ID() {
		t.Errorf("unexpected pair shapes: %+v", pairs[0])
	}
}

func TestBruteForceSkipsDisabledCollision(t *testing.T) {
	box1, _ := NewBox(1, 1)
	box2, _ := NewBox(1, 1)
	a := newTestBody(t, Dynamic, vec2.Zero, box1)
	b := newTestBody(t, Dynamic, vec2.V{X: 0.5, Y: 0}, box2)
	a.CollisionEnabled = false

	pairs := BruteForce{}.Pairs([]*RigidBody{a, b}, nil)
	if len(pairs) != 0 {
		t.Errorf("expected disabled-collision body to be skipped, got %d pairs", len(pairs))
	}
}
