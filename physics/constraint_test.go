// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"
	"testing"

	"github.com/solidphys/phys2d/math/vec2"
)

func TestDistanceJointHoldsRestLength(t *testing.T) {
	space := NewSpace()
	space.Settings.Gravity = vec2.Zero

	c1, _ := NewCircle(vec2.Zero, 0.5)
	c2, _ := NewCircle(vec2.Zero, 0.5)
	a := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 0, Y: 0}, Material: DefaultMaterial})
	b := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 2, Y: 0}, Material: DefaultMaterial})
	a.AddShape(c1)
	b.AddShape(c2)
	a.CollisionEnabled = false
	b.CollisionEnabled = false
	space.AddBody(a)
	space.AddBody(b)

	joint := NewDistanceJoint(a, b, vec2.Zero, vec2.Zero, 2)
	space.AddConstraint(joint)

	a.ApplyImpulse(vec2.V{X: 0, Y: 5}, vec2.Zero)

	dt := 1.0 / 60
	for i := 0; i < 60; i++ {
		if err := space.Step(dt); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}

	dist := vec2.Len(vec2.Sub(b.Position, a.Position))
	if math.Abs(dist-2) > 1e-3 {
		t.Errorf("distance joint drifted: got %v, want ~2", dist)
	}
}

func TestHingeRevolutePinsAnchors(t *testing.T) {
	space := NewSpace()
	space.Settings.Gravity = vec2.Zero

	box, _ := NewBox(0.5, 0.5)
	a := NewBody(Initializer{Type: Static, Position: vec2.Zero})
	a.AddShape(box)
	box2, _ := NewBox(0.5, 0.5)
	b := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 2, Y: 0}, Material: DefaultMaterial})
	b.AddShape(box2)
	b.CollisionEnabled = false
	a.CollisionEnabled = false
	space.AddBody(a)
	space.AddBody(b)

	hinge := NewHingeRevolute(a, b, vec2.V{X: 2, Y: 0}, vec2.Zero)
	space.AddConstraint(hinge)

	b.ApplyForce(vec2.V{X: 0, Y: 10})

	dt := 1.0 / 60
	for i := 0; i < 30; i++ {
		if err := space.Step(dt); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}

	anchorWorld := a.Transform().Apply(vec2.V{X: 2, Y: 0})
	anchorOnB := b.Transform().Apply(vec2.Zero)
	gap := vec2.Len(vec2.Sub(anchorWorld, anchorOnB))
	if gap > 0.1 {
		t.Errorf("hinge anchors drifted apart: gap=%v", gap)
	}
}

func TestSpringConvergesTowardRestLength(t *testing.T) {
	space := NewSpace()
	space.Settings.Gravity = vec2.Zero

	c1, _ := NewCircle(vec2.Zero, 0.3)
	c2, _ := NewCircle(vec2.Zero, 0.3)
	a := NewBody(Initializer{Type: Static, Position: vec2.Zero})
	a.AddShape(c1)
	b := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 5, Y: 0}, Material: DefaultMaterial})
	b.AddShape(c2)
	a.CollisionEnabled = false
	b.CollisionEnabled = false
	space.AddBody(a)
	space.AddBody(b)

	spring := NewSpring(a, b, vec2.Zero, vec2.Zero, 2, 200, 10)
	space.AddConstraint(spring)

	dt := 1.0 / 60
	initialDist := vec2.Len(vec2.Sub(b.Position, a.Position))
	for i := 0; i < 300; i++ {
		if err := space.Step(dt); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}
	finalDist := vec2.Len(vec2.Sub(b.Position, a.Position))
	if math.Abs(finalDist-2) >= math.Abs(initialDist-2) {
		t.Errorf("spring did not converge toward rest length: initial=%v final=%v", initialDist, finalDist)
	}
}

func TestSplineBodyFollowsCurve(t *testing.T) {
	space := NewSpace()
	space.Settings.Gravity = vec2.Zero

	circle, _ := NewCircle(vec2.Zero, 0.3)
	body := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 5, Y: 2}, Material: DefaultMaterial})
	body.AddShape(circle)
	body.CollisionEnabled = false
	space.AddBody(body)

	controlPoints := []vec2.V{
		{X: 0, Y: 0},
		{X: 5, Y: 0},
		{X: 10, Y: 0},
	}
	spline := NewSpline(body, vec2.Zero, controlPoints, 200, 10)
	space.AddConstraint(spline)

	body.LinearVelocity = vec2.V{X: 2, Y: 0}

	dt := 1.0 / 60
	initialOffCurve := math.Abs(body.Position.Y)
	for i := 0; i < 180; i++ {
		if err := space.Step(dt); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}
	finalOffCurve := math.Abs(body.Position.Y)

	if finalOffCurve >= initialOffCurve {
		t.Errorf("spline did not pull body toward the curve: initial=%v final=%v", initialOffCurve, finalOffCurve)
	}
	if finalOffCurve > 0.5 {
		t.Errorf("body drifted too far from curve: y=%v", body.Position.Y)
	}
}
