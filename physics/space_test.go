// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"

	"github.com/solidphys/phys2d/math/vec2"
)

func newGround(t *testing.T, minX, minY, maxX, maxY float64) *RigidBody {
	t.Helper()
	hx, hy := (maxX-minX)/2, (maxY-minY)/2
	box, err := NewBox(hx, hy)
	if err != nil {
		t.Fatalf("NewBox failed: %v", err)
	}
	ground := NewBody(Initializer{
		Type:     Static,
		Position: vec2.V{X: minX + hx, Y: minY + hy},
		Material: DefaultMaterial,
	})
	ground.AddShape(box)
	return ground
}

func TestDropOntoGround(t *testing.T) {
	space := NewSpace()
	ground := newGround(t, 0, -1, 100, 0)
	circle, _ := NewCircle(vec2.Zero, 1)
	disc := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 50, Y: 4}, Material: DefaultMaterial})
	disc.AddShape(circle)

	if err := space.AddBody(ground); err != nil {
		t.Fatalf("AddBody ground: %v", err)
	}
	if err := space.AddBody(disc); err != nil {
		t.Fatalf("AddBody disc: %v", err)
	}

	dt := 1.0 / 60
	for i := 0; i < 150; i++ {
		if err := space.Step(dt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if disc.Position.Y < 0.9 || disc.Position.Y > 1.1 {
		t.Errorf("resting disc y = %v, want close to 1 (radius atop ground)", disc.Position.Y)
	}
	if vec2.Len(disc.LinearVelocity) > 0.5 {
		t.Errorf("resting disc should be nearly stationary, got |v|=%v", vec2.Len(disc.LinearVelocity))
	}
}

func TestStackOfThreeBoxes(t *testing.T) {
	space := NewSpace()
	ground := newGround(t, -50, -1, 50, 0)
	if err := space.AddBody(ground); err != nil {
		t.Fatalf("AddBody ground: %v", err)
	}

	centers := []float64{0.5, 1.5, 2.5}
	var boxes []*RigidBody
	for _, cy := range centers {
		shape, _ := NewBox(0.5, 0.5)
		b := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 0, Y: cy}, Material: DefaultMaterial})
		b.AddShape(shape)
		if err := space.AddBody(b); err != nil {
			t.Fatalf("AddBody box: %v", err)
		}
		boxes = append(boxes, b)
	}

	dt := 1.0 / 60
	for i := 0; i < 240; i++ {
		if err := space.Step(dt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	top := boxes[2]
	if top.Position.Y < 2.3 || top.Position.Y > 2.7 {
		t.Errorf("top box resting y = %v, want close to 2.5", top.Position.Y)
	}
}

func TestGroupFilterPreventsManifolds(t *testing.T) {
	space := NewSpace()
	c1, _ := NewCircle(vec2.Zero, 1)
	c2, _ := NewCircle(vec2.Zero, 1)
	a := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 0, Y: 0}, Material: DefaultMaterial})
	b := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 0.5, Y: 0}, Material: DefaultMaterial})
	a.AddShape(c1)
	b.AddShape(c2)
	a.CollisionGroup = 7
	b.CollisionGroup = 7

	listener := &recordingListener{}
	space.Listener = listener
	space.AddBody(a)
	space.AddBody(b)

	dt := 1.0 / 60
	for i := 0; i < 10; i++ {
		if err := space.Step(dt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if len(space.Manifolds()) != 0 {
		t.Errorf("expected zero manifolds for shared collision group, got %d", len(space.Manifolds()))
	}
	if len(listener.added) != 0 || len(listener.persisted) != 0 {
		t.Error("listener should never fire for filtered pair")
	}
}

func TestListenerLifecycleAddedPersistedRemoved(t *testing.T) {
	space := NewSpace()
	listener := &recordingListener{}
	space.Listener = listener

	ground := newGround(t, -10, -1, 10, 0)
	circle, _ := NewCircle(vec2.Zero, 1)
	disc := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 0, Y: 1.3}, Material: DefaultMaterial})
	disc.AddShape(circle)

	space.AddBody(ground)
	space.AddBody(disc)

	dt := 1.0 / 60
	for i := 0; i < 90; i++ {
		if err := space.Step(dt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if len(listener.added) == 0 {
		t.Fatal("expected at least one on_contact_added event")
	}
	if len(listener.persisted) == 0 {
		t.Fatal("expected persisted events once the disc settles")
	}

	lastPersisted := listener.persisted[len(listener.persisted)-1]

	if err := space.RemoveBody(disc); err != nil {
		t.Fatalf("RemoveBody: %v", err)
	}
	if len(listener.removed) == 0 {
		t.Fatal("expected on_contact_removed after RemoveBody")
	}
	lastRemoved := listener.removed[len(listener.removed)-1]
	if !vec2.Aeq(lastRemoved.NormalImpulse, lastPersisted.NormalImpulse) {
		t.Errorf("removed normal_impulse %v should equal last persisted %v", lastRemoved.NormalImpulse, lastPersisted.NormalImpulse)
	}
}

func TestAddBodyDuplicateFails(t *testing.T) {
	space := NewSpace()
	b := NewBody(Initializer{Type: Dynamic})
	if err := space.AddBody(b); err != nil {
		t.Fatalf("first AddBody: %v", err)
	}
	if err := space.AddBody(b); err == nil {
		t.Error("expected Duplicate error on second AddBody")
	}
}

func TestAddRemoveRoundTripPreservesMultiset(t *testing.T) {
	space := NewSpace()
	a := NewBody(Initializer{Type: Dynamic})
	b := NewBody(Initializer{Type: Dynamic})
	space.AddBody(a)
	space.AddBody(b)
	if err := space.RemoveBody(a); err != nil {
		t.Fatalf("RemoveBody: %v", err)
	}
	if len(space.Bodies()) != 1 || space.Bodies()[0] != b {
		t.Errorf("expected only b remaining, got %v", space.Bodies())
	}
	if err := space.AddBody(a); err != nil {
		t.Fatalf("re-add after remove: %v", err)
	}
	if len(space.Bodies()) != 2 {
		t.Errorf("expected 2 bodies after re-add, got %d", len(space.Bodies()))
	}
}

func TestStaticBodyBitIdenticalAcrossStep(t *testing.T) {
	space := NewSpace()
	ground := newGround(t, -10, -1, 10, 0)
	space.AddBody(ground)
	before := ground.Position

	if err := space.Step(1.0 / 60); err != nil {
		t.Fatalf("step: %v", err)
	}
	if ground.Position != before {
		t.Errorf("static body moved: before=%v after=%v", before, ground.Position)
	}
}

func TestEnergyDoesNotIncreaseUnderElasticCollision(t *testing.T) {
	space := NewSpace()
	space.Settings.Gravity = vec2.Zero
	space.Settings.LinearDamping = 0
	space.Settings.AngularDamping = 0

	c1, _ := NewCircle(vec2.Zero, 0.5)
	c2, _ := NewCircle(vec2.Zero, 0.5)
	a := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: -0.49, Y: 0}, Material: Material{Density: 1, Restitution: 1}})
	b := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 0.49, Y: 0}, Material: Material{Density: 1, Restitution: 1}})
	a.AddShape(c1)
	b.AddShape(c2)
	a.LinearVelocity = vec2.V{X: 1, Y: 0}
	b.LinearVelocity = vec2.V{X: -1, Y: 0}

	space.AddBody(a)
	space.AddBody(b)

	energyBefore := kineticEnergy(a) + kineticEnergy(b)
	if err := space.Step(1.0 / 60); err != nil {
		t.Fatalf("step: %v", err)
	}
	energyAfter := kineticEnergy(a) + kineticEnergy(b)

	if energyAfter > energyBefore*1.01 {
		t.Errorf("energy increased: before=%v after=%v", energyBefore, energyAfter)
	}
}

func kineticEnergy(b *RigidBody) float64 {
	mass := 0.0
	if b.invMass > 0 {
		mass = 1 / b.invMass
	}
	inertia := 0.0
	if b.invInertia > 0 {
		inertia = 1 / b.invInertia
	}
	return 0.5*mass*vec2.LenSqr(b.LinearVelocity) + 0.5*inertia*b.AngularVelocity*b.AngularVelocity
}

func TestStepZeroDtIsNoOp(t *testing.T) {
	space := NewSpace()
	b := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 1, Y: 2}})
	space.AddBody(b)
	if err := space.Step(0); err != nil {
		t.Fatalf("Step(0): %v", err)
	}
	if b.Position != (vec2.V{X: 1, Y: 2}) {
		t.Error("Step(0) should not move bodies")
	}
}

func TestAttractorPullsBodiesTogether(t *testing.T) {
	space := NewSpace()
	space.Settings.Gravity = vec2.Zero
	space.Settings.LinearDamping = 0
	space.Settings.AngularDamping = 0

	circle1, _ := NewCircle(vec2.Zero, 1)
	circle2, _ := NewCircle(vec2.Zero, 1)
	sun := NewBody(Initializer{Type: Dynamic, Position: vec2.Zero, Material: Material{Density: 5}})
	sun.AddShape(circle1)
	sun.Attractor = true
	sun.CollisionEnabled = false

	planet := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 50, Y: 0}, Material: DefaultMaterial})
	planet.AddShape(circle2)
	planet.CollisionEnabled = false

	space.AddBody(sun)
	space.AddBody(planet)

	initialDist := vec2.Len(vec2.Sub(planet.Position, sun.Position))

	dt := 1.0 / 60
	for i := 0; i < 120; i++ {
		if err := space.Step(dt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	finalDist := vec2.Len(vec2.Sub(planet.Position, sun.Position))
	if finalDist >= initialDist {
		t.Errorf("attractor did not pull planet closer: initial=%v final=%v", initialDist, finalDist)
	}
	if planet.LinearVelocity.X >= 0 {
		t.Errorf("planet should have gained velocity toward the attractor, got vx=%v", planet.LinearVelocity.X)
	}
}

func TestKillBoundsDetachesBodyAndFiresRemoved(t *testing.T) {
	space := NewSpace()
	space.SetKillBounds(vec2.AABB{Min: vec2.V{X: -10, Y: -10}, Max: vec2.V{X: 10, Y: 10}})

	listener := &recordingListener{}
	space.Listener = listener

	ground := newGround(t, -5, -1, 5, 0)
	circle, _ := NewCircle(vec2.Zero, 1)
	disc := NewBody(Initializer{Type: Dynamic, Position: vec2.V{X: 0, Y: 1.3}, Material: DefaultMaterial})
	disc.AddShape(circle)
	space.AddBody(ground)
	space.AddBody(disc)

	dt := 1.0 / 60
	for i := 0; i < 30; i++ {
		if err := space.Step(dt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if len(listener.added) == 0 {
		t.Fatal("expected contact between disc and ground before it leaves the bounds")
	}

	disc.Position = vec2.V{X: 0, Y: 50}
	disc.LinearVelocity = vec2.Zero
	if err := space.Step(dt); err != nil {
		t.Fatalf("step after teleport: %v", err)
	}

	for _, b := range space.Bodies() {
		if b == disc {
			t.Fatal("disc should have been detached by kill bounds")
		}
	}
	if len(listener.removed) == 0 {
		t.Fatal("expected on_contact_removed once the disc left the kill bounds")
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := NewSettings()
	if s.VelocityIterations != 8 || s.PositionIterations != 4 || s.Substeps != 1 {
		t.Errorf("unexpected default iteration counts: %+v", s)
	}
	if !vec2.Aeq(s.Baumgarte, 0.2) || !vec2.Aeq(s.PenetrationSlop, 0.05) {
		t.Errorf("unexpected default correction params: %+v", s)
	}
}
