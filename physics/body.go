// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"
	"sync/atomic"

	"github.com/solidphys/phys2d/math/vec2"
)

// BodyType distinguishes bodies the solver may move (Dynamic) from those
// it never moves (Static).
type BodyType int

const (
	Static BodyType = iota
	Dynamic
)

// Material bundles the physical properties used when two bodies collide.
type Material struct {
	Density     float64
	Restitution float64 // Bounciness, 0..1.
	Friction    float64 // Coulomb friction coefficient, ideally non-zero.
}

// DefaultMaterial is a reasonable material for bodies that don't care.
var DefaultMaterial = Material{Density: 1, Restitution: 0, Friction: 0.4}

// Initializer describes the starting state of a new RigidBody.
type Initializer struct {
	Type            BodyType
	Position        vec2.V
	Angle           float64
	LinearVelocity  vec2.V
	AngularVelocity float64
	Material        Material
}

// RigidBody is a single rigid object owned by a Space. Its movement is
// driven by the physics pipeline (Space.Step); applications should apply
// forces, impulses or torques rather than writing Position/Angle directly
// while the body is part of a Space.
type RigidBody struct {
	id   uint32
	Type BodyType

	Position vec2.V
	Angle    float64

	LinearVelocity  vec2.V
	AngularVelocity float64

	force  vec2.V
	torque float64

	invMass    float64
	invInertia float64

	Material Material

	GravityScale         float64
	LinearDampingScale   float64
	AngularDampingScale  float64

	// CollisionGroup: bodies sharing a non-zero group never collide with
	// each other regardless of category/mask.
	CollisionGroup int64
	// CollisionCategory is this body's membership bitfield.
	CollisionCategory uint32
	// CollisionMask selects which categories this body collides with.
	CollisionMask uint32
	// CollisionEnabled disables all collision participation when false.
	CollisionEnabled bool

	// Attractor marks this body as a source of Newtonian gravity toward
	// every other dynamic body in the Space, scaled by WorldScale so the
	// effect is perceptible at gameplay distances (§6 Constants).
	Attractor bool

	// com is the center of mass offset from origin, in local space,
	// derived from the attached shapes' areas and centroids.
	com vec2.V
	// origin is the body-space point that Position tracks: Position -
	// rotate(com, Angle). Shapes attach relative to origin.
	origin vec2.V

	shapes []Shape

	aabb      vec2.AABB
	aabbValid bool
	transform vec2.Transform
}

var bodyIDCounter uint32

func nextBodyID() uint32 { return atomic.AddUint32(&bodyIDCounter, 1) }

// NewBody constructs a RigidBody from an Initializer. The returned body is
// not yet owned by any Space; add it with Space.AddBody.
func NewBody(init Initializer) *RigidBody {
	b := &RigidBody{
		id:                  nextBodyID(),
		Type:                init.Type,
		Position:            init.Position,
		Angle:               init.Angle,
		LinearVelocity:      init.LinearVelocity,
		AngularVelocity:     init.AngularVelocity,
		Material:            init.Material,
		GravityScale:        1,
		LinearDampingScale:  1,
		AngularDampingScale: 1,
		CollisionEnabled:    true,
		CollisionMask:       ^uint32(0),
		CollisionCategory:   1,
	}
	b.origin = b.Position
	b.transform = vec2.NewTransform(b.origin, b.Angle)
	return b
}

// ID returns this body's Space-unique identifier.
func (b *RigidBody) ID() uint32 { return b.id }

// InvMass returns the reciprocal mass. Zero for static bodies.
func (b *RigidBody) InvMass() float64 { return b.invMass }

// InvInertia returns the reciprocal moment of inertia. Zero for static bodies.
func (b *RigidBody) InvInertia() float64 { return b.invInertia }

// CenterOfMass returns the local-space center of mass offset.
func (b *RigidBody) CenterOfMass() vec2.V { return b.com }

// Shapes returns the shapes currently attached to this body.
func (b *RigidBody) Shapes() []Shape { return b.shapes }

// Transform returns the body's current world transform, derived from
// Position and Angle.
func (b *RigidBody) Transform() vec2.Transform { return b.transform }

// AddShape attaches shape to the body and re-derives mass and inertia as
// the sum over all attached shapes of density*area and the corresponding
// second moment. Static bodies keep invMass=invInertia=0 regardless.
func (b *RigidBody) AddShape(shape Shape) {
	b.shapes = append(b.shapes, shape)
	b.deriveMass()
}

// RemoveShape detaches shape, if present, and re-derives mass and inertia.
func (b *RigidBody) RemoveShape(shape Shape) {
	for i, s := range b.shapes {
		if s.ID() == shape.ID() {
			b.shapes = append(b.shapes[:i], b.shapes[i+1:]...)
			b.deriveMass()
			return
		}
	}
}

// deriveMass recomputes mass, center of mass and moment of inertia from
// the currently attached shapes.
func (b *RigidBody) deriveMass() {
	if b.Type == Static || len(b.shapes) == 0 {
		b.invMass, b.invInertia = 0, 0
		b.com = vec2.Zero
		b.origin = b.Position
		return
	}

	mass := 0.0
	com := vec2.Zero
	for _, s := range b.shapes {
		m := b.Material.Density * s.Area()
		mass += m
		switch sh := s.(type) {
		case *Circle:
			com = vec2.Add(com, vec2.Scale(sh.Center, m))
		case *ConvexPolygon:
			com = vec2.Add(com, vec2.Scale(polygonCentroid(sh), m))
		}
	}
	if mass <= 0 {
		b.invMass, b.invInertia = 0, 0
		b.com = vec2.Zero
		b.origin = b.Position
		return
	}
	com = vec2.Scale(com, 1/mass)

	inertia := 0.0
	for _, s := range b.shapes {
		m := b.Material.Density * s.Area()
		inertia += s.Inertia(m)
	}
	// Inertia() already accounts for each shape's own local offset about
	// the body origin; shift to be about the derived center of mass.
	inertia -= mass * vec2.LenSqr(com)

	b.com = com
	b.invMass = 1 / mass
	if inertia > 0 {
		b.invInertia = 1 / inertia
	} else {
		b.invInertia = 0
	}
	b.origin = vec2.Sub(b.Position, vec2.Rotate(b.com, b.Angle))
}

// polygonCentroid returns the centroid of a convex polygon's local vertices.
func polygonCentroid(p *ConvexPolygon) vec2.V {
	verts := p.Vertices()
	var cx, cy, area float64
	n := len(verts)
	for i := 0; i < n; i++ {
		a, b := verts[i], verts[(i+1)%n]
		cr := vec2.Cross(a, b)
		area += cr
		cx += (a.X + b.X) * cr
		cy += (a.Y + b.Y) * cr
	}
	if math.Abs(area) < vec2.Epsilon {
		return vec2.Zero
	}
	area *= 0.5
	return vec2.V{X: cx / (6 * area), Y: cy / (6 * area)}
}

// ApplyForce adds a force at the body's center of mass (Position), so it
// adds no torque. Static bodies ignore it.
func (b *RigidBody) ApplyForce(f vec2.V) {
	if b.Type == Static {
		return
	}
	b.force = vec2.Add(b.force, f)
}

// ApplyForceAtPoint adds a force at a local-space point, contributing the
// resulting torque = r x F about the center of mass.
func (b *RigidBody) ApplyForceAtPoint(f vec2.V, localPoint vec2.V) {
	if b.Type == Static {
		return
	}
	b.force = vec2.Add(b.force, f)
	r := vec2.Sub(localPoint, b.com)
	b.torque += vec2.Cross(r, f)
}

// ApplyTorque adds torque directly. Static bodies ignore it.
func (b *RigidBody) ApplyTorque(t float64) {
	if b.Type == Static {
		return
	}
	b.torque += t
}

// ApplyImpulse applies an instantaneous impulse J at a point given by
// offset r from the center of mass, in world space:
//
//	Δv = invMass * J
//	Δω = invInertia * (r x J)
func (b *RigidBody) ApplyImpulse(j vec2.V, r vec2.V) {
	if b.Type == Static {
		return
	}
	b.LinearVelocity = vec2.Add(b.LinearVelocity, vec2.Scale(j, b.invMass))
	b.AngularVelocity += b.invInertia * vec2.Cross(r, j)
}

// ResetVelocities zeros linear and angular velocity.
func (b *RigidBody) ResetVelocities() {
	b.LinearVelocity = vec2.Zero
	b.AngularVelocity = 0
}

// AABB returns the union of the body's shape AABBs under its current
// transform, cached per step.
func (b *RigidBody) AABB() vec2.AABB {
	if b.aabbValid {
		return b.aabb
	}
	if len(b.shapes) == 0 {
		b.aabb = vec2.NewAABB(b.Position.X, b.Position.Y, b.Position.X, b.Position.Y)
		b.aabbValid = true
		return b.aabb
	}
	box := b.shapes[0].AABB(b.transform)
	for _, s := range b.shapes[1:] {
		box = box.Union(s.AABB(b.transform))
	}
	b.aabb = box
	b.aabbValid = true
	return b.aabb
}

// refresh invalidates cached transform-derived state and recomputes the
// world transform and per-shape caches. Called by integrateVelocities at
// the end of every substep and by the NGS position pass.
func (b *RigidBody) refresh() {
	b.origin = vec2.Sub(b.Position, vec2.Rotate(b.com, b.Angle))
	b.transform = vec2.NewTransform(b.origin, b.Angle)
	b.aabbValid = false
	for _, s := range b.shapes {
		s.Update(b.transform)
	}
}

// integrateAccelerations applies gravity, accumulated forces and damping
// to the body's velocities using symplectic Euler. linearDamping and
// angularDamping are the Space-wide base damping coefficients; the body's
// own DampingScale fields modulate them. The damping multiplier is
// 0.99^(damping*scale*dt), matching the fixed 0.99 base used throughout.
// Static bodies are a no-op.
func (b *RigidBody) integrateAccelerations(gravity vec2.V, linearDamping, angularDamping, dt float64) {
	if b.Type == Static {
		return
	}
	b.LinearVelocity = vec2.Add(b.LinearVelocity,
		vec2.Scale(vec2.Add(vec2.Scale(b.force, b.invMass), vec2.Scale(gravity, b.GravityScale)), dt))
	b.AngularVelocity += b.invInertia * b.torque * dt

	b.LinearVelocity = vec2.Scale(b.LinearVelocity, math.Pow(0.99, linearDamping*b.LinearDampingScale*dt))
	b.AngularVelocity *= math.Pow(0.99, angularDamping*b.AngularDampingScale*dt)

	b.force = vec2.Zero
	b.torque = 0
}

// integrateVelocities advances Position and Angle by the current
// velocities and refreshes the derived origin transform. Static bodies
// are a no-op.
func (b *RigidBody) integrateVelocities(dt float64) {
	if b.Type == Static {
		return
	}
	b.Position = vec2.Add(b.Position, vec2.Scale(b.LinearVelocity, dt))
	b.Angle = vec2.Nang(b.Angle + b.AngularVelocity*dt)
	b.refresh()
}

