// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.
//
// solver is an un-optimized, scaled-down Projected Gauss-Seidel contact
// solver in the spirit of Box2D's b2ContactSolver and Bullet's
// btSequentialImpulseConstraintSolver: each contact becomes a normal and
// a tangent (friction) constraint, solved iteratively with accumulated
// impulse clamping.

package physics

import (
	"math"

	"github.com/solidphys/phys2d/math/vec2"
)

// restitutionThreshold is the minimum closing speed along the contact
// normal below which no restitution bias is applied, avoiding jitter
// from resting contacts with non-zero restitution.
const restitutionThreshold = 1.0

// MixRule selects how two materials' restitution or friction coefficients
// combine for a contact between them.
type MixRule int

const (
	MixAvg MixRule = iota
	MixMul
	MixSqrt
	MixMin
	MixMax
)

func (r MixRule) combine(a, b float64) float64 {
	switch r {
	case MixAvg:
		return (a + b) / 2
	case MixMul:
		return a * b
	case MixSqrt:
		return math.Sqrt(math.Max(a*b, 0))
	case MixMin:
		return math.Min(a, b)
	case MixMax:
		return math.Max(a, b)
	default:
		return (a + b) / 2
	}
}

// CorrectionMode selects how the solver removes positional error.
type CorrectionMode int

const (
	Baumgarte CorrectionMode = iota
	NGS
)

// contactSolver runs presolve/warmstart/velocity-iteration for every
// manifold in a ContactStore, per §4.G.
type contactSolver struct {
	settings *Settings
}

// presolve computes effective masses, mixed material coefficients and the
// velocity bias for every contact in m.
func (s *contactSolver) presolve(m *Manifold, invDt float64) {
	if m.ContactCount == 0 {
		return
	}
	a, b := m.BodyA, m.BodyB
	tangent := vec2.Perp(m.Normal)

	for i := 0; i < m.ContactCount; i++ {
		c := &m.Contacts[i]

		rA, rB := c.AnchorA, c.AnchorB
		rAxn := vec2.Cross(rA, m.Normal)
		rBxn := vec2.Cross(rB, m.Normal)
		kNormal := a.invMass + b.invMass + rAxn*rAxn*a.invInertia + rBxn*rBxn*b.invInertia
		c.massNormal = invertOrZero(kNormal)

		rAxt := vec2.Cross(rA, tangent)
		rBxt := vec2.Cross(rB, tangent)
		kTangent := a.invMass + b.invMass + rAxt*rAxt*a.invInertia + rBxt*rBxt*b.invInertia
		c.massTangent = invertOrZero(kTangent)

		relVel := relativeVelocity(a, b, rA, rB)
		restitution := s.settings.RestitutionMix.combine(a.Material.Restitution, b.Material.Restitution)

		c.velocityBias = 0
		closing := vec2.Dot(relVel, m.Normal)
		if closing < -restitutionThreshold {
			c.velocityBias = -restitution * closing
		}
		if s.settings.ContactPositionCorrection == Baumgarte {
			penetration := -c.Separation - s.settings.PenetrationSlop
			if penetration > 0 {
				c.velocityBias += (s.settings.Baumgarte * invDt) * penetration
			}
		}
	}
}

// warmstart applies each contact's stored accumulated impulses before
// the velocity-iteration loop begins, so the solver starts near last
// frame's solution instead of from rest.
func (s *contactSolver) warmstart(m *Manifold) {
	if m.ContactCount == 0 || !s.settings.Warmstarting {
		return
	}
	a, b := m.BodyA, m.BodyB
	tangent := vec2.Perp(m.Normal)
	for i := 0; i < m.ContactCount; i++ {
		c := &m.Contacts[i]
		impulse := vec2.Add(vec2.Scale(m.Normal, c.NormalImpulse), vec2.Scale(tangent, c.TangentImpulse))
		a.ApplyImpulse(vec2.Neg(impulse), c.AnchorA)
		b.ApplyImpulse(impulse, c.AnchorB)
	}
}

// solveVelocity runs one velocity iteration over every contact of m:
// friction first (clamped to the previous iteration's normal impulse),
// then the normal impulse (clamped to be non-negative), per §4.G.
func (s *contactSolver) solveVelocity(m *Manifold) {
	if m.ContactCount == 0 {
		return
	}
	a, b := m.BodyA, m.BodyB
	tangent := vec2.Perp(m.Normal)
	friction := s.settings.FrictionMix.combine(a.Material.Friction, b.Material.Friction)

	for i := 0; i < m.ContactCount; i++ {
		c := &m.Contacts[i]

		// Friction (tangent) impulse, clamped to [-mu*Jn, +mu*Jn].
		relVel := relativeVelocity(a, b, c.AnchorA, c.AnchorB)
		vt := vec2.Dot(relVel, tangent)
		lambdaT := -vt * c.massTangent
		maxFriction := friction * c.NormalImpulse
		newTangent := vec2.Clamp(c.TangentImpulse+lambdaT, -maxFriction, maxFriction)
		lambdaT = newTangent - c.TangentImpulse
		c.TangentImpulse = newTangent
		tImpulse := vec2.Scale(tangent, lambdaT)
		a.ApplyImpulse(vec2.Neg(tImpulse), c.AnchorA)
		b.ApplyImpulse(tImpulse, c.AnchorB)

		// Normal impulse, clamped to be non-negative (accumulated).
		relVel = relativeVelocity(a, b, c.AnchorA, c.AnchorB)
		vn := vec2.Dot(relVel, m.Normal)
		lambdaN := (c.velocityBias - vn) * c.massNormal
		newNormal := math.Max(c.NormalImpulse+lambdaN, 0)
		lambdaN = newNormal - c.NormalImpulse
		c.NormalImpulse = newNormal
		nImpulse := vec2.Scale(m.Normal, lambdaN)
		a.ApplyImpulse(vec2.Neg(nImpulse), c.AnchorA)
		b.ApplyImpulse(nImpulse, c.AnchorB)
	}
}

// solvePosition runs one NGS pseudo-velocity position correction pass
// over m, directly nudging Position/Angle rather than velocities, used
// when Settings.ContactPositionCorrection == NGS (§4.G).
func (s *contactSolver) solvePosition(m *Manifold) {
	if m.ContactCount == 0 {
		return
	}
	a, b := m.BodyA, m.BodyB
	for i := 0; i < m.ContactCount; i++ {
		c := &m.Contacts[i]
		penetration := -c.Separation - s.settings.PenetrationSlop
		if penetration <= 0 {
			continue
		}
		rA, rB := c.AnchorA, c.AnchorB
		rAxn := vec2.Cross(rA, m.Normal)
		rBxn := vec2.Cross(rB, m.Normal)
		k := a.invMass + b.invMass + rAxn*rAxn*a.invInertia + rBxn*rBxn*b.invInertia
		if k < vec2.Epsilon {
			continue
		}
		correction := vec2.Clamp(penetration, 0, 0.2) / k
		push := vec2.Scale(m.Normal, correction)

		if a.Type == Dynamic {
			a.Position = vec2.Sub(a.Position, vec2.Scale(push, a.invMass))
			a.Angle = vec2.Nang(a.Angle - a.invInertia*vec2.Cross(rA, push))
		}
		if b.Type == Dynamic {
			b.Position = vec2.Add(b.Position, vec2.Scale(push, b.invMass))
			b.Angle = vec2.Nang(b.Angle + b.invInertia*vec2.Cross(rB, push))
		}
		a.refresh()
		b.refresh()
	}
}

// relativeVelocity returns the velocity of body b's anchor point minus
// body a's anchor point: v_rel = (vB + wB x rB) - (vA + wA x rA).
func relativeVelocity(a, b *RigidBody, rA, rB vec2.V) vec2.V {
	velA := vec2.Add(a.LinearVelocity, vec2.CrossSV(a.AngularVelocity, rA))
	velB := vec2.Add(b.LinearVelocity, vec2.CrossSV(b.AngularVelocity, rB))
	return vec2.Sub(velB, velA)
}

// invertOrZero returns 1/k, or 0 if k is too small to invert safely. Used
// so degenerate effective masses (two static bodies, a zero-length
// normal) produce no impulse rather than dividing by zero (§4.I Failure
// semantics: numeric degeneracies are handled silently).
func invertOrZero(k float64) float64 {
	if k < vec2.Epsilon {
		return 0
	}
	return 1 / k
}
