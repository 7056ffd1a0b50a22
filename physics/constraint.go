// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.
//
// constraint implements the non-contact joints a Space can solve: distance
// joints, springs, revolute (hinge) joints and spline followers. Each runs
// through the same presolve/warmstart/solve shape as the contact solver,
// and is given a chance to act before contacts within every velocity
// iteration (§4.H: "positional constraints shape velocities first").

package physics

import (
	"math"
	"sync/atomic"

	"github.com/solidphys/phys2d/math/vec2"
)

// Constraint is a tagged non-contact joint. BodyB may be nil, anchoring the
// constraint to a fixed world point instead of a second body.
type Constraint interface {
	ID() uint32
	Bodies() (bodyA, bodyB *RigidBody)
	presolve(dt, invDt float64)
	warmstart()
	solve(invDt float64)
}

var constraintIDCounter uint32

func nextConstraintID() uint32 { return atomic.AddUint32(&constraintIDCounter, 1) }

// worldAnchor resolves a constraint endpoint to a world-space point and an
// offset from the owning body's center of mass. A nil body is a fixed
// world anchor: the local anchor is itself a world point and the returned
// offset is the zero vector (infinite effective mass on that side).
func worldAnchor(body *RigidBody, local vec2.V) (point vec2.V, offset vec2.V) {
	if body == nil {
		return local, vec2.Zero
	}
	point = body.Transform().Apply(local)
	return point, vec2.Sub(point, body.Position)
}

func invMassOf(b *RigidBody) float64 {
	if b == nil {
		return 0
	}
	return b.invMass
}

func invInertiaOf(b *RigidBody) float64 {
	if b == nil {
		return 0
	}
	return b.invInertia
}

func velocityAt(b *RigidBody, r vec2.V) vec2.V {
	if b == nil {
		return vec2.Zero
	}
	return vec2.Add(b.LinearVelocity, vec2.CrossSV(b.AngularVelocity, r))
}

func applyPointImpulse(b *RigidBody, j vec2.V, r vec2.V) {
	if b == nil {
		return
	}
	b.ApplyImpulse(j, r)
}

// mat22 is a 2x2 matrix used to solve the point-to-point (2 DOF) systems
// that HingeRevolute and Spline need; kept local to this file since
// nothing else in the package needs general matrix support.
type mat22 struct{ a, b, c, d float64 } // [[a b][c d]]

func (m mat22) solve(rhs vec2.V) vec2.V {
	det := m.a*m.d - m.b*m.c
	if math.Abs(det) < vec2.Epsilon {
		return vec2.Zero
	}
	invDet := 1 / det
	return vec2.V{
		X: invDet * (m.d*rhs.X - m.b*rhs.Y),
		Y: invDet * (m.a*rhs.Y - m.c*rhs.X),
	}
}

// DistanceJoint is a hard bilateral constraint holding two anchors a fixed
// RestLength apart, solved with a Baumgarte position-bias term (§4.H).
type DistanceJoint struct {
	id             uint32
	BodyA, BodyB   *RigidBody
	LocalAnchorA   vec2.V
	LocalAnchorB   vec2.V
	RestLength     float64
	Baumgarte      float64 // Defaults to 0.2 if zero.

	normal       vec2.V
	effMass      float64
	bias         float64
	accImpulse   float64
}

// NewDistanceJoint returns a joint holding local anchors on bodyA and bodyB
// (bodyB may be nil for a world anchor, in which case localAnchorB is a
// world-space point) at the given rest length.
func NewDistanceJoint(bodyA, bodyB *RigidBody, localAnchorA, localAnchorB vec2.V, restLength float64) *DistanceJoint {
	return &DistanceJoint{id: nextConstraintID(), BodyA: bodyA, BodyB: bodyB,
		LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB, RestLength: restLength}
}

func (j *DistanceJoint) ID() uint32                          { return j.id }
func (j *DistanceJoint) Bodies() (*RigidBody, *RigidBody)    { return j.BodyA, j.BodyB }

func (j *DistanceJoint) presolve(dt, invDt float64) {
	pointA, _ := worldAnchor(j.BodyA, j.LocalAnchorA)
	pointB, _ := worldAnchor(j.BodyB, j.LocalAnchorB)
	delta := vec2.Sub(pointB, pointA)
	dist := vec2.Len(delta)
	if dist < vec2.Epsilon {
		j.normal = vec2.V{X: 1, Y: 0}
	} else {
		j.normal = vec2.Scale(delta, 1/dist)
	}

	_, rA := worldAnchor(j.BodyA, j.LocalAnchorA)
	_, rB := worldAnchor(j.BodyB, j.LocalAnchorB)
	rAxn := vec2.Cross(rA, j.normal)
	rBxn := vec2.Cross(rB, j.normal)
	k := invMassOf(j.BodyA) + invMassOf(j.BodyB) +
		rAxn*rAxn*invInertiaOf(j.BodyA) + rBxn*rBxn*invInertiaOf(j.BodyB)
	j.effMass = invertOrZero(k)

	beta := j.Baumgarte
	if beta == 0 {
		beta = 0.2
	}
	j.bias = beta * invDt * (dist - j.RestLength)
}

func (j *DistanceJoint) warmstart() {
	_, rA := worldAnchor(j.BodyA, j.LocalAnchorA)
	_, rB := worldAnchor(j.BodyB, j.LocalAnchorB)
	impulse := vec2.Scale(j.normal, j.accImpulse)
	applyPointImpulse(j.BodyA, vec2.Neg(impulse), rA)
	applyPointImpulse(j.BodyB, impulse, rB)
}

func (j *DistanceJoint) solve(invDt float64) {
	_, rA := worldAnchor(j.BodyA, j.LocalAnchorA)
	_, rB := worldAnchor(j.BodyB, j.LocalAnchorB)
	relVel := vec2.Sub(velocityAt(j.BodyB, rB), velocityAt(j.BodyA, rA))
	cdot := vec2.Dot(relVel, j.normal)
	lambda := -j.effMass * (cdot + j.bias)
	j.accImpulse += lambda

	impulse := vec2.Scale(j.normal, lambda)
	applyPointImpulse(j.BodyA, vec2.Neg(impulse), rA)
	applyPointImpulse(j.BodyB, impulse, rB)
}

// Spring connects two anchors with a soft constraint: γ = 1 /
// (dt·(stiffness·dt + damping)) per §4.H, so unlike DistanceJoint it never
// fully removes the length error, it relaxes it over time according to
// Stiffness and Damping.
type Spring struct {
	id           uint32
	BodyA, BodyB *RigidBody
	LocalAnchorA vec2.V
	LocalAnchorB vec2.V
	RestLength   float64
	Stiffness    float64
	Damping      float64

	normal     vec2.V
	effMass    float64
	gamma      float64
	bias       float64
	accImpulse float64
}

func NewSpring(bodyA, bodyB *RigidBody, localAnchorA, localAnchorB vec2.V, restLength, stiffness, damping float64) *Spring {
	return &Spring{id: nextConstraintID(), BodyA: bodyA, BodyB: bodyB,
		LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB,
		RestLength: restLength, Stiffness: stiffness, Damping: damping}
}

func (s *Spring) ID() uint32                       { return s.id }
func (s *Spring) Bodies() (*RigidBody, *RigidBody) { return s.BodyA, s.BodyB }

func (s *Spring) presolve(dt, invDt float64) {
	pointA, _ := worldAnchor(s.BodyA, s.LocalAnchorA)
	pointB, _ := worldAnchor(s.BodyB, s.LocalAnchorB)
	delta := vec2.Sub(pointB, pointA)
	dist := vec2.Len(delta)
	if dist < vec2.Epsilon {
		s.normal = vec2.V{X: 1, Y: 0}
	} else {
		s.normal = vec2.Scale(delta, 1/dist)
	}

	_, rA := worldAnchor(s.BodyA, s.LocalAnchorA)
	_, rB := worldAnchor(s.BodyB, s.LocalAnchorB)
	rAxn := vec2.Cross(rA, s.normal)
	rBxn := vec2.Cross(rB, s.normal)
	k := invMassOf(s.BodyA) + invMassOf(s.BodyB) +
		rAxn*rAxn*invInertiaOf(s.BodyA) + rBxn*rBxn*invInertiaOf(s.BodyB)

	denom := dt * (s.Stiffness*dt + s.Damping)
	if denom < vec2.Epsilon {
		s.gamma = 0
	} else {
		s.gamma = 1 / denom
	}
	cdm := s.Stiffness * dt / (s.Stiffness*dt + s.Damping)
	if math.IsNaN(cdm) {
		cdm = 0
	}
	s.effMass = invertOrZero(k + s.gamma)
	s.bias = (dist - s.RestLength) * cdm * invDt
}

func (s *Spring) warmstart() {
	_, rA := worldAnchor(s.BodyA, s.LocalAnchorA)
	_, rB := worldAnchor(s.BodyB, s.LocalAnchorB)
	impulse := vec2.Scale(s.normal, s.accImpulse)
	applyPointImpulse(s.BodyA, vec2.Neg(impulse), rA)
	applyPointImpulse(s.BodyB, impulse, rB)
}

func (s *Spring) solve(invDt float64) {
	_, rA := worldAnchor(s.BodyA, s.LocalAnchorA)
	_, rB := worldAnchor(s.BodyB, s.LocalAnchorB)
	relVel := vec2.Sub(velocityAt(s.BodyB, rB), velocityAt(s.BodyA, rA))
	cdot := vec2.Dot(relVel, s.normal)
	lambda := -s.effMass * (cdot + s.bias + s.gamma*invDt*s.accImpulse)
	s.accImpulse += lambda

	impulse := vec2.Scale(s.normal, lambda)
	applyPointImpulse(s.BodyA, vec2.Neg(impulse), rA)
	applyPointImpulse(s.BodyB, impulse, rB)
}

// HingeRevolute pins two anchors to coincide (a 2-DOF point constraint) and
// optionally clamps relative angle to [LowerAngle, UpperAngle].
type HingeRevolute struct {
	id             uint32
	BodyA, BodyB   *RigidBody
	LocalAnchorA   vec2.V
	LocalAnchorB   vec2.V
	EnableLimit    bool
	LowerAngle     float64
	UpperAngle     float64
	ReferenceAngle float64

	k            mat22
	bias         vec2.V
	accImpulse   vec2.V
	limitMass    float64
	limitBias    float64
	limitImpulse float64
	limitState   int // -1 at lower, 0 free, +1 at upper
}

func NewHingeRevolute(bodyA, bodyB *RigidBody, localAnchorA, localAnchorB vec2.V) *HingeRevolute {
	return &HingeRevolute{id: nextConstraintID(), BodyA: bodyA, BodyB: bodyB,
		LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB}
}

func (h *HingeRevolute) ID() uint32                       { return h.id }
func (h *HingeRevolute) Bodies() (*RigidBody, *RigidBody) { return h.BodyA, h.BodyB }

func (h *HingeRevolute) relativeAngle() float64 {
	angleA, angleB := 0.0, 0.0
	if h.BodyA != nil {
		angleA = h.BodyA.Angle
	}
	if h.BodyB != nil {
		angleB = h.BodyB.Angle
	}
	return vec2.Nang(angleB - angleA - h.ReferenceAngle)
}

func (h *HingeRevolute) presolve(dt, invDt float64) {
	pointA, rA := worldAnchor(h.BodyA, h.LocalAnchorA)
	pointB, rB := worldAnchor(h.BodyB, h.LocalAnchorB)

	iM := invMassOf(h.BodyA) + invMassOf(h.BodyB)
	iA, iB := invInertiaOf(h.BodyA), invInertiaOf(h.BodyB)
	h.k = mat22{
		a: iM + iA*rA.Y*rA.Y + iB*rB.Y*rB.Y,
		b: -iA*rA.X*rA.Y - iB*rB.X*rB.Y,
		c: -iA*rA.X*rA.Y - iB*rB.X*rB.Y,
		d: iM + iA*rA.X*rA.X + iB*rB.X*rB.X,
	}
	h.bias = vec2.Scale(vec2.Sub(pointB, pointA), 0.2*invDt)

	if h.EnableLimit {
		kAngular := iA + iB
		h.limitMass = invertOrZero(kAngular)
		angle := h.relativeAngle()
		switch {
		case angle <= h.LowerAngle:
			h.limitState = -1
			h.limitBias = 0.2 * invDt * (angle - h.LowerAngle)
		case angle >= h.UpperAngle:
			h.limitState = 1
			h.limitBias = 0.2 * invDt * (angle - h.UpperAngle)
		default:
			h.limitState = 0
			h.limitImpulse = 0
		}
	} else {
		h.limitState = 0
	}
}

func (h *HingeRevolute) warmstart() {
	_, rA := worldAnchor(h.BodyA, h.LocalAnchorA)
	_, rB := worldAnchor(h.BodyB, h.LocalAnchorB)
	applyPointImpulse(h.BodyA, vec2.Neg(h.accImpulse), rA)
	applyPointImpulse(h.BodyB, h.accImpulse, rB)
	if h.EnableLimit && h.limitState != 0 {
		if h.BodyA != nil {
			h.BodyA.AngularVelocity -= invInertiaOf(h.BodyA) * h.limitImpulse
		}
		if h.BodyB != nil {
			h.BodyB.AngularVelocity += invInertiaOf(h.BodyB) * h.limitImpulse
		}
	}
}

func (h *HingeRevolute) solve(invDt float64) {
	if h.EnableLimit && h.limitState != 0 {
		relAngVel := 0.0
		if h.BodyB != nil {
			relAngVel += h.BodyB.AngularVelocity
		}
		if h.BodyA != nil {
			relAngVel -= h.BodyA.AngularVelocity
		}
		lambda := -h.limitMass * (relAngVel + h.limitBias)
		old := h.limitImpulse
		if h.limitState < 0 {
			h.limitImpulse = math.Max(old+lambda, 0)
		} else {
			h.limitImpulse = math.Min(old+lambda, 0)
		}
		lambda = h.limitImpulse - old
		if h.BodyA != nil {
			h.BodyA.AngularVelocity -= invInertiaOf(h.BodyA) * lambda
		}
		if h.BodyB != nil {
			h.BodyB.AngularVelocity += invInertiaOf(h.BodyB) * lambda
		}
	}

	_, rA := worldAnchor(h.BodyA, h.LocalAnchorA)
	_, rB := worldAnchor(h.BodyB, h.LocalAnchorB)
	cdot := vec2.Sub(velocityAt(h.BodyB, rB), velocityAt(h.BodyA, rA))
	rhs := vec2.Add(cdot, h.bias)
	impulse := h.k.solve(vec2.V{X: -rhs.X, Y: -rhs.Y})
	h.accImpulse = vec2.Add(h.accImpulse, impulse)

	applyPointImpulse(h.BodyA, vec2.Neg(impulse), rA)
	applyPointImpulse(h.BodyB, impulse, rB)
}

// Spline constrains a single body's anchor point to travel along a
// Catmull-Rom curve through ControlPoints: each presolve step projects the
// anchor onto the nearest sampled curve point and the constraint removes
// velocity perpendicular to the local tangent, a soft constraint governed
// by Stiffness and Damping like Spring.
type Spline struct {
	id           uint32
	Body         *RigidBody
	LocalAnchor  vec2.V
	ControlPoints []vec2.V
	Stiffness    float64
	Damping      float64
	Samples      int // Curve samples per segment used to find the nearest point; defaults to 16 if 0.

	normal     vec2.V
	effMass    float64
	gamma      float64
	bias       float64
	accImpulse float64
}

func NewSpline(body *RigidBody, localAnchor vec2.V, controlPoints []vec2.V, stiffness, damping float64) *Spline {
	return &Spline{id: nextConstraintID(), Body: body, LocalAnchor: localAnchor,
		ControlPoints: controlPoints, Stiffness: stiffness, Damping: damping}
}

func (s *Spline) ID() uint32                       { return s.id }
func (s *Spline) Bodies() (*RigidBody, *RigidBody) { return s.Body, nil }

// catmullRom evaluates the Catmull-Rom segment between p1 and p2 (with
// neighbours p0, p3) at parameter t in [0, 1].
func catmullRom(p0, p1, p2, p3 vec2.V, t float64) vec2.V {
	t2 := t * t
	t3 := t2 * t
	return vec2.V{
		X: 0.5 * ((2 * p1.X) + (-p0.X+p2.X)*t + (2*p0.X-5*p1.X+4*p2.X-p3.X)*t2 + (-p0.X+3*p1.X-3*p2.X+p3.X)*t3),
		Y: 0.5 * ((2 * p1.Y) + (-p0.Y+p2.Y)*t + (2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*t2 + (-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*t3),
	}
}

// nearestOnSpline samples every segment of ControlPoints and returns the
// closest sampled point to target plus the local tangent there. Endpoints
// are clamped (first/last control point duplicated) so the curve does not
// require phantom points outside the given set.
func (s *Spline) nearestOnSpline(target vec2.V) (point, tangent vec2.V) {
	pts := s.ControlPoints
	if len(pts) < 2 {
		if len(pts) == 1 {
			return pts[0], vec2.V{X: 1, Y: 0}
		}
		return target, vec2.V{X: 1, Y: 0}
	}
	samples := s.Samples
	if samples <= 0 {
		samples = 16
	}

	bestDist := math.Inf(1)
	for seg := 0; seg < len(pts)-1; seg++ {
		p0 := pts[maxInt(seg-1, 0)]
		p1 := pts[seg]
		p2 := pts[seg+1]
		p3 := pts[minInt(seg+2, len(pts)-1)]
		for i := 0; i <= samples; i++ {
			t := float64(i) / float64(samples)
			p := catmullRom(p0, p1, p2, p3, t)
			d := vec2.LenSqr(vec2.Sub(p, target))
			if d < bestDist {
				bestDist = d
				point = p
				dt := 1.0 / float64(samples)
				ahead := catmullRom(p0, p1, p2, p3, math.Min(t+dt, 1))
				tangent = vec2.Normalize(vec2.Sub(ahead, p))
			}
		}
	}
	if vec2.LenSqr(tangent) < vec2.Epsilon {
		tangent = vec2.V{X: 1, Y: 0}
	}
	return point, tangent
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (s *Spline) presolve(dt, invDt float64) {
	anchor, r := worldAnchor(s.Body, s.LocalAnchor)
	nearest, tangent := s.nearestOnSpline(anchor)
	s.normal = vec2.Perp(tangent) // constrain motion perpendicular to the curve.

	rxn := vec2.Cross(r, s.normal)
	k := invMassOf(s.Body) + rxn*rxn*invInertiaOf(s.Body)

	denom := dt * (s.Stiffness*dt + s.Damping)
	if denom < vec2.Epsilon {
		s.gamma = 0
	} else {
		s.gamma = 1 / denom
	}
	cdm := s.Stiffness * dt / (s.Stiffness*dt + s.Damping)
	if math.IsNaN(cdm) {
		cdm = 0
	}
	s.effMass = invertOrZero(k + s.gamma)

	offNormal := vec2.Dot(vec2.Sub(anchor, nearest), s.normal)
	s.bias = offNormal * cdm * invDt
}

func (s *Spline) warmstart() {
	_, r := worldAnchor(s.Body, s.LocalAnchor)
	applyPointImpulse(s.Body, vec2.Scale(s.normal, s.accImpulse), r)
}

func (s *Spline) solve(invDt float64) {
	_, r := worldAnchor(s.Body, s.LocalAnchor)
	cdot := vec2.Dot(velocityAt(s.Body, r), s.normal)
	lambda := -s.effMass * (cdot + s.bias + s.gamma*invDt*s.accImpulse)
	s.accImpulse += lambda
	applyPointImpulse(s.Body, vec2.Scale(s.normal, lambda), r)
}
