// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"

	"github.com/solidphys/phys2d/math/vec2"
)

// Gravitational constant, for bodies flagged as Attractor. WorldScale is a
// gameplay multiplier applied on top of it: true G makes attraction
// imperceptible at any reasonable world scale, so callers that want N-body
// gravity between bodies (rather than the uniform Settings.Gravity field)
// scale it up.
const (
	G          = 6.6743e-11
	WorldScale = 1e13
)

// Settings holds every tunable of the step pipeline. NewSettings returns
// the documented defaults; a Settings can also be loaded from YAML (see
// package config) and then assigned to Space.Settings.
type Settings struct {
	Baumgarte                 float64        `yaml:"baumgarte"`
	PenetrationSlop           float64        `yaml:"penetration_slop"`
	ContactPositionCorrection CorrectionMode `yaml:"contact_position_correction"`
	VelocityIterations        int            `yaml:"velocity_iterations"`
	PositionIterations        int            `yaml:"position_iterations"`
	Substeps                  int            `yaml:"substeps"`
	LinearDamping             float64        `yaml:"linear_damping"`
	AngularDamping            float64        `yaml:"angular_damping"`
	Warmstarting              bool           `yaml:"warmstarting"`
	RestitutionMix            MixRule        `yaml:"restitution_mix"`
	FrictionMix               MixRule        `yaml:"friction_mix"`
	Gravity                   vec2.V         `yaml:"gravity"`

	// WakeEnergyThreshold is the per-body kinetic+rotational energy below
	// which a sleeping-island implementation would consider a body eligible
	// to sleep. The core does not implement islands/sleeping (§9 Open
	// Question); the setting is carried so a future extension has a
	// documented default instead of inventing one.
	WakeEnergyThreshold float64 `yaml:"wake_energy_threshold"`
}

// NewSettings returns Settings populated with the documented defaults.
func NewSettings() Settings {
	return Settings{
		Baumgarte:                 0.2,
		PenetrationSlop:           0.05,
		ContactPositionCorrection: Baumgarte,
		VelocityIterations:        8,
		PositionIterations:        4,
		Substeps:                  1,
		LinearDamping:             5e-4,
		AngularDamping:            5e-4,
		Warmstarting:              true,
		RestitutionMix:            MixSqrt,
		FrictionMix:               MixSqrt,
		Gravity:                   vec2.V{X: 0, Y: -9.81},
		WakeEnergyThreshold:       0.4,
	}
}

// StepProfile records per-step counts for diagnostics. Populated
// by Space.Step; zero value is fine to ignore.
type StepProfile struct {
	Substeps       int
	BroadPhasePairs int
	NarrowPhasePairs int
	ActiveManifolds int
	ActiveContacts  int
}

// Space owns every body, constraint and contact manifold in a simulation
// and drives the per-step pipeline (§4.I). The zero Space is not usable;
// construct with NewSpace.
type Space struct {
	Settings Settings

	bodies      []*RigidBody
	bodyIndex   map[uint32]int
	constraints []Constraint
	constraintIndex map[uint32]int

	store *ContactStore

	BroadPhase BroadPhase
	Listener   ContactListener

	// KillBounds, if non-zero and installed with SetKillBounds, is an AABB
	// outside of which dynamic bodies are automatically removed at the end
	// of Step (a common "fell off the world" safety net); zero-value AABB
	// (Min == Max == origin) disables it.
	KillBounds    vec2.AABB
	killBoundsSet bool

	pairArena []ShapePair

	lastErr error

	idCounter uint32

	Profile StepProfile
}

// NewSpace returns an empty Space with default settings and a BruteForce
// broad-phase.
func NewSpace() *Space {
	return &Space{
		Settings:        NewSettings(),
		bodyIndex:       make(map[uint32]int),
		constraintIndex: make(map[uint32]int),
		store:           newContactStore(),
		BroadPhase:      BruteForce{},
	}
}

// SetKillBounds installs an AABB outside of which dynamic bodies are
// removed at the end of each Step.
func (s *Space) SetKillBounds(box vec2.AABB) {
	s.KillBounds = box
	s.killBoundsSet = true
}

// Bodies returns every body currently owned by the Space, in insertion
// order. Callers must not mutate the returned slice.
func (s *Space) Bodies() []*RigidBody { return s.bodies }

// Constraints returns every constraint currently owned by the Space, in
// insertion order.
func (s *Space) Constraints() []Constraint { return s.constraints }

// Manifolds exposes the current contact store for read-only inspection.
func (s *Space) Manifolds() map[PairKey]*Manifold { return s.store.Manifolds() }

// AddBody gives the Space ownership of b. Fails with Duplicate if b is
// already owned by this Space.
func (s *Space) AddBody(b *RigidBody) error {
	if b == nil {
		return s.setLastError(newError(InvalidArgument, "cannot add a nil body"))
	}
	if _, exists := s.bodyIndex[b.id]; exists {
		return s.setLastError(newError(Duplicate, "body %d already belongs to this space", b.id))
	}
	s.bodyIndex[b.id] = len(s.bodies)
	s.bodies = append(s.bodies, b)
	return nil
}

// RemoveBody detaches b from the Space: it stops being stepped and any
// manifolds referencing it are removed (firing on_contact_removed), but
// the RigidBody value itself is not destroyed and may be re-added later.
func (s *Space) RemoveBody(b *RigidBody) error {
	if b == nil {
		return s.setLastError(newError(InvalidArgument, "cannot remove a nil body"))
	}
	idx, exists := s.bodyIndex[b.id]
	if !exists {
		return s.setLastError(newError(InvalidArgument, "body %d is not owned by this space", b.id))
	}
	s.removeBodyAt(idx)
	s.store.removeForBody(b.id, s.Listener)
	return nil
}

func (s *Space) removeBodyAt(idx int) {
	removed := s.bodies[idx]
	last := len(s.bodies) - 1
	s.bodies[idx] = s.bodies[last]
	s.bodies = s.bodies[:last]
	delete(s.bodyIndex, removed.id)
	if idx != last {
		s.bodyIndex[s.bodies[idx].id] = idx
	}
}

// AddConstraint gives the Space ownership of c. Fails with Duplicate if c
// is already owned by this Space.
func (s *Space) AddConstraint(c Constraint) error {
	if c == nil {
		return s.setLastError(newError(InvalidArgument, "cannot add a nil constraint"))
	}
	if _, exists := s.constraintIndex[c.ID()]; exists {
		return s.setLastError(newError(Duplicate, "constraint %d already belongs to this space", c.ID()))
	}
	s.constraintIndex[c.ID()] = len(s.constraints)
	s.constraints = append(s.constraints, c)
	return nil
}

// RemoveConstraint detaches c from the Space without destroying it.
func (s *Space) RemoveConstraint(c Constraint) error {
	if c == nil {
		return s.setLastError(newError(InvalidArgument, "cannot remove a nil constraint"))
	}
	idx, exists := s.constraintIndex[c.ID()]
	if !exists {
		return s.setLastError(newError(InvalidArgument, "constraint %d is not owned by this space", c.ID()))
	}
	last := len(s.constraints) - 1
	removedID := s.constraints[idx].ID()
	s.constraints[idx] = s.constraints[last]
	s.constraints = s.constraints[:last]
	delete(s.constraintIndex, removedID)
	if idx != last {
		s.constraintIndex[s.constraints[idx].ID()] = idx
	}
	return nil
}

// Clear empties the Space: every manifold is removed from the contact
// store (firing on_contact_removed for its contacts) and all bodies and
// constraints are detached without being destroyed. If freeAll is true,
// the pair arena and the last-error slot are released as well.
func (s *Space) Clear(freeAll bool) {
	for _, m := range s.store.manifolds {
		s.store.invokeRemoved(m, s.Listener)
	}
	s.bodies = nil
	s.bodyIndex = make(map[uint32]int)
	s.constraints = nil
	s.constraintIndex = make(map[uint32]int)
	s.store = newContactStore()
	if freeAll {
		s.pairArena = nil
		s.lastErr = nil
	}
}

// Step advances the simulation by dt seconds, running Settings.Substeps
// repetitions of the full pipeline (§4.I). A dt or substep count of zero
// is a no-op, not an error.
func (s *Space) Step(dt float64) error {
	if dt == 0 || s.Settings.Substeps == 0 {
		return nil
	}
	h := dt / float64(s.Settings.Substeps)
	invH := 1 / h

	s.Profile = StepProfile{Substeps: s.Settings.Substeps}

	for sub := 0; sub < s.Settings.Substeps; sub++ {
		s.integrateAccelerations(h)

		pairs := s.runBroadPhase()
		s.Profile.BroadPhasePairs += len(pairs)
		s.runNarrowPhase(pairs)

		s.presolveAndWarmstartConstraints(h, invH)
		for i := 0; i < s.Settings.VelocityIterations; i++ {
			s.solveConstraintsVelocity(invH)
		}

		s.presolveAndWarmstartContacts(invH)
		for i := 0; i < s.Settings.VelocityIterations; i++ {
			s.solveContactsVelocity()
		}

		for _, b := range s.bodies {
			b.integrateVelocities(h)
		}

		if s.Settings.ContactPositionCorrection == NGS {
			for i := 0; i < s.Settings.PositionIterations; i++ {
				s.solveContactsPosition()
			}
		}
	}

	s.applyAttraction(dt)
	if s.killBoundsSet && s.KillBounds != (vec2.AABB{}) {
		s.applyKillBounds()
	}
	return nil
}

func (s *Space) integrateAccelerations(h float64) {
	for _, b := range s.bodies {
		b.aabbValid = false
		b.integrateAccelerations(s.Settings.Gravity, s.Settings.LinearDamping, s.Settings.AngularDamping, h)
	}
}

func (s *Space) runBroadPhase() []ShapePair {
	if s.BroadPhase == nil {
		s.BroadPhase = BruteForce{}
	}
	s.pairArena = s.BroadPhase.Pairs(s.bodies, s.pairArena[:0])
	return s.pairArena
}

// runNarrowPhase updates the contact store from this step's broad-phase
// pairs and removes any manifold whose pair no longer appears, i.e. whose
// shapes' AABBs have separated.
func (s *Space) runNarrowPhase(pairs []ShapePair) {
	seen := make(map[PairKey]bool, len(pairs))
	for _, p := range pairs {
		key := newPairKey(p.ShapeA.ID(), p.ShapeB.ID())
		seen[key] = true
		s.store.update(p.BodyA, p.BodyB, p.ShapeA, p.ShapeB, s.Settings.Warmstarting, s.Listener)
		s.Profile.NarrowPhasePairs++
	}
	for key := range s.store.manifolds {
		if !seen[key] {
			s.store.remove(key, s.Listener)
		}
	}
	s.Profile.ActiveManifolds = len(s.store.manifolds)
	contacts := 0
	for _, m := range s.store.manifolds {
		if m.ContactCount > 0 {
			contacts += m.ContactCount
		}
	}
	s.Profile.ActiveContacts = contacts
}

func (s *Space) presolveAndWarmstartConstraints(h, invH float64) {
	for _, c := range s.constraints {
		c.presolve(h, invH)
		if s.Settings.Warmstarting {
			c.warmstart()
		}
	}
}

func (s *Space) solveConstraintsVelocity(invH float64) {
	for _, c := range s.constraints {
		c.solve(invH)
	}
}

func (s *Space) presolveAndWarmstartContacts(invH float64) {
	solver := contactSolver{settings: &s.Settings}
	for _, m := range s.store.manifolds {
		if m.ContactCount == 0 {
			continue
		}
		solver.presolve(m, invH)
		solver.warmstart(m)
	}
}

func (s *Space) solveContactsVelocity() {
	solver := contactSolver{settings: &s.Settings}
	for _, m := range s.store.manifolds {
		solver.solveVelocity(m)
	}
}

func (s *Space) solveContactsPosition() {
	solver := contactSolver{settings: &s.Settings}
	for _, m := range s.store.manifolds {
		solver.solvePosition(m)
	}
}

// applyAttraction applies Newtonian gravity, scaled by WorldScale, from
// every dynamic body flagged Attractor to every other dynamic body. This
// runs after the main
// pipeline and before the next Step's accelerations are integrated, so its
// effect shows up as a force accumulated for next step's integration.
func (s *Space) applyAttraction(dt float64) {
	for i, a := range s.bodies {
		if !a.Attractor || a.invMass == 0 {
			continue
		}
		for j, b := range s.bodies {
			if i == j || b.invMass == 0 {
				continue
			}
			delta := vec2.Sub(a.Position, b.Position)
			distSqr := vec2.LenSqr(delta)
			if distSqr < vec2.Epsilon {
				continue
			}
			dist := math.Sqrt(distSqr)
			massA := 1 / a.invMass
			forceMag := G * WorldScale * massA / distSqr
			b.ApplyForce(vec2.Scale(delta, forceMag/dist))
		}
	}
}

func (s *Space) applyKillBounds() {
	for i := len(s.bodies) - 1; i >= 0; i-- {
		b := s.bodies[i]
		if b.Type != Dynamic {
			continue
		}
		if !s.KillBounds.Contains(b.Position) {
			s.removeBodyAt(i)
			s.store.removeForBody(b.id, s.Listener)
		}
	}
}
