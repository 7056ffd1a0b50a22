// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"
	"sync/atomic"

	"github.com/solidphys/phys2d/math/vec2"
)

// Shape is a 2D collision primitive, always defined in the local space of
// the body that owns it. Combine a shape with a Transform to place it in
// world space. Shapes do not allocate per-step; world-space caches are
// refilled in place by Update.
type Shape interface {
	ID() uint64 // Unique, monotonically increasing shape id.
	Kind() ShapeKind
	Area() float64 // Useful for mass = density*area.

	// Inertia returns the shape's moment of inertia for the given mass
	// about the owning body's origin (the origin of the shape's local
	// space), not about the shape's own centroid. Combined with Area this lets
	// a body derive mass and moment of inertia from its attached shapes.
	Inertia(mass float64) float64

	// AABB returns the shape's axis aligned bounding box under the given
	// world transform.
	AABB(t vec2.Transform) vec2.AABB

	// Update refreshes any cached world-space geometry (polygon vertices
	// and edge normals) for the given world transform. Circles ignore it.
	Update(t vec2.Transform)
}

// ShapeKind enumerates the concrete shapes physics understands. Used to
// dispatch to the correct narrow-phase predicate for a shape pair.
type ShapeKind int

const (
	KindCircle ShapeKind = iota
	KindPolygon
)

// MaxPolygonVertices is the largest vertex count a ConvexPolygon may have.
const MaxPolygonVertices = 16

// MinPolygonVertices is the smallest vertex count a ConvexPolygon may have.
const MinPolygonVertices = 3

var shapeIDCounter uint64

func nextShapeID() uint64 { return atomic.AddUint64(&shapeIDCounter, 1) }

// Shape interface
// ============================================================================
// Circle

// Circle is a shape defined by a local center offset and a radius.
type Circle struct {
	id     uint64
	Center vec2.V  // Local-space offset from the owning body's origin.
	Radius float64 // > 0.

	world vec2.V // Cached world-space center, refreshed by Update.
}

// NewCircle returns a Circle shape. Fails if radius <= 0.
func NewCircle(center vec2.V, radius float64) (*Circle, error) {
	if radius <= 0 {
		return nil, newError(InvalidArgument, "circle radius must be positive, got %v", radius)
	}
	return &Circle{id: nextShapeID(), Center: center, Radius: radius}, nil
}

func (c *Circle) ID() uint64       { return c.id }
func (c *Circle) Kind() ShapeKind  { return KindCircle }
func (c *Circle) Area() float64    { return math.Pi * c.Radius * c.Radius }
func (c *Circle) WorldCenter() vec2.V { return c.world }

// Inertia returns the moment of inertia of a solid disc of the given mass,
// about its own centroid, offset by the parallel axis theorem to account
// for Center not being at the body origin.
func (c *Circle) Inertia(mass float64) float64 {
	about := 0.5 * mass * c.Radius * c.Radius
	return about + mass*vec2.LenSqr(c.Center)
}

func (c *Circle) AABB(t vec2.Transform) vec2.AABB {
	center := t.Apply(c.Center)
	return vec2.NewAABB(center.X-c.Radius, center.Y-c.Radius, center.X+c.Radius, center.Y+c.Radius)
}

func (c *Circle) Update(t vec2.Transform) { c.world = t.Apply(c.Center) }

// Circle
// ============================================================================
// ConvexPolygon

// ConvexPolygon is a shape defined by 3 to 16 local-space vertices in
// counter-clockwise order. Convexity and winding are a precondition, not
// validated here: the caller is expected to supply a convex, CCW hull.
// For accurate inertia the centroid should coincide with the body origin.
type ConvexPolygon struct {
	id uint64

	local   []vec2.V // Local-space vertices, CCW.
	normals []vec2.V // Local-space outward edge normals, one per edge.

	world       []vec2.V // Cached world-space vertices, refreshed by Update.
	worldNormal []vec2.V // Cached world-space edge normals.
	cachedAt    vec2.Transform
	hasCache    bool
}

// NewPolygon returns a ConvexPolygon built from vertices, each translated
// by offset. Fails unless 3 <= len(vertices) <= 16.
func NewPolygon(vertices []vec2.V, offset vec2.V) (*ConvexPolygon, error) {
	if len(vertices) < MinPolygonVertices || len(vertices) > MaxPolygonVertices {
		return nil, newError(InvalidArgument, "polygon must have between %d and %d vertices, got %d",
			MinPolygonVertices, MaxPolygonVertices, len(vertices))
	}
	local := make([]vec2.V, len(vertices))
	for i, v := range vertices {
		local[i] = vec2.Add(v, offset)
	}
	normals := make([]vec2.V, len(local))
	for i := range local {
		a, b := local[i], local[(i+1)%len(local)]
		edge := vec2.Sub(b, a)
		normals[i] = vec2.Normalize(vec2.V{X: edge.Y, Y: -edge.X})
	}
	return &ConvexPolygon{
		id:          nextShapeID(),
		local:       local,
		normals:     normals,
		world:       make([]vec2.V, len(local)),
		worldNormal: make([]vec2.V, len(local)),
	}, nil
}

// NewBox is a convenience constructor for an axis-aligned rectangle of
// the given half-extents, centered at the body origin.
func NewBox(hx, hy float64) (*ConvexPolygon, error) {
	return NewPolygon([]vec2.V{
		{X: -hx, Y: -hy},
		{X: hx, Y: -hy},
		{X: hx, Y: hy},
		{X: -hx, Y: hy},
	}, vec2.Zero)
}

func (p *ConvexPolygon) ID() uint64      { return p.id }
func (p *ConvexPolygon) Kind() ShapeKind { return KindPolygon }

// Vertices returns the polygon's local-space vertices, CCW.
func (p *ConvexPolygon) Vertices() []vec2.V { return p.local }

// WorldVertices returns the cached world-space vertices as of the last Update.
func (p *ConvexPolygon) WorldVertices() []vec2.V { return p.world }

// WorldNormals returns the cached world-space outward edge normals as of
// the last Update.
func (p *ConvexPolygon) WorldNormals() []vec2.V { return p.worldNormal }

// Area computes the polygon area via the shoelace formula.
func (p *ConvexPolygon) Area() float64 {
	area := 0.0
	n := len(p.local)
	for i := 0; i < n; i++ {
		a, b := p.local[i], p.local[(i+1)%n]
		area += vec2.Cross(a, b)
	}
	return math.Abs(area) * 0.5
}

// Inertia computes the polygon's moment of inertia about the body origin
// for the given total mass, using the standard triangle-fan decomposition.
func (p *ConvexPolygon) Inertia(mass float64) float64 {
	n := len(p.local)
	var numer, denom float64
	for i := 0; i < n; i++ {
		a, b := p.local[i], p.local[(i+1)%n]
		crs := math.Abs(vec2.Cross(a, b))
		intx2 := a.X*a.X + a.X*b.X + b.X*b.X
		inty2 := a.Y*a.Y + a.Y*b.Y + b.Y*b.Y
		numer += crs * (intx2 + inty2)
		denom += crs
	}
	if denom < vec2.Epsilon {
		return 0
	}
	return (mass / 6.0) * (numer / denom)
}

func (p *ConvexPolygon) AABB(t vec2.Transform) vec2.AABB {
	p.ensureCache(t)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range p.world {
		minX, maxX = math.Min(minX, v.X), math.Max(maxX, v.X)
		minY, maxY = math.Min(minY, v.Y), math.Max(maxY, v.Y)
	}
	return vec2.NewAABB(minX, minY, maxX, maxY)
}

// Update transforms the local vertex and normal cache into world space
// under t: rotate then translate for vertices, rotate-only for normals.
func (p *ConvexPolygon) Update(t vec2.Transform) {
	for i, v := range p.local {
		p.world[i] = t.Apply(v)
	}
	for i, n := range p.normals {
		p.worldNormal[i] = t.ApplyVector(n)
	}
	p.cachedAt = t
	p.hasCache = true
}

// ensureCache lazily refreshes the world cache under t if Update has not
// already run for this exact transform this step.
func (p *ConvexPolygon) ensureCache(t vec2.Transform) {
	if p.hasCache && p.cachedAt == t {
		return
	}
	p.Update(t)
}
