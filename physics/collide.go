// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"

	"github.com/solidphys/phys2d/math/vec2"
)

// slop is the separation tolerance used when comparing penetration depths
// across frames, to avoid the reference/incident face selection (and
// hence the contact normal) flipping back and forth on numerical noise.
const slop = 0.005

// collidePair dispatches to the correct narrow-phase predicate for the
// pair's shape kinds and fills manifold in place. manifold.BodyA/BodyB and
// ShapeA/ShapeB must already be set in Key order (see bodyOrder).
func collidePair(m *Manifold) {
	ta, tb := m.BodyA.Transform(), m.BodyB.Transform()
	switch a := m.ShapeA.(type) {
	case *Circle:
		switch b := m.ShapeB.(type) {
		case *Circle:
			collideCircleCircle(m, a, ta, b, tb)
		case *ConvexPolygon:
			collideCirclePolygon(m, a, ta, b, tb, true)
		}
	case *ConvexPolygon:
		switch b := m.ShapeB.(type) {
		case *Circle:
			collideCirclePolygon(m, b, tb, a, ta, false)
		case *ConvexPolygon:
			collidePolygonPolygon(m, a, ta, b, tb)
		}
	}
}

// collideCircleCircle implements §4.D Circle-Circle: a manifold exists
// iff the centers are closer than the sum of radii. The normal points
// from A to B; when the centers coincide it defaults to (0, 1) rather
// than faulting on normalizing a zero vector.
func collideCircleCircle(m *Manifold, a *Circle, ta vec2.Transform, b *Circle, tb vec2.Transform) {
	m.ContactCount = 0
	centerA := ta.Apply(a.Center)
	centerB := tb.Apply(b.Center)
	delta := vec2.Sub(centerB, centerA)
	dist := vec2.Len(delta)
	radiusSum := a.Radius + b.Radius
	if dist >= radiusSum {
		return
	}

	normal := vec2.V{X: 0, Y: 1}
	if dist > vec2.Epsilon {
		normal = vec2.Scale(delta, 1/dist)
	}
	point := vec2.Add(centerA, vec2.Scale(normal, a.Radius))

	m.Normal = normal
	m.ContactCount = 1
	m.Contacts[0] = Contact{
		AnchorA:    vec2.Sub(point, m.BodyA.Position),
		AnchorB:    vec2.Sub(point, m.BodyB.Position),
		Separation: dist - radiusSum,
		FeatureID:  0,
	}
}

// collideCirclePolygon implements §4.D Circle-Polygon via the polygon's
// SAT: project the circle center against every edge normal and reject on
// the first separating axis whose gap exceeds the radius. circleIsA
// indicates whether the original manifold order was (circle, polygon) so
// the manifold normal is oriented from A to B.
func collideCirclePolygon(m *Manifold, c *Circle, tc vec2.Transform, p *ConvexPolygon, tp vec2.Transform, circleIsA bool) {
	m.ContactCount = 0
	center := tc.Apply(c.Center)
	verts := p.WorldVertices()
	normals := p.WorldNormals()
	n := len(verts)

	bestSep := math.Inf(-1)
	bestEdge := 0
	for i := 0; i < n; i++ {
		sep := vec2.Dot(normals[i], vec2.Sub(center, verts[i]))
		if sep > c.Radius {
			return // separating axis found
		}
		if sep > bestSep {
			bestSep = sep
			bestEdge = i
		}
	}

	v1, v2 := verts[bestEdge], verts[(bestEdge+1)%n]
	var normal, point vec2.V
	switch {
	case bestSep < vec2.Epsilon:
		// center is inside the polygon: push out along the face normal.
		normal = normals[bestEdge]
		point = vec2.Sub(center, vec2.Scale(normal, bestSep))
	default:
		// center is outside: determine which polygon feature is closest.
		d1 := vec2.Dot(vec2.Sub(center, v1), vec2.Sub(v2, v1))
		d2 := vec2.Dot(vec2.Sub(center, v2), vec2.Sub(v1, v2))
		switch {
		case d1 <= 0:
			if vec2.Len(vec2.Sub(center, v1)) > c.Radius {
				return
			}
			normal = vec2.Normalize(vec2.Sub(center, v1))
			point = v1
		case d2 <= 0:
			if vec2.Len(vec2.Sub(center, v2)) > c.Radius {
				return
			}
			normal = vec2.Normalize(vec2.Sub(center, v2))
			point = v2
		default:
			normal = normals[bestEdge]
			point = vec2.Sub(center, vec2.Scale(normal, vec2.Dot(normal, vec2.Sub(center, v1))))
		}
	}

	separation := vec2.Dot(vec2.Sub(center, point), normal) - c.Radius
	if separation >= 0 {
		return
	}

	m.ContactCount = 1
	contact := Contact{Separation: separation, FeatureID: uint64(bestEdge)}
	if circleIsA {
		m.Normal = vec2.Neg(normal) // manifold normal always points A->B
		contact.AnchorA = vec2.Sub(point, m.BodyA.Position)
		contact.AnchorB = vec2.Sub(point, m.BodyB.Position)
	} else {
		m.Normal = normal
		contact.AnchorA = vec2.Sub(point, m.BodyA.Position)
		contact.AnchorB = vec2.Sub(point, m.BodyB.Position)
	}
	m.Contacts[0] = contact
}

// polygonSAT finds the edge of polygon verts/normals with the largest
// (least negative, i.e. "most separating") projection of the other
// polygon's vertices. Returns the best separation and the owning edge
// index. A positive separation means a separating axis exists.
func polygonSAT(verts []vec2.V, normals []vec2.V, other []vec2.V) (float64, int) {
	bestSep := math.Inf(-1)
	bestEdge := 0
	for i, normal := range normals {
		v := verts[i]
		sep := math.Inf(1)
		for _, ov := range other {
			d := vec2.Dot(normal, vec2.Sub(ov, v))
			if d < sep {
				sep = d
			}
		}
		if sep > bestSep {
			bestSep = sep
			bestEdge = i
		}
	}
	return bestSep, bestEdge
}

// incidentEdge returns the index of the edge on verts/normals most
// anti-parallel to referenceNormal: the face most likely to be
// penetrating the reference face.
func incidentEdge(normals []vec2.V, referenceNormal vec2.V) int {
	best := 0
	minDot := math.Inf(1)
	for i, n := range normals {
		d := vec2.Dot(n, referenceNormal)
		if d < minDot {
			minDot = d
			best = i
		}
	}
	return best
}

// clipSegment clips the 2-point segment [points[0], points[1]] (with
// accompanying feature ids) against the half-plane {x : dot(normal, x) <
// offset}, discarding points that lie outside it and introducing a new
// point (tagged with clipFeature) on the plane where the segment crosses.
func clipSegment(points [2]vec2.V, ids [2]uint64, normal vec2.V, offset float64, clipFeature uint64) ([2]vec2.V, [2]uint64, int) {
	var out [2]vec2.V
	var outIDs [2]uint64
	count := 0

	d0 := vec2.Dot(normal, points[0]) - offset
	d1 := vec2.Dot(normal, points[1]) - offset

	if d0 <= 0 {
		out[count] = points[0]
		outIDs[count] = ids[0]
		count++
	}
	if d1 <= 0 {
		out[count] = points[1]
		outIDs[count] = ids[1]
		count++
	}
	if d0*d1 < 0 {
		t := d0 / (d0 - d1)
		out[count] = vec2.Lerp(points[0], points[1], t)
		outIDs[count] = clipFeature
		count++
	}
	return out, outIDs, count
}

// collidePolygonPolygon implements §4.D Polygon-Polygon: SAT over both
// polygons' edge normals picks the reference face (axis of minimum
// penetration, ties broken toward polygon A per the "prefer shape-a's
// axis on exact tie" resolution), the incident face is clipped against
// the reference face's side planes, and surviving points with
// separation <= 0 become contacts.
func collidePolygonPolygon(m *Manifold, a *ConvexPolygon, ta vec2.Transform, b *ConvexPolygon, tb vec2.Transform) {
	m.ContactCount = 0

	vertsA, normalsA := a.WorldVertices(), a.WorldNormals()
	vertsB, normalsB := b.WorldVertices(), b.WorldNormals()

	sepA, edgeA := polygonSAT(vertsA, normalsA, vertsB)
	if sepA > 0 {
		return
	}
	sepB, edgeB := polygonSAT(vertsB, normalsB, vertsA)
	if sepB > 0 {
		return
	}

	var refVerts, refNormals, incVerts, incNormals []vec2.V
	var refEdge int
	flip := false // true when the reference polygon is B, so normal must flip to point A->B.
	if sepB > sepA+slop {
		refVerts, refNormals, refEdge = vertsB, normalsB, edgeB
		incVerts, incNormals = vertsA, normalsA
		flip = true
	} else {
		refVerts, refNormals, refEdge = vertsA, normalsA, edgeA
		incVerts, incNormals = vertsB, normalsB
	}

	refNormal := refNormals[refEdge]
	refV1 := refVerts[refEdge]
	refV2 := refVerts[(refEdge+1)%len(refVerts)]
	tangent := vec2.Normalize(vec2.Sub(refV2, refV1))

	incEdge := incidentEdge(incNormals, refNormal)
	incN := len(incVerts)
	incV1 := incVerts[incEdge]
	incV2 := incVerts[(incEdge+1)%incN]

	points := [2]vec2.V{incV1, incV2}
	ids := [2]uint64{
		encodeFeature(refEdge, incEdge, 2),
		encodeFeature(refEdge, (incEdge+1)%incN, 2),
	}

	// Clip against the reference edge's two side planes.
	negSide := -vec2.Dot(tangent, refV1)
	points, ids, n1 := clipSegment(points, ids, vec2.Neg(tangent), negSide, encodeFeature(refEdge, incEdge, 0))
	if n1 < 2 {
		return
	}
	posSide := vec2.Dot(tangent, refV2)
	points, ids, n2 := clipSegment(points, ids, tangent, posSide, encodeFeature(refEdge, incEdge, 1))
	if n2 < 1 {
		return
	}

	count := 0
	for i := 0; i < n2; i++ {
		separation := vec2.Dot(refNormal, vec2.Sub(points[i], refV1))
		if separation > 0 {
			continue
		}
		worldPoint := points[i]
		m.Contacts[count] = Contact{
			AnchorA:    vec2.Sub(worldPoint, m.BodyA.Position),
			AnchorB:    vec2.Sub(worldPoint, m.BodyB.Position),
			Separation: separation,
			FeatureID:  ids[i],
		}
		count++
		if count == MaxManifoldContacts {
			break
		}
	}
	if count == 0 {
		return
	}

	if flip {
		m.Normal = vec2.Neg(refNormal)
	} else {
		m.Normal = refNormal
	}
	m.ContactCount = count
}

// encodeFeature packs a (reference edge, incident edge, clip side) triple
// into a single stable identifier, used to match contacts across frames
// for warm-starting and the added/persisted/removed lifecycle.
func encodeFeature(refEdge, incEdge, clipSide int) uint64 {
	return uint64(refEdge)<<32 | uint64(incEdge)<<8 | uint64(clipSide)
}
