// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package vec2

// AABB is an axis aligned bounding box used during broad-phase collision
// detection to cheaply reject shape pairs that cannot possibly overlap.
// Invariant: Min.X <= Max.X and Min.Y <= Max.Y.
type AABB struct {
	Min V
	Max V
}

// NewAABB returns the AABB with the given extents.
func NewAABB(minX, minY, maxX, maxY float64) AABB {
	return AABB{V{minX, minY}, V{maxX, maxY}}
}

// Overlaps returns true if a and b intersect on both axes. Boxes that
// are merely touching along an edge are not considered overlapping.
func (a AABB) Overlaps(b AABB) bool {
	return a.Max.X > b.Min.X && a.Min.X < b.Max.X &&
		a.Max.Y > b.Min.Y && a.Min.Y < b.Max.Y
}

// Contains returns true if point p lies within a, edges inclusive.
func (a AABB) Contains(p V) bool {
	return p.X >= a.Min.X && p.X <= a.Max.X && p.Y >= a.Min.Y && p.Y <= a.Max.Y
}

// Union returns the smallest AABB that contains both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		V{minF(a.Min.X, b.Min.X), minF(a.Min.Y, b.Min.Y)},
		V{maxF(a.Max.X, b.Max.X), maxF(a.Max.Y, b.Max.Y)},
	}
}

// Expand returns a grown by margin on every side. A negative margin
// shrinks the box.
func (a AABB) Expand(margin float64) AABB {
	return AABB{
		V{a.Min.X - margin, a.Min.Y - margin},
		V{a.Max.X + margin, a.Max.Y + margin},
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
