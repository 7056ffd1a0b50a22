// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"

	"github.com/solidphys/phys2d/math/vec2"
)

func TestNewCircleRejectsNonPositiveRadius(t *testing.T) {
	if _, err := NewCircle(vec2.Zero, 0); err == nil {
		t.Error("expected error for zero radius")
	}
	if _, err := NewCircle(vec2.Zero, -1); err == nil {
		t.Error("expected error for negative radius")
	}
}

func TestNewPolygonRejectsVertexCount(t *testing.T) {
	if _, err := NewPolygon([]vec2.V{{X: 0, Y: 0}, {X: 1, Y: 0}}, vec2.Zero); err == nil {
		t.Error("expected error for fewer than 3 vertices")
	}
	tooMany := make([]vec2.V, MaxPolygonVertices+1)
	if _, err := NewPolygon(tooMany, vec2.Zero); err == nil {
		t.Error("expected error for more than max vertices")
	}
}

func TestBoxAreaAndAABB(t *testing.T) {
	box, err := NewBox(1, 2)
	if err != nil {
		t.Fatalf("NewBox failed: %v", err)
	}
	if !vec2.Aeq(box.Area(), 8) {
		t.Errorf("box area: got %v, want 8", box.Area())
	}
	t1 := vec2.NewTransform(vec2.Zero, 0)
	box.Update(t1)
	aabb := box.AABB(t1)
	if !vec2.Aeq(aabb.Min.X, -1) || !vec2.Aeq(aabb.Max.X, 1) {
		t.Errorf("unexpected box AABB: %v", aabb)
	}
}

func TestCircleAABB(t *testing.T) {
	c, err := NewCircle(vec2.V{X: 1, Y: 1}, 2)
	if err != nil {
		t.Fatalf("NewCircle failed: %v", err)
	}
	trans := vec2.NewTransform(vec2.Zero, 0)
	aabb := c.AABB(trans)
	if !vec2.Aeq(aabb.Min.X, -1) || !vec2.Aeq(aabb.Max.X, 3) {
		t.Errorf("unexpected circle AABB: %v", aabb)
	}
}

func TestCircleInertiaOffCenterGreaterThanCentered(t *testing.T) {
	centered, _ := NewCircle(vec2.Zero, 1)
	offset, _ := NewCircle(vec2.V{X: 2, Y: 0}, 1)
	if offset.Inertia(1) <= centered.Inertia(1) {
		t.Error("off-center circle should have greater inertia by parallel axis theorem")
	}
}

func TestPolygonNormalsPointOutward(t *testing.T) {
	box, _ := NewBox(1, 1)
	trans := vec2.NewTransform(vec2.Zero, 0)
	box.Update(trans)
	verts := box.WorldVertices()
	normals := box.WorldNormals()
	for i, n := range normals {
		v := verts[i]
		// For a box centered at the origin, the outward normal of an edge
		// should point roughly the same direction as the edge's midpoint.
		mid := vec2.Scale(vec2.Add(verts[i], verts[(i+1)%len(verts)]), 0.5)
		if vec2.Dot(n, mid) <= 0 {
			t.Errorf("normal %v at edge %d does not point outward from %v", n, i, v)
		}
	}
}
