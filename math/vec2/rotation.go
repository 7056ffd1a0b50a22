// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package vec2

import "math"

// Rotation caches the sine and cosine of an angle so that repeated
// rotations of many points (e.g. a polygon's vertices) don't keep
// calling math.Sin/math.Cos.
type Rotation struct {
	Sin float64
	Cos float64
}

// NewRotation returns the Rotation for the given angle, in radians.
func NewRotation(angle float64) Rotation {
	return Rotation{Sin: math.Sin(angle), Cos: math.Cos(angle)}
}

// Apply rotates v by the cached angle, counter-clockwise.
func (r Rotation) Apply(v V) V {
	return V{v.X*r.Cos - v.Y*r.Sin, v.X*r.Sin + v.Y*r.Cos}
}

// Transform is a rigid 2D placement: a translation (Position) and a
// rotation (Angle, radians), plus the cached sine/cosine of Angle.
type Transform struct {
	Position V
	Angle    float64
	Rot      Rotation
}

// NewTransform returns a Transform at the given position and angle.
func NewTransform(position V, angle float64) Transform {
	return Transform{Position: position, Angle: angle, Rot: NewRotation(angle)}
}

// Apply maps local point p into world space using this transform:
// rotate then translate.
func (t Transform) Apply(p V) V {
	return Add(t.Rot.Apply(p), t.Position)
}

// ApplyVector rotates direction v into world space without translating it.
func (t Transform) ApplyVector(v V) V {
	return t.Rot.Apply(v)
}

// Nang (normalize angle) ensures a rotation angle in radians is within
// the range [-Pi, Pi].
func Nang(radians float64) float64 {
	radians = math.Mod(radians, Pix2)
	switch {
	case radians < -Pi:
		return radians + Pix2
	case radians > Pi:
		return radians - Pix2
	}
	return radians
}
