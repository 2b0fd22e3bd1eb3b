package matterslice

import (
	"fmt"
	"math"
)

// IntPoint is a position in integer microns. Z is the layer height the point
// was queued at and Width is a per-point line width override, with 0 meaning
// the owning path's default.
type IntPoint struct {
	X     int64
	Y     int64
	Z     int64
	Width int64
}

// Pt returns the point (x, y).
func Pt(x, y int64) IntPoint {
	return IntPoint{X: x, Y: y}
}

// Pt3 returns the point (x, y, z).
func Pt3(x, y, z int64) IntPoint {
	return IntPoint{X: x, Y: y, Z: z}
}

func (pt IntPoint) Splat() (int64, int64) {
	return pt.X, pt.Y
}

func (pt IntPoint) String() string {
	if pt.Z != 0 {
		return fmt.Sprintf("(%d, %d, %d)", pt.X, pt.Y, pt.Z)
	}
	return fmt.Sprintf("(%d, %d)", pt.X, pt.Y)
}

// WithZ returns pt at height z.
func (pt IntPoint) WithZ(z int64) IntPoint {
	pt.Z = z
	return pt
}

// WithWidth returns pt with its line width override set to w.
func (pt IntPoint) WithWidth(w int64) IntPoint {
	pt.Width = w
	return pt
}

// XY returns pt with Z and Width cleared.
func (pt IntPoint) XY() IntPoint {
	return IntPoint{X: pt.X, Y: pt.Y}
}

// Equal reports whether pt and o are at the same XY position.
func (pt IntPoint) Equal(o IntPoint) bool {
	return pt.X == o.X && pt.Y == o.Y
}

// Add computes pt+o in the XY plane.
func (pt IntPoint) Add(o IntPoint) IntPoint {
	return IntPoint{
		X: pt.X + o.X,
		Y: pt.Y + o.Y,
	}
}

// Sub computes pt−o in the XY plane.
func (pt IntPoint) Sub(o IntPoint) IntPoint {
	return IntPoint{
		X: pt.X - o.X,
		Y: pt.Y - o.Y,
	}
}

func (pt IntPoint) Mul(f int64) IntPoint {
	return IntPoint{
		X: pt.X * f,
		Y: pt.Y * f,
	}
}

// Div divides both components by f, truncating towards zero.
func (pt IntPoint) Div(f int64) IntPoint {
	return IntPoint{
		X: pt.X / f,
		Y: pt.Y / f,
	}
}

// Negate returns a new point with the signs of x and y flipped.
func (pt IntPoint) Negate() IntPoint {
	return IntPoint{
		X: -pt.X,
		Y: -pt.Y,
	}
}

// Dot returns the dot product of pt and o.
func (pt IntPoint) Dot(o IntPoint) int64 {
	return pt.X*o.X + pt.Y*o.Y
}

// Cross returns the z component of the cross product of pt and o.
func (pt IntPoint) Cross(o IntPoint) int64 {
	return pt.X*o.Y - pt.Y*o.X
}

// LengthSquared returns the squared magnitude of the vector.
//
// This function is exact, unlike squaring the result of [IntPoint.Length].
func (pt IntPoint) LengthSquared() int64 {
	return pt.Dot(pt)
}

// Length returns the magnitude of the vector, rounded to the nearest micron.
func (pt IntPoint) Length() int64 {
	return int64(math.Round(math.Hypot(float64(pt.X), float64(pt.Y))))
}

// LengthMm returns the magnitude of the vector in millimeters.
func (pt IntPoint) LengthMm() float64 {
	fx := float64(pt.X) / 1000.0
	fy := float64(pt.Y) / 1000.0
	return math.Sqrt(fx*fx + fy*fy)
}

// ShorterThen reports whether the vector's magnitude is at most l.
//
// Vectors with a component larger than l are rejected without computing the
// squared length.
func (pt IntPoint) ShorterThen(l int64) bool {
	if pt.X > l || pt.X < -l {
		return false
	}
	if pt.Y > l || pt.Y < -l {
		return false
	}
	return pt.LengthSquared() <= l*l
}

// LongerThen reports whether the vector's magnitude exceeds l.
func (pt IntPoint) LongerThen(l int64) bool {
	return !pt.ShorterThen(l)
}

// Lerp linearly interpolates between two points. The result is rounded to the
// nearest micron.
func (pt IntPoint) Lerp(o IntPoint, t float64) IntPoint {
	return IntPoint{
		X: pt.X + int64(math.Round(float64(o.X-pt.X)*t)),
		Y: pt.Y + int64(math.Round(float64(o.Y-pt.Y)*t)),
	}
}

// Midpoint returns the midpoint of two points, truncated towards zero.
func (pt IntPoint) Midpoint(o IntPoint) IntPoint {
	return pt.Add(o).Div(2)
}
