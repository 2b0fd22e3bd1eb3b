package matterslice

// Segment is a line segment between two integer points.
type Segment struct {
	// The segment's start point.
	P0 IntPoint
	// The segment's end point.
	P1 IntPoint
}

// Length returns the length of the segment.
func (s Segment) Length() int64 {
	return s.P1.Sub(s.P0).Length()
}

// Midpoint returns the segment's midpoint, truncated towards zero.
func (s Segment) Midpoint() IntPoint {
	return s.P0.Midpoint(s.P1)
}

// CrossesProperly reports whether s and o cross at a single point that is
// interior to both segments. Touching at an endpoint and collinear overlap do
// not count.
func (s Segment) CrossesProperly(o Segment) bool {
	d1 := orientation(o.P0, o.P1, s.P0)
	d2 := orientation(o.P0, o.P1, s.P1)
	d3 := orientation(s.P0, s.P1, o.P0)
	d4 := orientation(s.P0, s.P1, o.P1)
	return sign(d1)*sign(d2) < 0 && sign(d3)*sign(d4) < 0
}

// Intersects reports whether s and o share at least one point.
func (s Segment) Intersects(o Segment) bool {
	if s.CrossesProperly(o) {
		return true
	}
	return onSegment(o, s.P0) || onSegment(o, s.P1) ||
		onSegment(s, o.P0) || onSegment(s, o.P1)
}

// orientation returns the cross product (b−a)×(c−a): positive if c lies to the
// left of the directed line a→b, negative if to the right and 0 if collinear.
func orientation(a, b, c IntPoint) int64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func onSegment(s Segment, pt IntPoint) bool {
	if orientation(s.P0, s.P1, pt) != 0 {
		return false
	}
	return min(s.P0.X, s.P1.X) <= pt.X && pt.X <= max(s.P0.X, s.P1.X) &&
		min(s.P0.Y, s.P1.Y) <= pt.Y && pt.Y <= max(s.P0.Y, s.P1.Y)
}

func sign(v int64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
