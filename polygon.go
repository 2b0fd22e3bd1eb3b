package matterslice

import (
	"strconv"
	"strings"

	"github.com/jbeda/geom"
)

// Polygon is an ordered sequence of points. Whether it is a closed loop or an
// open polyline is decided by the config it is queued with, not by the
// polygon.
type Polygon []IntPoint

// Polygons is a set of polygons, typically an outline followed by its holes.
type Polygons []Polygon

// Clone returns a copy of p that shares no storage with it.
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// Reverse returns a copy of p with its points in reverse order.
func (p Polygon) Reverse() Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[len(p)-1-i] = pt
	}
	return out
}

// PolygonLength returns the summed length of p's segments. If closed is true,
// the segment from the last point back to the first is included.
func (p Polygon) PolygonLength(closed bool) int64 {
	if len(p) < 2 {
		return 0
	}
	var length int64
	prev := p[0]
	if closed {
		prev = p[len(p)-1]
	} else {
		p = p[1:]
	}
	for _, pt := range p {
		length += pt.Sub(prev).Length()
		prev = pt
	}
	return length
}

// TrimEnd returns a copy of the open polyline p with distance microns of
// length removed from its end. The new last point lies on the segment that
// was cut. Trimming by more than the polyline's length leaves only the first
// point.
func (p Polygon) TrimEnd(distance int64) Polygon {
	out := p.Clone()
	for distance > 0 && len(out) > 1 {
		last := out[len(out)-1]
		prev := out[len(out)-2]
		segLength := last.Sub(prev).Length()
		if segLength > distance {
			cut := last.Lerp(prev, float64(distance)/float64(segLength))
			cut.Z = last.Z
			cut.Width = last.Width
			out[len(out)-1] = cut
			break
		}
		distance -= segLength
		out = out[:len(out)-1]
	}
	return out
}

// CutToLength returns the leading part of the open polyline p that is
// distance microns long. The last point is interpolated on the segment where
// the length runs out. If p is shorter than distance, a copy of p is returned.
func (p Polygon) CutToLength(distance int64) Polygon {
	if len(p) == 0 {
		return nil
	}
	out := Polygon{p[0]}
	remaining := distance
	for i := 1; i < len(p); i++ {
		segLength := p[i].Sub(p[i-1]).Length()
		if segLength >= remaining {
			if segLength > 0 && remaining > 0 {
				cut := p[i-1].Lerp(p[i], float64(remaining)/float64(segLength))
				cut.Z = p[i].Z
				cut.Width = p[i].Width
				out = append(out, cut)
			}
			return out
		}
		out = append(out, p[i])
		remaining -= segLength
	}
	return out
}

// SignedArea returns the area enclosed by p. It is positive for
// counter-clockwise polygons in a y-up coordinate system.
func (p Polygon) SignedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	var twice int64
	prev := p[len(p)-1]
	for _, pt := range p {
		twice += prev.Cross(pt)
		prev = pt
	}
	return float64(twice) / 2
}

// Winding returns the winding number of p around pt. Points on an edge have an
// unspecified winding number.
func (p Polygon) Winding(pt IntPoint) int {
	if len(p) < 3 {
		return 0
	}
	winding := 0
	prev := p[len(p)-1]
	for _, cur := range p {
		if prev.Y <= pt.Y {
			if cur.Y > pt.Y && orientation(prev, cur, pt) > 0 {
				winding++
			}
		} else if cur.Y <= pt.Y && orientation(prev, cur, pt) < 0 {
			winding--
		}
		prev = cur
	}
	return winding
}

// Inside reports whether pt has a nonzero winding number with respect to p.
func (p Polygon) Inside(pt IntPoint) bool {
	return p.Winding(pt) != 0
}

// Bounds returns the bounding box of p. The bounding box of an empty polygon
// is the zero rectangle.
func (p Polygon) Bounds() geom.Rect {
	if len(p) == 0 {
		return geom.Rect{}
	}
	c := toCoord(p[0])
	r := geom.Rect{Min: c, Max: c}
	for _, pt := range p[1:] {
		r.ExpandToContainCoord(toCoord(pt))
	}
	return r
}

// Bounds returns the bounding box of all polygons in ps.
func (ps Polygons) Bounds() geom.Rect {
	var r geom.Rect
	first := true
	for _, p := range ps {
		if len(p) == 0 {
			continue
		}
		if first {
			r = p.Bounds()
			first = false
			continue
		}
		r.ExpandToContainRect(p.Bounds())
	}
	return r
}

// PointIsInside reports whether pt is inside ps under the even-odd rule, so
// that polygons nested in an outline act as holes. Points on an edge of any
// polygon count as inside.
func (ps Polygons) PointIsInside(pt IntPoint) bool {
	if ps.OnEdge(pt) {
		return true
	}
	inside := false
	for _, p := range ps {
		if p.Inside(pt) {
			inside = !inside
		}
	}
	return inside
}

// OnEdge reports whether pt lies on an edge of one of the polygons in ps.
func (ps Polygons) OnEdge(pt IntPoint) bool {
	pt = pt.XY()
	for _, p := range ps {
		if len(p) < 2 {
			continue
		}
		prev := p[len(p)-1]
		for _, cur := range p {
			if onSegment(Segment{P0: prev.XY(), P1: cur.XY()}, pt) {
				return true
			}
			prev = cur
		}
	}
	return false
}

// Clone returns a deep copy of ps.
func (ps Polygons) Clone() Polygons {
	if ps == nil {
		return nil
	}
	out := make(Polygons, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

// String formats ps as "x,y,x,y,...|x,y,..." with one group per polygon.
func (ps Polygons) String() string {
	var sb strings.Builder
	for i, p := range ps {
		if i > 0 {
			sb.WriteByte('|')
		}
		for j, pt := range p {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatInt(pt.X, 10))
			sb.WriteByte(',')
			sb.WriteString(strconv.FormatInt(pt.Y, 10))
		}
	}
	return sb.String()
}

func toCoord(pt IntPoint) geom.Coord {
	return geom.Coord{X: float64(pt.X), Y: float64(pt.Y)}
}
