package matterslice

import (
	"testing"

	"github.com/jbeda/geom"
)

func TestPolygonLength(t *testing.T) {
	p := square(0, 0, 1000)
	if got := p.PolygonLength(false); got != 3000 {
		t.Errorf("got open length %d, want 3000", got)
	}
	if got := p.PolygonLength(true); got != 4000 {
		t.Errorf("got closed length %d, want 4000", got)
	}
	if got := (Polygon{Pt(1, 1)}).PolygonLength(true); got != 0 {
		t.Errorf("got length %d for a single point, want 0", got)
	}
}

func TestPolygonTrimEnd(t *testing.T) {
	p := Polygon{Pt(0, 0), Pt(1000, 0), Pt(1000, 1000)}
	diff(t, Polygon{Pt(0, 0), Pt(1000, 0), Pt(1000, 700)}, p.TrimEnd(300))
	diff(t, Polygon{Pt(0, 0), Pt(1000, 0)}, p.TrimEnd(1000))
	diff(t, Polygon{Pt(0, 0), Pt(500, 0)}, p.TrimEnd(1500))
	diff(t, Polygon{Pt(0, 0)}, p.TrimEnd(5000))
	diff(t, p, p.TrimEnd(0))

	// the input is not modified
	diff(t, Polygon{Pt(0, 0), Pt(1000, 0), Pt(1000, 1000)}, p)
}

func TestPolygonTrimEndKeepsZ(t *testing.T) {
	p := Polygon{Pt3(0, 0, 200), Pt3(1000, 0, 200)}
	diff(t, Polygon{Pt3(0, 0, 200), Pt3(600, 0, 200)}, p.TrimEnd(400))
}

func TestPolygonCutToLength(t *testing.T) {
	p := Polygon{Pt(0, 0), Pt(1000, 0), Pt(1000, 1000)}
	diff(t, Polygon{Pt(0, 0), Pt(400, 0)}, p.CutToLength(400))
	diff(t, Polygon{Pt(0, 0), Pt(1000, 0)}, p.CutToLength(1000))
	diff(t, Polygon{Pt(0, 0), Pt(1000, 0), Pt(1000, 250)}, p.CutToLength(1250))
	diff(t, p, p.CutToLength(10000))
	diff(t, Polygon(nil), Polygon(nil).CutToLength(10))
}

func TestPolygonSignedArea(t *testing.T) {
	p := square(0, 0, 10)
	if got := p.SignedArea(); got != 100 {
		t.Errorf("got area %v, want 100", got)
	}
	if got := p.Reverse().SignedArea(); got != -100 {
		t.Errorf("got area %v, want -100", got)
	}
}

func TestPolygonWinding(t *testing.T) {
	p := square(0, 0, 10)
	if got := p.Winding(Pt(5, 5)); got != 1 {
		t.Errorf("got winding %d, want 1", got)
	}
	if got := p.Reverse().Winding(Pt(5, 5)); got != -1 {
		t.Errorf("got winding %d, want -1", got)
	}
	if p.Inside(Pt(15, 5)) {
		t.Error("point outside the square reported inside")
	}
}

func TestPolygonsPointIsInside(t *testing.T) {
	outline := Polygons{square(0, 0, 100), square(25, 25, 50).Reverse()}
	tests := []struct {
		pt     IntPoint
		inside bool
	}{
		{Pt(10, 10), true},
		{Pt(50, 50), false},
		{Pt(90, 50), true},
		{Pt(150, 50), false},
		// edges of the outline and of the hole
		{Pt(50, 0), true},
		{Pt(100, 50), true},
		{Pt(50, 100), true},
		{Pt(0, 50), true},
		{Pt(100, 100), true},
		{Pt(50, 25), true},
		{Pt(75, 50), true},
	}
	for _, tt := range tests {
		if got := outline.PointIsInside(tt.pt); got != tt.inside {
			t.Errorf("PointIsInside(%v) = %t, want %t", tt.pt, got, tt.inside)
		}
	}
}

func TestPolygonsOnEdge(t *testing.T) {
	ps := Polygons{nil, {Pt(0, 0)}, {Pt(0, 0), Pt(100, 0), Pt(0, 100)}}
	tests := []struct {
		pt     IntPoint
		onEdge bool
	}{
		{Pt(50, 0), true},
		{Pt(50, 50), true},
		{Pt3(0, 30, 200), true},
		{Pt(10, 10), false},
		{Pt(150, 0), false},
	}
	for _, tt := range tests {
		if got := ps.OnEdge(tt.pt); got != tt.onEdge {
			t.Errorf("OnEdge(%v) = %t, want %t", tt.pt, got, tt.onEdge)
		}
	}
}

func TestPolygonBounds(t *testing.T) {
	p := Polygon{Pt(5, -3), Pt(-2, 7), Pt(4, 4)}
	diff(t, geom.Rect{Min: geom.Coord{X: -2, Y: -3}, Max: geom.Coord{X: 5, Y: 7}}, p.Bounds())

	ps := Polygons{nil, square(0, 0, 10), square(20, 30, 5)}
	diff(t, geom.Rect{Min: geom.Coord{X: 0, Y: 0}, Max: geom.Coord{X: 25, Y: 35}}, ps.Bounds())
}

func TestPolygonsString(t *testing.T) {
	ps := Polygons{{Pt(1, 2), Pt(3, 4)}, {Pt(-5, 6)}}
	diff(t, "1,2,3,4|-5,6", ps.String())
}

func TestPolygonsClone(t *testing.T) {
	ps := Polygons{square(0, 0, 10)}
	c := ps.Clone()
	c[0][0] = Pt(99, 99)
	diff(t, Pt(0, 0), ps[0][0])
}
