package matterslice

import (
	"math"
	"testing"
)

func TestTurnAmount(t *testing.T) {
	tests := []struct {
		name            string
		prev, cur, next IntPoint
		want            float64
	}{
		{"coincident", Pt(10, 0), Pt(0, 0), Pt(0, 0), 0},
		{"straight", Pt(10, 0), Pt(0, 0), Pt(-10, 0), 0},
		{"left 90", Pt(0, 0), Pt(10, 0), Pt(10, 10), math.Pi / 2},
		{"left 90 rotated", Pt(0, 10), Pt(0, 0), Pt(10, 0), math.Pi / 2},
		{"right 90", Pt(0, 0), Pt(10, 0), Pt(10, -10), -math.Pi / 2},
		{"left 45", Pt(0, 0), Pt(10, 0), Pt(15, 5), math.Pi / 4},
		{"left 45 mirrored", Pt(0, 0), Pt(-10, 0), Pt(-15, -5), math.Pi / 4},
		{"right 45", Pt(0, 0), Pt(10, 0), Pt(15, -5), -math.Pi / 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TurnAmount(tt.prev, tt.cur, tt.next)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTurnAmountExactZero(t *testing.T) {
	if got := TurnAmount(Pt(10, 0), Pt(0, 0), Pt(0, 0)); got != 0 {
		t.Errorf("coincident points: got %v, want exactly 0", got)
	}
	if got := TurnAmount(Pt(10, 0), Pt(0, 0), Pt(-10, 0)); got != 0 {
		t.Errorf("collinear points: got %v, want exactly 0", got)
	}
}

func TestTurnAmountScaleInvariant(t *testing.T) {
	a := TurnAmount(Pt(0, 0), Pt(10, 0), Pt(15, 5))
	b := TurnAmount(Pt(1000, 1000), Pt(2000, 1000), Pt(2500, 1500))
	if math.Abs(a-b) > 1e-12 {
		t.Errorf("got %v after translating and scaling, want %v", b, a)
	}
}

func TestBestEdgeIndex(t *testing.T) {
	tests := []struct {
		name string
		p    Polygon
		want int
	}{
		{"ccw notch", Polygon{Pt(0, 0), Pt(100, 0), Pt(70, 50), Pt(100, 100), Pt(0, 100)}, 2},
		{"ccw trapezoid", Polygon{Pt(0, 0), Pt(100, 0), Pt(100, 10), Pt(0, 100)}, 0},
		{"ccw rectangle", Polygon{Pt(100, 100), Pt(0, 100), Pt(0, 0), Pt(100, 0)}, 2},
		{"cw rectangle", Polygon{Pt(0, 0), Pt(0, 100), Pt(100, 100), Pt(100, 0)}, 0},
		{"ccw notch large", Polygon{Pt(0, 0), Pt(1000, 0), Pt(900, 500), Pt(1000, 1000), Pt(0, 1000)}, 2},
		{"ccw notch first", Polygon{Pt(90, 50), Pt(100, 100), Pt(0, 100), Pt(0, 0), Pt(100, 0)}, 0},
		{"cw notch", Polygon{Pt(0, 0), Pt(0, 100), Pt(100, 100), Pt(90, 50), Pt(100, 0)}, 4},
		{"cw notch rotated", Polygon{Pt(100, 0), Pt(0, 0), Pt(0, 100), Pt(100, 100), Pt(90, 50)}, 0},
		{"two points", Polygon{Pt(0, 0), Pt(10, 0)}, 0},
		{"degenerate", Polygon{Pt(0, 0), Pt(10, 0), Pt(20, 0)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BestEdgeIndex(tt.p); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBestEdgeIndexScale(t *testing.T) {
	large := Polygon{Pt(0, 0), Pt(1000, 0), Pt(900, 500), Pt(1000, 1000), Pt(0, 1000)}
	small := make(Polygon, len(large))
	for i, pt := range large {
		small[i] = pt.Div(10)
	}
	if a, b := BestEdgeIndex(large), BestEdgeIndex(small); a != b {
		t.Errorf("got %d at 1/10 scale, want %d", b, a)
	}
}

func TestOptimizeClosedLoops(t *testing.T) {
	config := NewPathConfig("wall", CommentWallOuter, 30, 400, ClosedLoop())
	opt := NewPathOrderOptimizer(Pt(0, 0))
	opt.AddPolygon(square(5000, 0, 500))
	opt.AddPolygon(square(1000, 0, 500))
	opt.AddPolygon(square(10000, 0, 500))
	opt.Optimize(nil, 0, config)

	diff(t, []int{1, 0, 2}, opt.BestIslandOrder)
	diff(t, []int{0, 0, 0}, opt.StartIndexInPolygon)
}

func TestOptimizeOpenPaths(t *testing.T) {
	config := NewPathConfig("infill", CommentFill, 50, 400)
	opt := NewPathOrderOptimizer(Pt(0, 0))
	opt.AddPolygons(Polygons{
		{Pt(1000, 0), Pt(2000, 0)},
		{Pt(5000, 0), Pt(3000, 0)},
	})
	opt.Optimize(nil, 0, config)

	diff(t, []int{0, 1}, opt.BestIslandOrder)
	// the second line is nearer at its last point and is walked backwards
	diff(t, []int{0, 1}, opt.StartIndexInPolygon)
}

func TestOptimizeEmptyPolygon(t *testing.T) {
	config := NewPathConfig("infill", CommentFill, 50, 400)
	opt := NewPathOrderOptimizer(Pt(0, 0))
	opt.AddPolygons(Polygons{nil, {Pt(10, 0), Pt(20, 0)}})
	opt.Optimize(nil, 0, config)

	diff(t, []int{1, 0}, opt.BestIslandOrder)
}

// funcPathFinder is a PathFinder backed by a function.
type funcPathFinder struct {
	route    func(from, to IntPoint) (Polygon, bool)
	boundary Polygons
}

func (f funcPathFinder) CreatePathInsideBoundary(from, to IntPoint, stayInside bool, layerIndex int) (Polygon, bool) {
	return f.route(from, to)
}

func (f funcPathFinder) Boundary() Polygons { return f.boundary }

func TestOptimizePrefersReachable(t *testing.T) {
	config := NewPathConfig("wall", CommentWallOuter, 30, 400, ClosedLoop())
	pf := funcPathFinder{route: func(from, to IntPoint) (Polygon, bool) {
		// the nearest island is behind a wall
		return nil, to != Pt(1000, 0)
	}}
	opt := NewPathOrderOptimizer(Pt(0, 0))
	opt.AddPolygon(square(1000, 0, 500))
	opt.AddPolygon(square(5000, 0, 500))
	opt.Optimize(pf, 0, config)

	diff(t, []int{1, 0}, opt.BestIslandOrder)
}

func TestOptimizeFallsBackToNearest(t *testing.T) {
	config := NewPathConfig("wall", CommentWallOuter, 30, 400, ClosedLoop())
	pf := funcPathFinder{route: func(from, to IntPoint) (Polygon, bool) {
		return nil, false
	}}
	opt := NewPathOrderOptimizer(Pt(0, 0))
	opt.AddPolygon(square(5000, 0, 500))
	opt.AddPolygon(square(1000, 0, 500))
	opt.Optimize(pf, 0, config)

	diff(t, []int{1, 0}, opt.BestIslandOrder)
}
