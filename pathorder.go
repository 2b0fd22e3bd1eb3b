package matterslice

import (
	"math"
	"sort"
)

// turnTolerance is how close, in radians, two turns must be to be considered
// equally sharp when choosing a seam.
const turnTolerance = 1e-4

// PathOrderOptimizer chooses the order in which a set of polygons is printed
// and the vertex at which each one starts.
//
// Use [PathOrderOptimizer.Optimize] after adding polygons; the results are in
// BestIslandOrder and StartIndexInPolygon.
type PathOrderOptimizer struct {
	startPosition IntPoint
	polygons      []Polygon

	// BestIslandOrder is a permutation of polygon indices in printing order.
	BestIslandOrder []int
	// StartIndexInPolygon holds, for each polygon index, the vertex to start
	// printing at.
	StartIndexInPolygon []int
}

// NewPathOrderOptimizer returns an optimizer that starts at startPosition.
func NewPathOrderOptimizer(startPosition IntPoint) *PathOrderOptimizer {
	return &PathOrderOptimizer{startPosition: startPosition}
}

func (o *PathOrderOptimizer) AddPolygon(p Polygon) {
	o.polygons = append(o.polygons, p)
}

func (o *PathOrderOptimizer) AddPolygons(ps Polygons) {
	o.polygons = append(o.polygons, ps...)
}

// Optimize computes the printing order. Closed loop features start at the
// vertex chosen by [BestEdgeIndex]; open paths start at whichever end is
// nearer. Polygons are then visited nearest first. If pf is not nil, polygons
// whose start can be reached without leaving pf's boundary are preferred.
func (o *PathOrderOptimizer) Optimize(pf PathFinder, layerIndex int, config *GCodePathConfig) {
	closed := config != nil && config.ClosedLoop
	n := len(o.polygons)
	o.StartIndexInPolygon = make([]int, n)
	o.BestIslandOrder = make([]int, 0, n)

	seams := make([]int, n)
	if closed {
		for i, p := range o.polygons {
			seams[i] = BestEdgeIndex(p)
		}
	}

	visited := make([]bool, n)
	current := o.startPosition
	type candidate struct {
		index  int
		start  int
		distSq int64
	}
	candidates := make([]candidate, 0, n)
	for len(o.BestIslandOrder) < n {
		candidates = candidates[:0]
		for i, p := range o.polygons {
			if visited[i] {
				continue
			}
			if len(p) == 0 {
				candidates = append(candidates, candidate{index: i, distSq: math.MaxInt64})
				continue
			}
			start := seams[i]
			if !closed {
				start = nearerEnd(p, current)
			}
			candidates = append(candidates, candidate{
				index:  i,
				start:  start,
				distSq: p[start].Sub(current).LengthSquared(),
			})
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].distSq < candidates[b].distSq
		})

		best := candidates[0]
		if pf != nil {
			for _, c := range candidates {
				if len(o.polygons[c.index]) == 0 {
					continue
				}
				if _, ok := pf.CreatePathInsideBoundary(current, o.polygons[c.index][c.start], true, layerIndex); ok {
					best = c
					break
				}
			}
		}

		visited[best.index] = true
		o.BestIslandOrder = append(o.BestIslandOrder, best.index)
		o.StartIndexInPolygon[best.index] = best.start
		if p := o.polygons[best.index]; len(p) > 0 {
			current = endPoint(p, best.start, closed)
		}
	}
}

// nearerEnd returns 0 or the last index of p, whichever point is closer to pt.
func nearerEnd(p Polygon, pt IntPoint) int {
	last := len(p) - 1
	if p[last].Sub(pt).LengthSquared() < p[0].Sub(pt).LengthSquared() {
		return last
	}
	return 0
}

// endPoint returns where printing p from start finishes.
func endPoint(p Polygon, start int, closed bool) IntPoint {
	switch {
	case closed:
		return p[start]
	case start == 0:
		return p[len(p)-1]
	default:
		return p[(start+1)%len(p)]
	}
}

// TurnAmount returns the change of heading, in radians, when going from prev
// through cur to next. The result is in (−π, π] and is positive for left
// (counter-clockwise) turns. It is 0 if any two points coincide or the points
// are collinear.
func TurnAmount(prev, cur, next IntPoint) float64 {
	if prev.Equal(cur) || cur.Equal(next) || prev.Equal(next) {
		return 0
	}
	in := cur.Sub(prev)
	out := next.Sub(cur)
	cross := in.Cross(out)
	if cross == 0 {
		return 0
	}
	return math.Atan2(float64(cross), float64(in.Dot(out)))
}

// BestEdgeIndex returns the vertex of the closed polygon p at which a seam is
// least visible.
//
// Right turns are notches on a counter-clockwise outline, so the sharpest
// right turn is preferred. If there are no right turns every vertex is a
// candidate. Among equally good candidates the lowest, then leftmost, vertex
// wins. Polygons with fewer than three points, and polygons without any turn,
// start at 0.
func BestEdgeIndex(p Polygon) int {
	if len(p) < 3 {
		return 0
	}

	n := len(p)
	turns := make([]float64, n)
	sharpest := 0.0
	anyTurn := false
	for i := range p {
		turns[i] = TurnAmount(p[(i+n-1)%n], p[i], p[(i+1)%n])
		if turns[i] != 0 {
			anyTurn = true
		}
		sharpest = min(sharpest, turns[i])
	}
	if !anyTurn {
		return 0
	}

	best := -1
	for i, turn := range turns {
		if sharpest < 0 && turn > sharpest+turnTolerance {
			continue
		}
		if best == -1 || lowerLeft(p[i], p[best]) {
			best = i
		}
	}
	return best
}

// lowerLeft reports whether a sorts before b by Y, then by X.
func lowerLeft(a, b IntPoint) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
