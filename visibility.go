package matterslice

import (
	"container/heap"
	"math"

	"github.com/jbeda/geom"
)

// DefaultBoundaryInset is how far routing waypoints are pulled inside the
// boundary's corners, in microns.
const DefaultBoundaryInset = 200

// VisibilityPathFinder routes moves through a visibility graph built on the
// corners of a boundary. The boundary is interpreted with the even-odd rule,
// so an outline followed by its holes works as expected.
type VisibilityPathFinder struct {
	boundary Polygons
	bounds   geom.Rect
	edges    []Segment
	vertices []IntPoint
	// waypoints are the boundary corners pulled inside by the inset.
	waypoints []IntPoint
}

var _ PathFinder = (*VisibilityPathFinder)(nil)

// NewVisibilityPathFinder returns a pathfinder for boundary. insetUM controls
// how far waypoints sit from the boundary's corners; values <= 0 select
// [DefaultBoundaryInset].
func NewVisibilityPathFinder(boundary Polygons, insetUM int64) *VisibilityPathFinder {
	if insetUM <= 0 {
		insetUM = DefaultBoundaryInset
	}
	pf := &VisibilityPathFinder{
		boundary: boundary.Clone(),
		bounds:   boundary.Bounds(),
	}
	for _, p := range pf.boundary {
		if len(p) < 2 {
			continue
		}
		prev := p[len(p)-1]
		for _, pt := range p {
			pf.edges = append(pf.edges, Segment{P0: prev.XY(), P1: pt.XY()})
			pf.vertices = append(pf.vertices, pt.XY())
			prev = pt
		}
	}
	for _, p := range pf.boundary {
		if len(p) < 3 {
			continue
		}
		for i := range p {
			prev := p[(i+len(p)-1)%len(p)]
			next := p[(i+1)%len(p)]
			if wp, ok := pf.insetCorner(prev, p[i], next, insetUM); ok {
				pf.waypoints = append(pf.waypoints, wp)
			}
		}
	}
	return pf
}

// Boundary implements PathFinder.
func (pf *VisibilityPathFinder) Boundary() Polygons {
	return pf.boundary
}

// CreatePathInsideBoundary implements PathFinder.
func (pf *VisibilityPathFinder) CreatePathInsideBoundary(from, to IntPoint, stayInside bool, layerIndex int) (Polygon, bool) {
	from, to = from.XY(), to.XY()
	if from == to {
		return nil, true
	}
	if stayInside {
		if !pf.inBounds(from) || !pf.inBounds(to) {
			return nil, false
		}
		if !pf.boundary.PointIsInside(from) || !pf.boundary.PointIsInside(to) {
			return nil, false
		}
	}
	if pf.Visible(from, to) {
		return nil, true
	}
	return pf.shortestRoute(from, to)
}

// Visible reports whether the straight move from a to b stays inside the
// boundary. Moves that graze a boundary corner count as leaving it.
func (pf *VisibilityPathFinder) Visible(a, b IntPoint) bool {
	s := Segment{P0: a, P1: b}
	for _, e := range pf.edges {
		if s.CrossesProperly(e) {
			return false
		}
	}
	for _, v := range pf.vertices {
		if v != a && v != b && onSegment(s, v) {
			return false
		}
	}
	return pf.boundary.PointIsInside(s.Midpoint())
}

func (pf *VisibilityPathFinder) inBounds(pt IntPoint) bool {
	c := toCoord(pt)
	return pf.bounds.ContainsRect(geom.Rect{Min: c, Max: c})
}

// insetCorner moves cur along the bisector of its corner by inset microns, to
// whichever side is inside the boundary.
func (pf *VisibilityPathFinder) insetCorner(prev, cur, next IntPoint, inset int64) (IntPoint, bool) {
	ux, uy := unit(prev.Sub(cur))
	vx, vy := unit(next.Sub(cur))
	bx, by := ux+vx, uy+vy
	if bl := math.Hypot(bx, by); bl > 1e-9 {
		bx, by = bx/bl, by/bl
	} else {
		// straight through; use the edge normal
		bx, by = -vy, vx
	}
	for _, s := range [2]float64{1, -1} {
		wp := IntPoint{
			X: cur.X + int64(math.Round(s*bx*float64(inset))),
			Y: cur.Y + int64(math.Round(s*by*float64(inset))),
		}
		if pf.boundary.PointIsInside(wp) {
			return wp, true
		}
	}
	return IntPoint{}, false
}

func unit(pt IntPoint) (float64, float64) {
	x, y := float64(pt.X), float64(pt.Y)
	l := math.Hypot(x, y)
	if l == 0 {
		return 0, 0
	}
	return x / l, y / l
}

// routeNode is a state in the shortest route search.
type routeNode struct {
	vertex int
	dist   float64
	index  int // index in the heap
}

// routeQueue is a priority queue of route nodes ordered by distance, then by
// vertex so that equal-length routes are chosen deterministically.
type routeQueue []*routeNode

func (q routeQueue) Len() int { return len(q) }
func (q routeQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].vertex < q[j].vertex
}
func (q routeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *routeQueue) Push(x any) {
	n := x.(*routeNode)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *routeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*q = old[:len(old)-1]
	return n
}

// shortestRoute runs Dijkstra over the visibility graph of from, to and the
// waypoints. Vertex 0 is from and vertex 1 is to.
func (pf *VisibilityPathFinder) shortestRoute(from, to IntPoint) (Polygon, bool) {
	verts := make([]IntPoint, 0, len(pf.waypoints)+2)
	verts = append(verts, from, to)
	verts = append(verts, pf.waypoints...)

	dist := make([]float64, len(verts))
	parent := make([]int, len(verts))
	done := make([]bool, len(verts))
	for i := range dist {
		dist[i] = math.Inf(1)
		parent[i] = -1
	}
	dist[0] = 0

	q := &routeQueue{}
	heap.Push(q, &routeNode{vertex: 0})
	for q.Len() > 0 {
		n := heap.Pop(q).(*routeNode)
		if done[n.vertex] {
			continue
		}
		done[n.vertex] = true
		if n.vertex == 1 {
			break
		}
		for next := range verts {
			if done[next] || next == n.vertex {
				continue
			}
			if !pf.Visible(verts[n.vertex], verts[next]) {
				continue
			}
			d := n.dist + float64(verts[next].Sub(verts[n.vertex]).Length())
			if d < dist[next] {
				dist[next] = d
				parent[next] = n.vertex
				heap.Push(q, &routeNode{vertex: next, dist: d})
			}
		}
	}
	if !done[1] {
		return nil, false
	}

	var route Polygon
	for v := parent[1]; v > 0; v = parent[v] {
		route = append(route, verts[v])
	}
	return route.Reverse(), true
}
