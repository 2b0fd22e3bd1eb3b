package matterslice

// PathFinder routes travel moves so that they stay inside the printed area,
// which keeps the nozzle from crossing perimeters and leaving strings.
type PathFinder interface {
	// CreatePathInsideBoundary returns the via-points of a route from from to
	// to, excluding both endpoints. An empty route with ok set means the
	// straight move is already acceptable. ok is false if no route could be
	// found.
	CreatePathInsideBoundary(from, to IntPoint, stayInside bool, layerIndex int) (route Polygon, ok bool)
	// Boundary returns the polygons routes stay inside of.
	Boundary() Polygons
}
