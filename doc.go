// Package matterslice plans the moves of a single layer of a 3D print and
// renders them as G-code.
//
// A slicer produces, for every layer, sets of polygons: outer and inner
// walls, infill, support, skirt. [LayerGCodePlanner] takes these in printing
// order and turns them into a queue of [GCodePath] values, inserting travel
// moves between them. Once the layer is queued, the planner slows the layer
// down if it would print faster than the minimum layer time, derives the
// cooling fan speed from the resulting layer time, and writes everything to a
// [GCodeExport].
//
// # Geometry
//
// All coordinates are integer microns, held in [IntPoint]. A [Polygon] is a
// sequence of points; whether it is a closed loop or an open polyline depends
// on the [GCodePathConfig] it is printed with, not on the polygon itself.
// [Polygons] holds several polygons, for example an outline and its holes,
// and uses the even-odd rule for containment.
//
// # Ordering and seams
//
// [PathOrderOptimizer] chooses the order in which islands are printed and the
// vertex each one starts at. Closed loops start at the vertex returned by
// [BestEdgeIndex], which prefers concave corners, where a seam is least
// visible. Open paths start at the end nearer to the head.
//
// # Travel
//
// When a [PathFinder] is set, travel moves are routed inside its boundary so
// that they do not cross perimeters. [VisibilityPathFinder] implements
// routing over the corners of the boundary. Travel moves that are long or that
// could not be routed retract the filament.
//
// # Minimum layer time and cooling
//
// Small layers print quickly and do not have time to cool. The planner
// estimates the layer's duration with [SecondsForMovement] and lowers the
// speed of extrusion moves until the layer takes at least
// [ConfigSettings].MinimumLayerTimeSeconds, in steps of 1%, never more than
// 10% below the previous layer and never below the minimum printing speed.
// Travel moves and bridges keep their speed. The fan speed is then
// interpolated between the configured minimum and maximum according to the
// layer time.
//
// # Rendering
//
// [LayerGCodePlanner.WriteQueuedGCode] writes one path after another. Along
// the way it switches extruders, retracts, writes feature type comments and
// fan changes, merges runs of very short extrusions, ramps Z along the last
// spiralized perimeter, and trims closed perimeters so that they do not
// overlap their own start, followed by a coasting move along the outer wall.
//
// Package gcode provides a [GCodeExport] that writes G-code text.
package matterslice
