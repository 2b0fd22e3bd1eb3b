package matterslice

import "fmt"

// LayerGCodePlanner collects the moves of one layer before they are written.
//
// Moves are queued in printing order. Travel moves are routed through the
// active [PathFinder] when there is one and marked for retraction when they
// are long. Once the whole layer is queued, [LayerGCodePlanner.FinalizeLayerFanSpeeds]
// slows the layer down to meet the minimum layer time and sets the cooling fan,
// and [LayerGCodePlanner.WriteQueuedGCode] renders the moves to the
// [GCodeExport]. A planner renders exactly once.
//
// A LayerGCodePlanner is not safe for concurrent use.
type LayerGCodePlanner struct {
	config *ConfigSettings
	export GCodeExport

	travelConfig *GCodePathConfig
	paths        []*GCodePath
	// queuedFanSpeeds are the fan-only paths, raised to the layer's fan speed
	// once the layer time is known.
	queuedFanSpeeds []*GCodePath

	lastPosition         IntPoint
	currentExtruderIndex int
	forceRetraction      bool
	canAppendTravel      bool

	pathFinder          PathFinder
	lastValidPathFinder PathFinder

	retractionMinimumDistanceUM  int64
	perimeterStartEndOverlapRatio float64

	layerTime float64
	written   bool
}

// NewLayerGCodePlanner returns a planner writing to export. Travel moves
// longer than retractionMinimumDistanceUM retract. perimeterStartEndOverlap is
// the share of a line width by which closed perimeters overlap their start; it
// is clamped to [0, 1].
func NewLayerGCodePlanner(config *ConfigSettings, export GCodeExport, travelSpeed float64, retractionMinimumDistanceUM int64, perimeterStartEndOverlap float64) *LayerGCodePlanner {
	return &LayerGCodePlanner{
		config:                        config,
		export:                        export,
		travelConfig:                  NewTravelConfig(travelSpeed),
		lastPosition:                  export.GetPositionXY(),
		currentExtruderIndex:          export.GetExtruderIndex(),
		canAppendTravel:               true,
		retractionMinimumDistanceUM:   retractionMinimumDistanceUM,
		perimeterStartEndOverlapRatio: max(0, min(1, perimeterStartEndOverlap)),
	}
}

// CurrentZ returns the Z that newly queued points are stamped with.
func (lp *LayerGCodePlanner) CurrentZ() int64 { return lp.export.CurrentZ() }

// SetCurrentZ sets the Z that newly queued points are stamped with.
func (lp *LayerGCodePlanner) SetCurrentZ(z int64) { lp.export.SetCurrentZ(z) }

// LastPosition returns the head position after all moves queued so far.
func (lp *LayerGCodePlanner) LastPosition() IntPoint { return lp.lastPosition }

// LayerTime returns the layer's print time as of the last minimum layer time
// correction.
func (lp *LayerGCodePlanner) LayerTime() float64 { return lp.layerTime }

// TravelConfig returns the config of the planner's travel paths.
func (lp *LayerGCodePlanner) TravelConfig() *GCodePathConfig { return lp.travelConfig }

// Paths returns the queued paths in emission order. The caller must not modify
// the slice.
func (lp *LayerGCodePlanner) Paths() []*GCodePath { return lp.paths }

func (lp *LayerGCodePlanner) PathFinder() PathFinder { return lp.pathFinder }

// SetPathFinder sets the pathfinder used to route travel moves. nil disables
// routing.
func (lp *LayerGCodePlanner) SetPathFinder(pf PathFinder) {
	if pf != nil {
		lp.lastValidPathFinder = pf
	}
	lp.pathFinder = pf
}

// LastValidPathFinder returns the most recent non-nil pathfinder, even after
// routing has been disabled. It is only used for diagnostics.
func (lp *LayerGCodePlanner) LastValidPathFinder() PathFinder { return lp.lastValidPathFinder }

// ForceRetract makes the next travel move retract regardless of its length.
func (lp *LayerGCodePlanner) ForceRetract() {
	lp.forceRetraction = true
}

func (lp *LayerGCodePlanner) GetExtruder() int {
	return lp.currentExtruderIndex
}

// SetExtruder sets the extruder of subsequently created paths.
func (lp *LayerGCodePlanner) SetExtruder(extruder int) {
	lp.currentExtruderIndex = extruder
}

// ToolChangeRequired reports whether extruder differs from the current one.
func (lp *LayerGCodePlanner) ToolChangeRequired(extruder int) bool {
	return extruder != lp.currentExtruderIndex
}

// QueueExtrusionMove extrudes from the last position to destination.
func (lp *LayerGCodePlanner) QueueExtrusionMove(destination IntPoint, config *GCodePathConfig) {
	lp.mustBeQueueing()
	path := lp.latestPathWithConfig(config, false)
	path.Polygon = append(path.Polygon, destination.WithZ(lp.CurrentZ()))
	lp.lastPosition = destination.XY()
}

// QueuePolygon queues polygon starting at startIndex. Closed loop configs print
// the whole ring and return to the start. Open paths print forward when
// starting at 0 and backward otherwise. Unless the config spiralizes, a travel
// move to the start point is queued first.
func (lp *LayerGCodePlanner) QueuePolygon(polygon Polygon, startIndex int, config *GCodePathConfig) {
	lp.mustBeQueueing()
	if len(polygon) == 0 {
		panic("QueuePolygon called with empty polygon")
	}
	if startIndex < 0 || startIndex >= len(polygon) {
		panic(fmt.Sprintf("QueuePolygon start index %d out of range [0, %d)", startIndex, len(polygon)))
	}

	n := len(polygon)
	start := polygon[startIndex]
	if !config.Spiralize && !lp.lastPosition.Equal(start) {
		lp.QueueTravel(start)
	}

	switch {
	case config.ClosedLoop:
		for i := 1; i < n; i++ {
			lp.QueueExtrusionMove(polygon[(startIndex+i)%n], config)
		}
		// close the ring
		if n > 2 {
			lp.QueueExtrusionMove(start, config)
		}
	case startIndex == 0:
		for i := 1; i < n; i++ {
			lp.QueueExtrusionMove(polygon[i], config)
		}
	default:
		for i := n - 1; i >= 1; i-- {
			lp.QueueExtrusionMove(polygon[(startIndex+i)%n], config)
		}
	}
}

// QueuePolygons queues every polygon from its first point, in order.
func (lp *LayerGCodePlanner) QueuePolygons(polygons Polygons, config *GCodePathConfig) {
	for _, p := range polygons {
		lp.QueuePolygon(p, 0, config)
	}
}

// QueuePolygonByOptimizer queues polygon from the start point chosen by a
// [PathOrderOptimizer]. It returns false if polygon is empty.
func (lp *LayerGCodePlanner) QueuePolygonByOptimizer(polygon Polygon, pf PathFinder, config *GCodePathConfig, layerIndex int) bool {
	if len(polygon) == 0 {
		return false
	}
	return lp.QueuePolygonsByOptimizer(Polygons{polygon}, pf, config, layerIndex)
}

// QueuePolygonsByOptimizer queues polygons in the order and from the start
// points chosen by a [PathOrderOptimizer]. It returns false if there are no
// polygons.
func (lp *LayerGCodePlanner) QueuePolygonsByOptimizer(polygons Polygons, pf PathFinder, config *GCodePathConfig, layerIndex int) bool {
	if len(polygons) == 0 {
		return false
	}
	lp.mustBeQueueing()

	opt := NewPathOrderOptimizer(lp.lastPosition)
	opt.AddPolygons(polygons)
	opt.Optimize(pf, layerIndex, config)

	for _, idx := range opt.BestIslandOrder {
		if len(polygons[idx]) == 0 {
			continue
		}
		lp.QueuePolygon(polygons[idx], opt.StartIndexInPolygon[idx], config)
	}
	return true
}

// QueueTravel moves the head to destination without extruding, appending to
// the current travel path if possible.
func (lp *LayerGCodePlanner) QueueTravel(destination IntPoint) {
	lp.queueTravel(destination, false)
}

// QueueTravelUnique is like QueueTravel but always starts a new travel path,
// and keeps the next travel from being appended to it.
func (lp *LayerGCodePlanner) QueueTravelUnique(destination IntPoint) {
	lp.queueTravel(destination, true)
}

func (lp *LayerGCodePlanner) queueTravel(destination IntPoint, forceUniquePath bool) {
	lp.mustBeQueueing()
	path := lp.latestPathWithConfig(lp.travelConfig, forceUniquePath || !lp.canAppendTravel)
	lp.canAppendTravel = !forceUniquePath

	if lp.forceRetraction {
		path.Retract = RetractForce
		lp.forceRetraction = false
	}

	z := lp.CurrentZ()
	displacement := lp.lastPosition.Sub(destination)
	if lp.pathFinder != nil {
		route, ok := lp.pathFinder.CreatePathInsideBoundary(lp.lastPosition, destination, true, lp.export.LayerIndex())
		if ok {
			if len(route) > 0 {
				prev := lp.lastPosition
				var lengthUM int64
				for _, pt := range route {
					path.Polygon = append(path.Polygon, IntPoint{X: pt.X, Y: pt.Y, Z: z})
					lengthUM += pt.Sub(prev).Length()
					prev = pt
				}
				if lengthUM > lp.retractionMinimumDistanceUM {
					lp.requestRetraction(path)
				}
			}
		} else if displacement.LongerThen(lp.retractionMinimumDistanceUM / 10) {
			// no route and not a tiny move
			lp.requestRetraction(path)
		}
	}

	if displacement.LongerThen(lp.retractionMinimumDistanceUM) {
		// a forced retraction stays forced; the exporter treats both alike apart
		// from the comment it writes
		lp.requestRetraction(path)
	}

	path.Polygon = append(path.Polygon, IntPoint{X: destination.X, Y: destination.Y, Z: z})
	lp.lastPosition = destination.XY()
}

// requestRetraction marks path for retraction without downgrading a forced
// retraction.
func (lp *LayerGCodePlanner) requestRetraction(path *GCodePath) {
	if path.Retract == RetractNone {
		path.Retract = RetractRequested
	}
}

// QueueFanCommand queues a fan speed change. The value may be raised by
// [LayerGCodePlanner.FinalizeLayerFanSpeeds].
func (lp *LayerGCodePlanner) QueueFanCommand(percent int, config *GCodePathConfig) {
	lp.mustBeQueueing()
	path := lp.newPath(config)
	path.FanPercent = percent
	lp.queuedFanSpeeds = append(lp.queuedFanSpeeds, path)
}

// ForceNewPathStart closes the current path so the next move starts a new one.
func (lp *LayerGCodePlanner) ForceNewPathStart() {
	if len(lp.paths) > 0 {
		lp.paths[len(lp.paths)-1].Done = true
	}
}

// ValidatePaths returns the midpoint of every queued segment that lies outside
// the last valid pathfinder's boundary.
func (lp *LayerGCodePlanner) ValidatePaths() []IntPoint {
	if lp.lastValidPathFinder == nil {
		return nil
	}
	boundary := lp.lastValidPathFinder.Boundary()
	var outside []IntPoint
	first := true
	var last IntPoint
	for _, path := range lp.paths {
		for _, pt := range path.Polygon {
			if !first {
				mid := pt.XY().Midpoint(last)
				if !boundary.PointIsInside(mid) {
					outside = append(outside, mid)
				}
			}
			first = false
			last = pt.XY()
		}
	}
	return outside
}

func (lp *LayerGCodePlanner) latestPathWithConfig(config *GCodePathConfig, forceUniquePath bool) *GCodePath {
	if !forceUniquePath && len(lp.paths) > 0 {
		last := lp.paths[len(lp.paths)-1]
		if last.Config == config && !last.Done {
			return last
		}
	}
	return lp.newPath(config)
}

func (lp *LayerGCodePlanner) newPath(config *GCodePathConfig) *GCodePath {
	path := &GCodePath{
		Config:        config,
		Speed:         config.Speed,
		Retract:       RetractNone,
		ExtruderIndex: lp.currentExtruderIndex,
		FanPercent:    NoFanChange,
	}
	lp.paths = append(lp.paths, path)
	return path
}

func (lp *LayerGCodePlanner) mustBeQueueing() {
	if lp.written {
		panic("layer planner used after WriteQueuedGCode")
	}
}

// pathCanAdjustSpeed reports whether path's speed may be lowered to meet the
// minimum layer time. Travel and bridges keep their speed.
func pathCanAdjustSpeed(path *GCodePath) bool {
	return path.Config.LineWidthUM > 0 && path.Config.GCodeComment != CommentBridge
}
