package matterslice

import "math"

// WriteQueuedGCode renders the queued paths to the exporter, in order.
// layerThicknessUM is how far a spiralized perimeter climbs over its length.
//
// The planner cannot be used after this.
func (lp *LayerGCodePlanner) WriteQueuedGCode(layerThicknessUM int64) {
	lp.mustBeQueueing()
	lp.written = true

	ex := lp.export
	var lastConfig *GCodePathConfig
	extruderIndex := ex.GetExtruderIndex()
	lastSpiral := lp.lastSpiralizePath()

	for pathIndex := 0; pathIndex < len(lp.paths); pathIndex++ {
		path := lp.paths[pathIndex]
		if extruderIndex != path.ExtruderIndex {
			extruderIndex = path.ExtruderIndex
			ex.SwitchExtruder(extruderIndex)
		} else if path.Retract != RetractNone {
			ex.WriteRetraction(lp.timeOfMove(path), path.Retract == RetractForce)
		}
		if lastConfig != path.Config && !path.Config.IsTravel() {
			ex.WriteComment("TYPE:" + path.Config.GCodeComment)
			lastConfig = path.Config
		}
		if path.FanPercent != NoFanChange {
			ex.WriteFanCommand(path.FanPercent)
		}

		if next, ok := lp.writeSmallMoves(pathIndex); ok {
			pathIndex = next
			continue
		}

		if pathIndex == lastSpiral {
			lp.writeSpiral(path, layerThicknessUM)
		} else {
			lp.writePath(path)
		}
	}

	ex.UpdateLayerPrintTime()
}

// timeOfMove estimates how long a retracting move takes, which lets the
// exporter decide whether retracting is worth it. Only travel moves have a
// meaningful estimate.
func (lp *LayerGCodePlanner) timeOfMove(path *GCodePath) float64 {
	if path.Config.LineWidthUM != 0 || len(path.Polygon) == 0 || path.Speed <= 0 {
		return 0
	}
	lengthToStart := lp.export.GetPosition().Sub(path.Polygon[0]).Length()
	lengthOfMove := lengthToStart + path.Polygon.PolygonLength(false)
	return float64(lengthOfMove) / 1000.0 / path.Speed
}

// lastSpiralizePath returns the index of the last spiralizing path, or -1.
// Only that path ramps Z.
func (lp *LayerGCodePlanner) lastSpiralizePath() int {
	for i := len(lp.paths) - 1; i >= 0; i-- {
		if lp.paths[i].Config.Spiralize {
			return i
		}
	}
	return -1
}

// writeSmallMoves handles runs of single point extrusions, as produced by
// small infill segments, by merging pairs of them into single moves whose
// width is scaled to keep the extruded volume. It returns the index of the
// last path it consumed and whether it wrote anything.
func (lp *LayerGCodePlanner) writeSmallMoves(pathIndex int) (int, bool) {
	ex := lp.export
	paths := lp.paths
	path := paths[pathIndex]
	threshold := path.Config.LineWidthUM * 2
	if len(path.Polygon) != 1 || path.Config.IsTravel() ||
		!ex.GetPositionXY().Sub(path.Polygon[0]).ShorterThen(threshold) {
		return pathIndex, false
	}

	nextPosition := path.Polygon[0]
	end := pathIndex + 1
	for end < len(paths) && len(paths[end].Polygon) == 1 &&
		nextPosition.Sub(paths[end].Polygon[0]).ShorterThen(threshold) {
		nextPosition = paths[end].Polygon[0]
		end++
	}
	if paths[end-1].Config.IsTravel() {
		end--
	}
	if end <= pathIndex+2 {
		return pathIndex, false
	}

	prev := ex.GetPosition()
	for x := pathIndex; x < end-1; x += 2 {
		oldLength := prev.Sub(paths[x].Polygon[0]).Length()
		merged := paths[x].Polygon[0].Add(paths[x+1].Polygon[0]).Div(2)
		merged.Z = paths[x].Polygon[0].Z
		newLength := ex.GetPosition().Sub(merged).Length()
		if newLength > 0 {
			ex.WriteMove(merged, path.Speed, path.Config.LineWidthUM*oldLength/newLength)
		}
		prev = paths[x+1].Polygon[0]
	}

	last := paths[end-1].Polygon[0]
	lineWidth := path.Config.LineWidthUM
	if last.Width != 0 {
		lineWidth = last.Width
	}
	ex.WriteMove(last, path.Speed, lineWidth)
	return end - 1, true
}

// writeSpiral writes path while raising Z by layerThicknessUM in proportion
// to the distance travelled.
func (lp *LayerGCodePlanner) writeSpiral(path *GCodePath, layerThicknessUM int64) {
	ex := lp.export
	z := ex.GetPositionZ()

	totalLength := 0.0
	current := ex.GetPositionXY()
	for _, pt := range path.Polygon {
		totalLength += current.Sub(pt).LengthMm()
		current = pt.XY()
	}

	length := 0.0
	current = ex.GetPositionXY()
	for _, pt := range path.Polygon {
		length += current.Sub(pt).LengthMm()
		current = pt.XY()
		next := pt
		if totalLength > 0 {
			next.Z = z + int64(math.Round(float64(layerThicknessUM)*length/totalLength))
		} else {
			next.Z = z + layerThicknessUM
		}
		ex.WriteMove(next, path.Speed, path.Config.LineWidthUM)
	}
}

// writePath writes the points of path. Complete perimeter loops are trimmed
// so they do not overlap their start by more than the configured share of a
// line width; the outer perimeter then coasts along its start to relieve
// pressure.
func (lp *LayerGCodePlanner) writePath(path *GCodePath) {
	ex := lp.export
	loopStart := ex.GetPosition()
	pointCount := len(path.Polygon)

	outerPerimeter := path.Config.GCodeComment == CommentWallOuter
	innerPerimeter := path.Config.GCodeComment == CommentWallInner
	completeLoop := pointCount > 0 && path.Polygon[pointCount-1].Equal(loopStart)
	trimmed := (outerPerimeter || innerPerimeter) && completeLoop && lp.perimeterStartEndOverlapRatio < 1

	if trimmed {
		targetDistance := int64(float64(path.Config.LineWidthUM) * (1 - lp.perimeterStartEndOverlapRatio))
		path = TrimGCodePathEnd(path, targetDistance)
	}

	for _, pt := range path.Polygon {
		lineWidth := path.Config.LineWidthUM
		if pt.Width != 0 {
			lineWidth = pt.Width
		}
		ex.WriteMove(pt, path.Speed, lineWidth)
	}

	if !trimmed {
		return
	}

	// back to the start of the loop without extruding
	ex.WriteMove(loopStart, path.Speed, 0)

	length := path.Polygon.PolygonLength(false)
	coast := lp.config.CoastAtEndDistanceUM
	if outerPerimeter && coast > 0 && length > coast {
		wipe := append(Polygon{loopStart}, path.Polygon...)
		for _, pt := range wipe.CutToLength(coast) {
			ex.WriteMove(pt, path.Speed, 0)
		}
	}
}
