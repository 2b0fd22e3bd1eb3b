package matterslice

// GCodeExport receives the moves rendered by [LayerGCodePlanner.WriteQueuedGCode].
// It tracks the head state (position, Z, active extruder) across layers and
// carries the layer speed ratio from one layer's planner to the next.
type GCodeExport interface {
	// GetPosition returns the head position including Z.
	GetPosition() IntPoint
	// GetPositionXY returns the head position with Z cleared.
	GetPositionXY() IntPoint
	GetPositionZ() int64

	// CurrentZ is the Z at which new moves are queued.
	CurrentZ() int64
	SetCurrentZ(z int64)

	GetExtruderIndex() int
	SwitchExtruder(index int)

	// LayerIndex is the index of the layer being planned. It is passed to
	// pathfinders.
	LayerIndex() int

	WriteRetraction(timeOfMove float64, forced bool)
	WriteComment(text string)
	WriteFanCommand(percent int)
	// WriteMove moves to pt at speed mm/s. A lineWidthUM of 0 moves without
	// extruding.
	WriteMove(pt IntPoint, speed float64, lineWidthUM int64)

	// LayerSpeedRatio is the speed ratio the previous layer settled on.
	LayerSpeedRatio() float64
	SetLayerSpeedRatio(ratio float64)

	// UpdateLayerPrintTime is called once all of a layer's moves are written.
	UpdateLayerPrintTime()
}
