package matterslice

// Bounds of the minimum layer time speed search.
const (
	// speedRatioStep is how much the speed ratio drops per iteration.
	speedRatioStep = 0.01
	// speedRatioWindow is how far below the previous layer's ratio the search
	// may go, so consecutive layers do not change speed abruptly.
	speedRatioWindow = 0.1
	// minimumSpeedRatio is the lowest ratio the search tries.
	minimumSpeedRatio = 0.1
)

// GetLayerTimes returns the estimated time of all queued moves, split into the
// time that can be shortened or lengthened by changing speeds (variable) and
// the time that cannot (fixed: travel and bridges).
func (lp *LayerGCodePlanner) GetLayerTimes() (fixedTime, variableTime, totalTime float64) {
	last := lp.export.GetPosition()
	for _, path := range lp.paths {
		for _, pt := range path.Polygon {
			distance := last.Sub(pt).LengthMm()
			t := SecondsForMovement(distance,
				path.Speed,
				lp.config.MaxAcceleration,
				lp.config.MaxVelocity,
				lp.config.JerkVelocity) * lp.config.PrintTimeEstimateMultiplier

			if pathCanAdjustSpeed(path) {
				variableTime += t
			} else {
				fixedTime += t
			}
			last = pt
		}
	}
	return fixedTime, variableTime, fixedTime + variableTime
}

// CorrectLayerTimeConsideringMinimumLayerTime slows extrusion down until the
// layer takes at least the minimum layer time, within bounds: the speed ratio
// never drops more than 0.1 below the previous layer's, nor below 0.1, and no
// path goes slower than the minimum printing speed. The resulting ratio is
// stored on the exporter for the next layer.
func (lp *LayerGCodePlanner) CorrectLayerTimeConsideringMinimumLayerTime() {
	fixedTime, variableTime, totalTime := lp.GetLayerTimes()
	minimum := lp.config.MinimumLayerTimeSeconds

	if totalTime < minimum && variableTime > 0 {
		previousRatio := lp.export.LayerSpeedRatio()
		goalRatio := variableTime / (minimum - fixedTime)
		currentRatio := max(previousRatio-speedRatioWindow, goalRatio)
		for {
			for _, path := range lp.paths {
				if !pathCanAdjustSpeed(path) {
					continue
				}
				goalSpeed := path.Config.Speed * currentRatio
				if goalSpeed < path.Config.Speed {
					path.Speed = max(lp.config.MinimumPrintingSpeed, goalSpeed)
				}
			}

			_, _, totalTime = lp.GetLayerTimes()
			currentRatio -= speedRatioStep
			if totalTime >= minimum ||
				currentRatio < previousRatio-speedRatioWindow ||
				currentRatio < minimumSpeedRatio {
				break
			}
		}
		lp.export.SetLayerSpeedRatio(currentRatio)
	} else {
		lp.export.SetLayerSpeedRatio(1)
	}

	_, _, lp.layerTime = lp.GetLayerTimes()
}

// FanPercent returns the cooling fan speed for the layer, based on the layer
// time recorded by the last minimum layer time correction.
func (lp *LayerGCodePlanner) FanPercent(layerIndex int) int {
	cfg := lp.config
	if layerIndex < cfg.FirstLayerToAllowFan {
		return 0
	}

	minFanSpeedLayerTime := max(cfg.MinFanSpeedLayerTime, cfg.MaxFanSpeedLayerTime)
	if lp.layerTime >= minFanSpeedLayerTime {
		// fast enough to cool on its own
		return 0
	}
	if cfg.MaxFanSpeedLayerTime >= minFanSpeedLayerTime {
		return cfg.FanSpeedMaxPercent
	}

	amountSmallerThanMin := max(0, minFanSpeedLayerTime-lp.layerTime)
	timeToMax := max(0, minFanSpeedLayerTime-cfg.MaxFanSpeedLayerTime)
	ratioToMaxSpeed := 0.0
	if timeToMax > 0 {
		ratioToMaxSpeed = min(1, amountSmallerThanMin/timeToMax)
	}
	return cfg.FanSpeedMinPercent + int(ratioToMaxSpeed*float64(cfg.FanSpeedMaxPercent-cfg.FanSpeedMinPercent))
}

// FinalizeLayerFanSpeeds applies the minimum layer time correction and then
// raises every queued fan command to at least the layer's fan speed.
func (lp *LayerGCodePlanner) FinalizeLayerFanSpeeds(layerIndex int) {
	lp.CorrectLayerTimeConsideringMinimumLayerTime()
	layerFanPercent := lp.FanPercent(layerIndex)
	for _, path := range lp.queuedFanSpeeds {
		path.FanPercent = max(path.FanPercent, layerFanPercent)
	}
}
