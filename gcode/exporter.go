// Package gcode writes planned layers as Marlin-flavoured G-code text.
package gcode

import (
	"fmt"
	"io"
	"math"

	matterslice "github.com/DiegoDionisio/MatterSlice"
)

// State is the part of an [Exporter] that carries over from one layer to the
// next. Hosts that plan layers in separate processes persist it between them.
type State struct {
	Position        matterslice.IntPoint `json:"position"`
	CurrentZ        int64                `json:"current_z"`
	Extruder        int                  `json:"extruder"`
	E               float64              `json:"e"`
	Retracted       bool                 `json:"retracted"`
	FeedRate        float64              `json:"feed_rate"`
	LayerIndex      int                  `json:"layer_index"`
	LayerSpeedRatio float64              `json:"layer_speed_ratio"`
	TotalPrintTime  float64              `json:"total_print_time"`
}

// NewState returns the state of a freshly homed machine.
func NewState() State {
	return State{LayerSpeedRatio: 1}
}

// Exporter implements [matterslice.GCodeExport] on top of an io.Writer.
//
// Extrusion is absolute. Write errors are sticky: after the first failure
// nothing more is written and [Exporter.Err] reports it.
type Exporter struct {
	w        io.Writer
	settings matterslice.ConfigSettings
	state    State

	filamentArea float64
	// layerTime accumulates the estimated time of moves written since the
	// last UpdateLayerPrintTime.
	layerTime float64
	err       error
}

var _ matterslice.GCodeExport = (*Exporter)(nil)

// NewExporter returns an exporter writing to w. Its state starts at the
// homed position; use [Exporter.Restore] to continue a previous export.
func NewExporter(w io.Writer, settings matterslice.ConfigSettings) *Exporter {
	radius := float64(settings.FilamentDiameterUM) / 2000.0
	return &Exporter{
		w:            w,
		settings:     settings,
		state:        NewState(),
		filamentArea: math.Pi * radius * radius,
	}
}

// State returns the exporter's carry-over state.
func (e *Exporter) State() State { return e.state }

// Restore replaces the exporter's state with s.
func (e *Exporter) Restore(s State) { e.state = s }

// Err returns the first write error, if any.
func (e *Exporter) Err() error { return e.err }

// TotalPrintTime returns the estimated print time of all finished layers, in
// seconds.
func (e *Exporter) TotalPrintTime() float64 { return e.state.TotalPrintTime }

func (e *Exporter) GetPosition() matterslice.IntPoint { return e.state.Position }

func (e *Exporter) GetPositionXY() matterslice.IntPoint { return e.state.Position.XY() }

func (e *Exporter) GetPositionZ() int64 { return e.state.Position.Z }

func (e *Exporter) CurrentZ() int64 { return e.state.CurrentZ }

func (e *Exporter) SetCurrentZ(z int64) { e.state.CurrentZ = z }

func (e *Exporter) GetExtruderIndex() int { return e.state.Extruder }

func (e *Exporter) LayerIndex() int { return e.state.LayerIndex }

// SetLayerIndex starts a new layer and writes a layer marker.
func (e *Exporter) SetLayerIndex(index int) {
	e.state.LayerIndex = index
	e.printf(";LAYER:%d\n", index)
}

func (e *Exporter) LayerSpeedRatio() float64 { return e.state.LayerSpeedRatio }

func (e *Exporter) SetLayerSpeedRatio(ratio float64) { e.state.LayerSpeedRatio = ratio }

// SwitchExtruder retracts, selects the extruder and resets the extrusion axis.
func (e *Exporter) SwitchExtruder(index int) {
	if index == e.state.Extruder {
		return
	}
	e.WriteRetraction(0, true)
	e.state.Extruder = index
	e.printf("T%d\n", index)
	e.printf("G92 E0\n")
	e.state.E = 0
}

// WriteRetraction pulls the filament back unless it already is. timeOfMove is
// noted in the output for the following travel.
func (e *Exporter) WriteRetraction(timeOfMove float64, forced bool) {
	if e.state.Retracted || e.settings.RetractionAmountMM <= 0 {
		return
	}
	e.state.E -= e.settings.RetractionAmountMM
	e.printf("G1 F%.0f E%.5f", e.settings.RetractionSpeed*60, e.state.E)
	switch {
	case forced:
		e.printf(" ;forced retract\n")
	case timeOfMove > 0:
		e.printf(" ;retract %.3fs travel\n", timeOfMove)
	default:
		e.printf("\n")
	}
	e.state.FeedRate = e.settings.RetractionSpeed
	e.state.Retracted = true
}

func (e *Exporter) WriteComment(text string) {
	e.printf(";%s\n", text)
}

func (e *Exporter) WriteFanCommand(percent int) {
	if percent <= 0 {
		e.printf("M107\n")
		return
	}
	e.printf("M106 S%d\n", min(percent, 100)*255/100)
}

// WriteMove writes a G0 for non-extruding moves and a G1 with extrusion
// otherwise. The extruded volume is lineWidthUM wide and one layer thick. A
// point with a zero Z is written at the current layer height, or at the head's
// height while no layer height is set.
func (e *Exporter) WriteMove(pt matterslice.IntPoint, speed float64, lineWidthUM int64) {
	from := e.state.Position
	distance := from.Sub(pt).LengthMm()
	z := pt.Z
	if z == 0 {
		z = e.state.CurrentZ
	}
	if z == 0 {
		z = from.Z
	}

	if lineWidthUM > 0 && e.state.Retracted {
		e.state.E += e.settings.RetractionAmountMM
		e.printf("G1 F%.0f E%.5f\n", e.settings.RetractionSpeed*60, e.state.E)
		e.state.FeedRate = e.settings.RetractionSpeed
		e.state.Retracted = false
	}

	if lineWidthUM > 0 {
		e.printf("G1")
	} else {
		e.printf("G0")
	}
	if speed != e.state.FeedRate {
		e.printf(" F%.0f", speed*60)
		e.state.FeedRate = speed
	}
	e.printf(" X%.3f Y%.3f", float64(pt.X)/1000, float64(pt.Y)/1000)
	if z != from.Z {
		e.printf(" Z%.3f", float64(z)/1000)
	}
	if lineWidthUM > 0 && e.filamentArea > 0 {
		volume := float64(lineWidthUM) / 1000 * float64(e.settings.LayerThicknessUM) / 1000 * distance
		e.state.E += volume / e.filamentArea
		e.printf(" E%.5f", e.state.E)
	}
	e.printf("\n")

	e.layerTime += matterslice.SecondsForMovement(distance, speed,
		e.settings.MaxAcceleration,
		e.settings.MaxVelocity,
		e.settings.JerkVelocity)
	e.state.Position = matterslice.IntPoint{X: pt.X, Y: pt.Y, Z: z}
}

// UpdateLayerPrintTime adds the time of the moves written since the previous
// call to the total print time.
func (e *Exporter) UpdateLayerPrintTime() {
	e.state.TotalPrintTime += e.layerTime * e.multiplier()
	e.layerTime = 0
}

func (e *Exporter) multiplier() float64 {
	if e.settings.PrintTimeEstimateMultiplier > 0 {
		return e.settings.PrintTimeEstimateMultiplier
	}
	return 1
}

func (e *Exporter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	if _, err := fmt.Fprintf(e.w, format, args...); err != nil {
		e.err = fmt.Errorf("write gcode: %w", err)
	}
}
