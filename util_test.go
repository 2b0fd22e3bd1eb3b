package matterslice

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

// recordingExport is a GCodeExport that records what is written to it.
type recordingExport struct {
	position   IntPoint
	currentZ   int64
	extruder   int
	layerIndex int
	speedRatio float64

	moves    []recordedMove
	commands []string
}

type recordedMove struct {
	Point     IntPoint
	Speed     float64
	LineWidth int64
}

func newRecordingExport() *recordingExport {
	return &recordingExport{speedRatio: 1}
}

func (e *recordingExport) GetPosition() IntPoint   { return e.position }
func (e *recordingExport) GetPositionXY() IntPoint { return e.position.XY() }
func (e *recordingExport) GetPositionZ() int64     { return e.position.Z }
func (e *recordingExport) CurrentZ() int64         { return e.currentZ }
func (e *recordingExport) SetCurrentZ(z int64)     { e.currentZ = z }
func (e *recordingExport) GetExtruderIndex() int   { return e.extruder }
func (e *recordingExport) LayerIndex() int         { return e.layerIndex }

func (e *recordingExport) SwitchExtruder(index int) {
	e.extruder = index
	e.commands = append(e.commands, fmt.Sprintf("T%d", index))
}

func (e *recordingExport) WriteRetraction(timeOfMove float64, forced bool) {
	if forced {
		e.commands = append(e.commands, "retract forced")
	} else {
		e.commands = append(e.commands, "retract")
	}
}

func (e *recordingExport) WriteComment(text string) {
	e.commands = append(e.commands, ";"+text)
}

func (e *recordingExport) WriteFanCommand(percent int) {
	e.commands = append(e.commands, fmt.Sprintf("fan %d", percent))
}

func (e *recordingExport) WriteMove(pt IntPoint, speed float64, lineWidthUM int64) {
	if pt.Z == 0 {
		pt.Z = e.currentZ
	}
	if pt.Z == 0 {
		pt.Z = e.position.Z
	}
	pt.Width = 0
	e.moves = append(e.moves, recordedMove{pt, speed, lineWidthUM})
	e.commands = append(e.commands, "move")
	e.position = pt
}

func (e *recordingExport) LayerSpeedRatio() float64         { return e.speedRatio }
func (e *recordingExport) SetLayerSpeedRatio(ratio float64) { e.speedRatio = ratio }
func (e *recordingExport) UpdateLayerPrintTime()            { e.commands = append(e.commands, "update time") }

func (e *recordingExport) points() []IntPoint {
	out := make([]IntPoint, len(e.moves))
	for i, m := range e.moves {
		out[i] = m.Point
	}
	return out
}

func square(x, y, size int64) Polygon {
	return Polygon{Pt(x, y), Pt(x+size, y), Pt(x+size, y+size), Pt(x, y+size)}
}
