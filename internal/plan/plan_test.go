package plan

import (
	"errors"
	"strings"
	"testing"

	matterslice "github.com/DiegoDionisio/MatterSlice"
	"github.com/DiegoDionisio/MatterSlice/gcode"
)

func wallLayer(index int) Layer {
	return Layer{
		LayerIndex: index,
		ZUM:        int64(index+1) * 200,
		Features: []Feature{{
			Comment:     matterslice.CommentWallOuter,
			Speed:       30,
			LineWidthUM: 400,
			ClosedLoop:  true,
			Optimize:    true,
			Polygons:    [][][2]int64{{{10000, 10000}, {20000, 10000}, {20000, 20000}, {10000, 20000}}},
		}},
	}
}

func intPtr(v int) *int { return &v }

func TestPlanLayer(t *testing.T) {
	res, err := PlanLayer(matterslice.DefaultConfigSettings(), gcode.NewState(), wallLayer(0))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.GCode, ";LAYER:0\n") {
		t.Errorf("gcode does not start with a layer marker:\n%s", res.GCode)
	}
	if !strings.Contains(res.GCode, ";TYPE:"+matterslice.CommentWallOuter+"\n") {
		t.Errorf("gcode has no feature comment:\n%s", res.GCode)
	}
	if !strings.Contains(res.GCode, " Z0.200") {
		t.Errorf("gcode does not move to the layer height:\n%s", res.GCode)
	}
	if res.LayerTime <= 0 {
		t.Errorf("got layer time %v, want > 0", res.LayerTime)
	}
	// the square takes less than the minimum layer time, so it slows down as
	// far as the previous layer allows
	if res.SpeedRatio >= 0.9 {
		t.Errorf("got speed ratio %v, want < 0.9", res.SpeedRatio)
	}
	if res.State.LayerIndex != 0 || res.State.E <= 0 {
		t.Errorf("unexpected state %+v", res.State)
	}
}

func TestPlanLayerCarriesState(t *testing.T) {
	settings := matterslice.DefaultConfigSettings()
	first, err := PlanLayer(settings, gcode.NewState(), wallLayer(0))
	if err != nil {
		t.Fatal(err)
	}
	second, err := PlanLayer(settings, first.State, wallLayer(1))
	if err != nil {
		t.Fatal(err)
	}

	if second.State.E <= first.State.E {
		t.Errorf("extrusion restarted: got E %v after %v", second.State.E, first.State.E)
	}
	if second.State.TotalPrintTime <= first.State.TotalPrintTime {
		t.Errorf("print time did not accumulate: got %v after %v", second.State.TotalPrintTime, first.State.TotalPrintTime)
	}
	if second.SpeedRatio >= first.SpeedRatio {
		t.Errorf("got speed ratio %v after %v, want it to keep dropping", second.SpeedRatio, first.SpeedRatio)
	}
	// the previous layer ended on the seam, so no travel is needed to start
	if strings.Contains(second.GCode, "G0 F9000 X10.000 Y10.000") {
		t.Errorf("second layer travels to its start:\n%s", second.GCode)
	}
}

func TestPlanLayerOverrides(t *testing.T) {
	layer := wallLayer(3)
	layer.Extruder = 1
	layer.FanPercent = intPtr(40)

	res, err := PlanLayer(matterslice.DefaultConfigSettings(), gcode.NewState(), layer)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.GCode, "T1\nG92 E0\n") {
		t.Errorf("gcode does not switch extruder:\n%s", res.GCode)
	}
	if !strings.Contains(res.GCode, "M106 S") {
		t.Errorf("gcode does not set the fan:\n%s", res.GCode)
	}
	if res.FanPercent < 40 {
		t.Errorf("got fan %d%%, want at least 40%%", res.FanPercent)
	}
	if res.State.Extruder != 1 {
		t.Errorf("got extruder %d, want 1", res.State.Extruder)
	}
}

func TestPlanLayerThickness(t *testing.T) {
	thick, err := PlanLayer(matterslice.DefaultConfigSettings(), gcode.NewState(), wallLayer(3))
	if err != nil {
		t.Fatal(err)
	}
	layer := wallLayer(3)
	layer.LayerThicknessUM = 100
	thin, err := PlanLayer(matterslice.DefaultConfigSettings(), gcode.NewState(), layer)
	if err != nil {
		t.Fatal(err)
	}
	// half the layer thickness extrudes half the filament
	if got, want := thin.State.E, thick.State.E/2; got < want*0.99 || got > want*1.01 {
		t.Errorf("got E %v, want about %v", got, want)
	}
}

func TestPlanLayerBoundary(t *testing.T) {
	layer := Layer{
		LayerIndex: 1,
		ZUM:        400,
		Boundary:   [][][2]int64{{{9000, 9000}, {21000, 9000}, {21000, 21000}, {9000, 21000}}},
		Features: []Feature{{
			Comment:     matterslice.CommentFill,
			Speed:       50,
			LineWidthUM: 400,
			Optimize:    true,
			Polygons:    [][][2]int64{{{11000, 11000}, {19000, 11000}}, {{19000, 13000}, {11000, 13000}}},
		}},
	}
	res, err := PlanLayer(matterslice.DefaultConfigSettings(), gcode.NewState(), layer)
	if err != nil {
		t.Fatal(err)
	}
	if res.OutsideBoundary != 0 {
		t.Errorf("got %d segments outside the boundary, want 0", res.OutsideBoundary)
	}

	layer.Features[0].Polygons = [][][2]int64{{{11000, 11000}, {40000, 11000}}}
	res, err = PlanLayer(matterslice.DefaultConfigSettings(), gcode.NewState(), layer)
	if err != nil {
		t.Fatal(err)
	}
	if res.OutsideBoundary == 0 {
		t.Error("got no segments outside the boundary")
	}
}

func TestPlanLayerInvalid(t *testing.T) {
	tests := []struct {
		name  string
		layer Layer
	}{
		{"negative index", Layer{LayerIndex: -1}},
		{"negative extruder", Layer{Extruder: -1}},
		{"fan too high", Layer{FanPercent: intPtr(101)}},
		{"fan negative", Layer{FanPercent: intPtr(-1)}},
		{"no speed", Layer{Features: []Feature{{Polygons: [][][2]int64{{{0, 0}}}}}}},
		{"negative width", Layer{Features: []Feature{{Speed: 10, LineWidthUM: -1}}}},
		{"empty polygon", Layer{Features: []Feature{{Speed: 10, Polygons: [][][2]int64{{}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanLayer(matterslice.DefaultConfigSettings(), gcode.NewState(), tt.layer)
			if !errors.Is(err, ErrInvalidLayer) {
				t.Errorf("got error %v, want %v", err, ErrInvalidLayer)
			}
		})
	}
}
