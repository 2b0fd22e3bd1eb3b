// Package plan turns one posted layer description into G-code.
package plan

import (
	"bytes"
	"errors"
	"fmt"

	matterslice "github.com/DiegoDionisio/MatterSlice"
	"github.com/DiegoDionisio/MatterSlice/gcode"
)

// ============================================================
// Layer Models
// ============================================================

// Feature is one group of polygons printed with the same settings, such as
// the outer walls or the infill of a layer.
type Feature struct {
	Name        string       `json:"name"`
	Comment     string       `json:"comment"`
	Speed       float64      `json:"speed"`
	LineWidthUM int64        `json:"line_width_um"`
	ClosedLoop  bool         `json:"closed_loop"`
	Spiralize   bool         `json:"spiralize"`
	Optimize    bool         `json:"optimize"`
	Polygons    [][][2]int64 `json:"polygons"`
}

type Layer struct {
	LayerIndex       int          `json:"layer_index"`
	ZUM              int64        `json:"z_um"`
	LayerThicknessUM int64        `json:"layer_thickness_um"`
	Extruder         int          `json:"extruder"`
	Boundary         [][][2]int64 `json:"boundary,omitempty"`
	FanPercent       *int         `json:"fan_percent,omitempty"`
	Features         []Feature    `json:"features"`
}

type Result struct {
	LayerIndex int         `json:"layer_index"`
	LayerTime  float64     `json:"layer_time"`
	SpeedRatio float64     `json:"speed_ratio"`
	FanPercent int         `json:"fan_percent"`
	GCode      string      `json:"gcode"`
	State      gcode.State `json:"state"`

	// OutsideBoundary counts queued segments whose midpoint left the
	// boundary. It is advisory.
	OutsideBoundary int `json:"outside_boundary"`
}

// ErrInvalidLayer is returned for layer descriptions that cannot be planned.
var ErrInvalidLayer = errors.New("invalid layer")

// ============================================================
// Planning
// ============================================================

// PlanLayer plans layer on top of the machine state left by the previous layer
// and returns its G-code together with the state to carry on.
func PlanLayer(settings matterslice.ConfigSettings, state gcode.State, layer Layer) (Result, error) {
	if err := layer.validate(); err != nil {
		return Result{}, err
	}
	if layer.LayerThicknessUM > 0 {
		settings.LayerThicknessUM = layer.LayerThicknessUM
	}

	var buf bytes.Buffer
	ex := gcode.NewExporter(&buf, settings)
	ex.Restore(state)
	ex.SetLayerIndex(layer.LayerIndex)
	ex.SetCurrentZ(layer.ZUM)

	planner := matterslice.NewLayerGCodePlanner(&settings, ex,
		settings.TravelSpeed,
		settings.RetractionMinimumDistanceUM,
		settings.PerimeterStartEndOverlap)
	if len(layer.Boundary) > 0 {
		planner.SetPathFinder(matterslice.NewVisibilityPathFinder(toPolygons(layer.Boundary), matterslice.DefaultBoundaryInset))
	}
	if planner.ToolChangeRequired(layer.Extruder) {
		planner.SetExtruder(layer.Extruder)
	}

	fan := 0
	if layer.FanPercent != nil {
		fan = *layer.FanPercent
	}
	planner.QueueFanCommand(fan, planner.TravelConfig())

	for i, f := range layer.Features {
		var opts []matterslice.PathConfigOption
		if f.ClosedLoop {
			opts = append(opts, matterslice.ClosedLoop())
		}
		if f.Spiralize {
			opts = append(opts, matterslice.Spiralize())
		}
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("feature%d", i)
		}
		config := matterslice.NewPathConfig(name, f.Comment, f.Speed, f.LineWidthUM, opts...)
		polygons := toPolygons(f.Polygons)
		if f.Optimize {
			planner.QueuePolygonsByOptimizer(polygons, planner.PathFinder(), config, layer.LayerIndex)
		} else {
			planner.QueuePolygons(polygons, config)
		}
	}

	outside := planner.ValidatePaths()
	planner.FinalizeLayerFanSpeeds(layer.LayerIndex)
	planner.WriteQueuedGCode(settings.LayerThicknessUM)
	if err := ex.Err(); err != nil {
		return Result{}, fmt.Errorf("layer %d: %w", layer.LayerIndex, err)
	}

	return Result{
		LayerIndex:      layer.LayerIndex,
		LayerTime:       planner.LayerTime(),
		SpeedRatio:      ex.LayerSpeedRatio(),
		FanPercent:      max(fan, planner.FanPercent(layer.LayerIndex)),
		GCode:           buf.String(),
		OutsideBoundary: len(outside),
		State:           ex.State(),
	}, nil
}

func (l Layer) validate() error {
	if l.LayerIndex < 0 {
		return fmt.Errorf("%w: negative layer index %d", ErrInvalidLayer, l.LayerIndex)
	}
	if l.Extruder < 0 {
		return fmt.Errorf("%w: negative extruder %d", ErrInvalidLayer, l.Extruder)
	}
	if l.FanPercent != nil && (*l.FanPercent < 0 || *l.FanPercent > 100) {
		return fmt.Errorf("%w: fan percent %d out of range", ErrInvalidLayer, *l.FanPercent)
	}
	for i, f := range l.Features {
		if f.Speed <= 0 {
			return fmt.Errorf("%w: feature %d has no speed", ErrInvalidLayer, i)
		}
		if f.LineWidthUM < 0 {
			return fmt.Errorf("%w: feature %d has a negative line width", ErrInvalidLayer, i)
		}
		for j, p := range f.Polygons {
			if len(p) == 0 {
				return fmt.Errorf("%w: feature %d polygon %d is empty", ErrInvalidLayer, i, j)
			}
		}
	}
	return nil
}

func toPolygons(in [][][2]int64) matterslice.Polygons {
	out := make(matterslice.Polygons, len(in))
	for i, p := range in {
		poly := make(matterslice.Polygon, len(p))
		for j, c := range p {
			poly[j] = matterslice.Pt(c[0], c[1])
		}
		out[i] = poly
	}
	return out
}
