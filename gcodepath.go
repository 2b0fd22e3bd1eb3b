package matterslice

import "fmt"

// Feature comments recognised by the planner. Upstream producers may use any
// other label; only these change rendering or timing behavior.
const (
	CommentWallOuter = "WALL-OUTER"
	CommentWallInner = "WALL-INNER"
	CommentBridge    = "BRIDGE"
	CommentFill      = "FILL"
	CommentSupport   = "SUPPORT"
	CommentSkirt     = "SKIRT"
	CommentTravel    = "travel"
)

// NoFanChange marks a path that carries no fan command.
const NoFanChange = -1

type PathKind int

const (
	// ExtrusionPath paths deposit material.
	ExtrusionPath PathKind = iota + 1
	// TravelPath paths move the head without extruding.
	TravelPath
)

func (k PathKind) String() string {
	switch k {
	case ExtrusionPath:
		return "extrusion"
	case TravelPath:
		return "travel"
	default:
		return fmt.Sprintf("PathKind(%d)", int(k))
	}
}

// GCodePathConfig describes one feature type, such as the outer wall or
// infill. It is shared by every path of that feature and must not be modified
// once paths using it have been queued.
type GCodePathConfig struct {
	Name         string
	GCodeComment string
	// Speed is the nominal speed in mm/s.
	Speed float64
	// LineWidthUM is the extrusion width; 0 means the path does not extrude.
	LineWidthUM int64
	ClosedLoop  bool
	Spiralize   bool
	Kind        PathKind
}

// PathConfigOption configures optional properties of a [GCodePathConfig].
type PathConfigOption func(*GCodePathConfig)

// ClosedLoop marks the feature's polygons as closed rings.
func ClosedLoop() PathConfigOption {
	return func(c *GCodePathConfig) { c.ClosedLoop = true }
}

// Spiralize marks the feature as a vase-mode perimeter.
func Spiralize() PathConfigOption {
	return func(c *GCodePathConfig) { c.Spiralize = true }
}

// NewPathConfig returns the config of an extruding feature.
func NewPathConfig(name, comment string, speed float64, lineWidthUM int64, opts ...PathConfigOption) *GCodePathConfig {
	c := &GCodePathConfig{
		Name:         name,
		GCodeComment: comment,
		Speed:        speed,
		LineWidthUM:  lineWidthUM,
		Kind:         ExtrusionPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewTravelConfig returns the config used for non-extruding moves.
func NewTravelConfig(speed float64) *GCodePathConfig {
	return &GCodePathConfig{
		Name:         "travelConfig",
		GCodeComment: CommentTravel,
		Speed:        speed,
		Kind:         TravelPath,
	}
}

// IsTravel reports whether c is a travel config.
func (c *GCodePathConfig) IsTravel() bool {
	return c.Kind == TravelPath
}

func (c *GCodePathConfig) String() string {
	return fmt.Sprintf("%s(%s, %gmm/s, %dum)", c.Name, c.GCodeComment, c.Speed, c.LineWidthUM)
}

type RetractType int

const (
	RetractNone RetractType = iota
	// RetractRequested is set by travel heuristics.
	RetractRequested
	// RetractForce is set explicitly by the caller.
	RetractForce
)

func (r RetractType) String() string {
	switch r {
	case RetractNone:
		return "None"
	case RetractRequested:
		return "Requested"
	case RetractForce:
		return "Force"
	default:
		return fmt.Sprintf("RetractType(%d)", int(r))
	}
}

// GCodePath is one queued movement: the points it visits, in order, all
// sharing one config.
type GCodePath struct {
	Polygon Polygon
	Config  *GCodePathConfig
	// Speed is the effective speed in mm/s. It starts at Config.Speed and may
	// be lowered by minimum layer time correction.
	Speed         float64
	Retract       RetractType
	ExtruderIndex int
	// FanPercent is the fan speed to set before the path, or NoFanChange.
	FanPercent int
	// Done closes the path to further points.
	Done bool
}

// Clone returns a copy of p with its own polygon.
func (p *GCodePath) Clone() *GCodePath {
	out := *p
	out.Polygon = p.Polygon.Clone()
	return &out
}

// TrimGCodePathEnd returns a copy of path whose polygon has targetDistance
// microns removed from its end.
func TrimGCodePathEnd(path *GCodePath, targetDistance int64) *GCodePath {
	out := path.Clone()
	out.Polygon = out.Polygon.TrimEnd(targetDistance)
	return out
}
