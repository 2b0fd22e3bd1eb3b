package matterslice

// ConfigSettings holds the machine and cooling settings the planner reads.
// Speeds are in mm/s, accelerations in mm/s², times in seconds and distances
// in microns unless the field name says otherwise.
type ConfigSettings struct {
	MaxAcceleration             float64 `json:"max_acceleration"`
	MaxVelocity                 float64 `json:"max_velocity"`
	JerkVelocity                float64 `json:"jerk_velocity"`
	PrintTimeEstimateMultiplier float64 `json:"print_time_estimate_multiplier"`

	MinimumLayerTimeSeconds float64 `json:"minimum_layer_time_seconds"`
	MinimumPrintingSpeed    float64 `json:"minimum_printing_speed"`

	FirstLayerToAllowFan int     `json:"first_layer_to_allow_fan"`
	MinFanSpeedLayerTime float64 `json:"min_fan_speed_layer_time"`
	MaxFanSpeedLayerTime float64 `json:"max_fan_speed_layer_time"`
	FanSpeedMinPercent   int     `json:"fan_speed_min_percent"`
	FanSpeedMaxPercent   int     `json:"fan_speed_max_percent"`

	CoastAtEndDistanceUM int64 `json:"coast_at_end_distance_um"`

	// The remaining settings are read by exporters, not by the planner core.
	FilamentDiameterUM int64   `json:"filament_diameter_um"`
	LayerThicknessUM   int64   `json:"layer_thickness_um"`
	RetractionAmountMM float64 `json:"retraction_amount_mm"`
	RetractionSpeed    float64 `json:"retraction_speed"`
	// RetractionMinimumDistanceUM is the travel length above which travel
	// moves retract.
	RetractionMinimumDistanceUM int64   `json:"retraction_minimum_distance_um"`
	TravelSpeed                 float64 `json:"travel_speed"`
	// PerimeterStartEndOverlap is the share of a line width by which closed
	// perimeters overlap their own start.
	PerimeterStartEndOverlap float64 `json:"perimeter_start_end_overlap"`
}

// DefaultConfigSettings returns settings suitable for a typical 1.75mm
// desktop printer.
func DefaultConfigSettings() ConfigSettings {
	return ConfigSettings{
		MaxAcceleration:             1000,
		MaxVelocity:                 500,
		JerkVelocity:                8,
		PrintTimeEstimateMultiplier: 1,

		MinimumLayerTimeSeconds: 5,
		MinimumPrintingSpeed:    10,

		FirstLayerToAllowFan: 2,
		MinFanSpeedLayerTime: 300,
		MaxFanSpeedLayerTime: 60,
		FanSpeedMinPercent:   35,
		FanSpeedMaxPercent:   100,

		CoastAtEndDistanceUM: 0,

		FilamentDiameterUM:          1750,
		LayerThicknessUM:            200,
		RetractionAmountMM:          1,
		RetractionSpeed:             45,
		RetractionMinimumDistanceUM: 1500,
		TravelSpeed:                 150,
		PerimeterStartEndOverlap:    0.9,
	}
}
