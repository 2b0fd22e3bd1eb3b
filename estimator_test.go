package matterslice

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSecondsForMovement(t *testing.T) {
	tests := []struct {
		name                     string
		distance, speed          float64
		accel, maxVelocity, jerk float64
		want                     float64
	}{
		{"no acceleration limit", 10, 50, 0, 0, 0, 0.2},
		{"trapezoid", 100, 100, 1000, 500, 0, 1.1},
		{"capped by max velocity", 100, 1000, 1000, 100, 0, 1.1},
		{"triangle", 4, 100, 1000, 500, 0, 2 * math.Sqrt(4000) / 1000},
		{"jerk above speed", 10, 50, 1000, 500, 80, 0.2},
		{"zero distance", 0, 50, 1000, 500, 8, 0},
		{"zero speed", 10, 0, 1000, 500, 8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SecondsForMovement(tt.distance, tt.speed, tt.accel, tt.maxVelocity, tt.jerk)
			diff(t, tt.want, got, cmpopts.EquateApprox(0, 1e-9))
		})
	}
}

func TestSecondsForMovementJerkShortensMoves(t *testing.T) {
	slow := SecondsForMovement(20, 100, 1000, 500, 0)
	fast := SecondsForMovement(20, 100, 1000, 500, 20)
	if fast >= slow {
		t.Errorf("entering at jerk velocity took %vs, want less than %vs", fast, slow)
	}
	if floor := 20.0 / 100; fast < floor {
		t.Errorf("move took %vs, faster than cruising throughout (%vs)", fast, floor)
	}
}
