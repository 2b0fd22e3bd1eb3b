package matterslice

import "math"

// SecondsForMovement estimates how long a single straight move takes.
//
// The move follows a symmetric trapezoidal velocity profile: it starts and
// ends at the jerk velocity, accelerates at maxAcceleration up to the cruise
// speed (speed, capped at maxVelocity) and decelerates again. Moves too short
// to reach the cruise speed peak early. A non-positive maxAcceleration disables
// the profile and the move runs at the cruise speed throughout.
func SecondsForMovement(distanceMm, speed, maxAcceleration, maxVelocity, jerkVelocity float64) float64 {
	if distanceMm <= 0 || speed <= 0 {
		return 0
	}
	cruiseV := speed
	if maxVelocity > 0 {
		cruiseV = min(cruiseV, maxVelocity)
	}
	if maxAcceleration <= 0 {
		return distanceMm / cruiseV
	}

	startV := min(max(jerkVelocity, 0), cruiseV)
	startV2 := startV * startV
	halfInvAccel := 0.5 / maxAcceleration

	// Distance needed to get from startV to cruiseV, and the same again to
	// slow back down.
	accelD := (cruiseV*cruiseV - startV2) * halfInvAccel
	if 2*accelD > distanceMm {
		// peak velocity where acceleration and deceleration meet
		peakV := math.Sqrt(startV2 + maxAcceleration*distanceMm)
		accelT := (peakV - startV) / maxAcceleration
		return 2 * accelT
	}

	accelT := accelD / ((startV + cruiseV) * 0.5)
	cruiseT := (distanceMm - 2*accelD) / cruiseV
	return 2*accelT + cruiseT
}
