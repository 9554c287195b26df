package engine

import "math"

// RecomputePace returns minutes per kilometre for the given totals, or prev
// when either total is zero.
func RecomputePace(prev float64, totalTimeSeconds uint64, totalDistanceKm float64) float64 {
	if totalTimeSeconds == 0 || !(totalDistanceKm > 0) {
		return prev
	}
	pace := (float64(totalTimeSeconds) / 60.0) / totalDistanceKm
	if math.IsNaN(pace) || math.IsInf(pace, 0) {
		return prev
	}
	return pace
}
