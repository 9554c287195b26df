package engine

import "math"

// AddDistance returns total+deltaKm, ignoring deltas that would make the
// total shrink or stop being a number.
func AddDistance(total, deltaKm float64) float64 {
	if deltaKm <= 0 || math.IsNaN(deltaKm) || math.IsInf(deltaKm, 0) {
		return total
	}
	return total + deltaKm
}
