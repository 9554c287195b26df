package engine

import "math"

// Accept reports whether fix is accurate enough to be tracked.
func (c Config) Accept(fix Fix) bool {
	if !finite(fix.Latitude) || !finite(fix.Longitude) || !finite(fix.HorizontalAccuracyM) {
		return false
	}
	return fix.HorizontalAccuracyM <= c.MaxAccuracyM
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
