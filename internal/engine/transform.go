package engine

import "math"

// Krasovsky 1940 ellipsoid used by the national offset algorithm.
const (
	semiMajorAxis = 6378245.0
	eccentricity2 = 0.00669342162296594323
)

// OutsideCorrectionRegion reports whether the offset transform leaves the
// coordinate untouched.
func OutsideCorrectionRegion(lat, lon float64) bool {
	return lon < 72.004 || lon > 137.8347 || lat < 0.8293 || lat > 55.8271
}

// Transform maps a raw geodetic coordinate into the display coordinate
// system. Coordinates outside the correction region pass through unchanged.
func Transform(lat, lon float64) Coordinate {
	if OutsideCorrectionRegion(lat, lon) {
		return Coordinate{Latitude: lat, Longitude: lon}
	}

	dLat := deltaLat(lon-105.0, lat-35.0)
	dLon := deltaLon(lon-105.0, lat-35.0)

	radLat := lat / 180.0 * math.Pi
	magic := math.Sin(radLat)
	magic = 1 - eccentricity2*magic*magic
	sqrtMagic := math.Sqrt(magic)

	dLat = (dLat * 180.0) / ((semiMajorAxis * (1 - eccentricity2)) / (magic * sqrtMagic) * math.Pi)
	dLon = (dLon * 180.0) / (semiMajorAxis / sqrtMagic * math.Cos(radLat) * math.Pi)

	return Coordinate{Latitude: lat + dLat, Longitude: lon + dLon}
}

func deltaLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*math.Pi) + 320*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func deltaLon(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}
