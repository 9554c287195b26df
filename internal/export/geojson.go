package export

import (
	"backend-runtracker/internal/engine"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON renders a snapshot as a FeatureCollection holding one
// MultiLineString feature, one line per non-empty segment.
func GeoJSON(runID string, snap engine.Snapshot) ([]byte, error) {
	lines := make(orb.MultiLineString, 0, len(snap.Track))
	for _, seg := range snap.Track {
		if len(seg) == 0 {
			continue
		}
		line := make(orb.LineString, 0, len(seg))
		for _, c := range seg {
			line = append(line, orb.Point{c.Longitude, c.Latitude})
		}
		lines = append(lines, line)
	}

	feature := geojson.NewFeature(lines)
	feature.Properties["run_id"] = runID
	feature.Properties["status"] = string(snap.Status)
	feature.Properties["total_distance_km"] = snap.Metrics.TotalDistanceKm
	feature.Properties["total_time_seconds"] = snap.Metrics.TotalTimeSeconds
	feature.Properties["current_pace_min_per_km"] = snap.Metrics.CurrentPaceMinPerKm
	feature.Properties["segments"] = len(lines)

	fc := geojson.NewFeatureCollection()
	fc.Append(feature)
	return fc.MarshalJSON()
}
