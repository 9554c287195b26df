package export

import (
	"backend-runtracker/internal/engine"

	"github.com/tkrajina/gpxgo/gpx"
)

const creator = "backend-runtracker"

// GPX renders a snapshot as a GPX 1.1 document with one track and one
// trkseg per non-empty segment. Points carry <time> when the coordinate has
// a recorded timestamp.
func GPX(name string, snap engine.Snapshot) ([]byte, error) {
	trk := gpx.GPXTrack{Name: name, Type: "running"}
	for _, seg := range snap.Track {
		if len(seg) == 0 {
			continue
		}
		out := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(seg))}
		for _, c := range seg {
			point := gpx.GPXPoint{
				Point: gpx.Point{Latitude: c.Latitude, Longitude: c.Longitude},
			}
			if !c.RecordedAt.IsZero() {
				point.Timestamp = c.RecordedAt.UTC()
			}
			out.Points = append(out.Points, point)
		}
		trk.Segments = append(trk.Segments, out)
	}

	doc := &gpx.GPX{
		Version: "1.1",
		Creator: creator,
		Tracks:  []gpx.GPXTrack{trk},
	}
	return doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
}
