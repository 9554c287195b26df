package export

import (
	"testing"
	"time"

	"backend-runtracker/internal/engine"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkrajina/gpxgo/gpx"
)

func sampleSnapshot() engine.Snapshot {
	return engine.Snapshot{
		Status: engine.StatusStopped,
		Track: engine.Track{
			{{Latitude: 48.85, Longitude: 2.35}, {Latitude: 48.851, Longitude: 2.351}},
			{},
			{{Latitude: 48.86, Longitude: 2.36}, {Latitude: 48.861, Longitude: 2.361}, {Latitude: 48.862, Longitude: 2.362}},
		},
		Metrics: engine.Metrics{TotalDistanceKm: 0.42, TotalTimeSeconds: 180, CurrentPaceMinPerKm: 7.1},
	}
}

func TestGeoJSON(t *testing.T) {
	raw, err := GeoJSON("run-1", sampleSnapshot())
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "run-1", f.Properties["run_id"])
	assert.Equal(t, "stopped", f.Properties["status"])

	mls, ok := f.Geometry.(orb.MultiLineString)
	require.True(t, ok, "expected MultiLineString, got %T", f.Geometry)
	require.Len(t, mls, 2)
	assert.Len(t, mls[1], 3)
	assert.Equal(t, orb.Point{2.35, 48.85}, mls[0][0])
}

func TestGeoJSONEmptyTrack(t *testing.T) {
	raw, err := GeoJSON("run-2", engine.Snapshot{Status: engine.StatusIdle})
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
}

func TestGPX(t *testing.T) {
	raw, err := GPX("Morning run", sampleSnapshot())
	require.NoError(t, err)

	doc, err := gpx.ParseBytes(raw)
	require.NoError(t, err)
	require.Len(t, doc.Tracks, 1)
	assert.Equal(t, "Morning run", doc.Tracks[0].Name)
	require.Len(t, doc.Tracks[0].Segments, 2)
	assert.Len(t, doc.Tracks[0].Segments[0].Points, 2)
	assert.Len(t, doc.Tracks[0].Segments[1].Points, 3)
	assert.InDelta(t, 48.86, doc.Tracks[0].Segments[1].Points[0].Latitude, 1e-9)
	assert.InDelta(t, 2.36, doc.Tracks[0].Segments[1].Points[0].Longitude, 1e-9)
}

func TestGPXCarriesTimestamps(t *testing.T) {
	at := time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC)
	snap := engine.Snapshot{
		Status: engine.StatusStopped,
		Track: engine.Track{{
			{Latitude: 48.85, Longitude: 2.35, RecordedAt: at},
			{Latitude: 48.851, Longitude: 2.351, RecordedAt: at.Add(5 * time.Second)},
		}},
	}

	raw, err := GPX("timed", snap)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<time>2024-05-01T06:30:00Z</time>")

	doc, err := gpx.ParseBytes(raw)
	require.NoError(t, err)
	points := doc.Tracks[0].Segments[0].Points
	require.Len(t, points, 2)
	assert.True(t, at.Equal(points[0].Timestamp))
	assert.True(t, at.Add(5*time.Second).Equal(points[1].Timestamp))
}

func TestGPXOmitsMissingTimestamps(t *testing.T) {
	raw, err := GPX("untimed", sampleSnapshot())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "<time>")
}
