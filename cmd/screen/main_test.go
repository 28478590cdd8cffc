package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/analysis"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/proximity"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/report"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/timegrid"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/tle"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/trajectory"
)

const issTLE = "ISS (ZARYA)\n1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005\n2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09\n"

func tleFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "active.txt")
	require.NoError(t, os.WriteFile(path, []byte(issTLE), 0o644))
	return path
}

func TestRunSafeSummary(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--tle.file", tleFile(t),
		"--start", "2024-04-09T12:00:00Z",
		"--candidate.variant", "fixed",
		"--candidate.x_km", "1e6", "--candidate.y_km", "1e6", "--candidate.z_km", "1e6",
		"--propagation_steps", "12",
		"--log_level", "error",
	}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "Catalog: 1 objects propagated, 0 warnings")
	assert.Contains(t, out, "NEW_SAT trajectory is safe: no object within 5.00 km.")
}

func TestRunJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--tle.file", tleFile(t),
		"--start", "2024-04-09T12:00:00Z",
		"--candidate.name", "PROBE",
		"--propagation_steps", "6",
		"--json",
		"--log_level", "error",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var doc struct {
		Safe      bool `json:"safe"`
		Candidate struct {
			ID      string            `json:"id"`
			Samples []json.RawMessage `json:"samples"`
		} `json:"candidate"`
		Series []json.RawMessage `json:"series"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))
	assert.Equal(t, "PROBE", doc.Candidate.ID)
	assert.Len(t, doc.Candidate.Samples, 6)
	assert.Len(t, doc.Series, 1)
}

func TestRunInvalidConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--candidate.radius_km", "9000"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "radius_km")
	assert.Empty(t, stdout.String())
}

func TestRunMissingTLEFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--tle.file", "/nonexistent/active.txt"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "ERROR loading element data")
}

func TestSummarizeEvents(t *testing.T) {
	grid, err := timegrid.New(time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC), 10*time.Minute, 3)
	require.NoError(t, err)
	candidate, err := trajectory.Synthesize(trajectory.Candidate{Name: "NEW_SAT", Variant: trajectory.VariantFixed, Point: r3.Vec{X: 7000}}, grid)
	require.NoError(t, err)
	other, err := trajectory.Synthesize(trajectory.Candidate{Name: "SAT-A", Variant: trajectory.VariantFixed, Point: r3.Vec{X: 7003}}, grid)
	require.NoError(t, err)

	events, err := proximity.Detect(candidate, []trajectory.Series{other}, 5)
	require.NoError(t, err)
	rep, err := report.Build(events, []trajectory.Series{other})
	require.NoError(t, err)

	res := &analysis.Result{Grid: grid, ThresholdKm: 5, Candidate: candidate, Report: rep}
	ds := tle.NewDataset("file:test", grid.Start(), nil)

	var buf bytes.Buffer
	summarize(&buf, ds, res)
	out := buf.String()
	assert.Contains(t, out, "WARNING: 3 possible collision(s) detected with NEW_SAT (threshold 5.00 km)")
	assert.Contains(t, out, "2024-04-09T12:10:00Z  SAT-A   3.000")
	assert.Contains(t, out, "(7003.0, 0.0, 0.0)")
}
