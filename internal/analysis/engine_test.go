package analysis

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/propagation"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/tle"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/trajectory"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

var (
	issRecord = tle.Record{
		NORADID: 25544,
		Name:    "ISS (ZARYA)",
		Line1:   "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005",
		Line2:   "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09",
	}
	starlinkRecord = tle.Record{
		NORADID: 44713,
		Name:    "STARLINK-1007",
		Line1:   "1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995",
		Line2:   "2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05",
	}
	now = time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
)

func testEngine() *Engine {
	return NewEngine(Options{
		Steps:       144,
		Step:        10 * time.Minute,
		ThresholdKm: 5,
		Propagation: propagation.Config{Workers: 2, MaxCatalog: 20},
	}, testLogger)
}

func fixedAt(name string, p r3.Vec) trajectory.Candidate {
	return trajectory.Candidate{Name: name, Variant: trajectory.VariantFixed, Point: p}
}

func TestNewGrid(t *testing.T) {
	grid, err := testEngine().NewGrid(now.Add(250 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 144, grid.Len())
	assert.Equal(t, 24*time.Hour, grid.Horizon())
	assert.True(t, grid.Start().Equal(now))
}

func TestRunFarCandidateIsSafe(t *testing.T) {
	res, err := testEngine().Run(context.Background(), []tle.Record{issRecord}, fixedAt("FAR", r3.Vec{X: 1e6, Y: 1e6, Z: 1e6}), now)
	require.NoError(t, err)

	assert.True(t, res.Safe())
	assert.Empty(t, res.Report.Events)
	assert.Len(t, res.Report.Series, 1)
	assert.Equal(t, 144, res.Candidate.Len())
}

func TestScreenOffsetFromCatalogObject(t *testing.T) {
	e := testEngine()
	grid, err := e.NewGrid(now)
	require.NoError(t, err)
	catalog, err := e.Propagate(context.Background(), []tle.Record{issRecord, starlinkRecord}, grid)
	require.NoError(t, err)

	iss, ok := catalog.Lookup("ISS (ZARYA)")
	require.True(t, ok)
	t0, ok := iss.At(40)
	require.True(t, ok)

	res, err := e.Screen(catalog, fixedAt("NEW_SAT", r3.Add(t0.Position, r3.Vec{X: 2, Y: 2, Z: 2})), 5)
	require.NoError(t, err)

	require.Len(t, res.Report.Events, 1)
	ev := res.Report.Events[0]
	assert.Equal(t, "ISS (ZARYA)", ev.OtherID)
	assert.Equal(t, "NEW_SAT", ev.CandidateID)
	assert.True(t, ev.Time.Equal(grid.At(40)))
	assert.True(t, scalar.EqualWithinAbs(ev.DistanceKm, 2*math.Sqrt(3), 1e-9))

	require.Len(t, res.Report.Markers, 1)
	assert.True(t, res.Report.Markers[0].Located)
	assert.Equal(t, t0.Position, res.Report.Markers[0].Position)
	assert.False(t, res.Safe())
}

func TestScreenZeroThreshold(t *testing.T) {
	e := testEngine()
	grid, err := e.NewGrid(now)
	require.NoError(t, err)
	catalog, err := e.Propagate(context.Background(), []tle.Record{issRecord}, grid)
	require.NoError(t, err)

	iss, _ := catalog.Lookup("ISS (ZARYA)")
	t0, _ := iss.At(0)
	res, err := e.Screen(catalog, fixedAt("ON_TOP", t0.Position), 0)
	require.NoError(t, err)
	assert.Empty(t, res.Report.Events)
}

func TestRunEmptyCatalog(t *testing.T) {
	res, err := testEngine().Run(context.Background(), nil, fixedAt("C", r3.Vec{X: 7000}), now)
	require.NoError(t, err)
	assert.Empty(t, res.Report.Series)
	assert.Empty(t, res.Report.Events)
	assert.True(t, res.Safe())
}

func TestRunAllRecordsInvalid(t *testing.T) {
	broken := tle.Record{Name: "BROKEN", Line1: "1 nope", Line2: "2 nope"}
	res, err := testEngine().Run(context.Background(), []tle.Record{broken}, fixedAt("C", r3.Vec{X: 7000}), now)
	require.NoError(t, err)
	assert.Empty(t, res.Report.Series)
	assert.Empty(t, res.Report.Events)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, propagation.KindParseFailure, res.Warnings[0].Kind)
}

func TestScreenBeforePropagation(t *testing.T) {
	_, err := testEngine().Screen(nil, fixedAt("C", r3.Vec{}), 5)
	assert.ErrorIs(t, err, ErrNotPropagated)
}

func TestScreenUnknownVariant(t *testing.T) {
	e := testEngine()
	grid, err := e.NewGrid(now)
	require.NoError(t, err)
	catalog, err := e.Propagate(context.Background(), nil, grid)
	require.NoError(t, err)

	_, err = e.Screen(catalog, trajectory.Candidate{Name: "C", Variant: "spiral"}, 5)
	assert.ErrorIs(t, err, trajectory.ErrUnknownVariant)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testEngine().Run(ctx, []tle.Record{issRecord}, fixedAt("C", r3.Vec{}), now)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunDeterministic(t *testing.T) {
	records := []tle.Record{issRecord, starlinkRecord}
	candidate := trajectory.Candidate{Name: "NEW_SAT", Variant: trajectory.VariantOrbit, RadiusKm: 6795, ZAmplitudeKm: 400}

	a, err := testEngine().Run(context.Background(), records, candidate, now)
	require.NoError(t, err)
	b, err := testEngine().Run(context.Background(), records, candidate, now)
	require.NoError(t, err)

	assert.Equal(t, a.Candidate.Samples(), b.Candidate.Samples())
	assert.Equal(t, a.Report.Events, b.Report.Events)
	require.Len(t, b.Report.Series, len(a.Report.Series))
	for i := range a.Report.Series {
		assert.Equal(t, a.Report.Series[i].Samples(), b.Report.Series[i].Samples())
	}
}

func TestConcurrentScreens(t *testing.T) {
	e := testEngine()
	grid, err := e.NewGrid(now)
	require.NoError(t, err)
	catalog, err := e.Propagate(context.Background(), []tle.Record{issRecord, starlinkRecord}, grid)
	require.NoError(t, err)

	iss, _ := catalog.Lookup("ISS (ZARYA)")
	t0, _ := iss.At(10)
	candidate := fixedAt("NEW_SAT", r3.Add(t0.Position, r3.Vec{X: 3}))

	thresholds := []float64{1, 5, 2, 10}
	counts := make([]int, len(thresholds))
	var wg sync.WaitGroup
	for i, th := range thresholds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.Screen(catalog, candidate, th)
			if assert.NoError(t, err) {
				counts[i] = len(res.Report.Events)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, []int{0, 1, 0, 1}, counts)
}
