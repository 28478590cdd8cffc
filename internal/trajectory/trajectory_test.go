package trajectory

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/timegrid"
)

var gridStart = time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

func testGrid(t *testing.T, n int) *timegrid.Grid {
	t.Helper()
	g, err := timegrid.New(gridStart, 10*time.Minute, n)
	require.NoError(t, err)
	return g
}

func TestSynthesizeOrbit(t *testing.T) {
	grid := testGrid(t, 144)
	const radius, amp = 7050.0, 500.0

	s, err := Synthesize(Candidate{Name: "NEW_SAT", Variant: VariantOrbit, RadiusKm: radius, ZAmplitudeKm: amp}, grid)
	require.NoError(t, err)

	assert.Equal(t, "NEW_SAT", s.ID())
	assert.Equal(t, 144, s.Len())
	assert.True(t, s.Complete())

	for i, sm := range s.Samples() {
		theta := 2 * math.Pi * float64(i) / 144
		p := sm.Position
		assert.True(t, scalar.EqualWithinAbs(math.Hypot(p.X, p.Y), radius, 1e-9), "sample %d off the circle", i)
		assert.Equal(t, amp*math.Sin(2*theta), p.Z, "sample %d z", i)
		assert.True(t, sm.Time.Equal(grid.At(i)))
		assert.Equal(t, i, sm.Index)
	}

	first := s.Samples()[0].Position
	assert.Equal(t, r3.Vec{X: radius, Y: 0, Z: 0}, first)
}

func TestSynthesizeFixed(t *testing.T) {
	grid := testGrid(t, 144)
	point := r3.Vec{X: 1e6, Y: 1e6, Z: 1e6}

	s, err := Synthesize(Candidate{Name: "PARKED", Variant: VariantFixed, Point: point}, grid)
	require.NoError(t, err)

	require.Equal(t, 144, s.Len())
	for i, sm := range s.Samples() {
		assert.Equal(t, point, sm.Position, "sample %d", i)
		assert.True(t, sm.Time.Equal(grid.At(i)))
	}
}

func TestSynthesizeUnknownVariant(t *testing.T) {
	_, err := Synthesize(Candidate{Name: "X", Variant: "spiral"}, testGrid(t, 4))
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestSynthesizeDeterministic(t *testing.T) {
	grid := testGrid(t, 144)
	c := Candidate{Name: "A", Variant: VariantOrbit, RadiusKm: 6800, ZAmplitudeKm: 120}
	a, err := Synthesize(c, grid)
	require.NoError(t, err)
	b, err := Synthesize(c, grid)
	require.NoError(t, err)
	assert.Equal(t, a.Samples(), b.Samples())
}

func TestNewSeriesOrdersAndIndexes(t *testing.T) {
	grid := testGrid(t, 4)
	samples := []Sample{
		{Index: 3, Time: grid.At(3), Position: r3.Vec{X: 3}},
		{Index: 0, Time: grid.At(0), Position: r3.Vec{X: 0}},
		{Index: 2, Time: grid.At(2), Position: r3.Vec{X: 2}},
	}
	s, err := NewSeries("OBJ", grid, samples)
	require.NoError(t, err)

	require.Equal(t, 3, s.Len())
	assert.False(t, s.Complete())
	for i, sm := range s.Samples() {
		if i > 0 {
			assert.Less(t, s.Samples()[i-1].Index, sm.Index)
		}
	}

	_, ok := s.At(1)
	assert.False(t, ok, "missing instant")
	got, ok := s.AtTime(grid.At(2))
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Position.X)
	_, ok = s.At(99)
	assert.False(t, ok)
}

func TestNewSeriesRejectsInvalidSamples(t *testing.T) {
	grid := testGrid(t, 4)
	tests := []struct {
		name    string
		samples []Sample
	}{
		{"off grid", []Sample{{Index: 0, Time: grid.At(0).Add(time.Minute)}}},
		{"beyond grid", []Sample{{Index: 4, Time: grid.Start().Add(4 * grid.Step())}}},
		{"index mismatch", []Sample{{Index: 1, Time: grid.At(2)}}},
		{"duplicate", []Sample{{Index: 1, Time: grid.At(1)}, {Index: 1, Time: grid.At(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSeries("OBJ", grid, tt.samples)
			assert.Error(t, err)
		})
	}
}
