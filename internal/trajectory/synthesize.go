package trajectory

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/timegrid"
)

// ErrUnknownVariant is returned for a candidate variant Synthesize does not know.
var ErrUnknownVariant = errors.New("unknown candidate variant")

// Variant selects how the candidate trajectory is generated.
type Variant string

const (
	// VariantOrbit traces one closed parametric revolution over the grid.
	VariantOrbit Variant = "orbit"
	// VariantFixed holds a single point for the whole grid.
	VariantFixed Variant = "fixed"
)

// Candidate describes the user-specified object screened against the catalog.
// RadiusKm and ZAmplitudeKm apply to VariantOrbit, Point to VariantFixed.
// Range checks are the caller's job; Synthesize accepts any finite value.
type Candidate struct {
	Name         string
	Variant      Variant
	RadiusKm     float64
	ZAmplitudeKm float64
	Point        r3.Vec
}

// Synthesize builds the candidate's series with exactly one sample per grid instant.
//
// For VariantOrbit, sample i of N sits at angle θ = 2π·i/N:
//
//	x = R·cos θ, y = R·sin θ, z = A·sin 2θ
//
// so the N samples cover exactly one period.
func Synthesize(c Candidate, grid *timegrid.Grid) (Series, error) {
	if grid == nil {
		return Series{}, fmt.Errorf("candidate %q: nil grid", c.Name)
	}

	n := grid.Len()
	samples := make([]Sample, n)

	switch c.Variant {
	case VariantOrbit:
		for i := range samples {
			theta := 2 * math.Pi * float64(i) / float64(n)
			samples[i] = Sample{
				Index: i,
				Time:  grid.At(i),
				Position: r3.Vec{
					X: c.RadiusKm * math.Cos(theta),
					Y: c.RadiusKm * math.Sin(theta),
					Z: c.ZAmplitudeKm * math.Sin(2*theta),
				},
			}
		}
	case VariantFixed:
		for i := range samples {
			samples[i] = Sample{Index: i, Time: grid.At(i), Position: c.Point}
		}
	default:
		return Series{}, fmt.Errorf("%w: %q", ErrUnknownVariant, c.Variant)
	}

	return NewSeries(c.Name, grid, samples)
}
