// Package timegrid defines the ordered set of sample instants shared by every
// trajectory in one screening run.
//
// A Grid is built once per run and handed to every component; components must
// never rebuild it from "now" on their own, otherwise the catalog and the
// candidate end up sampled at different instants and cannot be compared.
package timegrid

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidGrid is returned when grid parameters cannot describe a usable grid.
var ErrInvalidGrid = errors.New("invalid time grid")

// Grid is an immutable sequence of N evenly spaced UTC instants.
type Grid struct {
	start time.Time
	step  time.Duration
	n     int
}

// New builds a grid of n instants starting at start and spaced by step.
// The start is converted to UTC and truncated to whole seconds because SGP4
// propagation is driven by integer calendar components.
func New(start time.Time, step time.Duration, n int) (*Grid, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d steps", ErrInvalidGrid, n)
	}
	if step <= 0 || step%time.Second != 0 {
		return nil, fmt.Errorf("%w: step %s must be a positive whole number of seconds", ErrInvalidGrid, step)
	}
	return &Grid{
		start: start.UTC().Truncate(time.Second),
		step:  step,
		n:     n,
	}, nil
}

// Len returns the number of instants.
func (g *Grid) Len() int { return g.n }

// Start returns the first instant.
func (g *Grid) Start() time.Time { return g.start }

// Step returns the spacing between instants.
func (g *Grid) Step() time.Duration { return g.step }

// End returns the last instant.
func (g *Grid) End() time.Time { return g.At(g.n - 1) }

// Horizon is the time covered by the grid, N steps.
func (g *Grid) Horizon() time.Duration { return time.Duration(g.n) * g.step }

// At returns the i-th instant. It panics if i is out of range, like a slice index.
func (g *Grid) At(i int) time.Time {
	if i < 0 || i >= g.n {
		panic(fmt.Sprintf("timegrid: index %d out of range [0,%d)", i, g.n))
	}
	return g.start.Add(time.Duration(i) * g.step)
}

// Index returns the position of t in the grid, or false when t is not one of
// the grid instants.
func (g *Grid) Index(t time.Time) (int, bool) {
	d := t.Sub(g.start)
	if d < 0 || d%g.step != 0 {
		return 0, false
	}
	i := int(d / g.step)
	if i >= g.n {
		return 0, false
	}
	return i, true
}

// Times returns a fresh copy of every instant in order.
func (g *Grid) Times() []time.Time {
	out := make([]time.Time, g.n)
	for i := range out {
		out[i] = g.At(i)
	}
	return out
}

// Equal reports whether both grids describe the same instants.
func (g *Grid) Equal(other *Grid) bool {
	if g == other {
		return true
	}
	if g == nil || other == nil {
		return false
	}
	return g.n == other.n && g.step == other.step && g.start.Equal(other.start)
}

func (g *Grid) String() string {
	return fmt.Sprintf("%s+%dx%s", g.start.Format(time.RFC3339), g.n, g.step)
}
