package propagation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/tle"
)

// SGP4 library: github.com/joshuaferrara/go-satellite.
//
// Propagate() takes Satellite by value so SGP4 error codes are not visible to
// the caller. Failures are detected from NaN/Inf output and implausible radii.
// The library calls log.Fatal on unparsable numeric columns, so every column
// it reads is checked here first.

var (
	// ErrInvalidElements marks an element set that cannot produce a valid orbital state.
	ErrInvalidElements = errors.New("invalid orbital elements")
	// ErrPropagationFailed marks a single instant SGP4 could not resolve.
	ErrPropagationFailed = errors.New("sgp4 propagation failed")
)

// Plausible geocentric radius bounds for a tracked object, km.
const (
	minRadiusKm = 6200.0
	maxRadiusKm = 1_000_000.0
)

// Model computes an object's TEME position (km) at an instant.
type Model interface {
	Position(t time.Time) (r3.Vec, error)
}

// SGP4Model wraps an initialised go-satellite record.
type SGP4Model struct {
	sat satellite.Satellite
	id  string
}

// NewSGP4Model validates rec and initialises SGP4. Any failure wraps ErrInvalidElements.
func NewSGP4Model(rec tle.Record) (*SGP4Model, error) {
	line1 := strings.TrimSpace(rec.Line1)
	line2 := strings.TrimSpace(rec.Line2)
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidElements, rec.ID(), err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: %s: sgp4 init code=%d %s", ErrInvalidElements, rec.ID(), sat.Error, sat.ErrorStr)
	}
	return &SGP4Model{sat: sat, id: rec.ID()}, nil
}

// Position propagates to t (integer-second resolution, UTC).
func (m *SGP4Model) Position(t time.Time) (r3.Vec, error) {
	t = t.UTC()
	pos, _ := satellite.Propagate(m.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	p := r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z}
	if !finite(p) {
		return r3.Vec{}, fmt.Errorf("%w: output is NaN/Inf", ErrPropagationFailed)
	}
	if mag := r3.Norm(p); mag < minRadiusKm || mag > maxRadiusKm {
		return r3.Vec{}, fmt.Errorf("%w: implausible radius %.1f km", ErrPropagationFailed, mag)
	}
	return p, nil
}

func finite(p r3.Vec) bool {
	for _, v := range [...]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// validateTLELines checks format and every numeric column go-satellite parses,
// transformed exactly as the library transforms them.
func validateTLELines(line1, line2 string) error {
	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	if n1, n2 := strings.TrimSpace(line1[2:7]), strings.TrimSpace(line2[2:7]); n1 != n2 {
		return fmt.Errorf("catalog numbers differ: %q vs %q", n1, n2)
	}

	if _, err := strconv.Atoi(strings.TrimSpace(line1[2:7])); err != nil {
		return fmt.Errorf("catalog number: %w", err)
	}
	if _, err := strconv.Atoi(line1[18:20]); err != nil {
		return fmt.Errorf("epoch year: %w", err)
	}

	floatCols := []struct {
		name string
		val  string
	}{
		{"epoch day", line1[20:32]},
		{"ndot", squeeze(line1[33:43])},
		{"nddot", squeeze(line1[44:45] + "." + line1[45:50] + "e" + line1[50:52])},
		{"bstar", squeeze(line1[53:54] + "." + line1[54:59] + "e" + line1[59:61])},
		{"inclination", squeeze(line2[8:16])},
		{"raan", squeeze(line2[17:25])},
		{"eccentricity", "." + line2[26:33]},
		{"argument of perigee", squeeze(line2[34:42])},
		{"mean anomaly", squeeze(line2[43:51])},
		{"mean motion", squeeze(line2[52:63])},
	}
	vals := make(map[string]float64, len(floatCols))
	for _, c := range floatCols {
		v, err := strconv.ParseFloat(c.val, 64)
		if err != nil {
			return fmt.Errorf("%s %q: %w", c.name, c.val, err)
		}
		vals[c.name] = v
	}

	if inc := vals["inclination"]; inc < 0 || inc > 180 {
		return fmt.Errorf("inclination %.4f outside [0,180]", inc)
	}
	if e := vals["eccentricity"]; e < 0 || e >= 1 {
		return fmt.Errorf("eccentricity %.7f outside [0,1)", e)
	}
	if mm := vals["mean motion"]; mm <= 0 {
		return fmt.Errorf("mean motion %.8f must be positive", mm)
	}
	return nil
}

// squeeze drops up to two spaces, as the library does before parsing.
func squeeze(s string) string {
	return strings.Replace(s, " ", "", 2)
}
