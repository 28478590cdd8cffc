// Package transform converts SGP4 output into the run's output frame.
//
// SGP4 produces TEME (True Equator Mean Equinox) coordinates, which serve as
// the default inertial frame. The Earth-fixed alternative rotates TEME about
// the Z axis by GMST only (TEME → PEF ≈ ECEF), ignoring polar motion and the
// equation of the equinoxes; the error is tens of metres, far below any
// screening threshold.
package transform

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Frame names a Cartesian output frame. All coordinates are kilometres.
type Frame string

const (
	// FrameTEME is the inertial SGP4 frame.
	FrameTEME Frame = "teme"
	// FrameECEF is the Earth-fixed frame.
	FrameECEF Frame = "ecef"
)

// ParseFrame validates a frame name.
func ParseFrame(s string) (Frame, error) {
	switch f := Frame(s); f {
	case FrameTEME, FrameECEF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown frame %q (want %q or %q)", s, FrameTEME, FrameECEF)
	}
}

// FromTEME expresses a TEME position at time t in frame f.
func FromTEME(f Frame, teme r3.Vec, t time.Time) r3.Vec {
	if f == FrameECEF {
		return TEMEToECEF(teme, GMST(t))
	}
	return teme
}

// TEMEToECEF rotates a TEME position by R3(gmst). Units are preserved.
func TEMEToECEF(teme r3.Vec, gmst float64) r3.Vec {
	sin, cos := math.Sincos(gmst)
	return r3.Vec{
		X: teme.X*cos + teme.Y*sin,
		Y: -teme.X*sin + teme.Y*cos,
		Z: teme.Z,
	}
}
