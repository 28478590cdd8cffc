package transform

import (
	"math"
	"time"
)

const (
	// jdJ2000 is the Julian Date of the J2000.0 epoch (2000-01-01 12:00 TT).
	jdJ2000 = 2451545.0
	// jdUnixEpoch is the Julian Date of 1970-01-01 00:00 UTC.
	jdUnixEpoch   = 2440587.5
	secondsPerDay = 86400.0
)

// JulianDate converts t to a Julian Date on the UTC scale.
func JulianDate(t time.Time) float64 {
	return jdUnixEpoch + float64(t.UnixNano())/1e9/secondsPerDay
}

// GMST returns Greenwich Mean Sidereal Time in radians, [0, 2π), using the
// IAU-82 polynomial (Vallado, "Fundamentals of Astrodynamics", eq. 3-47):
//
//	θ = 67310.54841 + (876600h + 8640184.812866)·T + 0.093104·T² − 6.2e-6·T³  [s]
//
// where T is Julian centuries of UT1 since J2000.0 (UTC is used as UT1).
func GMST(t time.Time) float64 {
	tu := (JulianDate(t) - jdJ2000) / 36525.0

	sec := 67310.54841 +
		(876600.0*3600.0+8640184.812866)*tu +
		0.093104*tu*tu -
		6.2e-6*tu*tu*tu

	sec = math.Mod(sec, secondsPerDay)
	if sec < 0 {
		sec += secondsPerDay
	}
	return sec / secondsPerDay * 2 * math.Pi
}
