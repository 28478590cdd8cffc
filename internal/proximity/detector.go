// Package proximity finds the instants at which catalog objects pass within a
// distance threshold of the candidate.
package proximity

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/trajectory"
)

// ErrGridMismatch is returned when the series passed to Detect were not built
// on the same time grid.
var ErrGridMismatch = errors.New("series built on different time grids")

// Event is one close approach: the candidate and another object closer than
// the threshold at a grid instant.
type Event struct {
	Time        time.Time
	Index       int // grid index of Time
	CandidateID string
	OtherID     string
	DistanceKm  float64
}

// Distance is the Euclidean separation of a and b, km.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Detect scans the candidate against every catalog series at each instant the
// candidate has a sample. An event is emitted for each object whose sample at
// that instant is strictly closer than thresholdKm; nothing is suppressed or
// ranked. Events are ordered by instant, then by catalog order.
//
// The scan is a brute force O(T×M) over T candidate instants and M catalog
// objects. Catalog series sharing the candidate's identifier are skipped.
func Detect(candidate trajectory.Series, catalog []trajectory.Series, thresholdKm float64) ([]Event, error) {
	events := []Event{}
	if candidate.Len() == 0 {
		return events, nil
	}

	grid := candidate.Grid()
	for _, s := range catalog {
		if s.Len() > 0 && !grid.Equal(s.Grid()) {
			return nil, fmt.Errorf("%w: %s is on %v, candidate %s on %v", ErrGridMismatch, s.ID(), s.Grid(), candidate.ID(), grid)
		}
	}

	for _, c := range candidate.Samples() {
		for _, s := range catalog {
			if s.ID() == candidate.ID() {
				continue
			}
			o, ok := s.At(c.Index)
			if !ok {
				continue
			}
			if d := Distance(c.Position, o.Position); d < thresholdKm {
				events = append(events, Event{
					Time:        c.Time,
					Index:       c.Index,
					CandidateID: candidate.ID(),
					OtherID:     s.ID(),
					DistanceKm:  d,
				})
			}
		}
	}
	return events, nil
}
