// Package report joins detector events back to the catalog positions they
// refer to, producing the structure handed to the rendering layer.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/proximity"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/trajectory"
)

// ErrConsistencyFault marks an event that references a sample absent from the
// catalog series. It indicates a logic defect, not noisy input.
var ErrConsistencyFault = errors.New("event does not match any catalog sample")

// Marker is an event with the flagged object's position at the event instant.
// Located is false when the position could not be joined.
type Marker struct {
	Event    proximity.Event
	Position r3.Vec
	Located  bool
}

// Report is the detector output prepared for rendering.
type Report struct {
	Events  []proximity.Event
	Markers []Marker // one per event, same order
	Series  []trajectory.Series
}

// Safe reports whether no close approach was found.
func (r *Report) Safe() bool { return len(r.Events) == 0 }

// ConsistencyError lists the events Build could not join.
type ConsistencyError struct {
	Unmatched []proximity.Event
}

func (e *ConsistencyError) Error() string {
	ids := make([]string, 0, len(e.Unmatched))
	for _, ev := range e.Unmatched {
		ids = append(ids, fmt.Sprintf("%s@%s", ev.OtherID, ev.Time.Format(time.RFC3339)))
	}
	return fmt.Sprintf("%v: %d unmatched (%s)", ErrConsistencyFault, len(e.Unmatched), strings.Join(ids, ", "))
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistencyFault }

// Build attaches to each event the catalog sample keyed by (OtherID, Time).
// Unmatched events stay in the report with Located false, and the returned
// error is a *ConsistencyError. The report is complete either way.
func Build(events []proximity.Event, catalog []trajectory.Series) (*Report, error) {
	byID := make(map[string]trajectory.Series, len(catalog))
	for _, s := range catalog {
		if _, dup := byID[s.ID()]; !dup {
			byID[s.ID()] = s
		}
	}

	r := &Report{
		Events:  events,
		Markers: make([]Marker, 0, len(events)),
		Series:  catalog,
	}
	var unmatched []proximity.Event
	for _, ev := range events {
		m := Marker{Event: ev}
		if s, ok := byID[ev.OtherID]; ok {
			if sample, ok := s.AtTime(ev.Time); ok {
				m.Position = sample.Position
				m.Located = true
			}
		}
		if !m.Located {
			unmatched = append(unmatched, ev)
		}
		r.Markers = append(r.Markers, m)
	}

	if len(unmatched) > 0 {
		return r, &ConsistencyError{Unmatched: unmatched}
	}
	return r, nil
}
