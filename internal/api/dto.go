package api

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/analysis"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/propagation"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/proximity"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/report"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/timegrid"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/trajectory"
)

// JSON wire types. Coordinates are km in the run's frame; times are RFC 3339 UTC.

type gridJSON struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	StepSeconds int64     `json:"step_seconds"`
	Steps       int       `json:"steps"`
}

type sampleJSON struct {
	Index int       `json:"index"`
	Time  time.Time `json:"time"`
	X     float64   `json:"x_km"`
	Y     float64   `json:"y_km"`
	Z     float64   `json:"z_km"`
}

type seriesJSON struct {
	ID       string       `json:"id"`
	Complete bool         `json:"complete"`
	Samples  []sampleJSON `json:"samples"`
}

type warningJSON struct {
	Kind     string     `json:"kind"`
	ObjectID string     `json:"object_id"`
	Time     *time.Time `json:"time,omitempty"`
	Error    string     `json:"error"`
}

type eventJSON struct {
	Time        time.Time `json:"time"`
	Index       int       `json:"index"`
	CandidateID string    `json:"candidate_id"`
	OtherID     string    `json:"other_id"`
	DistanceKm  float64   `json:"distance_km"`
}

type positionJSON struct {
	X float64 `json:"x_km"`
	Y float64 `json:"y_km"`
	Z float64 `json:"z_km"`
}

type markerJSON struct {
	OtherID  string        `json:"other_id"`
	Time     time.Time     `json:"time"`
	Located  bool          `json:"located"`
	Position *positionJSON `json:"position,omitempty"`
}

type catalogResponse struct {
	Source     string        `json:"source"`
	FetchedAt  time.Time     `json:"fetched_at"`
	Grid       gridJSON      `json:"grid"`
	Frame      string        `json:"frame"`
	Objects    []seriesJSON  `json:"objects"`
	Warnings   []warningJSON `json:"warnings"`
	Ignored    int           `json:"ignored"`
	Propagated time.Time     `json:"propagated_at"`
}

// candidateJSON overlays the configured default candidate; absent fields keep
// the default.
type candidateJSON struct {
	Name         *string  `json:"name"`
	Variant      *string  `json:"variant"`
	RadiusKm     *float64 `json:"radius_km"`
	ZAmplitudeKm *float64 `json:"z_amplitude_km"`
	XKm          *float64 `json:"x_km"`
	YKm          *float64 `json:"y_km"`
	ZKm          *float64 `json:"z_km"`
}

type screenRequest struct {
	Candidate   candidateJSON `json:"candidate"`
	ThresholdKm *float64      `json:"threshold_km"`
}

type screenResponse struct {
	Grid             gridJSON     `json:"grid"`
	ThresholdKm      float64      `json:"threshold_km"`
	Safe             bool         `json:"safe"`
	Events           []eventJSON  `json:"events"`
	Markers          []markerJSON `json:"markers"`
	Candidate        seriesJSON   `json:"candidate"`
	Series           []seriesJSON `json:"series"`
	Warnings         int          `json:"warnings"`
	ConsistencyError string       `json:"consistency_error,omitempty"`
}

func (c candidateJSON) apply(base trajectory.Candidate) trajectory.Candidate {
	if c.Name != nil {
		base.Name = *c.Name
	}
	if c.Variant != nil {
		base.Variant = trajectory.Variant(*c.Variant)
	}
	if c.RadiusKm != nil {
		base.RadiusKm = *c.RadiusKm
	}
	if c.ZAmplitudeKm != nil {
		base.ZAmplitudeKm = *c.ZAmplitudeKm
	}
	if c.XKm != nil {
		base.Point.X = *c.XKm
	}
	if c.YKm != nil {
		base.Point.Y = *c.YKm
	}
	if c.ZKm != nil {
		base.Point.Z = *c.ZKm
	}
	return base
}

func toGrid(g *timegrid.Grid) gridJSON {
	return gridJSON{
		Start:       g.Start(),
		End:         g.End(),
		StepSeconds: int64(g.Step().Seconds()),
		Steps:       g.Len(),
	}
}

func toSeries(s trajectory.Series) seriesJSON {
	out := seriesJSON{ID: s.ID(), Complete: s.Complete(), Samples: make([]sampleJSON, 0, s.Len())}
	for _, sm := range s.Samples() {
		out.Samples = append(out.Samples, sampleJSON{
			Index: sm.Index,
			Time:  sm.Time,
			X:     sm.Position.X,
			Y:     sm.Position.Y,
			Z:     sm.Position.Z,
		})
	}
	return out
}

func toSeriesList(list []trajectory.Series) []seriesJSON {
	out := make([]seriesJSON, 0, len(list))
	for _, s := range list {
		out = append(out, toSeries(s))
	}
	return out
}

func toWarnings(ws []propagation.Warning) []warningJSON {
	out := make([]warningJSON, 0, len(ws))
	for _, w := range ws {
		wj := warningJSON{Kind: string(w.Kind), ObjectID: w.ObjectID}
		if w.Err != nil {
			wj.Error = w.Err.Error()
		}
		if !w.Time.IsZero() {
			t := w.Time
			wj.Time = &t
		}
		out = append(out, wj)
	}
	return out
}

func toEvents(events []proximity.Event) []eventJSON {
	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, eventJSON{
			Time:        e.Time,
			Index:       e.Index,
			CandidateID: e.CandidateID,
			OtherID:     e.OtherID,
			DistanceKm:  e.DistanceKm,
		})
	}
	return out
}

func toMarkers(markers []report.Marker) []markerJSON {
	out := make([]markerJSON, 0, len(markers))
	for _, m := range markers {
		mj := markerJSON{OtherID: m.Event.OtherID, Time: m.Event.Time, Located: m.Located}
		if m.Located {
			mj.Position = &positionJSON{X: m.Position.X, Y: m.Position.Y, Z: m.Position.Z}
		}
		out = append(out, mj)
	}
	return out
}

func toCatalog(snap *Snapshot, frame string) catalogResponse {
	c := snap.Catalog
	return catalogResponse{
		Source:     snap.Dataset.Source,
		FetchedAt:  snap.Dataset.FetchedAt.UTC(),
		Grid:       toGrid(c.Grid),
		Frame:      frame,
		Objects:    toSeriesList(c.Series),
		Warnings:   toWarnings(c.Warnings),
		Ignored:    c.Ignored,
		Propagated: c.PropagatedAt,
	}
}

func toScreen(res *analysis.Result) screenResponse {
	return screenResponse{
		Grid:        toGrid(res.Grid),
		ThresholdKm: res.ThresholdKm,
		Safe:        res.Safe(),
		Events:      toEvents(res.Report.Events),
		Markers:     toMarkers(res.Report.Markers),
		Candidate:   toSeries(res.Candidate),
		Series:      toSeriesList(res.Report.Series),
		Warnings:    len(res.Warnings),
	}
}

// WriteResult encodes res as the screen response document. A
// *report.ConsistencyError in err is carried in the document; other errors
// are ignored.
func WriteResult(w io.Writer, res *analysis.Result, err error) error {
	resp := toScreen(res)
	var ce *report.ConsistencyError
	if errors.As(err, &ce) {
		resp.ConsistencyError = ce.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
