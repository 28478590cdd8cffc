package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/analysis"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/tle"
)

// summarize prints the human-readable outcome of a screening run.
func summarize(w io.Writer, ds *tle.Dataset, res *analysis.Result) {
	name := res.Candidate.ID()
	fmt.Fprintf(w, "Element data: %s (%d records, fetched %s)\n", ds.Source, len(ds.Records), ds.FetchedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Grid: %d steps of %s from %s\n", res.Grid.Len(), res.Grid.Step(), res.Grid.Start().Format(time.RFC3339))
	fmt.Fprintf(w, "Catalog: %d objects propagated, %d warnings\n", len(res.Report.Series), len(res.Warnings))
	for _, wn := range res.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", wn)
	}

	if res.Safe() {
		fmt.Fprintf(w, "\n%s trajectory is safe: no object within %.2f km.\n", name, res.ThresholdKm)
		return
	}

	fmt.Fprintf(w, "\nWARNING: %d possible collision(s) detected with %s (threshold %.2f km):\n\n", len(res.Report.Events), name, res.ThresholdKm)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOBJECT\tDISTANCE_KM\tPOSITION_KM")
	for _, m := range res.Report.Markers {
		pos := "unknown"
		if m.Located {
			pos = fmt.Sprintf("(%.1f, %.1f, %.1f)", m.Position.X, m.Position.Y, m.Position.Z)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%s\n", m.Event.Time.Format(time.RFC3339), m.Event.OtherID, m.Event.DistanceKm, pos)
	}
	tw.Flush()
}
