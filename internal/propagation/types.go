package propagation

import (
	"fmt"
	"time"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/trajectory"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/transform"
)

// Kind classifies a non-fatal propagation warning.
type Kind string

const (
	// KindParseFailure means the element set was unusable; the object was skipped.
	KindParseFailure Kind = "parse_failure"
	// KindPropagationFailure means one instant could not be computed; that sample was omitted.
	KindPropagationFailure Kind = "propagation_failure"
	// KindDuplicate means an earlier record already used the identifier; the object was skipped.
	KindDuplicate Kind = "duplicate_object"
)

// Warning reports a per-object or per-sample failure that did not stop the run.
// Time is zero for object-level warnings.
type Warning struct {
	Kind     Kind
	ObjectID string
	Time     time.Time
	Err      error
}

func (w Warning) String() string {
	if w.Time.IsZero() {
		return fmt.Sprintf("%s: %s: %v", w.Kind, w.ObjectID, w.Err)
	}
	return fmt.Sprintf("%s: %s at %s: %v", w.Kind, w.ObjectID, w.Time.Format(time.RFC3339), w.Err)
}

// Config holds run-wide propagation settings.
type Config struct {
	Workers    int             // worker pool size (default: runtime.NumCPU())
	Frame      transform.Frame // output frame (default: TEME)
	MaxCatalog int             // objects accepted into the catalog, <= 0 for no cap
}

// Batch is the propagated catalog: series in input order plus every warning.
type Batch struct {
	Series   []trajectory.Series
	Warnings []Warning
	Ignored  int // records after MaxCatalog was reached, left unparsed
}
