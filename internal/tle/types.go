package tle

import (
	"strconv"
	"time"
)

// Record is one raw orbital element set as delivered by the acquisition layer:
// a name line and the two element lines. The lines are opaque to this package
// beyond the catalog number and epoch; the propagation layer validates them.
type Record struct {
	NORADID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// ID returns the identifier the record is reported under: its name, or the
// catalog number when the name line is blank.
func (r Record) ID() string {
	if r.Name != "" {
		return r.Name
	}
	return strconv.Itoa(r.NORADID)
}

// EpochRange represents the minimum and maximum epoch times in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is a complete set of records from one source.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Records    []Record
}

// NewDataset wraps records with their source metadata and epoch range.
func NewDataset(source string, fetchedAt time.Time, records []Record) *Dataset {
	ds := &Dataset{Source: source, FetchedAt: fetchedAt, Records: records}
	if len(records) == 0 {
		return ds
	}
	ds.EpochRange = EpochRange{Min: records[0].Epoch, Max: records[0].Epoch}
	for _, r := range records[1:] {
		if r.Epoch.Before(ds.EpochRange.Min) {
			ds.EpochRange.Min = r.Epoch
		}
		if r.Epoch.After(ds.EpochRange.Max) {
			ds.EpochRange.Max = r.Epoch
		}
	}
	return ds
}
