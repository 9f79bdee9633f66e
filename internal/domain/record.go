package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNoData is returned when no region produced any dam records, so there is
// nothing to report.
var ErrNoData = errors.New("no data collected for any region")

// Level is a dam level percentage that may be missing. The upstream table
// marks unknown readings with text, and those must stay distinguishable from
// a genuine zero.
type Level struct {
	Value float64
	Valid bool
}

// Some returns a present level.
func Some(v float64) Level { return Level{Value: v, Valid: true} }

// Missing is the absent level.
var Missing = Level{}

// MarshalJSON encodes a missing level as null.
func (l Level) MarshalJSON() ([]byte, error) {
	if !l.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(l.Value)
}

// UnmarshalJSON decodes null as Missing.
func (l *Level) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = Missing
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = Some(v)
	return nil
}

// RawDamRow is one projected row of the upstream dam table, still as text.
type RawDamRow struct {
	Dam      string
	ThisWeek string
	LastWeek string
	LastYear string
}

// DamRecord is a single reservoir's readings after numeric coercion.
type DamRecord struct {
	Name     string `json:"name"`
	ThisWeek Level  `json:"this_week"`
	LastWeek Level  `json:"last_week"`
	LastYear Level  `json:"last_year"`
}

// RegionTable holds a region's dam records in source page order. Dam names
// are not required to be unique.
type RegionTable struct {
	Region  Region
	Records []DamRecord
}

// RegionAverage is one row of the Master sheet.
type RegionAverage struct {
	Region   Region
	ThisWeek Level
	LastWeek Level
	LastYear Level
}

// RegionResult is the outcome of scraping one region: either a table or the
// reason the region was skipped.
type RegionResult struct {
	Region Region
	Table  RegionTable
	Err    error
}

// OK reports whether the region produced a usable table.
func (r RegionResult) OK() bool {
	return r.Err == nil && len(r.Table.Records) > 0
}

// Report is the full output of one run.
type Report struct {
	Date     time.Time
	Tables   []RegionTable
	Averages []RegionAverage
}

// NewReport assembles a report from successful region results, computing the
// Master averages. It returns ErrNoData when no region succeeded.
func NewReport(date time.Time, results []RegionResult) (Report, error) {
	var tables []RegionTable
	for _, res := range results {
		if res.OK() {
			tables = append(tables, res.Table)
		}
	}
	if len(tables) == 0 {
		return Report{}, ErrNoData
	}
	return Report{
		Date:     date,
		Tables:   tables,
		Averages: Summarize(tables),
	}, nil
}
