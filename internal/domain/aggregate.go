package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// averagePlaces is the number of decimal places region averages are rounded to.
const averagePlaces = 1

// ParseLevel coerces a table cell into a Level. Residual "#" markers are
// removed first; anything that does not parse as a number, NaN included,
// is Missing.
func ParseLevel(s string) Level {
	s = strings.TrimSpace(strings.ReplaceAll(s, "#", ""))
	if s == "" {
		return Missing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return Missing
	}
	return Some(v)
}

// NewRegionTable coerces projected rows into dam records. Rows are never
// dropped here; an unparseable cell becomes a missing level.
func NewRegionTable(region Region, rows []RawDamRow) RegionTable {
	records := make([]DamRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, DamRecord{
			Name:     strings.TrimSpace(row.Dam),
			ThisWeek: ParseLevel(row.ThisWeek),
			LastWeek: ParseLevel(row.LastWeek),
			LastYear: ParseLevel(row.LastYear),
		})
	}
	return RegionTable{Region: region, Records: records}
}

// Average returns the mean of the present levels rounded to one decimal
// place. It is Missing when no level is present.
func Average(levels []Level) Level {
	values := make(stats.Float64Data, 0, len(levels))
	for _, l := range levels {
		if l.Valid {
			values = append(values, l.Value)
		}
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return Missing
	}
	rounded, err := stats.Round(mean, averagePlaces)
	if err != nil {
		return Missing
	}
	return Some(rounded)
}

// Averages computes the three column averages for a region table.
func (t RegionTable) Averages() RegionAverage {
	thisWeek := make([]Level, len(t.Records))
	lastWeek := make([]Level, len(t.Records))
	lastYear := make([]Level, len(t.Records))
	for i, r := range t.Records {
		thisWeek[i] = r.ThisWeek
		lastWeek[i] = r.LastWeek
		lastYear[i] = r.LastYear
	}
	return RegionAverage{
		Region:   t.Region,
		ThisWeek: Average(thisWeek),
		LastWeek: Average(lastWeek),
		LastYear: Average(lastYear),
	}
}

// Summarize builds one average row per region table that has at least one
// record, preserving table order.
func Summarize(tables []RegionTable) []RegionAverage {
	out := make([]RegionAverage, 0, len(tables))
	for _, t := range tables {
		if len(t.Records) == 0 {
			continue
		}
		out = append(out, t.Averages())
	}
	return out
}
