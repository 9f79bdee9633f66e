// Package domain models the weekly dam level reports published by the South
// African Department of Water and Sanitation (DWS).
//
// # Data Source
//
// DWS publishes one HTML page per province at
// https://www.dws.gov.za/Hydrology/Weekly/ProvinceWeek.aspx?region=<code>.
// The dam table is the fifth table on the page. Each data row carries the
// dam name in the first column and the full-supply percentages for this week,
// last week and the same week last year in columns six to eight.
//
// # Level Conventions
//
// Levels are percentages of full supply capacity, e.g. "87.3".
// The source marks some readings with a "#" footnote marker ("#87.3"), which
// is stripped before parsing. Cells that are not numbers after stripping
// (blank, "-", free text) become a missing [Level], never zero.
//
// # Averages
//
// A region average is the arithmetic mean of the present levels in a column,
// rounded half away from zero to one decimal place. A column with no present
// level has a missing average. See [Average].
package domain
