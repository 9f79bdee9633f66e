package domain

import "strings"

// Region is one of the provincial subdivisions the DWS publishes a weekly
// dam level report for.
type Region struct {
	Code string
	Name string
}

// SheetName returns the workbook sheet name for the region. Spreadsheet
// sheet names cannot hold every character a display name can, so spaces
// become underscores.
func (r Region) SheetName() string {
	return strings.ReplaceAll(r.Name, " ", "_")
}

// Regions returns the nine reporting regions in the order they are scraped.
// The slice is a fresh copy on every call.
func Regions() []Region {
	return []Region{
		{Code: "EC", Name: "Eastern Cape"},
		{Code: "FS", Name: "Free State"},
		{Code: "G", Name: "Gauteng"},
		{Code: "KN", Name: "Kwazulu-Natal"},
		{Code: "LP", Name: "Limpopo"},
		{Code: "M", Name: "Mpumalanga"},
		{Code: "NC", Name: "Northern Cape"},
		{Code: "NW", Name: "North West"},
		{Code: "WC", Name: "Western Cape Total"},
	}
}

// RegionByCode looks up a region by its DWS query code.
func RegionByCode(code string) (Region, bool) {
	for _, r := range Regions() {
		if r.Code == code {
			return r, true
		}
	}
	return Region{}, false
}
