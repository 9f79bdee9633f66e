// Command validate checks the integrity of a written dam levels report: file
// naming, sheet layout, header rows, Master sheet coverage, and that every
// Master average matches the mean recomputed from its region sheet.
//
// Usage:
//
//	go run ./cmd/validate -file outputs/dam_levels_20240307.xlsx
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/dam-levels-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/dam-levels-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "", "path to a dam_levels_YYYYMMDD.xlsx report")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*file); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	fmt.Println("=== Dam Levels Report Validation ===")
	fmt.Println()

	wb, err := xlsx.ReadReport(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := validate(filepath.Base(path), wb)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Sheets: %d region, %d total\n", len(regionSheets(wb)), len(wb.Sheets))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(fileName string, wb xlsx.Workbook) []*phase {
	return []*phase{
		validateFileName(fileName),
		validateSheetLayout(wb),
		validateHeaders(wb),
		validateMasterCoverage(wb),
		validateMasterAverages(wb),
	}
}

// ── Phase 1: file name ──

func validateFileName(name string) *phase {
	p := &phase{name: "Phase 1: File Name"}
	stamp, ok := strings.CutPrefix(name, "dam_levels_")
	if !ok {
		p.errorf("%q does not start with dam_levels_", name)
		return p
	}
	stamp, ok = strings.CutSuffix(stamp, ".xlsx")
	if !ok {
		p.errorf("%q does not end with .xlsx", name)
		return p
	}
	if _, err := time.Parse("20060102", stamp); err != nil {
		p.errorf("date %q is not YYYYMMDD", stamp)
	}
	return p
}

// ── Phase 2: sheet layout ──

func validateSheetLayout(wb xlsx.Workbook) *phase {
	p := &phase{name: "Phase 2: Sheet Layout"}
	if len(wb.Sheets) < 2 {
		p.errorf("expected at least one region sheet and %s, got %d sheets", xlsx.MasterSheet, len(wb.Sheets))
		return p
	}
	if last := wb.Sheets[len(wb.Sheets)-1].Name; last != xlsx.MasterSheet {
		p.errorf("last sheet is %q, expected %q", last, xlsx.MasterSheet)
	}

	// Region sheets must be known regions, in canonical order, without repeats.
	prev := -1
	for _, s := range regionSheets(wb) {
		idx := regionIndex(s.Name)
		switch {
		case idx < 0:
			p.errorf("sheet %q is not a known region", s.Name)
		case idx <= prev:
			p.errorf("sheet %q is out of order or repeated", s.Name)
		default:
			prev = idx
		}
	}
	return p
}

// ── Phase 3: headers ──

func validateHeaders(wb xlsx.Workbook) *phase {
	p := &phase{name: "Phase 3: Header Rows"}
	for _, s := range wb.Sheets {
		want := xlsx.RegionHeader()
		if s.Name == xlsx.MasterSheet {
			want = xlsx.MasterHeader()
		}
		if len(s.Rows) == 0 {
			p.errorf("%s: sheet is empty", s.Name)
			continue
		}
		if !slices.Equal(s.Rows[0], want) {
			p.errorf("%s: header %v, expected %v", s.Name, s.Rows[0], want)
		}
	}
	return p
}

// ── Phase 4: Master coverage ──

func validateMasterCoverage(wb xlsx.Workbook) *phase {
	p := &phase{name: "Phase 4: Master Coverage"}
	master, ok := wb.Sheet(xlsx.MasterSheet)
	if !ok {
		p.errorf("no %s sheet", xlsx.MasterSheet)
		return p
	}

	var sheets []string
	for _, s := range regionSheets(wb) {
		sheets = append(sheets, s.Name)
		if len(s.Rows) < 2 {
			p.errorf("%s: region sheet has no dam rows", s.Name)
		}
	}

	var listed []string
	for i, row := range dataRows(master) {
		r, ok := regionByName(cell(row, 0))
		if !ok {
			p.errorf("Master row %d: unknown region %q", i+2, cell(row, 0))
			continue
		}
		listed = append(listed, r.SheetName())
	}

	if !slices.Equal(sheets, listed) {
		p.errorf("Master lists %v, region sheets are %v", listed, sheets)
	}
	return p
}

// ── Phase 5: Master averages ──

func validateMasterAverages(wb xlsx.Workbook) *phase {
	p := &phase{name: "Phase 5: Master Averages"}
	master, ok := wb.Sheet(xlsx.MasterSheet)
	if !ok {
		p.errorf("no %s sheet", xlsx.MasterSheet)
		return p
	}

	columns := xlsx.MasterHeader()[1:]
	for _, row := range dataRows(master) {
		region, ok := regionByName(cell(row, 0))
		if !ok {
			continue
		}
		sheet, ok := wb.Sheet(region.SheetName())
		if !ok {
			p.errorf("%s: listed in Master but has no sheet", region.Name)
			continue
		}

		for col := 1; col <= len(columns); col++ {
			var levels []domain.Level
			for _, r := range dataRows(sheet) {
				levels = append(levels, domain.ParseLevel(cell(r, col)))
			}
			want := domain.Average(levels)
			got := domain.ParseLevel(cell(row, col))
			if !levelEq(want, got) {
				p.errorf("%s %s: Master has %s, recomputed %s", region.Name, columns[col-1], fmtLevel(got), fmtLevel(want))
			}
		}
	}
	return p
}

// ── Helpers ──

func regionSheets(wb xlsx.Workbook) []xlsx.Sheet {
	var out []xlsx.Sheet
	for _, s := range wb.Sheets {
		if s.Name != xlsx.MasterSheet {
			out = append(out, s)
		}
	}
	return out
}

func regionIndex(sheet string) int {
	return slices.IndexFunc(domain.Regions(), func(r domain.Region) bool { return r.SheetName() == sheet })
}

func regionByName(name string) (domain.Region, bool) {
	for _, r := range domain.Regions() {
		if r.Name == name {
			return r, true
		}
	}
	return domain.Region{}, false
}

func dataRows(s xlsx.Sheet) [][]string {
	if len(s.Rows) < 2 {
		return nil
	}
	return s.Rows[1:]
}

// cell tolerates short rows; trailing empty cells are not stored.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func levelEq(a, b domain.Level) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || math.Abs(a.Value-b.Value) < 1e-9
}

func fmtLevel(l domain.Level) string {
	if !l.Valid {
		return "<missing>"
	}
	return fmt.Sprintf("%g", l.Value)
}
