package dws

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/couchcryptid/dam-levels-etl/internal/domain"
)

// The dam table and its columns are located by position. These indices
// follow the DWS page layout and the report's column contract; a layout
// change upstream shows up as rows failing the header width check.
const (
	damTableIndex = 4

	colDam      = 0
	colThisWeek = 5
	colLastWeek = 6
	colLastYear = 7
)

var (
	// ErrTableNotFound means the page has fewer tables than the dam table index.
	ErrTableNotFound = errors.New("dam table not found")

	// ErrUnexpectedLayout means the dam table header is too narrow for the
	// projected columns.
	ErrUnexpectedLayout = errors.New("dam table has too few columns")
)

// Extraction is the projected content of a region page's dam table.
type Extraction struct {
	Rows []domain.RawDamRow

	// Dropped counts data rows whose cell count did not match the header.
	Dropped int
}

// ExtractDamRows parses a DWS province page and returns the dam name and
// three level columns of every data row in the dam table.
func ExtractDamRows(html string) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, fmt.Errorf("parse html: %w", err)
	}

	tables := doc.Find("table")
	if tables.Length() <= damTableIndex {
		return Extraction{}, fmt.Errorf("%w: page has %d tables", ErrTableNotFound, tables.Length())
	}
	table := tables.Eq(damTableIndex)

	width := table.Find("th").Length()
	if width <= colLastYear {
		return Extraction{}, fmt.Errorf("%w: header has %d cells", ErrUnexpectedLayout, width)
	}

	var out Extraction
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := cellTexts(tr)
		if len(cells) != width {
			out.Dropped++
			return
		}
		out.Rows = append(out.Rows, domain.RawDamRow{
			Dam:      cells[colDam],
			ThisWeek: cells[colThisWeek],
			LastWeek: cells[colLastWeek],
			LastYear: cells[colLastYear],
		})
	})
	return out, nil
}

func cellTexts(tr *goquery.Selection) []string {
	tds := tr.Find("td")
	cells := make([]string, 0, tds.Length())
	tds.Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, strings.ReplaceAll(strings.TrimSpace(td.Text()), "#", ""))
	})
	return cells
}
