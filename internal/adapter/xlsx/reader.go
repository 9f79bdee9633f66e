package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet is the text content of one worksheet, header row included.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook is a report read back from disk, sheets in workbook order.
type Workbook struct {
	Sheets []Sheet
}

// Sheet returns the sheet with the given name.
func (w Workbook) Sheet(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// ReadReport loads every sheet of a report workbook.
func ReadReport(path string) (Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Workbook{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var wb Workbook
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return Workbook{}, fmt.Errorf("read sheet %s: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}
	return wb, nil
}
