package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/dam-levels-etl/internal/domain"
)

// MasterSheet is the name of the summary sheet of region averages.
const MasterSheet = "Master"

var (
	regionHeader = []string{"Dam", "This Week", "Last Week", "Last Year"}
	masterHeader = []string{"Region", "This Week Avg", "Last Week Avg", "Last Year Avg"}
)

// RegionHeader returns the header row of a region sheet.
func RegionHeader() []string { return append([]string(nil), regionHeader...) }

// MasterHeader returns the header row of the Master sheet.
func MasterHeader() []string { return append([]string(nil), masterHeader...) }

// FileName returns the report file name for a report date, e.g.
// dam_levels_20240307.xlsx.
func FileName(date time.Time) string {
	return "dam_levels_" + date.Format("20060102") + ".xlsx"
}

// Writer saves reports as multi-sheet workbooks in a fixed directory.
// It implements pipeline.ReportWriter.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer for the output directory. The directory is
// created on first write.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Write saves the report and returns the path of the written file. A report
// from the same day replaces the earlier file. A report without region
// tables is rejected with domain.ErrNoData and nothing is written.
func (w *Writer) Write(ctx context.Context, report domain.Report) (string, error) {
	if len(report.Tables) == 0 {
		return "", domain.ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, table := range report.Tables {
		name := table.Region.SheetName()
		if i == 0 {
			err = f.SetSheetName(defaultSheet, name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err != nil {
			return "", fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeRegionSheet(f, name, table, bold); err != nil {
			return "", err
		}
	}

	if _, err := f.NewSheet(MasterSheet); err != nil {
		return "", fmt.Errorf("create sheet %s: %w", MasterSheet, err)
	}
	if err := writeMasterSheet(f, report.Averages, bold); err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(w.dir, FileName(report.Date))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("data saved", "path", path, "sheets", len(report.Tables)+1)
	return path, nil
}

func writeRegionSheet(f *excelize.File, sheet string, table domain.RegionTable, headerStyle int) error {
	if err := writeHeader(f, sheet, regionHeader, headerStyle); err != nil {
		return err
	}
	for i, rec := range table.Records {
		row := []any{rec.Name, cellValue(rec.ThisWeek), cellValue(rec.LastWeek), cellValue(rec.LastYear)}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 28)
}

func writeMasterSheet(f *excelize.File, averages []domain.RegionAverage, headerStyle int) error {
	if err := writeHeader(f, MasterSheet, masterHeader, headerStyle); err != nil {
		return err
	}
	for i, avg := range averages {
		row := []any{avg.Region.Name, cellValue(avg.ThisWeek), cellValue(avg.LastWeek), cellValue(avg.LastYear)}
		if err := setRow(f, MasterSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(MasterSheet, "A", "D", 18)
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	values := make([]any, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := setRow(f, sheet, 1, values); err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", end, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cellValue leaves missing levels as empty cells.
func cellValue(l domain.Level) any {
	if !l.Valid {
		return nil
	}
	return l.Value
}
