package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dam-levels-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/dam-levels-etl/internal/domain"
)

func writeReport(t *testing.T) string {
	t.Helper()
	gauteng, _ := domain.RegionByCode("G")
	wc, _ := domain.RegionByCode("WC")
	report, err := domain.NewReport(time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC), []domain.RegionResult{
		{Region: gauteng, Table: domain.NewRegionTable(gauteng, []domain.RawDamRow{
			{Dam: "Vaal Dam", ThisWeek: "95.2", LastWeek: "94.0", LastYear: ""},
			{Dam: "Hartbeespoort", ThisWeek: "91.0", LastWeek: "91.6", LastYear: "103.4"},
		})},
		{Region: wc, Table: domain.NewRegionTable(wc, []domain.RawDamRow{
			{Dam: "Theewaterskloof", ThisWeek: "10.26", LastWeek: "x", LastYear: "60"},
			{Dam: "Voelvlei", ThisWeek: "10.34", LastWeek: "y", LastYear: "80"},
		})},
	})
	require.NoError(t, err)

	w := xlsx.NewWriter(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	path, err := w.Write(context.Background(), report)
	require.NoError(t, err)
	return path
}

func TestValidate_WrittenReportPasses(t *testing.T) {
	wb, err := xlsx.ReadReport(writeReport(t))
	require.NoError(t, err)

	for _, p := range validate("dam_levels_20240307.xlsx", wb) {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
}

func TestValidate_DetectsWrongAverage(t *testing.T) {
	wb, err := xlsx.ReadReport(writeReport(t))
	require.NoError(t, err)

	master := &wb.Sheets[len(wb.Sheets)-1]
	require.Equal(t, xlsx.MasterSheet, master.Name)
	master.Rows[1][1] = "12.5"

	p := validateMasterAverages(wb)
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "Gauteng This Week Avg")
}

func TestValidate_DetectsMissingMasterRow(t *testing.T) {
	wb, err := xlsx.ReadReport(writeReport(t))
	require.NoError(t, err)

	master := &wb.Sheets[len(wb.Sheets)-1]
	master.Rows = master.Rows[:2]

	assert.False(t, validateMasterCoverage(wb).passed())
}

func TestValidate_DetectsLayoutProblems(t *testing.T) {
	wb := xlsx.Workbook{Sheets: []xlsx.Sheet{
		{Name: "Western_Cape_Total", Rows: [][]string{xlsx.RegionHeader()}},
		{Name: "Gauteng", Rows: [][]string{{"Dam", "Now"}}},
		{Name: "Atlantis", Rows: [][]string{xlsx.RegionHeader()}},
	}}

	layout := validateSheetLayout(wb)
	assert.Len(t, layout.errors, 3, "missing Master, wrong order, unknown region: %v", layout.errors)
	assert.False(t, validateHeaders(wb).passed())
}

func TestValidateFileName(t *testing.T) {
	assert.True(t, validateFileName("dam_levels_20240307.xlsx").passed())
	assert.False(t, validateFileName("dam_levels_2024-03-07.xlsx").passed())
	assert.False(t, validateFileName("levels_20240307.xlsx").passed())
	assert.False(t, validateFileName("dam_levels_20240307.csv").passed())
}
