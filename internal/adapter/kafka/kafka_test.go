package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dam-levels-etl/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testReport(t *testing.T) domain.Report {
	t.Helper()
	g, _ := domain.RegionByCode("G")
	lp, _ := domain.RegionByCode("LP")
	report, err := domain.NewReport(time.Date(2024, time.March, 7, 8, 0, 0, 0, time.UTC), []domain.RegionResult{
		{Region: g, Table: domain.NewRegionTable(g, []domain.RawDamRow{
			{Dam: "Vaal", ThisWeek: "10.26", LastWeek: "x", LastYear: "50"},
			{Dam: "Grootdraai", ThisWeek: "10.34", LastWeek: "y", LastYear: "70"},
		})},
		{Region: lp, Table: domain.NewRegionTable(lp, []domain.RawDamRow{
			{Dam: "Ebenezer", ThisWeek: "99.1", LastWeek: "98", LastYear: "97"},
		})},
	})
	require.NoError(t, err)
	return report
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage(SummaryMessage{
		RunID:       "run-1",
		ReportDate:  "2024-03-07",
		RegionCode:  "G",
		Region:      "Gauteng",
		Dams:        2,
		ThisWeekAvg: domain.Some(10.3),
		LastWeekAvg: domain.Missing,
		LastYearAvg: domain.Some(60),
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("G"), msg.Key)
	assert.JSONEq(t, `{
		"run_id":"run-1","report_date":"2024-03-07","region_code":"G","region":"Gauteng","dams":2,
		"this_week_avg":10.3,"last_week_avg":null,"last_year_avg":60
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "region", msg.Headers[0].Key)
	assert.Equal(t, []byte("G"), msg.Headers[0].Value)
	assert.Equal(t, "report_date", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-03-07"), msg.Headers[1].Value)
}

func TestPublisher_Publish(t *testing.T) {
	fw := &fakeWriter{}
	p := &Publisher{writer: fw, logger: discardLogger()}

	require.NoError(t, p.Publish(context.Background(), "run-42", testReport(t)))
	require.Len(t, fw.msgs, 2)

	var first SummaryMessage
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &first))
	assert.Equal(t, "run-42", first.RunID)
	assert.Equal(t, "G", first.RegionCode)
	assert.Equal(t, 2, first.Dams)
	assert.Equal(t, domain.Some(10.3), first.ThisWeekAvg)
	assert.Equal(t, domain.Missing, first.LastWeekAvg)

	assert.Equal(t, []byte("LP"), fw.msgs[1].Key)

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestPublisher_Publish_Empty(t *testing.T) {
	fw := &fakeWriter{err: errors.New("should not be called")}
	p := &Publisher{writer: fw, logger: discardLogger()}
	require.NoError(t, p.Publish(context.Background(), "run-1", domain.Report{}))
}

func TestPublisher_Publish_WriteError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker unavailable")}
	p := &Publisher{writer: fw, logger: discardLogger()}

	err := p.Publish(context.Background(), "run-1", testReport(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}
