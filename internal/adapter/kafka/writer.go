package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/dam-levels-etl/internal/config"
	"github.com/couchcryptid/dam-levels-etl/internal/domain"
)

const reportDateLayout = "2006-01-02"

// messageWriter is the subset of *kafkago.Writer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// SummaryMessage is the JSON value published for each region average.
type SummaryMessage struct {
	RunID       string       `json:"run_id"`
	ReportDate  string       `json:"report_date"`
	RegionCode  string       `json:"region_code"`
	Region      string       `json:"region"`
	Dams        int          `json:"dams"`
	ThisWeekAvg domain.Level `json:"this_week_avg"`
	LastWeekAvg domain.Level `json:"last_week_avg"`
	LastYearAvg domain.Level `json:"last_year_avg"`
}

// Publisher produces one message per Master sheet row to the summary topic.
// It implements pipeline.SummaryPublisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured summary topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSummaryTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes the report's region averages in a single WriteMessages call.
// Messages are keyed by region code so a region's history stays on one partition.
func (p *Publisher) Publish(ctx context.Context, runID string, report domain.Report) error {
	if len(report.Averages) == 0 {
		return nil
	}

	dams := make(map[string]int, len(report.Tables))
	for _, t := range report.Tables {
		dams[t.Region.Code] = len(t.Records)
	}

	msgs := make([]kafkago.Message, len(report.Averages))
	for i, avg := range report.Averages {
		msg, err := serializeToMessage(SummaryMessage{
			RunID:       runID,
			ReportDate:  report.Date.Format(reportDateLayout),
			RegionCode:  avg.Region.Code,
			Region:      avg.Region.Name,
			Dams:        dams[avg.Region.Code],
			ThisWeekAvg: avg.ThisWeek,
			LastWeekAvg: avg.LastWeek,
			LastYearAvg: avg.LastYear,
		})
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish region summaries: %w", err)
	}
	p.logger.Info("region summaries published", "run_id", runID, "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a region summary into a Kafka message.
func serializeToMessage(s SummaryMessage) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.RegionCode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(s.RegionCode)},
			{Key: "report_date", Value: []byte(s.ReportDate)},
		},
	}, nil
}
