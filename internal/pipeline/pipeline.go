package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/dam-levels-etl/internal/adapter/dws"
	"github.com/couchcryptid/dam-levels-etl/internal/domain"
	"github.com/couchcryptid/dam-levels-etl/internal/observability"
)

// Fetcher downloads the report page for a region code.
type Fetcher interface {
	FetchRegion(ctx context.Context, code string) (string, error)
}

// Transformer turns a region page into a region table.
type Transformer interface {
	Transform(ctx context.Context, region domain.Region, html string) (domain.RegionTable, error)
}

// ReportWriter persists a report and returns where it was written.
type ReportWriter interface {
	Write(ctx context.Context, report domain.Report) (string, error)
}

// SummaryPublisher announces a written report's region averages.
type SummaryPublisher interface {
	Publish(ctx context.Context, runID string, report domain.Report) error
}

// RegionFailure records why a region was left out of a report.
type RegionFailure struct {
	Region string `json:"region"`
	Reason string `json:"reason"`
}

// Summary describes one pipeline run.
type Summary struct {
	RunID      string          `json:"run_id"`
	Path       string          `json:"file,omitempty"`
	Regions    []string        `json:"regions"`
	Failed     []RegionFailure `json:"failed,omitempty"`
	Records    int             `json:"records"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Pipeline orchestrates the scrape-aggregate-export run. Regions are
// processed one at a time in fixed order, and only one run executes at once.
type Pipeline struct {
	fetcher     Fetcher
	transformer Transformer
	writer      ReportWriter
	publisher   SummaryPublisher
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	regions     []domain.Region

	mu    sync.Mutex
	ready atomic.Bool
}

// Option configures optional pipeline stages.
type Option func(*Pipeline)

// WithPublisher publishes region averages after each successful run.
func WithPublisher(pub SummaryPublisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithClock sets the time source used to date reports.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithRegions overrides the regions scraped on each run.
func WithRegions(regions []domain.Region) Option {
	return func(p *Pipeline) { p.regions = regions }
}

// New creates a Pipeline with the given stages and observability.
func New(f Fetcher, t Transformer, w ReportWriter, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:     f,
		transformer: t,
		writer:      w,
		clock:       clockwork.NewRealClock(),
		logger:      logger,
		metrics:     metrics,
		regions:     domain.Regions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has written a report, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no report has been written yet")
	}
	return nil
}

// Run scrapes every region, writes the report, and publishes the region
// averages when a publisher is configured. Region failures are logged and
// skipped; the run fails only when no region produced data or the report
// cannot be written.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	summary := Summary{RunID: uuid.NewString(), StartedAt: p.clock.Now()}
	logger := p.logger.With("run_id", summary.RunID)
	logger.Info("run started", "regions", len(p.regions))

	p.metrics.RunInProgress.Set(1)
	defer p.metrics.RunInProgress.Set(0)

	start := time.Now()
	summary, err := p.run(ctx, logger, summary)
	summary.FinishedAt = p.clock.Now()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		logger.Error("scraping process failed", "error", err)
		return summary, err
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.LastSuccessfulRun.Set(float64(summary.FinishedAt.Unix()))
	p.ready.Store(true)
	logger.Info("run complete",
		"file", summary.Path,
		"regions", len(summary.Regions),
		"failed", len(summary.Failed),
		"records", summary.Records,
	)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, summary Summary) (Summary, error) {
	results := make([]domain.RegionResult, 0, len(p.regions))
	for _, region := range p.regions {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res := p.scrapeRegion(ctx, logger, region)
		results = append(results, res)

		if res.OK() {
			summary.Regions = append(summary.Regions, region.Name)
			summary.Records += len(res.Table.Records)
		} else {
			summary.Failed = append(summary.Failed, RegionFailure{Region: region.Name, Reason: res.Err.Error()})
		}
	}

	report, err := domain.NewReport(p.clock.Now(), results)
	if err != nil {
		return summary, err
	}

	path, err := p.writer.Write(ctx, report)
	if err != nil {
		return summary, fmt.Errorf("write report: %w", err)
	}
	summary.Path = path

	p.publish(ctx, logger, summary.RunID, report)
	return summary, nil
}

// scrapeRegion fetches and transforms one region. Every failure is logged
// and returned in the result; none of them stop the run.
func (p *Pipeline) scrapeRegion(ctx context.Context, logger *slog.Logger, region domain.Region) domain.RegionResult {
	logger = logger.With("region", region.Name)
	logger.Info("processing region")

	html, err := p.fetcher.FetchRegion(ctx, region.Code)
	if err != nil {
		logger.Error("error scraping region", "error", err)
		p.metrics.RegionsTotal.WithLabelValues(region.Code, "fetch_error").Inc()
		return domain.RegionResult{Region: region, Err: err}
	}

	table, err := p.transformer.Transform(ctx, region, html)
	if err != nil {
		if errors.Is(err, dws.ErrTableNotFound) {
			logger.Warn("insufficient tables found", "error", err)
		} else {
			logger.Error("error parsing region page", "error", err)
		}
		p.metrics.RegionsTotal.WithLabelValues(region.Code, "parse_error").Inc()
		return domain.RegionResult{Region: region, Err: err}
	}

	if len(table.Records) == 0 {
		logger.Warn("no dam rows found")
		p.metrics.RegionsTotal.WithLabelValues(region.Code, "empty").Inc()
		return domain.RegionResult{Region: region, Table: table, Err: errNoRows}
	}

	p.metrics.RegionsTotal.WithLabelValues(region.Code, "success").Inc()
	p.metrics.RecordsExtracted.WithLabelValues(region.Code).Add(float64(len(table.Records)))
	logger.Info("region scraped", "records", len(table.Records))
	return domain.RegionResult{Region: region, Table: table}
}

// publish is best effort: the report is already on disk.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, runID string, report domain.Report) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, runID, report); err != nil {
		p.metrics.PublishErrors.Inc()
		logger.Error("publish region summaries failed", "error", err)
		return
	}
	p.metrics.SummariesPublished.Add(float64(len(report.Averages)))
}

var errNoRows = errors.New("no dam rows found")
