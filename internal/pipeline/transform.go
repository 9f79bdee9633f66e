package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/dam-levels-etl/internal/adapter/dws"
	"github.com/couchcryptid/dam-levels-etl/internal/domain"
	"github.com/couchcryptid/dam-levels-etl/internal/observability"
)

// PageTransformer implements Transformer by extracting the dam table from a
// DWS province page and coercing its levels.
type PageTransformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a PageTransformer.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *PageTransformer {
	return &PageTransformer{
		logger:  logger,
		metrics: metrics,
	}
}

func (t *PageTransformer) Transform(_ context.Context, region domain.Region, html string) (domain.RegionTable, error) {
	extraction, err := dws.ExtractDamRows(html)
	if err != nil {
		return domain.RegionTable{}, err
	}

	if extraction.Dropped > 0 {
		t.metrics.RowsDropped.WithLabelValues(region.Code).Add(float64(extraction.Dropped))
		t.logger.Debug("rows dropped on column count mismatch", "region", region.Name, "dropped", extraction.Dropped)
	}

	return domain.NewRegionTable(region, extraction.Rows), nil
}
