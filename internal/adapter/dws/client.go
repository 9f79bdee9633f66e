package dws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/dam-levels-etl/internal/observability"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public DWS hydrology site.
const DefaultBaseURL = "https://www.dws.gov.za"

const (
	regionPagePath = "/Hydrology/Weekly/ProvinceWeek.aspx"
	userAgent      = "dam-levels-etl/1.0"

	// maxPageBytes bounds how much of a region page is read into memory.
	maxPageBytes = 8 << 20
)

// Client fetches weekly province pages from the DWS hydrology site.
// It implements pipeline.Fetcher.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a DWS client. A positive interval spaces consecutive
// requests at least that far apart; zero disables the limit.
func NewClient(baseURL string, timeout, interval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
	}
}

// RegionURL returns the weekly report page URL for a region code.
func (c *Client) RegionURL(code string) string {
	return fmt.Sprintf("%s%s?region=%s", c.baseURL, regionPagePath, url.QueryEscape(code))
}

// FetchRegion downloads the weekly report page for a region. Any transport
// error or non-2xx status is returned as an error naming the region.
func (c *Client) FetchRegion(ctx context.Context, code string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("region %s: wait for rate limit: %w", code, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RegionURL(code), nil)
	if err != nil {
		return "", fmt.Errorf("region %s: create request: %w", code, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.WithLabelValues(code).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("region %s: request: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return "", fmt.Errorf("region %s: dws error: status %d", code, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("region %s: read body: %w", code, err)
	}

	c.logger.Debug("fetched region page", "region", code, "bytes", len(body), "duration", time.Since(start))
	return string(body), nil
}
