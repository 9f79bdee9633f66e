package dws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dam-levels-etl/internal/observability"
)

const testPage = "<html><body><table></table></body></html>"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, 0, observability.NewMetricsForTesting(), discardLogger())
}

func TestClient_RegionURL(t *testing.T) {
	c := testClient("https://www.dws.gov.za/")
	assert.Equal(t, "https://www.dws.gov.za/Hydrology/Weekly/ProvinceWeek.aspx?region=KN", c.RegionURL("KN"))
}

func TestClient_FetchRegion_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/Hydrology/Weekly/ProvinceWeek.aspx", r.URL.Path)
		assert.Equal(t, "WC", r.URL.Query().Get("region"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	body, err := testClient(srv.URL).FetchRegion(context.Background(), "WC")
	require.NoError(t, err)
	assert.Equal(t, testPage, body)
}

func TestClient_FetchRegion_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchRegion(context.Background(), "EC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "region EC")
}

func TestClient_FetchRegion_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testClient(url).FetchRegion(context.Background(), "FS")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region FS")
}

func TestClient_FetchRegion_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, 0, observability.NewMetricsForTesting(), discardLogger())
	_, err := c.FetchRegion(context.Background(), "G")
	require.Error(t, err)
}

func TestClient_FetchRegion_RequestInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, 100*time.Millisecond, observability.NewMetricsForTesting(), discardLogger())

	start := time.Now()
	for _, code := range []string{"G", "M", "LP"} {
		_, err := c.FetchRegion(context.Background(), code)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)
}

func TestClient_FetchRegion_CancelledWhileWaiting(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 5*time.Second, time.Hour, observability.NewMetricsForTesting(), discardLogger())
	// The first token is available immediately; drain it.
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchRegion(ctx, "NW")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
