// Command scrape runs the dam level pipeline once and prints the run summary
// as JSON. It reads the same environment as the service, with flags taking
// precedence.
//
// Usage:
//
//	go run ./cmd/scrape -out outputs
//	go run ./cmd/scrape -base-url http://localhost:8080 -out /tmp/reports
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/dam-levels-etl/internal/adapter/dws"
	kafkaadapter "github.com/couchcryptid/dam-levels-etl/internal/adapter/kafka"
	"github.com/couchcryptid/dam-levels-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/dam-levels-etl/internal/config"
	"github.com/couchcryptid/dam-levels-etl/internal/observability"
	"github.com/couchcryptid/dam-levels-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scrape: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	out := flag.String("out", "", "directory for the report (overrides OUTPUT_DIR)")
	baseURL := flag.String("base-url", "", "DWS site base URL (overrides DWS_BASE_URL)")
	publish := flag.Bool("publish", false, "publish region summaries when KAFKA_BROKERS is set")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *out != "" {
		cfg.OutputDir = *out
	}
	if *baseURL != "" {
		cfg.DWSBaseURL = *baseURL
	}

	logger, logCloser, err := observability.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()

	metrics := observability.NewMetrics()

	client := dws.NewClient(cfg.DWSBaseURL, cfg.DWSTimeout, cfg.DWSRequestInterval, metrics, logger)
	transformer := pipeline.NewTransformer(logger, metrics)
	writer := xlsx.NewWriter(cfg.OutputDir, logger)

	var opts []pipeline.Option
	if *publish && cfg.PublishEnabled() {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		defer publisher.Close()
		opts = append(opts, pipeline.WithPublisher(publisher))
	}

	p := pipeline.New(client, transformer, writer, logger, metrics, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
