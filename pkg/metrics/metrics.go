// Package metrics pushes the export's Prometheus metrics to a Pushgateway.
// The metrics themselves are defined in their respective packages (client,
// cache, job) with promauto and live in the default registry.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJobName is the Pushgateway job label used by the export.
const DefaultJobName = "narou_export"

// Gatherer is the source pushed by Push.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// PushConfig describes where to push.
type PushConfig struct {
	// URL of the Pushgateway (e.g., http://pushgateway:9091)
	URL string
	// Job label
	Job string
	// RunID becomes the run_id grouping label when set
	RunID string
	// Timeout for the push request
	Timeout time.Duration
}

// Push sends every gathered metric to the Pushgateway, replacing the
// metrics of the same job and grouping.
func Push(ctx context.Context, cfg PushConfig) error {
	if cfg.URL == "" {
		return fmt.Errorf("pushgateway url is required")
	}
	if cfg.Job == "" {
		cfg.Job = DefaultJobName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	pusher := push.New(cfg.URL, cfg.Job).
		Gatherer(Gatherer).
		Client(&http.Client{Timeout: cfg.Timeout})
	if cfg.RunID != "" {
		pusher = pusher.Grouping("run_id", cfg.RunID)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - narou_requests_total{status} (Counter): Page requests by HTTP status or "network_error"
//   - narou_request_duration_seconds (Histogram): Page request duration
//   - narou_errors_total{class} (Counter): Errors by class (client, server, unexpected, network)
//
// Cache Metrics (pkg/cache):
//   - narou_cache_hits_total (Counter): Pages served from Redis
//   - narou_cache_misses_total (Counter): Cache misses
//   - narou_cache_errors_total{operation} (Counter): Cache operation errors
//
// Job Metrics (pkg/job):
//   - narou_pages_total{outcome} (Counter): Pages by outcome (processed, failed, skipped)
//   - narou_records_total{outcome} (Counter): Records by outcome (kept, duplicate, below_threshold)
//   - narou_rows_written (Gauge): Rows in the last written CSV
//
// Example Prometheus Queries:
//
//   # Pages lost per run
//   narou_pages_total{outcome!="processed"}
//
//   # Share of records above the popularity threshold
//   narou_records_total{outcome="kept"} / ignoring(outcome) sum(narou_records_total)
