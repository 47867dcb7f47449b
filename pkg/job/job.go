// Package job runs one Narou export: fetch every page, decode it, filter the
// records into a collection and write the collection as CSV.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/narou-export/pkg/decode"
	"github.com/Sternrassler/narou-export/pkg/export"
	"github.com/Sternrassler/narou-export/pkg/novel"
	"github.com/Sternrassler/narou-export/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narou_pages_total",
		Help: "Pages by outcome (processed, failed, skipped)",
	}, []string{"outcome"})

	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narou_records_total",
		Help: "Records by outcome (kept, duplicate, below_threshold)",
	}, []string{"outcome"})

	rowsWritten = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "narou_rows_written",
		Help: "Rows in the last written CSV",
	})
)

// Config holds everything a run needs besides the fetcher.
type Config struct {
	Pagination pagination.Config
	Filter     novel.FilterConfig
	Decoder    decode.Decoder
	OutputPath string
	Header     []string
}

// DefaultConfig returns the export's defaults.
func DefaultConfig() Config {
	return Config{
		Pagination: pagination.DefaultConfig(),
		Filter:     novel.DefaultFilterConfig(),
		Decoder:    decode.Decoder{Compressed: true},
		OutputPath: export.DefaultPath,
		Header:     export.HeaderEnglish,
	}
}

// Result summarizes a finished run.
type Result struct {
	Pages      pagination.Summary
	Records    novel.PageStats
	Rows       int
	OutputPath string
	Duration   time.Duration
}

// Job is one export run.
type Job struct {
	fetcher pagination.PageFetcher
	config  Config
	logger  zerolog.Logger
}

// New creates a job that fetches pages through fetcher.
func New(fetcher pagination.PageFetcher, config Config) *Job {
	if config.OutputPath == "" {
		config.OutputPath = export.DefaultPath
	}
	return &Job{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "job").Logger(),
	}
}

// Run fetches, filters and writes. Page-level problems are logged and
// skipped; an error is returned only when the run is cancelled or the
// output cannot be written, and in both cases nothing is written.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	rows := novel.NewCollection()
	filter := novel.NewFilter(j.config.Filter)
	result := &Result{OutputPath: j.config.OutputPath}

	paginator, err := pagination.NewPaginator(&countingFetcher{j.fetcher}, j.config.Pagination)
	if err != nil {
		return result, err
	}

	summary, err := paginator.Run(ctx, func(offset int, data []byte) error {
		records, err := j.config.Decoder.Decode(data)
		if err != nil {
			pagesTotal.WithLabelValues("skipped").Inc()
			if errors.Is(err, decode.ErrNoResults) {
				j.logger.Info().Int("offset", offset).Msg("No novels found on page")
			}
			return fmt.Errorf("page st=%d: %w", offset, err)
		}

		if r, ok := j.fetcher.(pageRememberer); ok {
			r.Remember(ctx, offset, data)
		}

		stats := filter.Apply(records, rows)
		addStats(&result.Records, stats)
		pagesTotal.WithLabelValues("processed").Inc()
		recordsTotal.WithLabelValues("kept").Add(float64(stats.Kept))
		recordsTotal.WithLabelValues("duplicate").Add(float64(stats.Duplicates))
		recordsTotal.WithLabelValues("below_threshold").Add(float64(stats.BelowThreshold))

		j.logger.Info().
			Int("offset", offset).
			Int("records", stats.Records).
			Int("kept", stats.Kept).
			Int("duplicates", stats.Duplicates).
			Int("below_threshold", stats.BelowThreshold).
			Msg("Page processed")
		return nil
	})
	result.Pages = summary
	if err != nil {
		return result, fmt.Errorf("fetch pages: %w", err)
	}

	if err := export.NewWriter(j.config.Header).WriteFile(j.config.OutputPath, rows.Rows()); err != nil {
		return result, fmt.Errorf("write %s: %w", j.config.OutputPath, err)
	}
	rowsWritten.Set(float64(rows.Len()))

	result.Rows = rows.Len()
	result.Duration = time.Since(start)

	j.logger.Info().
		Str("path", j.config.OutputPath).
		Int("rows", result.Rows).
		Int("pages_fetched", summary.Fetched).
		Int("pages_failed", summary.Failed).
		Int("pages_skipped", summary.Skipped).
		Dur("duration", result.Duration).
		Msg("Output written")

	return result, nil
}

func addStats(total *novel.PageStats, page novel.PageStats) {
	total.Records += page.Records
	total.Duplicates += page.Duplicates
	total.BelowThreshold += page.BelowThreshold
	total.Kept += page.Kept
}

// pageRememberer is implemented by fetchers that cache pages. Only pages
// that decoded are handed to Remember.
type pageRememberer interface {
	Remember(ctx context.Context, offset int, body []byte)
}

// countingFetcher records failed fetches in the page metrics.
type countingFetcher struct {
	next pagination.PageFetcher
}

func (f *countingFetcher) FetchPage(ctx context.Context, offset int) ([]byte, error) {
	data, err := f.next.FetchPage(ctx, offset)
	if err != nil {
		pagesTotal.WithLabelValues("failed").Inc()
	}
	return data, err
}
