package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config describes the offset sequence.
type Config struct {
	// Start is the first offset (the API counts from 1)
	Start int
	// Step is the distance between offsets, normally the page size
	Step int
	// End is the exclusive upper bound for offsets
	End int
}

// DefaultConfig returns the offsets 1, 501, 1001, 1501.
func DefaultConfig() Config {
	return Config{
		Start: 1,
		Step:  500,
		End:   2001,
	}
}

// Validate reports whether the config yields at least one offset.
func (c Config) Validate() error {
	if c.Step <= 0 {
		return fmt.Errorf("step must be > 0 (got %d)", c.Step)
	}
	if c.End <= c.Start {
		return fmt.Errorf("end must be greater than start (start %d, end %d)", c.Start, c.End)
	}
	return nil
}

// Offsets returns start, start+step, ... while below End.
func (c Config) Offsets() []int {
	if c.Validate() != nil {
		return nil
	}
	offsets := make([]int, 0, (c.End-c.Start+c.Step-1)/c.Step)
	for st := c.Start; st < c.End; st += c.Step {
		offsets = append(offsets, st)
	}
	return offsets
}

// PageFetcher is the interface the API client implements for single-page fetching
type PageFetcher interface {
	// FetchPage fetches the page starting at offset and returns its raw body
	FetchPage(ctx context.Context, offset int) ([]byte, error)
}

// PageHandler consumes one fetched page. A returned error skips the page.
type PageHandler func(offset int, data []byte) error

// Summary reports what happened during a run.
type Summary struct {
	Attempted int
	Fetched   int
	Failed    int // fetch errors
	Skipped   int // handler errors
	Duration  time.Duration
}

// Paginator fetches pages one at a time.
type Paginator struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewPaginator creates a new paginator. It fails when config yields no offsets.
func NewPaginator(fetcher PageFetcher, config Config) (*Paginator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pagination config: %w", err)
	}

	return &Paginator{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "paginator").Logger(),
	}, nil
}

// Run fetches every offset and hands each body to handle.
// Failed fetches and handler errors are logged and skipped; only context
// cancellation ends the run early, returning the partial summary and ctx.Err().
func (p *Paginator) Run(ctx context.Context, handle PageHandler) (Summary, error) {
	start := time.Now()
	offsets := p.config.Offsets()
	summary := Summary{}

	p.logger.Info().
		Ints("offsets", offsets).
		Msg("Starting page fetch")

	for _, offset := range offsets {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			p.logger.Warn().
				Err(err).
				Int("offset", offset).
				Int("attempted", summary.Attempted).
				Msg("Stopping page fetch (context cancelled)")
			return summary, err
		}

		summary.Attempted++
		data, err := p.fetcher.FetchPage(ctx, offset)
		if err != nil {
			summary.Failed++
			p.logger.Warn().
				Err(err).
				Int("offset", offset).
				Msg("Page fetch failed")
			continue
		}
		summary.Fetched++

		if err := handle(offset, data); err != nil {
			summary.Skipped++
			p.logger.Warn().
				Err(err).
				Int("offset", offset).
				Msg("Page skipped")
			continue
		}
	}

	summary.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		p.logger.Warn().
			Err(err).
			Int("attempted", summary.Attempted).
			Msg("Page fetch cancelled")
		return summary, err
	}

	p.logger.Info().
		Int("attempted", summary.Attempted).
		Int("fetched", summary.Fetched).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("Fetch complete")

	return summary, nil
}
