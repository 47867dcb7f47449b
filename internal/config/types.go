package config

import (
	"time"

	"github.com/Sternrassler/narou-export/pkg/client"
	"github.com/Sternrassler/narou-export/pkg/decode"
	"github.com/Sternrassler/narou-export/pkg/job"
	"github.com/Sternrassler/narou-export/pkg/logging"
	"github.com/Sternrassler/narou-export/pkg/novel"
	"github.com/Sternrassler/narou-export/pkg/pagination"
)

type Config struct {
	// API query
	Endpoint  string
	Order     string
	Limit     int
	MinLength int
	MaxLength int
	Gzip      int
	Fields    string

	// Pagination
	OffsetStart int
	OffsetStep  int
	OffsetEnd   int

	// Filter
	MinGlobalPoint int
	CharsPerMinute int
	NovelBaseURL   string
	DedupeScope    novel.DedupeScope

	// Output
	Output string
	Header []string

	// Transport
	Timeout   time.Duration
	UserAgent string

	// Optional infrastructure
	RedisAddr      string
	CacheTTL       time.Duration
	PushgatewayURL string

	// Logging
	LogLevel  string
	LogPretty bool

	Version string
}

// Query returns the API query parameters.
func (c *Config) Query() client.Query {
	return client.Query{
		Order:     c.Order,
		Limit:     c.Limit,
		MinLength: c.MinLength,
		MaxLength: c.MaxLength,
		Gzip:      c.Gzip,
		Fields:    c.Fields,
	}
}

// Client returns the API client configuration without a cache.
func (c *Config) Client() client.Config {
	return client.Config{
		Endpoint:  c.Endpoint,
		UserAgent: c.UserAgent,
		Timeout:   c.Timeout,
		Query:     c.Query(),
		CacheTTL:  c.CacheTTL,
	}
}

// Job returns the pipeline configuration.
func (c *Config) Job() job.Config {
	return job.Config{
		Pagination: pagination.Config{
			Start: c.OffsetStart,
			Step:  c.OffsetStep,
			End:   c.OffsetEnd,
		},
		Filter: novel.FilterConfig{
			MinGlobalPoint: c.MinGlobalPoint,
			CharsPerMinute: c.CharsPerMinute,
			BaseURL:        c.NovelBaseURL,
			Scope:          c.DedupeScope,
		},
		Decoder:    decode.Decoder{Compressed: c.Query().Compressed()},
		OutputPath: c.Output,
		Header:     c.Header,
	}
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}
