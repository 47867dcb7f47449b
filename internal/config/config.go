// Package config loads the export configuration from flags and environment.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/narou-export/pkg/export"
	"github.com/Sternrassler/narou-export/pkg/novel"
	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// API query
	Endpoint  string `long:"endpoint" env:"NAROU_API_URL" default:"https://api.syosetu.com/novelapi/api/" description:"Narou novel API endpoint"`
	Order     string `long:"order" env:"NAROU_ORDER" default:"hyoka" description:"Sort order (order parameter)"`
	Limit     int    `long:"limit" env:"NAROU_LIMIT" default:"500" description:"Novels per page, 1-500 (lim parameter)"`
	MinLength int    `long:"min-length" env:"NAROU_MIN_LENGTH" default:"30000" description:"Minimum character count (minlen parameter)"`
	MaxLength int    `long:"max-length" env:"NAROU_MAX_LENGTH" default:"89500000" description:"Maximum character count (maxlen parameter)"`
	Gzip      int    `long:"gzip" env:"NAROU_GZIP" default:"5" description:"Response gzip level 1-5, 0 disables compression"`
	Fields    string `long:"fields" env:"NAROU_FIELDS" default:"t-n-l-gp-k" description:"Output fields (of parameter)"`

	// Pagination
	OffsetStart int `long:"start" env:"NAROU_OFFSET_START" default:"1" description:"First st offset"`
	OffsetStep  int `long:"step" env:"NAROU_OFFSET_STEP" default:"500" description:"Distance between st offsets"`
	OffsetEnd   int `long:"end" env:"NAROU_OFFSET_END" default:"2001" description:"Exclusive upper bound for st offsets"`

	// Filter
	MinGlobalPoint int    `long:"min-global-point" env:"NAROU_MIN_GLOBAL_POINT" default:"100000" description:"Lowest overall points kept"`
	CharsPerMinute int    `long:"chars-per-minute" env:"NAROU_CHARS_PER_MINUTE" default:"500" description:"Reading speed for the read-time column"`
	NovelBaseURL   string `long:"novel-base-url" env:"NAROU_NOVEL_BASE_URL" default:"https://ncode.syosetu.com/" description:"Prefix for novel URLs"`
	DedupeScope    string `long:"dedupe-scope" env:"NAROU_DEDUPE_SCOPE" default:"page" choice:"page" choice:"job" description:"Forget seen ncodes per page or keep them for the whole run"`

	// Output
	Output     string `long:"output" short:"o" env:"NAROU_OUTPUT" default:"novel_data.csv" description:"CSV output path"`
	HeaderLang string `long:"header-lang" env:"NAROU_HEADER_LANG" default:"en" choice:"en" choice:"ja" description:"CSV header language"`

	// Transport
	Timeout   time.Duration `long:"timeout" env:"NAROU_TIMEOUT" default:"30s" description:"Timeout per page request"`
	UserAgent string        `long:"user-agent" env:"USER_AGENT" default:"narou-export/0.1.0" description:"User agent for API requests"`

	// Optional infrastructure
	RedisAddr      string        `long:"redis-addr" env:"REDIS_URL" description:"Redis address for the page cache (empty disables caching)"`
	CacheTTL       time.Duration `long:"cache-ttl" env:"NAROU_CACHE_TTL" default:"1h" description:"Lifetime of cached pages"`
	PushgatewayURL string        `long:"pushgateway-url" env:"PUSHGATEWAY_URL" description:"Prometheus Pushgateway URL (empty disables pushing)"`

	// Logging
	LogLevel  string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level (debug, info, warn, error)"`
	LogPretty bool   `long:"log-pretty" env:"LOG_PRETTY" description:"Human-readable console logs instead of JSON"`
}

// Load parses args (without the program name) and the environment.
// It returns nil, nil when help was requested.
func Load(args []string) (*Config, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Config{
		Endpoint:       raw.Endpoint,
		Order:          raw.Order,
		Limit:          raw.Limit,
		MinLength:      raw.MinLength,
		MaxLength:      raw.MaxLength,
		Gzip:           raw.Gzip,
		Fields:         raw.Fields,
		OffsetStart:    raw.OffsetStart,
		OffsetStep:     raw.OffsetStep,
		OffsetEnd:      raw.OffsetEnd,
		MinGlobalPoint: raw.MinGlobalPoint,
		CharsPerMinute: raw.CharsPerMinute,
		NovelBaseURL:   raw.NovelBaseURL,
		Output:         raw.Output,
		Timeout:        raw.Timeout,
		UserAgent:      raw.UserAgent,
		RedisAddr:      raw.RedisAddr,
		CacheTTL:       raw.CacheTTL,
		PushgatewayURL: raw.PushgatewayURL,
		LogLevel:       raw.LogLevel,
		LogPretty:      raw.LogPretty,
		Version:        GetVersion(),
	}

	scope, err := novel.ParseDedupeScope(raw.DedupeScope)
	if err != nil {
		return nil, err
	}
	cfg.DedupeScope = scope

	header, err := export.HeaderFor(raw.HeaderLang)
	if err != nil {
		return nil, err
	}
	cfg.Header = header

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges that flag parsing cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Endpoint == "" {
		errs = append(errs, errors.New("endpoint is required"))
	}
	if c.Limit < 1 || c.Limit > 500 {
		errs = append(errs, fmt.Errorf("limit must be 1-500 (got %d)", c.Limit))
	}
	if c.MinLength > c.MaxLength {
		errs = append(errs, fmt.Errorf("min-length %d exceeds max-length %d", c.MinLength, c.MaxLength))
	}
	if c.Gzip < 0 || c.Gzip > 5 {
		errs = append(errs, fmt.Errorf("gzip must be 0-5 (got %d)", c.Gzip))
	}
	if c.OffsetStep <= 0 {
		errs = append(errs, fmt.Errorf("step must be > 0 (got %d)", c.OffsetStep))
	}
	if c.OffsetEnd <= c.OffsetStart {
		errs = append(errs, fmt.Errorf("end %d must be greater than start %d", c.OffsetEnd, c.OffsetStart))
	}
	if c.CharsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("chars-per-minute must be > 0 (got %d)", c.CharsPerMinute))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be > 0 (got %s)", c.Timeout))
	}
	if c.RedisAddr != "" && c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache-ttl must be > 0 (got %s)", c.CacheTTL))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output path is required"))
	}

	return errors.Join(errs...)
}
