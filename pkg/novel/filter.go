package novel

import (
	"fmt"
	"strings"
)

// DedupeScope controls how long an identifier is remembered by the Filter.
type DedupeScope string

const (
	// ScopePage forgets identifiers at the start of every page.
	ScopePage DedupeScope = "page"

	// ScopeJob remembers identifiers across all pages of a run.
	ScopeJob DedupeScope = "job"
)

// ParseDedupeScope converts a configuration string into a DedupeScope.
func ParseDedupeScope(s string) (DedupeScope, error) {
	switch DedupeScope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopePage:
		return ScopePage, nil
	case ScopeJob:
		return ScopeJob, nil
	default:
		return "", fmt.Errorf("unknown dedupe scope %q (want %q or %q)", s, ScopePage, ScopeJob)
	}
}

// FilterConfig holds the thresholds applied to every record.
type FilterConfig struct {
	// MinGlobalPoint is the lowest popularity score that is kept.
	MinGlobalPoint int

	// CharsPerMinute is the reading speed used for ReadMinutes.
	CharsPerMinute int

	// BaseURL is prefixed to the lowercase identifier to build the novel URL.
	BaseURL string

	// Scope of the seen-identifiers set.
	Scope DedupeScope
}

// DefaultFilterConfig returns the thresholds used by the Narou export.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinGlobalPoint: 100000,
		CharsPerMinute: 500,
		BaseURL:        "https://ncode.syosetu.com/",
		Scope:          ScopePage,
	}
}

// PageStats summarizes what Apply did with one page of records.
type PageStats struct {
	Records        int
	Duplicates     int
	BelowThreshold int
	Kept           int
}

// Filter deduplicates and thresholds records. It is not safe for concurrent use.
type Filter struct {
	config FilterConfig
	seen   map[string]struct{}
}

// NewFilter creates a filter. Zero values in config fall back to the defaults.
func NewFilter(config FilterConfig) *Filter {
	def := DefaultFilterConfig()
	if config.CharsPerMinute <= 0 {
		config.CharsPerMinute = def.CharsPerMinute
	}
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.Scope == "" {
		config.Scope = def.Scope
	}
	if !strings.HasSuffix(config.BaseURL, "/") {
		config.BaseURL += "/"
	}

	return &Filter{
		config: config,
		seen:   make(map[string]struct{}),
	}
}

// Apply filters one page of records and appends the surviving rows to out.
func (f *Filter) Apply(records []Record, out *Collection) PageStats {
	if f.config.Scope == ScopePage {
		clear(f.seen)
	}

	stats := PageStats{Records: len(records)}
	for _, rec := range records {
		ncode := strings.ToLower(rec.NCode)

		if _, dup := f.seen[ncode]; dup {
			stats.Duplicates++
			continue
		}
		f.seen[ncode] = struct{}{}

		if rec.GlobalPoint < f.config.MinGlobalPoint {
			stats.BelowThreshold++
			continue
		}

		out.Add(Row{
			Title:       rec.Title,
			Keywords:    rec.Keyword,
			GlobalPoint: rec.GlobalPoint,
			Length:      rec.Length,
			ReadMinutes: ReadTime(rec.Length, f.config.CharsPerMinute),
			URL:         f.config.BaseURL + ncode + "/",
		})
		stats.Kept++
	}

	return stats
}

// Collection accumulates rows across pages in insertion order.
type Collection struct {
	rows []Row
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Add appends a row.
func (c *Collection) Add(row Row) {
	c.rows = append(c.rows, row)
}

// Rows returns the accumulated rows. The slice must not be modified.
func (c *Collection) Rows() []Row {
	return c.rows
}

// Len returns the number of accumulated rows.
func (c *Collection) Len() int {
	return len(c.rows)
}
