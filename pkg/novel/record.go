// Package novel holds the record and row types of the export together with
// the filter that turns API records into output rows.
package novel

import (
	"math"
	"strconv"
	"strings"
)

// Record is one novel entry as returned by the Narou API.
type Record struct {
	NCode       string
	Title       string
	Length      int
	GlobalPoint int
	Keyword     string
}

// Row is one line of the exported CSV.
type Row struct {
	Title       string
	Keywords    string
	GlobalPoint int
	Length      int
	ReadMinutes int
	URL         string
}

// RecordFromMap extracts a Record from a decoded YAML mapping.
// Missing or unusable fields fall back to the empty string or zero.
func RecordFromMap(m map[string]any) Record {
	return Record{
		NCode:       stringField(m, "ncode"),
		Title:       stringField(m, "title"),
		Length:      intField(m, "length"),
		GlobalPoint: intField(m, "global_point"),
		Keyword:     stringField(m, "keyword"),
	}
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		if v > math.MaxInt {
			return math.MaxInt
		}
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// ReadTime returns the reading time in minutes for length characters at
// charsPerMinute, rounded up.
func ReadTime(length, charsPerMinute int) int {
	if charsPerMinute <= 0 {
		return 0
	}
	minutes := length / charsPerMinute
	if length > 0 && length%charsPerMinute != 0 {
		minutes++
	}
	return minutes
}
