package novel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTime(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{30000, 60},
		{30001, 61},
		{500, 1},
		{499, 1},
		{1, 1},
		{0, 0},
		{-1, 0},
		{-501, -1},
		{89500000, 179000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ReadTime(tt.length, 500), "ReadTime(%d, 500)", tt.length)
	}

	assert.Equal(t, 0, ReadTime(1000, 0))
}

func TestRecordFromMap(t *testing.T) {
	rec := RecordFromMap(map[string]any{
		"ncode":        "N1234AB",
		"title":        "異世界の話",
		"length":       30000,
		"global_point": "150000",
		"keyword":      "ファンタジー 冒険",
	})

	assert.Equal(t, Record{
		NCode:       "N1234AB",
		Title:       "異世界の話",
		Length:      30000,
		GlobalPoint: 150000,
		Keyword:     "ファンタジー 冒険",
	}, rec)
}

func TestRecordFromMap_MissingAndOddFields(t *testing.T) {
	rec := RecordFromMap(map[string]any{
		"title":        1984,
		"length":       12345.0,
		"global_point": "not a number",
		"keyword":      []any{"a", "b"},
	})

	assert.Equal(t, "", rec.NCode)
	assert.Equal(t, "1984", rec.Title)
	assert.Equal(t, 12345, rec.Length)
	assert.Equal(t, 0, rec.GlobalPoint)
	assert.Equal(t, "", rec.Keyword)
}

func TestParseDedupeScope(t *testing.T) {
	scope, err := ParseDedupeScope("Page")
	require.NoError(t, err)
	assert.Equal(t, ScopePage, scope)

	scope, err = ParseDedupeScope(" job ")
	require.NoError(t, err)
	assert.Equal(t, ScopeJob, scope)

	_, err = ParseDedupeScope("global")
	assert.Error(t, err)
}

func TestFilter_ThresholdAndRowShape(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())
	out := NewCollection()

	stats := f.Apply([]Record{
		{NCode: "N0001", Title: "T1", Length: 30000, GlobalPoint: 150000, Keyword: "k1"},
		{NCode: "N0002", Title: "T2", Length: 40000, GlobalPoint: 99999, Keyword: "k2"},
		{NCode: "N0003", Title: "T3", Length: 30001, GlobalPoint: 100000, Keyword: "k3,k4"},
	}, out)

	assert.Equal(t, PageStats{Records: 3, BelowThreshold: 1, Kept: 2}, stats)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, Row{
		Title:       "T1",
		Keywords:    "k1",
		GlobalPoint: 150000,
		Length:      30000,
		ReadMinutes: 60,
		URL:         "https://ncode.syosetu.com/n0001/",
	}, out.Rows()[0])
	assert.Equal(t, 61, out.Rows()[1].ReadMinutes)
	assert.Equal(t, "k3,k4", out.Rows()[1].Keywords)

	for _, row := range out.Rows() {
		assert.GreaterOrEqual(t, row.GlobalPoint, 100000)
	}
}

func TestFilter_CaseInsensitiveDuplicates(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())
	out := NewCollection()

	stats := f.Apply([]Record{
		{NCode: "ABC123", Title: "first", GlobalPoint: 200000},
		{NCode: "abc123", Title: "second", GlobalPoint: 300000},
	}, out)

	assert.Equal(t, 1, stats.Duplicates)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "first", out.Rows()[0].Title)
	assert.Equal(t, "https://ncode.syosetu.com/abc123/", out.Rows()[0].URL)
}

func TestFilter_SeenBeforeThreshold(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())
	out := NewCollection()

	// The first occurrence is below the threshold but still claims the identifier.
	stats := f.Apply([]Record{
		{NCode: "n1", GlobalPoint: 10},
		{NCode: "N1", GlobalPoint: 500000},
	}, out)

	assert.Equal(t, PageStats{Records: 2, Duplicates: 1, BelowThreshold: 1}, stats)
	assert.Equal(t, 0, out.Len())
}

func TestFilter_UniquePageContributesNMinusM(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())
	out := NewCollection()

	var records []Record
	below := 0
	for i := 0; i < 20; i++ {
		gp := 100000 + i
		if i%3 == 0 {
			gp = i
			below++
		}
		records = append(records, Record{NCode: "n" + string(rune('a'+i)), GlobalPoint: gp})
	}

	f.Apply(records, out)
	assert.Equal(t, len(records)-below, out.Len())
}

func TestFilter_PageScopeForgetsBetweenPages(t *testing.T) {
	f := NewFilter(FilterConfig{MinGlobalPoint: 100000, Scope: ScopePage})
	out := NewCollection()

	page := []Record{{NCode: "N0001", GlobalPoint: 150000}}
	f.Apply(page, out)
	stats := f.Apply(page, out)

	assert.Equal(t, 0, stats.Duplicates)
	assert.Equal(t, 2, out.Len())
}

func TestFilter_JobScopeRemembersAcrossPages(t *testing.T) {
	f := NewFilter(FilterConfig{MinGlobalPoint: 100000, Scope: ScopeJob})
	out := NewCollection()

	f.Apply([]Record{{NCode: "N0001", GlobalPoint: 150000}}, out)
	stats := f.Apply([]Record{{NCode: "n0001", GlobalPoint: 150000}}, out)

	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, out.Len())
}

func TestNewFilter_BaseURLGetsTrailingSlash(t *testing.T) {
	f := NewFilter(FilterConfig{MinGlobalPoint: 1, BaseURL: "https://example.test/n"})
	out := NewCollection()

	f.Apply([]Record{{NCode: "X1", GlobalPoint: 1}}, out)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, "https://example.test/n/x1/", out.Rows()[0].URL)
}
