// Package export writes novel rows as a CSV file that spreadsheet tools open
// as UTF-8 (the file starts with a byte order mark).
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Sternrassler/narou-export/pkg/novel"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultPath is the output file used when none is configured.
const DefaultPath = "novel_data.csv"

// HeaderEnglish is the default column header.
var HeaderEnglish = []string{"title", "keywords", "popularity-score", "length", "read-time", "URL"}

// HeaderJapanese uses the column names shown on the Narou site.
var HeaderJapanese = []string{"タイトル", "キーワード", "総合ポイント", "文字数", "読了時間（分）", "URL"}

// HeaderFor returns the header for a language code ("en" or "ja").
func HeaderFor(lang string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "en":
		return HeaderEnglish, nil
	case "ja":
		return HeaderJapanese, nil
	default:
		return nil, fmt.Errorf("unknown header language %q (want \"en\" or \"ja\")", lang)
	}
}

// Writer serializes rows with a fixed header.
type Writer struct {
	header []string
}

// NewWriter creates a writer. A nil header selects HeaderEnglish.
func NewWriter(header []string) *Writer {
	if len(header) == 0 {
		header = HeaderEnglish
	}
	return &Writer{header: header}
}

// Write encodes the header and rows to dst.
func (w *Writer) Write(dst io.Writer, rows []novel.Row) error {
	bom := transform.NewWriter(dst, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bom)
	cw.UseCRLF = true

	if err := cw.Write(w.header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(record(row)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := bom.Close(); err != nil {
		return fmt.Errorf("flush encoder: %w", err)
	}

	return nil
}

// WriteFile creates (or truncates) path and writes the rows to it.
func (w *Writer) WriteFile(path string, rows []novel.Row) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", cerr)
		}
	}()

	return w.Write(f, rows)
}

func record(row novel.Row) []string {
	return []string{
		row.Title,
		row.Keywords,
		strconv.Itoa(row.GlobalPoint),
		strconv.Itoa(row.Length),
		strconv.Itoa(row.ReadMinutes),
		row.URL,
	}
}
