// Package decode turns a raw Narou API payload into novel records.
//
// The API answers with a gzip-compressed YAML document: a sequence of
// mappings where the first entry is a header (allcount) and the rest are
// novels.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Sternrassler/narou-export/pkg/novel"
	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"
)

var (
	// ErrDecompress indicates the payload is not valid gzip data.
	ErrDecompress = errors.New("decompress payload")

	// ErrParse indicates the decompressed payload is not a YAML sequence of mappings.
	ErrParse = errors.New("parse yaml")

	// ErrNoResults indicates the document holds no novel entries after the header.
	ErrNoResults = errors.New("no novels found")
)

// Decoder decodes API payloads.
type Decoder struct {
	// Compressed reports whether payloads are gzip-compressed.
	Compressed bool
}

// Decode decompresses and parses payload, returning the records after the header entry.
func (d Decoder) Decode(payload []byte) ([]novel.Record, error) {
	raw := payload
	if d.Compressed {
		var err error
		raw, err = gunzip(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
		}
	}

	var entries []map[string]any
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if len(entries) < 2 {
		return nil, ErrNoResults
	}

	records := make([]novel.Record, 0, len(entries)-1)
	for _, entry := range entries[1:] {
		records = append(records, novel.RecordFromMap(entry))
	}

	return records, nil
}

func gunzip(payload []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return io.ReadAll(zr)
}
