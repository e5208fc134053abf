package core

// sourcereader.go prepares raw claim file bytes for parsing:
//
//   - a UTF-8 BOM (common in Windows exports) is dropped
//   - invalid UTF-8 is replaced with U+FFFD instead of failing the parse
//   - bytes consumed are counted for the progress log

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// countingReader tracks bytes read from the underlying reader.
type countingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100), or 0 if the
// total is unknown.
func (r *countingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// newSourceReader wraps r with BOM removal and UTF-8 repair. The counter
// sits below the decoder so it reports raw bytes.
func newSourceReader(r io.Reader, total int64) (io.Reader, *countingReader) {
	counter := &countingReader{reader: r, Total: total}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(counter, decoder), counter
}
