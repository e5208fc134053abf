package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/claimload/internal/logging"
)

// ObjectSource fetches objects named by s3://bucket/key paths.
type ObjectSource interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// Normalizer turns an Input into a Table.
type Normalizer struct {
	// Objects serves s3:// paths. Nil means object paths are unsupported.
	Objects ObjectSource
}

// NewNormalizer creates a normalizer. objects may be nil.
func NewNormalizer(objects ObjectSource) *Normalizer {
	return &Normalizer{Objects: objects}
}

const objectScheme = "s3://"

// IsObjectPath reports whether path names an object store object.
func IsObjectPath(path string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(path)), objectScheme)
}

// parseObjectURI splits s3://bucket/key.
func parseObjectURI(path string) (bucket, key string, err error) {
	rest := strings.TrimSpace(path)[len(objectScheme):]
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: object path %q must be s3://bucket/key", ErrUnsupportedInput, path)
	}
	return bucket, key, nil
}

// Exists checks that a file path can be read before normalization.
// Returns an error wrapping ErrNotFound if it does not exist.
func (n *Normalizer) Exists(ctx context.Context, path FilePath) error {
	p := string(path)

	if IsObjectPath(p) {
		if n.Objects == nil {
			return fmt.Errorf("%w: no object store configured for %s", ErrUnsupportedInput, p)
		}
		bucket, key, err := parseObjectURI(p)
		if err != nil {
			return err
		}
		ok, err := n.Objects.Exists(ctx, bucket, key)
		if err != nil {
			return fmt.Errorf("checking %s: %w", p, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil
	}

	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", p, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrUnsupportedInput, p)
	}
	return nil
}

// Normalize produces a Table from in.
//
// A FilePath is parsed as delimited text, or as a workbook when it is an
// .xlsx file. LiteralRecords become rows directly. Any other input,
// including nil, returns ErrUnsupportedInput.
func (n *Normalizer) Normalize(ctx context.Context, in Input) (*Table, error) {
	logger := logging.FromContext(ctx)

	switch v := in.(type) {
	case FilePath:
		logger.Info("reading claims from file", "source", string(v))
		return n.normalizeFile(ctx, v)
	case LiteralRecords:
		logger.Info("using literal claim records", "records", len(v))
		return tableFromRecords(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, in)
	}
}

func (n *Normalizer) normalizeFile(ctx context.Context, path FilePath) (*Table, error) {
	data, err := n.readSource(ctx, path)
	if err != nil {
		return nil, err
	}

	name := string(path)
	var t *Table
	if isWorkbook(name, data) {
		t, err = parseWorkbook(data)
	} else {
		t, err = parseDelimited(ctx, data, delimiterFor(name, data))
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	logging.FromContext(ctx).Debug("parsed claims file",
		"source", name,
		"columns", len(t.Columns),
		"rows", t.Len(),
	)
	return t, nil
}

func (n *Normalizer) readSource(ctx context.Context, path FilePath) ([]byte, error) {
	p := string(path)

	if IsObjectPath(p) {
		if n.Objects == nil {
			return nil, fmt.Errorf("%w: no object store configured for %s", ErrUnsupportedInput, p)
		}
		bucket, key, err := parseObjectURI(p)
		if err != nil {
			return nil, err
		}
		data, err := n.Objects.Download(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("downloading %s: %w", p, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) && isDir(p) {
			return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedInput, p)
		}
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// delimiterFor picks the field separator from the extension, falling back
// to the separator that occurs most in the header line.
func delimiterFor(name string, data []byte) rune {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tsv", ".tab":
		return '\t'
	case ".csv":
		return ','
	}

	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if c := bytes.Count(header, []byte(string(d))); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

// parseDelimited reads delimited text into a table. The first non-empty
// record is the header. Short rows are padded with missing cells and long
// rows truncated to the header width.
func parseDelimited(ctx context.Context, data []byte, delim rune) (*Table, error) {
	src, counter := newSourceReader(bytes.NewReader(data), int64(len(data)))

	r := csv.NewReader(src)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var header []string
	var raw [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid csv: %w", ErrUnsupportedInput, err)
		}
		if isBlankRecord(rec) {
			continue
		}
		if header == nil {
			header = rec
			continue
		}
		raw = append(raw, rec)
	}

	logging.FromContext(ctx).Debug("read delimited source",
		"bytes", counter.BytesRead,
		"progress", counter.Progress(),
	)

	if header == nil {
		return nil, ErrEmptySource
	}
	return buildTable(header, raw), nil
}

func isBlankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// buildTable aligns raw rows to the header and infers each column's type.
func buildTable(header []string, raw [][]string) *Table {
	cols := dedupeHeaders(header)
	t := NewTable(cols...)

	typed := make([][]any, len(cols))
	for c := range cols {
		cells := make([]string, len(raw))
		for r, rec := range raw {
			if c < len(rec) {
				cells[r] = rec[c]
			}
		}
		typed[c] = inferColumn(cells)
	}

	t.Rows = make([][]any, len(raw))
	for r := range raw {
		row := make([]any, len(cols))
		for c := range cols {
			row[c] = typed[c][r]
		}
		t.Rows[r] = row
	}
	return t
}

// dedupeHeaders trims labels and suffixes repeats as name.1, name.2, and
// names blank labels "Unnamed: i".
func dedupeHeaders(header []string) []string {
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int)
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			suffix[h]++
			name = fmt.Sprintf("%s.%d", h, suffix[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// tableFromRecords builds a table whose columns are the union of the
// records' keys: the claim columns first in their canonical order, then any
// other keys sorted. Keys absent from a record are missing in its row.
func tableFromRecords(records LiteralRecords) *Table {
	keys := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			keys[k] = true
		}
	}

	var cols []string
	for _, c := range claimColumns {
		if keys[c] {
			cols = append(cols, c)
			delete(keys, c)
		}
	}
	extra := make([]string, 0, len(keys))
	for k := range keys {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	cols = append(cols, extra...)

	t := NewTable(cols...)
	t.Rows = make([][]any, 0, len(records))
	for _, rec := range records {
		row := make([]any, len(cols))
		for i, c := range cols {
			if v, ok := rec[c]; ok {
				row[i] = widen(v)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
