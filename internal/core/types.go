package core

import (
	"strings"
)

// Well-known claim columns.
const (
	ColMemberID           = "member_id"
	ColClaimID            = "claim_id"
	ColClaimAmount        = "claim_amount"
	ColServiceDate        = "service_date"
	ColPayerName          = "payer_name"
	ColIngestionTimestamp = "ingestion_timestamp"
)

// claimColumns is the canonical column order for literal records.
var claimColumns = []string{ColMemberID, ColClaimID, ColClaimAmount, ColServiceDate, ColPayerName}

// IngestionTimestampLayout formats the ingestion_timestamp column.
const IngestionTimestampLayout = "2006-01-02 15:04:05"

// Input is what the normalizer accepts: either a FilePath or LiteralRecords.
type Input interface {
	isInput()
}

// FilePath names a delimited or workbook file, local or s3://bucket/key.
type FilePath string

func (FilePath) isInput() {}

// Record is one literal claim record keyed by column name.
type Record map[string]any

// LiteralRecords is an in-memory record set.
type LiteralRecords []Record

func (LiteralRecords) isInput() {}

// Table is an ordered set of columns and rows of cells aligned with them.
//
// A nil cell is missing. After transformation claim_amount cells are
// decimal.NullDecimal and service_date cells are pgtype.Date.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a column, or -1.
// An exact match wins; otherwise the first case-insensitive match is used.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	for i, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return i
		}
	}
	return -1
}

// Value returns the cell at row for column.
func (t *Table) Value(row int, column string) (any, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) || idx >= len(t.Rows[row]) {
		return nil, false
	}
	return t.Rows[row][idx], true
}

// AppendRow adds a row, padding or truncating it to the column count.
func (t *Table) AppendRow(cells ...any) {
	row := make([]any, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// AddColumn appends a column filled with fill and returns its index.
// If the column already exists its index is returned unchanged.
func (t *Table) AddColumn(name string, fill any) int {
	if idx := t.ColumnIndex(name); idx >= 0 {
		return idx
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fill)
	}
	return len(t.Columns) - 1
}

// Clone returns a copy whose columns and rows can be changed without
// affecting t. Cells are values and are shared. Every row of the copy has
// exactly one cell per column: short rows are padded with nil and extra
// cells are dropped.
func (t *Table) Clone() *Table {
	width := len(t.Columns)
	out := &Table{
		Columns: make([]string, width),
		Rows:    make([][]any, len(t.Rows)),
	}
	copy(out.Columns, t.Columns)
	for i, row := range t.Rows {
		r := make([]any, width, width+1)
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// UppercaseColumns rewrites every column label to upper case in place,
// keeping order and values.
func (t *Table) UppercaseColumns() {
	for i, c := range t.Columns {
		t.Columns[i] = strings.ToUpper(c)
	}
}

// LoadResult reports the outcome of a bulk append.
type LoadResult struct {
	Success     bool
	RowsWritten int64
	Chunks      int
	Table       string
	RunID       string
}
