package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AppendRowPadsAndTruncates(t *testing.T) {
	tbl := NewTable("a", "b", "c")
	tbl.AppendRow(1)
	tbl.AppendRow(1, 2, 3, 4)

	assert.Equal(t, []any{1, nil, nil}, tbl.Rows[0])
	assert.Equal(t, []any{1, 2, 3}, tbl.Rows[1])
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_ColumnIndex(t *testing.T) {
	tbl := NewTable("member_id", "CLAIM_AMOUNT", " Service_Date ")

	assert.Equal(t, 0, tbl.ColumnIndex("member_id"))
	assert.Equal(t, 1, tbl.ColumnIndex("claim_amount"), "case-insensitive")
	assert.Equal(t, 2, tbl.ColumnIndex("service_date"), "trimmed")
	assert.Equal(t, -1, tbl.ColumnIndex("payer_name"))

	exact := NewTable("Claim_Amount", "claim_amount")
	assert.Equal(t, 1, exact.ColumnIndex("claim_amount"), "exact match wins")
}

func TestTable_Value(t *testing.T) {
	tbl := NewTable("a")
	tbl.AppendRow("x")

	v, ok := tbl.Value(0, "a")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = tbl.Value(1, "a")
	assert.False(t, ok)
	_, ok = tbl.Value(0, "b")
	assert.False(t, ok)
	_, ok = tbl.Value(-1, "a")
	assert.False(t, ok)
}

func TestTable_AddColumn(t *testing.T) {
	tbl := NewTable("a")
	tbl.AppendRow(1)
	tbl.AppendRow(2)

	idx := tbl.AddColumn("b", "fill")
	assert.Equal(t, 1, idx)
	assert.Equal(t, []any{1, "fill"}, tbl.Rows[0])
	assert.Equal(t, []any{2, "fill"}, tbl.Rows[1])

	assert.Equal(t, 0, tbl.AddColumn("A", nil), "existing column is reused")
	assert.Len(t, tbl.Columns, 2)
}

func TestTable_CloneIsIndependent(t *testing.T) {
	tbl := NewTable("a", "b")
	tbl.AppendRow(1, 2)

	c := tbl.Clone()
	c.Rows[0][0] = 99
	c.AddColumn("c", 3)
	c.UppercaseColumns()

	assert.Equal(t, []string{"a", "b"}, tbl.Columns)
	assert.Equal(t, []any{1, 2}, tbl.Rows[0])
	assert.Equal(t, []string{"A", "B", "C"}, c.Columns)
	assert.Equal(t, []any{99, 2, 3}, c.Rows[0])
}

func TestTable_CloneNormalizesRowWidth(t *testing.T) {
	tbl := &Table{
		Columns: []string{"a", "b", "c"},
		Rows:    [][]any{{1}, {1, 2, 3, 4}, nil},
	}

	c := tbl.Clone()

	assert.Equal(t, []any{1, nil, nil}, c.Rows[0])
	assert.Equal(t, []any{1, 2, 3}, c.Rows[1])
	assert.Equal(t, []any{nil, nil, nil}, c.Rows[2])
	assert.Len(t, tbl.Rows[0], 1, "source rows are untouched")
}

func TestNewTable_CopiesColumns(t *testing.T) {
	cols := []string{"a", "b"}
	tbl := NewTable(cols...)
	cols[0] = "z"
	assert.Equal(t, "a", tbl.Columns[0])
}
