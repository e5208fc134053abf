package core

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// missingDisplay is how a missing cell is shown in a preview.
const missingDisplay = "NULL"

// WritePreview writes the column labels and the first n rows of t as an
// aligned text table. n <= 0 writes nothing.
func WritePreview(w io.Writer, t *Table, n int) error {
	if n <= 0 || t == nil {
		return nil
	}
	if n > t.Len() {
		n = t.Len()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))

	for _, row := range t.Rows[:n] {
		cells := make([]string, len(t.Columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = formatCell(row[i])
			} else {
				cells[i] = missingDisplay
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	if rest := t.Len() - n; rest > 0 {
		fmt.Fprintf(tw, "... %d more rows\n", rest)
	}
	return tw.Flush()
}

// formatCell formats a table cell for display.
func formatCell(v any) string {
	if v == nil {
		return missingDisplay
	}

	switch val := v.(type) {
	case string:
		return val
	case decimal.NullDecimal:
		if !val.Valid {
			return missingDisplay
		}
		return val.Decimal.String()
	case decimal.Decimal:
		return val.String()
	case pgtype.Date:
		if !val.Valid {
			return missingDisplay
		}
		return val.Time.Format("2006-01-02")
	case time.Time:
		return val.Format(IngestionTimestampLayout)
	default:
		return fmt.Sprintf("%v", val)
	}
}
