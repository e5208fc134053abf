package warehouse

import (
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/claimload/internal/core"
)

// copyRow converts table cells to values the COPY encoder accepts.
// Decimals become pgtype.Numeric; missing values become NULL.
func copyRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case decimal.NullDecimal:
		if !val.Valid {
			return nil
		}
		return core.ToPgNumeric(val)
	case decimal.Decimal:
		return core.ToPgNumeric(decimal.NewNullDecimal(val))
	default:
		return val
	}
}

// chunks splits n rows into [start, end) ranges of at most size rows.
func chunks(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
