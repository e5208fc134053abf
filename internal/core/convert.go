package core

// convert.go provides best-effort coercion of claim cells.
//
// These functions handle the messy reality of payer-provided files:
//   - Multiple date formats (US, EU, ISO, date-times)
//   - Currency symbols and thousand separators in amounts
//   - Accounting format negatives "(123.45)"
//   - Excel formula prefixes (="value")
//   - Dataframe-style missing tokens (NA, N/A, null, NaN)
//
// Coercion never fails: unparsable input yields Valid=false.

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
// Date-time layouts come first so the time component is parsed and dropped
// rather than rejected.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999", "2006-01-02 15:04",
		"2006-01-02 15:04:05Z07:00", "2006-01-02 15:04:05 -0700 MST", "2006-01-02 15:04:05 MST",
		"1/2/2006 15:04:05", "1/2/2006 15:04", "01/02/2006 15:04:05",
		"1/2/2006 3:04:05 PM", "1/2/2006 3:04 PM", "1/2/2006 3:04:05PM", "1/2/2006 3:04PM",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2006-1-2 15:04:05", "2006/1/2 15:04:05", "2006-1-2", "2006/1/2",
		"Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "January 2 2006",
		"2 Jan 2006", "2 January 2006", "02-Jan-2006", "Mon, 02 Jan 2006",
		"20060102",
	}
)

// missingTokens are cell values treated as missing, as a dataframe reader would.
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"#n/a": true,
	"nan":  true,
	"null": true,
	"none": true,
	"<na>": true,
	"-nan": true,
}

// IsMissingToken reports whether s denotes a missing value.
func IsMissingToken(s string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ToDecimal coerces a cell to a decimal amount.
// Returns Valid=false for missing or unparsable values.
func ToDecimal(v any) decimal.NullDecimal {
	switch x := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.NullDecimal:
		return x
	case decimal.Decimal:
		return decimal.NewNullDecimal(x)
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(x))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(x)))
	case int32:
		return decimal.NewNullDecimal(decimal.NewFromInt32(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(x))
	case float32:
		return ToDecimal(float64(x))
	case json.Number:
		return parseAmount(x.String())
	case string:
		return parseAmount(x)
	case bool:
		return decimal.NullDecimal{}
	default:
		return parseAmount(fmt.Sprint(x))
	}
}

// parseAmount parses a textual amount.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func parseAmount(s string) decimal.NullDecimal {
	s = CleanCell(s)
	if IsMissingToken(s) {
		return decimal.NullDecimal{}
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ToDate coerces a cell to a date with no time-of-day component.
// Supports multiple date formats and handles 2-digit years with pivot.
func ToDate(v any) pgtype.Date {
	switch x := v.(type) {
	case nil:
		return pgtype.Date{}
	case pgtype.Date:
		if !x.Valid {
			return x
		}
		return dateOnly(x.Time)
	case time.Time:
		if x.IsZero() {
			return pgtype.Date{}
		}
		return dateOnly(x)
	case string:
		return parseDate(x)
	default:
		return parseDate(fmt.Sprint(x))
	}
}

func parseDate(s string) pgtype.Date {
	s = CleanCell(s)
	if IsMissingToken(s) {
		return pgtype.Date{}
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return dateOnly(t)
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot

	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return dateOnly(t)
		}
	}

	return pgtype.Date{}
}

// dateOnly keeps the calendar date of t as seen in t's own location.
func dateOnly(t time.Time) pgtype.Date {
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// ToPgNumeric converts a decimal amount to pgtype.Numeric for the COPY protocol.
// Returns invalid (NULL) for a missing amount.
func ToPgNumeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{Valid: false}
	}
	var n pgtype.Numeric
	if err := n.Scan(d.Decimal.String()); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}

// inferColumn turns raw text cells into typed cells the way a dataframe
// reader infers column dtypes: all-integer columns become int64, all-numeric
// columns float64, anything else stays text. Missing tokens become nil.
func inferColumn(raw []string) []any {
	out := make([]any, len(raw))

	allInt, allFloat := true, true
	present := 0
	for _, s := range raw {
		if IsMissingToken(s) {
			continue
		}
		present++
		t := strings.TrimSpace(s)
		if allInt {
			if _, err := strconv.ParseInt(t, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat && !allInt {
			if _, err := strconv.ParseFloat(t, 64); err != nil || !numericRegex.MatchString(t) {
				allFloat = false
			}
		}
		if !allInt && !allFloat {
			break
		}
	}

	for i, s := range raw {
		if IsMissingToken(s) {
			out[i] = nil
			continue
		}
		t := strings.TrimSpace(s)
		switch {
		case present > 0 && allInt:
			n, _ := strconv.ParseInt(t, 10, 64)
			out[i] = n
		case present > 0 && allFloat:
			f, _ := strconv.ParseFloat(t, 64)
			out[i] = f
		default:
			out[i] = s
		}
	}
	return out
}

// widen maps Go scalar kinds in literal records onto the table cell types.
func widen(v any) any {
	switch x := v.(type) {
	case nil, string, int64, float64, bool, time.Time, decimal.Decimal, decimal.NullDecimal, pgtype.Date:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x)
		}
		return float64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return float64(x)
	case float32:
		return float64(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
