package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/claimload/internal/logging"
)

// Transformer applies type coercion, the ingestion timestamp and the payer
// adjustment to a table.
type Transformer struct {
	Rules *Registry
	Now   func() time.Time
}

// NewTransformer creates a transformer over rules. A nil registry uses the
// built-in rules.
func NewTransformer(rules *Registry) *Transformer {
	if rules == nil {
		rules = DefaultRegistry()
	}
	return &Transformer{Rules: rules, Now: time.Now}
}

// Transform returns a derived table; t is not modified.
//
//  1. claim_amount is coerced to decimal.NullDecimal
//  2. service_date is coerced to a date-only pgtype.Date
//  3. ingestion_timestamp is set to one wall-clock reading for every row
//  4. every valid claim_amount is multiplied by the payer's factor
//
// Unparsable amounts and dates become missing. Missing amounts stay missing
// through the adjustment. A claim column absent from t is added with every
// value missing.
func (tr *Transformer) Transform(ctx context.Context, t *Table, payer string) *Table {
	out := t.Clone()
	rule := tr.Rules.Resolve(payer)
	stamp := tr.now().Format(IngestionTimestampLayout)

	amountIdx := out.AddColumn(ColClaimAmount, nil)
	dateIdx := out.AddColumn(ColServiceDate, nil)
	stampIdx := out.AddColumn(ColIngestionTimestamp, nil)

	adjust := !rule.Factor.Equal(decimal.NewFromInt(1))

	var missingAmounts, missingDates int
	for _, row := range out.Rows {
		amount := ToDecimal(row[amountIdx])
		if !amount.Valid {
			missingAmounts++
		} else if adjust {
			amount.Decimal = amount.Decimal.Mul(rule.Factor)
		}
		row[amountIdx] = amount

		date := ToDate(row[dateIdx])
		if !date.Valid {
			missingDates++
		}
		row[dateIdx] = date

		row[stampIdx] = stamp
	}

	logging.WithFields(ctx,
		"payer", rule.Key,
		"factor", rule.Factor.String(),
		"rows", out.Len(),
	).Info("claims transformed",
		"missing_claim_amount", missingAmounts,
		"missing_service_date", missingDates,
		"ingestion_timestamp", stamp,
	)

	return out
}

func (tr *Transformer) now() time.Time {
	if tr.Now == nil {
		return time.Now()
	}
	return tr.Now()
}

// Transform applies the built-in payer rules at the current time.
func Transform(t *Table, payer string) *Table {
	return NewTransformer(nil).Transform(context.Background(), t, payer)
}
