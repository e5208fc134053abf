// Package core provides the business logic for claim batch loads.
//
// This package holds all domain logic independent of the CLI and of the
// destination store. It can be used by the command, by other batch tools, or
// by tests without modification.
//
// # Architecture
//
// A load is a single linear pass over three steps:
//
//   - Normalize: an [Input] (a [FilePath] or [LiteralRecords]) becomes a
//     uniform [Table] via [Normalizer.Normalize].
//   - Transform: [Transformer.Transform] derives a new table with
//     claim_amount coerced and adjusted, service_date coerced to a date and
//     an ingestion_timestamp stamped on every row.
//   - Load: the warehouse package appends the derived table to the payer's
//     destination table and reports a [LoadResult].
//
// # Payer Rules
//
// Payer-specific behaviour lives in a [Registry], a lookup table from the
// lowercased payer to its adjustment factor and destination table:
//
//	anthem  -> 1.05, ANTHEM_TABLE
//	cigna   -> 0.98, CIGNA_TABLE
//	*       -> 1.00, GENERIC_CLAIMS
//
// Adding a payer is a data change, either through [Registry.Register] or a
// rules file read by [LoadRules].
//
// # Missing Values
//
// Coercion never fails. Values that cannot be parsed become missing:
// decimal.NullDecimal or pgtype.Date with Valid=false. Missing amounts stay
// missing through the payer adjustment and are written as NULL.
//
// # Error Handling
//
// Fatal conditions are sentinel errors ([ErrUnsupportedInput], [ErrNotFound],
// [ErrConnection], ...) wrapped with context. [MapError] turns them into a
// coded message for the operator.
package core
