package core

import "errors"

// Sentinel errors for fatal conditions. Wrap them with context and test
// with errors.Is.
var (
	// ErrUnsupportedInput is returned when an input is neither a file path
	// nor a set of literal records, or a path names something unreadable
	// as a table (a directory).
	ErrUnsupportedInput = errors.New("unsupported input")

	// ErrNotFound is returned when a source path does not exist.
	ErrNotFound = errors.New("source not found")

	// ErrConnection is returned when the warehouse is unreachable or
	// rejects the credentials.
	ErrConnection = errors.New("warehouse connection failed")

	// ErrMissingSource is returned when a file-based payer is run without
	// a source.
	ErrMissingSource = errors.New("source is required")

	// ErrUnknownPayer is returned by the command for a payer with no rule.
	ErrUnknownPayer = errors.New("unknown payer")

	// ErrEmptySource is returned when a file has no header row.
	ErrEmptySource = errors.New("source has no header row")

	// ErrObjectStore is returned when an s3:// request fails for a reason
	// other than the object being absent.
	ErrObjectStore = errors.New("object store request failed")

	// ErrRules is returned when a payer rules file cannot be read or
	// holds an invalid entry.
	ErrRules = errors.New("invalid payer rules")

	// ErrUsage is returned for a malformed command line.
	ErrUsage = errors.New("usage")
)
