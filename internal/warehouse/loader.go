// Package warehouse appends transformed claim tables to the destination
// store.
//
// The Loader resolves the payer's destination table, uppercases column
// labels for the store's naming convention and hands the rows to a
// BulkWriter obtained from a Connector. The production connector speaks
// the PostgreSQL wire protocol through pgx and appends with COPY.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/claimload/internal/config"
	"github.com/JonMunkholm/claimload/internal/core"
	"github.com/JonMunkholm/claimload/internal/logging"
)

// Target names a destination table.
type Target struct {
	Schema string
	Table  string
}

func (t Target) String() string {
	if t.Schema == "" {
		return t.Table
	}
	return t.Schema + "." + t.Table
}

// WriteResult is what the store reports for a bulk append.
type WriteResult struct {
	Success bool
	Chunks  int
	Rows    int64
}

// BulkWriter appends rows to a table over one exclusively owned connection.
type BulkWriter interface {
	// BulkAppend writes rows in chunks of chunkSize. A store-side failure
	// is reported both as Success=false and as the returned error.
	BulkAppend(ctx context.Context, target Target, columns []string, rows [][]any, chunkSize int) (WriteResult, error)
	Close(ctx context.Context) error
}

// Connector opens a BulkWriter with the given credentials.
type Connector func(ctx context.Context, cfg config.WarehouseConfig) (BulkWriter, error)

// Loader writes transformed tables to the payer's destination table.
type Loader struct {
	cfg       config.WarehouseConfig
	chunkSize int
	rules     *core.Registry
	connect   Connector
}

// Option configures a Loader.
type Option func(*Loader)

// WithConnector replaces the pgx connector, e.g. with a fake in tests.
func WithConnector(c Connector) Option {
	return func(l *Loader) {
		l.connect = c
	}
}

// NewLoader creates a loader. A nil registry uses the built-in payer rules.
func NewLoader(cfg config.WarehouseConfig, chunkSize int, rules *core.Registry, opts ...Option) *Loader {
	if rules == nil {
		rules = core.DefaultRegistry()
	}
	l := &Loader{
		cfg:       cfg,
		chunkSize: chunkSize,
		rules:     rules,
		connect:   Connect,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Destination resolves the table that receives payer's claims.
func (l *Loader) Destination(payer string) Target {
	return Target{Schema: l.cfg.Schema, Table: l.rules.Destination(payer)}
}

// Load appends t to the payer's destination table.
//
// Column labels are uppercased on a copy; t is not modified. A connection
// failure is returned as an error wrapping core.ErrConnection. A failed
// write is not an error: it is reported with Success=false. The connection
// is closed on every path.
func (l *Loader) Load(ctx context.Context, t *core.Table, payer string) (core.LoadResult, error) {
	target := l.Destination(payer)
	result := core.LoadResult{
		Table: target.Table,
		RunID: logging.RunIDFromContext(ctx),
	}
	logger := logging.WithFields(ctx, "payer", core.NormalizePayer(payer), "table", target.String())

	out := t.Clone()
	out.UppercaseColumns()

	start := time.Now()
	w, err := l.connect(ctx, l.cfg)
	if err != nil {
		logger.Error("warehouse connection failed", "error", err)
		return result, fmt.Errorf("%w: %w", core.ErrConnection, err)
	}
	defer func() {
		if cerr := w.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warn("closing warehouse connection", "error", cerr)
		}
	}()

	logger.Info("load started", "rows", out.Len(), "columns", len(out.Columns))

	rows := make([][]any, len(out.Rows))
	for i, row := range out.Rows {
		rows[i] = copyRow(row)
	}

	wr, err := w.BulkAppend(ctx, target, out.Columns, rows, l.chunkSize)
	result.Chunks = wr.Chunks
	if err != nil || !wr.Success {
		logger.Error("load failed",
			"error", err,
			"chunks", wr.Chunks,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return result, nil
	}

	result.Success = true
	result.RowsWritten = wr.Rows
	logger.Info("load complete",
		"rows_written", wr.Rows,
		"chunks", wr.Chunks,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
