package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/claimload/internal/config"
)

// Connect opens a single pgx connection to the warehouse and verifies it.
// cfg.Name is sent as application_name so sessions can be attributed to
// the compute pool.
func Connect(ctx context.Context, cfg config.WarehouseConfig) (BulkWriter, error) {
	pcfg, err := pgx.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse connection config: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		pcfg.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.Name != "" {
		pcfg.RuntimeParams["application_name"] = cfg.Name
	}

	conn, err := pgx.ConnectConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &pgWriter{conn: conn}, nil
}

// pgWriter appends with COPY inside one transaction.
type pgWriter struct {
	conn *pgx.Conn
}

// BulkAppend copies rows in chunks. Either every chunk commits or none do.
func (w *pgWriter) BulkAppend(ctx context.Context, target Target, columns []string, rows [][]any, chunkSize int) (WriteResult, error) {
	ident := pgx.Identifier{target.Table}
	if target.Schema != "" {
		ident = pgx.Identifier{target.Schema, target.Table}
	}

	tx, err := w.conn.Begin(ctx)
	if err != nil {
		return WriteResult{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var res WriteResult
	for _, c := range chunks(len(rows), chunkSize) {
		copied, err := tx.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows[c[0]:c[1]]))
		if err != nil {
			return res, fmt.Errorf("copy into %s (rows %d-%d): %w", target, c[0]+1, c[1], err)
		}
		res.Chunks++
		res.Rows += copied
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit: %w", err)
	}

	res.Success = true
	return res, nil
}

func (w *pgWriter) Close(ctx context.Context) error {
	return w.conn.Close(ctx)
}
