package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
)

const headerColumns = `hash, height, version, prev_hash, merkle_root, time, bits, nonce`

// PutHeader stores an accepted header. Rows are deduplicated by hash on merge.
func (r *Repository) PutHeader(ctx context.Context, header model.BlockHeader) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("put_header", r.network, err, start)
	}()

	const query = `
INSERT INTO spv_block_headers (
	network,
	hash,
	height,
	version,
	prev_hash,
	merkle_root,
	time,
	bits,
	nonce
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare header batch: %w", err)
	}
	if err = batch.Append(
		string(r.network),
		header.Hash,
		header.Height,
		header.Version,
		header.PrevHash,
		header.MerkleRoot,
		header.Time,
		header.Bits,
		header.Nonce,
	); err != nil {
		_ = batch.Abort()
		return fmt.Errorf("append header: %w", err)
	}
	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert header: %w", err)
	}
	return nil
}

// HeaderByHash reports ok=false when the hash is unknown.
func (r *Repository) HeaderByHash(ctx context.Context, hash string) (header model.BlockHeader, ok bool, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("header_by_hash", r.network, err, start)
	}()

	const query = `
SELECT ` + headerColumns + `
FROM spv_block_headers FINAL
WHERE network = ? AND hash = ?
LIMIT 1`

	return r.queryHeader(ctx, query, string(r.network), hash)
}

// TipHeader returns the highest stored header, ok=false on an empty table.
func (r *Repository) TipHeader(ctx context.Context) (header model.BlockHeader, ok bool, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("tip_header", r.network, err, start)
	}()

	const query = `
SELECT ` + headerColumns + `
FROM spv_block_headers FINAL
WHERE network = ?
ORDER BY height DESC, inserted_at DESC
LIMIT 1`

	return r.queryHeader(ctx, query, string(r.network))
}

func (r *Repository) queryHeader(ctx context.Context, query string, args ...any) (header model.BlockHeader, ok bool, err error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return header, false, fmt.Errorf("query header: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return header, false, fmt.Errorf("iterate header: %w", err)
		}
		return header, false, nil
	}
	if err = rows.Scan(
		&header.Hash,
		&header.Height,
		&header.Version,
		&header.PrevHash,
		&header.MerkleRoot,
		&header.Time,
		&header.Bits,
		&header.Nonce,
	); err != nil {
		return model.BlockHeader{}, false, fmt.Errorf("scan header: %w", err)
	}
	if err = rows.Err(); err != nil {
		return model.BlockHeader{}, false, fmt.Errorf("iterate header: %w", err)
	}
	header.Time = header.Time.UTC()
	return header, true, nil
}
