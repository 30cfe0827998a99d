package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	"github.com/goodnatureofminers/blockinsight7000-spv/pkg/safe"
)

// InsertVerificationResults stores one row per verification attempt.
func (r *Repository) InsertVerificationResults(ctx context.Context, results []model.VerificationResult) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("insert_verification_results", r.network, err, start)
	}()

	if len(results) == 0 {
		return nil
	}

	const query = `
INSERT INTO spv_verification_results (
	network,
	txid,
	block_hash,
	block_height,
	wallet_id,
	merkle_root_status,
	computed_root,
	verified,
	leaf_indexes,
	leaf_txids,
	leaf_statuses,
	verified_at
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare verification results batch: %w", err)
	}

	for _, res := range results {
		indexes := make([]uint32, len(res.Transactions))
		txids := make([]string, len(res.Transactions))
		statuses := make([]string, len(res.Transactions))
		for i, leaf := range res.Transactions {
			if indexes[i], err = safe.Uint32(leaf.Index); err != nil {
				_ = batch.Abort()
				return fmt.Errorf("leaf index of %s: %w", res.TxID, err)
			}
			txids[i] = leaf.TxID
			statuses[i] = string(leaf.Status)
		}
		if err = batch.Append(
			string(r.network),
			res.TxID,
			res.BlockHash,
			res.BlockHeight,
			res.WalletID,
			string(res.MerkleRoot),
			res.ComputedRoot,
			res.Verified(),
			indexes,
			txids,
			statuses,
			res.VerifiedAt,
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append verification result: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert verification results: %w", err)
	}
	return nil
}
