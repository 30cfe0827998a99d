// Package verifier runs merkle proof verification for a pending transaction
// and checks its outputs against the caller's claims.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/chain"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/headerstore"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/merkle"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	"github.com/goodnatureofminers/blockinsight7000-spv/pkg/workerpool"
	"go.uber.org/zap"
)

const defaultFetchWorkers = 4

// Engine is the merkle proof pipeline. Runs are strictly sequential per call;
// only the raw transaction fetch fans out.
type Engine struct {
	source       DataSource
	headers      HeaderStore
	outputs      *OutputVerifier
	metrics      Metrics
	logger       *zap.Logger
	fetchWorkers int
	now          func() time.Time
}

func NewEngine(
	source DataSource,
	headers HeaderStore,
	outputs *OutputVerifier,
	fetchWorkers int,
	metrics Metrics,
	logger *zap.Logger,
) *Engine {
	if fetchWorkers <= 0 {
		fetchWorkers = defaultFetchWorkers
	}
	return &Engine{
		source:       source,
		headers:      headers,
		outputs:      outputs,
		metrics:      metrics,
		logger:       logger,
		fetchWorkers: fetchWorkers,
		now:          time.Now,
	}
}

// Verify proves p.TxID against the stored header of p.BlockHash. Mismatches
// and missing headers are reported in the result. A returned error means a
// data source or store failure; the result is still populated as far as the
// run got, with the root status left unverified.
func (e *Engine) Verify(ctx context.Context, p model.PendingVerification) (result model.VerificationResult, err error) {
	started := time.Now()
	p.TxID = strings.ToLower(p.TxID)
	p.BlockHash = strings.ToLower(p.BlockHash)
	result = model.VerificationResult{
		TxID:        p.TxID,
		BlockHash:   p.BlockHash,
		BlockHeight: p.BlockHeight,
		WalletID:    p.WalletID,
		MerkleRoot:  model.MerkleRootUnverified,
	}
	defer func() {
		result.VerifiedAt = e.now().UTC()
		e.metrics.ObserveVerification(result, err, started)
	}()

	list, err := e.source.GetFilteredBlockTransactions(ctx, p.BlockHash, p.TxID)
	if err != nil {
		return result, fmt.Errorf("block transactions %s: %w", p.BlockHash, err)
	}
	if list == nil {
		return result, fmt.Errorf("%w: no transaction list for block %s", chain.ErrMalformedResponse, p.BlockHash)
	}
	if err = list.Normalize(); err != nil {
		return result, err
	}

	leaves := list.TxIDs()
	indices := merkle.Unique(merkle.ProofIndices(leaves, p.TxID))
	set := merkle.NewLeafSet(leaves)

	txs, err := workerpool.Map(ctx, e.fetchWorkers, indices, func(ctx context.Context, idx int) (*wire.MsgTx, error) {
		id, err := set.SourceID(idx)
		if err != nil {
			return nil, err
		}
		raw, err := e.source.GetRawTransaction(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("raw transaction %s: %w", id, err)
		}
		if raw == nil {
			return nil, fmt.Errorf("%w: no raw transaction for %s", chain.ErrMalformedResponse, id)
		}
		return raw.Decode()
	})
	if err != nil {
		return result, err
	}
	// indices ascend, so the virtual slot is appended after every real one
	for i, idx := range indices {
		set.Resolve(idx, txs[i])
	}

	for _, leaf := range set.Matching(p.TxID) {
		result.Transactions = append(result.Transactions, model.LeafStatus{
			Index:  leaf.Index,
			TxID:   leaf.TxID,
			Status: e.outputs.Check(p.Outputs, leaf.Tx),
		})
	}

	root, err := merkle.Root(set.IDs())
	if err != nil {
		return result, fmt.Errorf("merkle root of %s: %w", p.BlockHash, err)
	}
	result.ComputedRoot = root.String()

	header, err := e.headers.HeaderByHash(ctx, p.BlockHash)
	switch {
	case errors.Is(err, headerstore.ErrNotFound):
		err = nil
		result.MerkleRoot = model.MerkleRootHeaderNotFound
	case err != nil:
		return result, err
	case header.MerkleRoot == result.ComputedRoot:
		result.MerkleRoot = model.MerkleRootVerified
	default:
		result.MerkleRoot = model.MerkleRootMismatch
	}

	e.logger.Debug("verification finished",
		zap.String("txid", p.TxID),
		zap.String("block_hash", p.BlockHash),
		zap.Int("leaves", set.Len()),
		zap.Int("proof_indices", len(indices)),
		zap.Int("candidates", len(result.Transactions)),
		zap.String("merkle_root", string(result.MerkleRoot)),
	)
	return result, nil
}
