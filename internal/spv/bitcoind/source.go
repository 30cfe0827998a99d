// Package bitcoind is a data source backed by a full node's JSON-RPC interface.
package bitcoind

import (
	"context"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/chain"
	"github.com/goodnatureofminers/blockinsight7000-spv/pkg/safe"
)

// Source adapts node RPC to chain.DataSource. The rpcclient API is not
// context aware; ctx is only checked between calls.
type Source struct {
	rpc RPCClient
}

func NewSource(rpc RPCClient) *Source {
	return &Source{rpc: rpc}
}

func (s *Source) GetHeader(ctx context.Context, hash string) (*chain.RemoteHeader, error) {
	h, err := parseHash(hash)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := s.rpc.GetBlockHeaderVerbose(h)
	if err != nil {
		return nil, chain.WrapAdapterError("get_header", err)
	}
	return toRemoteHeader(res)
}

// GetHeaders walks next-block pointers; a failure after the first header
// returns the partial batch.
func (s *Source) GetHeaders(ctx context.Context, fromHash string, limit int) ([]chain.RemoteHeader, error) {
	from, err := s.GetHeader(ctx, fromHash)
	if err != nil {
		return nil, err
	}
	var out []chain.RemoteHeader
	for next := from.NextHash; next != "" && len(out) < limit; {
		h, err := s.GetHeader(ctx, next)
		if err != nil {
			if len(out) > 0 {
				return out, nil
			}
			return nil, err
		}
		out = append(out, *h)
		next = h.NextHash
	}
	return out, nil
}

func (s *Source) GetFilteredBlockTransactions(ctx context.Context, blockHash, _ string) (*chain.BlockTransactions, error) {
	h, err := parseHash(blockHash)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := s.rpc.GetBlockVerbose(h)
	if err != nil {
		return nil, chain.WrapAdapterError("get_block_transactions", err)
	}
	txs := make([]chain.TxRef, len(res.Tx))
	for i, id := range res.Tx {
		txs[i] = chain.TxRef{TxID: id}
	}
	list := &chain.BlockTransactions{BlockHash: res.Hash, Txs: txs}
	if !strings.EqualFold(list.BlockHash, blockHash) {
		return nil, fmt.Errorf("%w: asked for block %s transactions, got %s", chain.ErrMalformedResponse, blockHash, list.BlockHash)
	}
	if err := list.Normalize(); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Source) GetRawTransaction(ctx context.Context, txid string) (*chain.RawTransaction, error) {
	h, err := parseHash(txid)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := s.rpc.GetRawTransactionVerbose(h)
	if err != nil {
		return nil, chain.WrapAdapterError("get_raw_transaction", err)
	}
	return &chain.RawTransaction{TxID: txid, RawTx: res.Hex}, nil
}

func parseHash(s string) (*chainhash.Hash, error) {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return nil, fmt.Errorf("parse hash %q: %w", s, err)
	}
	return h, nil
}

func toRemoteHeader(res *btcjson.GetBlockHeaderVerboseResult) (*chain.RemoteHeader, error) {
	height, err := safe.Uint32(res.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: header %s height: %v", chain.ErrMalformedResponse, res.Hash, err)
	}
	nonce, err := safe.Uint32(res.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: header %s nonce: %v", chain.ErrMalformedResponse, res.Hash, err)
	}
	h := chain.RemoteHeader{
		Hash:       res.Hash,
		Height:     height,
		Version:    res.Version,
		PrevHash:   res.PreviousHash,
		MerkleRoot: res.MerkleRoot,
		Time:       res.Time,
		Bits:       res.Bits,
		Nonce:      nonce,
		NextHash:   res.NextHash,
	}
	if err := h.Normalize(); err != nil {
		return nil, err
	}
	return &h, nil
}
