package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/chain"
	"github.com/goodnatureofminers/blockinsight7000-spv/pkg/safe"
)

// Source adapts the explorer API to chain.DataSource.
type Source struct {
	client *Client
}

func NewSource(client *Client) *Source {
	return &Source{client: client}
}

func (s *Source) GetHeader(ctx context.Context, hash string) (*chain.RemoteHeader, error) {
	block, err := s.client.GetBlock(ctx, hash)
	if err != nil {
		return nil, chain.WrapAdapterError("get_header", err)
	}
	header, err := toRemoteHeader(block)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(header.Hash, hash) {
		return nil, fmt.Errorf("%w: asked for %s, got %s", chain.ErrMalformedResponse, hash, header.Hash)
	}
	return header, nil
}

// GetHeaders follows next-block pointers from fromHash. Insight has no batch
// header call, so a failure after some headers were read returns the partial
// batch; the caller resumes from its last header.
func (s *Source) GetHeaders(ctx context.Context, fromHash string, limit int) ([]chain.RemoteHeader, error) {
	from, err := s.GetHeader(ctx, fromHash)
	if err != nil {
		return nil, err
	}

	var out []chain.RemoteHeader
	next := from.NextHash
	for next != "" && len(out) < limit {
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
	block, err := s.client.GetBlock(ctx, blockHash)
	if err != nil {
		return nil, chain.WrapAdapterError("get_block_transactions", err)
	}
	txs := make([]chain.TxRef, len(block.Tx))
	for i, id := range block.Tx {
		txs[i] = chain.TxRef{TxID: id}
	}
	list := &chain.BlockTransactions{BlockHash: block.Hash, Txs: txs}
	if !strings.EqualFold(list.BlockHash, blockHash) {
		return nil, fmt.Errorf("%w: asked for block %s transactions, got %s", chain.ErrMalformedResponse, blockHash, list.BlockHash)
	}
	if err := list.Normalize(); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Source) GetRawTransaction(ctx context.Context, txid string) (*chain.RawTransaction, error) {
	raw, err := s.client.GetRawTx(ctx, txid)
	if err != nil {
		return nil, chain.WrapAdapterError("get_raw_transaction", err)
	}
	return &chain.RawTransaction{TxID: txid, RawTx: raw.RawTx}, nil
}

func toRemoteHeader(b *Block) (*chain.RemoteHeader, error) {
	height, err := safe.Uint32(b.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: block %s height: %v", chain.ErrMalformedResponse, b.Hash, err)
	}
	h := chain.RemoteHeader{
		Hash:       b.Hash,
		Height:     height,
		Version:    b.Version,
		PrevHash:   b.PreviousBlockHash,
		MerkleRoot: b.MerkleRoot,
		Time:       b.Time,
		Bits:       b.Bits,
		Nonce:      b.Nonce,
		NextHash:   b.NextBlockHash,
	}
	if err := h.Normalize(); err != nil {
		return nil, err
	}
	return &h, nil
}
