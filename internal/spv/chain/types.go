// Package chain defines the data source boundary of the SPV verifier: the
// adapter contract, the remote response shapes validated at that boundary,
// checkpoints and the header trust policy.
package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// DataSource supplies headers, block transaction lists and raw transactions.
// Implementations wrap I/O failures in *AdapterError.
type DataSource interface {
	GetHeader(ctx context.Context, hash string) (*RemoteHeader, error)
	// GetHeaders returns up to limit successors of fromHash in chain order.
	GetHeaders(ctx context.Context, fromHash string, limit int) ([]RemoteHeader, error)
	GetFilteredBlockTransactions(ctx context.Context, blockHash, txid string) (*BlockTransactions, error)
	GetRawTransaction(ctx context.Context, txid string) (*RawTransaction, error)
}

// RemoteHeader is a header record as reported by a data source.
type RemoteHeader struct {
	Hash       string
	Height     uint32
	Version    int32
	PrevHash   string
	MerkleRoot string
	Time       int64
	Bits       string
	Nonce      uint32
	NextHash   string
}

// Validate checks the required fields.
func (h RemoteHeader) Validate() error {
	if err := validateHash("hash", h.Hash); err != nil {
		return err
	}
	if err := validateHash("merkleroot", h.MerkleRoot); err != nil {
		return err
	}
	if h.PrevHash != "" {
		if err := validateHash("previousblockhash", h.PrevHash); err != nil {
			return err
		}
	}
	if h.NextHash != "" {
		if err := validateHash("nextblockhash", h.NextHash); err != nil {
			return err
		}
	}
	if _, err := parseBits(h.Bits); err != nil {
		return err
	}
	return nil
}

// Normalize validates the record and lowercases its hashes, the form
// chainhash.Hash.String produces and the rest of the verifier compares against.
func (h *RemoteHeader) Normalize() error {
	if err := h.Validate(); err != nil {
		return err
	}
	h.Hash = strings.ToLower(h.Hash)
	h.PrevHash = strings.ToLower(h.PrevHash)
	h.MerkleRoot = strings.ToLower(h.MerkleRoot)
	h.NextHash = strings.ToLower(h.NextHash)
	return nil
}

// BlockHeader converts the record to its wire form and rejects it unless the
// double-SHA256 of the encoded fields equals the reported hash.
func (h RemoteHeader) BlockHeader() (wire.BlockHeader, error) {
	if err := h.Validate(); err != nil {
		return wire.BlockHeader{}, err
	}
	var prev chainhash.Hash
	if h.PrevHash != "" {
		p, err := chainhash.NewHashFromStr(h.PrevHash)
		if err != nil {
			return wire.BlockHeader{}, malformed("previousblockhash %q: %v", h.PrevHash, err)
		}
		prev = *p
	}
	root, err := chainhash.NewHashFromStr(h.MerkleRoot)
	if err != nil {
		return wire.BlockHeader{}, malformed("merkleroot %q: %v", h.MerkleRoot, err)
	}
	bits, err := parseBits(h.Bits)
	if err != nil {
		return wire.BlockHeader{}, err
	}

	header := wire.BlockHeader{
		Version:    h.Version,
		PrevBlock:  prev,
		MerkleRoot: *root,
		Timestamp:  time.Unix(h.Time, 0),
		Bits:       bits,
		Nonce:      h.Nonce,
	}
	if got := header.BlockHash().String(); got != strings.ToLower(h.Hash) {
		return wire.BlockHeader{}, malformed("header %s hashes to %s", h.Hash, got)
	}
	return header, nil
}

// TxRef is one leaf of a block transaction list.
type TxRef struct {
	TxID string
}

// BlockTransactions is the ordered leaf list of a block.
type BlockTransactions struct {
	BlockHash string
	Txs       []TxRef
}

// Validate checks that the list is non-empty and every id is a hash.
func (b BlockTransactions) Validate() error {
	if len(b.Txs) == 0 {
		return malformed("block %s has an empty transaction list", b.BlockHash)
	}
	for i, tx := range b.Txs {
		if err := validateHash(fmt.Sprintf("tx[%d]", i), tx.TxID); err != nil {
			return err
		}
	}
	return nil
}

// Normalize validates the list and lowercases the block hash and leaf ids.
func (b *BlockTransactions) Normalize() error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.BlockHash = strings.ToLower(b.BlockHash)
	for i := range b.Txs {
		b.Txs[i].TxID = strings.ToLower(b.Txs[i].TxID)
	}
	return nil
}

// TxIDs returns the leaf ids in block order.
func (b BlockTransactions) TxIDs() []string {
	ids := make([]string, len(b.Txs))
	for i, tx := range b.Txs {
		ids[i] = tx.TxID
	}
	return ids
}

// RawTransaction is a hex-encoded serialized transaction.
type RawTransaction struct {
	TxID  string
	RawTx string
}

// Decode deserializes the transaction. The id reported alongside it is not trusted.
func (r RawTransaction) Decode() (*wire.MsgTx, error) {
	if r.RawTx == "" {
		return nil, malformed("raw transaction %s is empty", r.TxID)
	}
	raw, err := hex.DecodeString(r.RawTx)
	if err != nil {
		return nil, malformed("raw transaction %s hex: %v", r.TxID, err)
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, malformed("raw transaction %s decode: %v", r.TxID, err)
	}
	return tx, nil
}

// NormalizeHash validates a hex block or transaction hash and returns it in
// lowercase.
func NormalizeHash(v string) (string, error) {
	if err := validateHash("hash", v); err != nil {
		return "", err
	}
	return strings.ToLower(v), nil
}

func validateHash(field, v string) error {
	if len(v) != chainhash.MaxHashStringSize {
		return malformed("%s %q: want %d hex chars", field, v, chainhash.MaxHashStringSize)
	}
	if _, err := hex.DecodeString(v); err != nil {
		return malformed("%s %q: %v", field, v, err)
	}
	return nil
}

func parseBits(bits string) (uint32, error) {
	if bits == "" {
		return 0, malformed("bits missing")
	}
	v, err := strconv.ParseUint(bits, 16, 32)
	if err != nil {
		return 0, malformed("bits %q: %v", bits, err)
	}
	return uint32(v), nil
}
