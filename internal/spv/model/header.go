package model

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// BlockHeader is a header accepted into the local store. Hash is derived from
// the remaining consensus fields; Height is assigned by chain position.
type BlockHeader struct {
	Hash       string
	Height     uint32
	Version    int32
	PrevHash   string
	MerkleRoot string
	Time       time.Time
	Bits       uint32
	Nonce      uint32
}

// NewBlockHeader derives a BlockHeader from its wire encoding.
func NewBlockHeader(h wire.BlockHeader, height uint32) BlockHeader {
	return BlockHeader{
		Hash:       h.BlockHash().String(),
		Height:     height,
		Version:    h.Version,
		PrevHash:   h.PrevBlock.String(),
		MerkleRoot: h.MerkleRoot.String(),
		Time:       h.Timestamp.UTC(),
		Bits:       h.Bits,
		Nonce:      h.Nonce,
	}
}

// Wire rebuilds the consensus encoding of the header.
func (h BlockHeader) Wire() (wire.BlockHeader, error) {
	prev, err := chainhash.NewHashFromStr(h.PrevHash)
	if err != nil {
		return wire.BlockHeader{}, fmt.Errorf("prev hash %q: %w", h.PrevHash, err)
	}
	root, err := chainhash.NewHashFromStr(h.MerkleRoot)
	if err != nil {
		return wire.BlockHeader{}, fmt.Errorf("merkle root %q: %w", h.MerkleRoot, err)
	}
	return wire.BlockHeader{
		Version:    h.Version,
		PrevBlock:  *prev,
		MerkleRoot: *root,
		Timestamp:  time.Unix(h.Time.Unix(), 0),
		Bits:       h.Bits,
		Nonce:      h.Nonce,
	}, nil
}

// Validate checks that Hash is the double-SHA256 of the header fields.
func (h BlockHeader) Validate() error {
	w, err := h.Wire()
	if err != nil {
		return err
	}
	if got := w.BlockHash().String(); got != h.Hash {
		return fmt.Errorf("header hash mismatch: stored %s, computed %s", h.Hash, got)
	}
	return nil
}
