package model

import "github.com/btcsuite/btcd/wire"

// Checkpoint is a trusted sync anchor. Header is set when the full header is
// bundled with the binary; otherwise it is resolved from the data source and
// matched against Hash.
type Checkpoint struct {
	Height uint32
	Hash   string
	Header *wire.BlockHeader
}
