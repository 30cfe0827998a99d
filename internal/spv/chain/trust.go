package chain

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
)

// HeaderTrustPolicy decides which remote headers may enter the local store.
type HeaderTrustPolicy interface {
	// TrustAnchor accepts the header used to anchor an empty store at cp.
	TrustAnchor(cp model.Checkpoint, header wire.BlockHeader) error
	// TrustExtension accepts a header that extends tip.
	TrustExtension(tip model.BlockHeader, header wire.BlockHeader) error
}

// CheckpointTrustPolicy trusts checkpoints and the data source. It checks
// checkpoint hash equality and prev-hash linkage; proof of work is not validated.
type CheckpointTrustPolicy struct{}

func (CheckpointTrustPolicy) TrustAnchor(cp model.Checkpoint, header wire.BlockHeader) error {
	if got := header.BlockHash().String(); got != cp.Hash {
		return fmt.Errorf("%w: checkpoint %d is %s, got %s", ErrUntrustedHeader, cp.Height, cp.Hash, got)
	}
	return nil
}

func (CheckpointTrustPolicy) TrustExtension(tip model.BlockHeader, header wire.BlockHeader) error {
	if got := header.PrevBlock.String(); got != tip.Hash {
		return fmt.Errorf("%w: %s does not extend tip %s (prev %s)", ErrUntrustedHeader, header.BlockHash(), tip.Hash, got)
	}
	return nil
}
