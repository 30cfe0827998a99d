package chain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
)

// Params resolves the btcd parameters of a network.
func Params(network model.Network) (*chaincfg.Params, error) {
	switch strings.ToLower(string(network)) {
	case "main", "mainnet", "livenet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}

// Checkpoints returns the genesis block, with its header bundled, followed by
// the network's hardcoded checkpoints in ascending height order.
func Checkpoints(params *chaincfg.Params) []model.Checkpoint {
	genesis := params.GenesisBlock.Header
	cps := []model.Checkpoint{{
		Height: 0,
		Hash:   params.GenesisHash.String(),
		Header: &genesis,
	}}
	for _, cp := range params.Checkpoints {
		if cp.Height <= 0 || cp.Hash == nil {
			continue
		}
		cps = append(cps, model.Checkpoint{
			Height: uint32(cp.Height),
			Hash:   cp.Hash.String(),
		})
	}
	sort.SliceStable(cps, func(i, j int) bool { return cps[i].Height < cps[j].Height })
	return cps
}

// SelectCheckpoint returns the checkpoint with the greatest height not
// exceeding minHeight. checkpoints must be sorted ascending.
func SelectCheckpoint(checkpoints []model.Checkpoint, minHeight uint32) (model.Checkpoint, bool) {
	idx := sort.Search(len(checkpoints), func(i int) bool {
		return checkpoints[i].Height > minHeight
	})
	if idx == 0 {
		return model.Checkpoint{}, false
	}
	return checkpoints[idx-1], true
}
