package merkle

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var ErrNoLeaves = errors.New("merkle tree has no leaves")

// Root rebuilds the merkle root over leaf ids given in display (byte-reversed)
// hex. An odd level pairs its last node with itself; a single leaf is its own root.
func Root(leaves []string) (chainhash.Hash, error) {
	if len(leaves) == 0 {
		return chainhash.Hash{}, ErrNoLeaves
	}

	level := make([]chainhash.Hash, len(leaves))
	for i, id := range leaves {
		h, err := chainhash.NewHashFromStr(id)
		if err != nil {
			return chainhash.Hash{}, fmt.Errorf("leaf %d %q: %w", i, id, err)
		}
		level[i] = *h
	}

	for size := len(level); size > 1; size = (size + 1) / 2 {
		for i := 0; i < size; i += 2 {
			i2 := min(i+1, size-1)
			level[i/2] = hashPair(&level[i], &level[i2])
		}
	}
	return level[0], nil
}

func hashPair(left, right *chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.DoubleHashH(buf[:])
}
