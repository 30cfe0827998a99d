package merkle

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// Leaf is one slot of a LeafSet.
type Leaf struct {
	Index    int
	TxID     string
	Tx       *wire.MsgTx
	Resolved bool
}

// LeafSet is the leaf list of one block during a single verification run.
// Slots start as reported ids and are replaced by ids recomputed from raw
// transaction bytes as they are resolved.
type LeafSet struct {
	leaves []Leaf
}

// NewLeafSet builds a set from the reported ids.
func NewLeafSet(txids []string) *LeafSet {
	leaves := make([]Leaf, len(txids))
	for i, id := range txids {
		leaves[i] = Leaf{Index: i, TxID: id}
	}
	return &LeafSet{leaves: leaves}
}

// Len returns the current number of slots.
func (s *LeafSet) Len() int {
	return len(s.leaves)
}

// SourceID returns the id to fetch for index. Index Len() is the virtual
// duplicate of the last leaf.
func (s *LeafSet) SourceID(index int) (string, error) {
	switch {
	case index < 0 || index > len(s.leaves) || len(s.leaves) == 0:
		return "", fmt.Errorf("leaf index %d out of range [0,%d]", index, len(s.leaves))
	case index == len(s.leaves):
		return s.leaves[len(s.leaves)-1].TxID, nil
	default:
		return s.leaves[index].TxID, nil
	}
}

// Resolve patches the slot at index with the id recomputed from tx, appending
// a slot when index is past the end.
func (s *LeafSet) Resolve(index int, tx *wire.MsgTx) Leaf {
	leaf := Leaf{
		Index:    index,
		TxID:     tx.TxHash().String(),
		Tx:       tx,
		Resolved: true,
	}
	if index < len(s.leaves) {
		s.leaves[index] = leaf
		return leaf
	}
	leaf.Index = len(s.leaves)
	s.leaves = append(s.leaves, leaf)
	return leaf
}

// Matching returns the resolved leaves whose recomputed id equals txid.
func (s *LeafSet) Matching(txid string) []Leaf {
	var out []Leaf
	for _, leaf := range s.leaves {
		if leaf.Resolved && leaf.TxID == txid {
			out = append(out, leaf)
		}
	}
	return out
}

// IDs returns the leaf ids in slot order.
func (s *LeafSet) IDs() []string {
	ids := make([]string, len(s.leaves))
	for i, leaf := range s.leaves {
		ids[i] = leaf.TxID
	}
	return ids
}
