// Package merkle selects merkle proof leaves, tracks the partially resolved
// leaf set of a block and rebuilds its merkle root.
package merkle

// ProofIndices returns the leaf indices needed to prove membership of target
// in a block with the given ordered leaf ids.
//
// Each sibling pair (i, min(i+1, n-1)) holding the target contributes both of
// its indices. Index 0 and the last leaf are always included. If the two
// highest recorded indices are equal the final one is bumped by one, so the
// result may name index n: a virtual slot carrying a copy of the last leaf.
func ProofIndices(leaves []string, target string) []int {
	n := len(leaves)
	if n == 0 {
		return nil
	}

	var indices []int
	// Interior levels hold derived hashes, so only the leaf level can match.
	if n > 1 {
		for i := 0; i < n; i += 2 {
			i2 := min(i+1, n-1)
			if leaves[i] == target || leaves[i2] == target {
				indices = append(indices, i, i2)
			}
		}
	}

	if len(indices) == 0 || indices[0] != 0 {
		indices = append([]int{0}, indices...)
	}
	if indices[len(indices)-1] < n-1 {
		indices = append(indices, n-1)
	}
	if k := len(indices); k > 1 && indices[k-1] == indices[k-2] {
		indices[k-1]++
	}
	return indices
}

// Unique returns indices without repeats, keeping first occurrence order.
func Unique(indices []int) []int {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}
