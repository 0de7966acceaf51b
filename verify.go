package proofmap

import "sort"

// combinedItem is one hashed contribution to the fold: either a sibling
// carried verbatim from MapProof.Proof, or a leaf freshly hashed from a
// confirmed-present ProofEntry.
type combinedItem struct {
	path      ProofPath
	hash      Hash
	fromProof bool
}

// Verify reconstructs the map's object hash from p and confirms every
// entry's claimed outcome (present with its value, or absent) is consistent
// with that reconstruction. It returns the object hash p implies; callers
// compare it against the root hash they already trust (e.g. one committed
// to elsewhere) to decide whether p is to be believed.
func (p *MapProof) Verify(hash HashFunc) (Hash, error) {
	combined := make([]combinedItem, 0, len(p.Proof)+len(p.Entries))
	for _, s := range p.Proof {
		combined = append(combined, combinedItem{path: s.Path, hash: s.Hash, fromProof: true})
	}
	for _, e := range p.Entries {
		if e.Found {
			combined = append(combined, combinedItem{path: e.Path, hash: HashLeaf(hash, e.Value)})
		}
	}

	if err := checkStructure(combined, p.Entries); err != nil {
		return Hash{}, err
	}

	sort.Slice(combined, func(i, j int) bool {
		return combined[i].path.Compare(combined[j].path) < 0
	})

	if len(combined) == 1 && combined[0].fromProof && !combined[0].path.IsLeaf() {
		return Hash{}, NonTerminalNodeError{Path: combined[0].path}
	}

	root := fold(hash, combined)
	switch {
	case len(combined) == 0:
		return EmptyMapHash(hash), nil
	case combined[0].path.IsLeaf() && len(combined) == 1:
		return HashMapNode(hash, HashSingleEntryMap(hash, combined[0].path, combined[0].hash)), nil
	default:
		return HashMapNode(hash, root), nil
	}
}

// fold repeatedly merges the adjacent pair of items (already, or about to
// be, sorted ascending by path) sharing the longest common prefix, until a
// single combined hash remains. Sorted order guarantees the pair with the
// longest shared prefix is always adjacent, and that within the winning
// pair the one with the 0 bit at the divergence point sorts first, so the
// merge never needs to re-derive which side is left and which is right.
func fold(hash HashFunc, items []combinedItem) Hash {
	items = append([]combinedItem(nil), items...)
	for len(items) > 1 {
		best := 0
		bestLen := CommonPrefixLen(items[0].path, items[1].path)
		for i := 1; i < len(items)-1; i++ {
			l := CommonPrefixLen(items[i].path, items[i+1].path)
			if l > bestLen {
				best, bestLen = i, l
			}
		}
		left, right := items[best], items[best+1]
		parent := combinedItem{
			path: left.path.Prefix(bestLen),
			hash: HashBranch(hash, left.path, right.path, left.hash, right.hash),
		}
		merged := make([]combinedItem, 0, len(items)-1)
		merged = append(merged, items[:best]...)
		merged = append(merged, parent)
		merged = append(merged, items[best+2:]...)
		items = merged
	}
	if len(items) == 0 {
		return Hash{}
	}
	return items[0].hash
}

// checkStructure validates ordering, uniqueness and non-embedding across
// every path referenced by the proof (hashed contributions and the paths
// of claimed-missing entries alike), then confirms no claimed-missing
// entry's path is in fact exposed as a present leaf elsewhere in the proof.
func checkStructure(combined []combinedItem, entries []ProofEntry) error {
	// Siblings must arrive in ascending path order, as GetMultiProof emits
	// them; equal neighbours are left to the duplicate check below.
	for i := 1; i < len(combined) && combined[i].fromProof; i++ {
		if combined[i-1].path.Compare(combined[i].path) > 0 {
			return InvalidOrderingError{Prev: combined[i-1].path, Next: combined[i].path}
		}
	}

	type tagged struct {
		path   ProofPath
		isLeaf bool
	}
	all := make([]tagged, 0, len(combined)+len(entries))
	for _, c := range combined {
		all = append(all, tagged{path: c.path, isLeaf: c.path.IsLeaf()})
	}
	for _, e := range entries {
		if !e.Found {
			all = append(all, tagged{path: e.Path})
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].path.Compare(all[j].path) < 0 })

	for i := 1; i < len(all); i++ {
		prev, next := all[i-1].path, all[i].path
		if prev.Equal(next) {
			// A hashed leaf and a claimed-missing entry share this path.
			if all[i-1].isLeaf != all[i].isLeaf {
				return MissingKeyPresentError{Path: prev}
			}
			return DuplicatePathError{Path: prev}
		}
		if next.StartsWith(prev) {
			return EmbeddedPathsError{Outer: prev, Inner: next}
		}
		if prev.Compare(next) >= 0 {
			return InvalidOrderingError{Prev: prev, Next: next}
		}
	}

	leafPaths := make(map[ProofPath]bool)
	for _, c := range combined {
		if c.path.IsLeaf() {
			leafPaths[c.path] = true
		}
	}
	for _, e := range entries {
		if !e.Found && leafPaths[e.Path] {
			return MissingKeyPresentError{Path: e.Path}
		}
	}
	return nil
}
