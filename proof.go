package proofmap

import "sort"

// sibling is one witness entry in a MapProof: the path and content hash of
// a node the prover did not need the verifier to re-derive.
type sibling struct {
	Path ProofPath
	Hash Hash
}

// ProofEntry is one queried key's outcome in a MapProof, in query order.
// Path is the entry's own key path, carried alongside Key so Verify can
// fold the proof back to a root hash without needing to recompute it (and
// without needing to know whether the map hashes its keys).
type ProofEntry struct {
	Key   BinaryKey
	Path  ProofPath
	Value []byte
	Found bool
}

// MapProof is a compact witness that lets a verifier, given only the map's
// object hash, confirm the value (or absence) of one or more keys without
// holding the rest of the map.
type MapProof struct {
	Proof   []sibling
	Entries []ProofEntry
}

// GetProof builds a proof for a single key.
func (t *ProofMapIndex) GetProof(key BinaryKey) (*MapProof, error) {
	return t.GetMultiProof([]BinaryKey{key})
}

// GetMultiProof builds a single minimal proof covering every key in keys.
// Keys are deduplicated by path before descending: each distinct path gets
// one entry, carrying the first key in keys that maps to it, in order of
// first occurrence. A later key with the same path (a repeat, or a
// different key whose encoding yields the same path) gets no entry.
func (t *ProofMapIndex) GetMultiProof(keys []BinaryKey) (*MapProof, error) {
	type query struct {
		key  BinaryKey
		path ProofPath
	}

	order := make([]BinaryKey, 0, len(keys))
	seen := make(map[ProofPath]bool)
	queries := make([]query, 0, len(keys))
	for _, k := range keys {
		p, err := t.keyPath(k)
		if err != nil {
			return nil, err
		}
		order = append(order, k)
		if seen[p] {
			continue
		}
		seen[p] = true
		queries = append(queries, query{key: k, path: p})
	}

	root, exists, err := t.loadRoot(t.view)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &MapProof{}, nil
	}

	proof := &MapProof{}
	hitValues := make(map[ProofPath][]byte)

	// matching keeps only the queries that actually descend under prefix,
	// filtering out ones whose bit at cur.end picked this side but whose
	// path diverges somewhere within prefix's path-compressed span.
	matching := func(qs []query, prefix ProofPath) []query {
		out := make([]query, 0, len(qs))
		for _, q := range qs {
			if q.path.StartsWith(prefix) {
				out = append(out, q)
			}
		}
		return out
	}

	var recurse func(cur ProofPath, qs []query) error
	recurse = func(cur ProofPath, qs []query) error {
		node, found, err := t.getNode(t.view, cur)
		if err != nil {
			return err
		}
		if !found {
			return errCorruptNode
		}
		if node.isLeaf {
			anyHit, anyMiss := false, false
			for _, q := range qs {
				if q.path.Equal(cur) {
					hitValues[q.path] = node.leaf.value
					anyHit = true
				} else {
					anyMiss = true
				}
			}
			// A hit already discloses this leaf through its entry; exposing
			// it again as a sibling would duplicate its path.
			if anyMiss && !anyHit {
				proof.Proof = append(proof.Proof, sibling{cur, node.hash(t.hash)})
			}
			return nil
		}

		var left, right []query
		for _, q := range qs {
			if q.path.Bit(cur.end) == 0 {
				left = append(left, q)
			} else {
				right = append(right, q)
			}
		}
		// A query routed to a side by its bit at cur.end may still diverge
		// from that child's own (possibly multi-bit, path-compressed) path
		// before reaching it. Such a query can't match anything under the
		// child, so it must not drive further descent — it's a miss
		// resolved right here, same as Get's StartsWith checks.
		left = matching(left, node.branch.left.path)
		right = matching(right, node.branch.right.path)
		if len(left) == 0 {
			proof.Proof = append(proof.Proof, sibling{node.branch.left.path, node.branch.left.hash})
		} else if err := recurse(node.branch.left.path, left); err != nil {
			return err
		}
		if len(right) == 0 {
			proof.Proof = append(proof.Proof, sibling{node.branch.right.path, node.branch.right.hash})
		} else if err := recurse(node.branch.right.path, right); err != nil {
			return err
		}
		return nil
	}
	if len(queries) > 0 {
		if err := recurse(root, queries); err != nil {
			return nil, err
		}
	}

	sort.Slice(proof.Proof, func(i, j int) bool {
		return proof.Proof[i].Path.Compare(proof.Proof[j].Path) < 0
	})

	dedup := make(map[ProofPath]bool)
	for _, k := range order {
		p, _ := t.keyPath(k)
		if dedup[p] {
			continue
		}
		dedup[p] = true
		if v, ok := hitValues[p]; ok {
			proof.Entries = append(proof.Entries, ProofEntry{Key: k, Path: p, Value: v, Found: true})
		} else {
			proof.Entries = append(proof.Entries, ProofEntry{Key: k, Path: p, Found: false})
		}
	}
	return proof, nil
}
