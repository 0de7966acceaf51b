package proofmap

// Entry is one key/value pair surfaced by iteration, addressed by its
// ProofPath rather than the original key (which the tree does not retain).
type Entry struct {
	Path  ProofPath
	Value []byte
}

// Iterate walks every entry in ascending ProofPath order, calling fn for
// each. Iteration stops early if fn returns false.
func (t *ProofMapIndex) Iterate(fn func(Entry) bool) error {
	return t.iterateFrom(nil, fn)
}

// IterateFrom walks every entry whose ProofPath is >= lowerBound's, in
// ascending order.
func (t *ProofMapIndex) IterateFrom(lowerBound ProofPath, fn func(Entry) bool) error {
	return t.iterateFrom(&lowerBound, fn)
}

// Keys returns every key path in the map, ascending.
func (t *ProofMapIndex) Keys() ([]ProofPath, error) {
	var out []ProofPath
	err := t.Iterate(func(e Entry) bool {
		out = append(out, e.Path)
		return true
	})
	return out, err
}

// Values returns every stored value, ordered by ascending key path.
func (t *ProofMapIndex) Values() ([][]byte, error) {
	var out [][]byte
	err := t.Iterate(func(e Entry) bool {
		out = append(out, e.Value)
		return true
	})
	return out, err
}

func (t *ProofMapIndex) iterateFrom(lowerBound *ProofPath, fn func(Entry) bool) error {
	root, exists, err := t.loadRoot(t.view)
	if err != nil || !exists {
		return err
	}

	var walk func(cur ProofPath) (bool, error)
	walk = func(cur ProofPath) (bool, error) {
		node, found, err := t.getNode(t.view, cur)
		if err != nil {
			return false, err
		}
		if !found {
			return false, errCorruptNode
		}
		if node.isLeaf {
			if lowerBound != nil && cur.Compare(*lowerBound) < 0 {
				return true, nil
			}
			return fn(Entry{Path: cur, Value: node.leaf.value}), nil
		}
		// A lower bound whose divergence point lies inside this subtree
		// prunes the left side when the bound falls in the right side; one
		// that diverges above the subtree (higher or lower than its whole
		// range) either admits both sides or rules out both.
		visitLeft, visitRight := true, true
		if lowerBound != nil {
			if lowerBound.StartsWith(cur) {
				if lowerBound.Bit(cur.end) == 1 {
					visitLeft = false
				}
			} else {
				d := CommonPrefixLen(*lowerBound, cur)
				if lowerBound.Bit(d) > cur.Bit(d) {
					visitLeft, visitRight = false, false
				}
			}
		}
		if visitLeft {
			cont, err := walk(node.branch.left.path)
			if err != nil || !cont {
				return cont, err
			}
		}
		if visitRight {
			return walk(node.branch.right.path)
		}
		return true, nil
	}
	_, err = walk(root)
	return err
}
