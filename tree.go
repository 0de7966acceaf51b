package proofmap

import (
	"github.com/merkleproof/proofmap/internal/telemetry"
)

// ProofMapIndex is a named, authenticated key-value index: a binary
// Patricia trie whose shape and root hash are a pure function of the
// current key set, layered above a Snapshot or Fork.
type ProofMapIndex struct {
	name   string
	view   Snapshot
	hash   HashFunc
	log    *telemetry.Logger
	hashed bool
}

// IndexOption configures a ProofMapIndex at construction time.
type IndexOption func(*ProofMapIndex)

// WithHashFunc overrides the default Keccak256 digest.
func WithHashFunc(h HashFunc) IndexOption {
	return func(idx *ProofMapIndex) { idx.hash = h }
}

// WithHashedKeys routes every key through the index's hash function
// (Keccak256 unless WithHashFunc says otherwise) before it is used to
// address the tree, regardless of whether the key's own ToBytes
// already returns KeySize bytes. Off by default: RawKey-shaped keys are
// used as-is.
func WithHashedKeys() IndexOption {
	return func(idx *ProofMapIndex) { idx.hashed = true }
}

// NewProofMapIndex opens an index named name over the given storage view.
// view may be a Snapshot (read-only index) or a Fork (read-write index).
func NewProofMapIndex(name string, view Snapshot, opts ...IndexOption) (*ProofMapIndex, error) {
	if view == nil {
		return nil, ErrNilDatabase
	}
	idx := &ProofMapIndex{
		name: name,
		view: view,
		hash: DefaultHash,
		log:  telemetry.Default().Module("proofmap"),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

func (t *ProofMapIndex) keyPath(key BinaryKey) (ProofPath, error) {
	if t.hashed {
		return NewProofPath([KeySize]byte(t.hash(key.ToBytes()))), nil
	}
	return pathForKey(t.hash, key)
}

func (t *ProofMapIndex) fork() (Fork, error) {
	f, ok := t.view.(Fork)
	if !ok {
		return nil, ErrReadOnly
	}
	return f, nil
}

// storage key helpers. Node records are keyed by their canonical path
// bytes plus an explicit bit-length suffix so distinct paths that happen
// to share the same masked byte prefix never collide. The root marker
// lives at a short key outside that address space.
const rootMarkerSuffix = "\x00root"

func (t *ProofMapIndex) nodeKey(p ProofPath) []byte {
	out := make([]byte, 0, len(t.name)+1+KeySize+2)
	out = append(out, t.name...)
	out = append(out, ':')
	raw := p.ToBytes()
	out = append(out, raw[:]...)
	out = append(out, byte(p.end>>8), byte(p.end))
	return out
}

func (t *ProofMapIndex) rootKey() []byte {
	return append([]byte(t.name+":"), rootMarkerSuffix...)
}

func (t *ProofMapIndex) getNode(view Snapshot, p ProofPath) (storedNode, bool, error) {
	data, ok, err := view.Get(t.nodeKey(p))
	if err != nil {
		return storedNode{}, false, wrapStorageErr(err, "get node")
	}
	if !ok {
		return storedNode{}, false, nil
	}
	n, err := decodeNode(data)
	return n, true, err
}

func (t *ProofMapIndex) putNode(f Fork, p ProofPath, n storedNode) error {
	return wrapStorageErr(f.Put(t.nodeKey(p), encodeNode(n)), "put node")
}

func (t *ProofMapIndex) deleteNode(f Fork, p ProofPath) error {
	return wrapStorageErr(f.Delete(t.nodeKey(p)), "delete node")
}

func (t *ProofMapIndex) putLeaf(f Fork, p ProofPath, value []byte) error {
	return t.putNode(f, p, storedNode{isLeaf: true, leaf: leafNode{value: value}})
}

func (t *ProofMapIndex) putBranch(f Fork, p ProofPath, left, right childRef) error {
	return t.putNode(f, p, storedNode{branch: branchNode{left: left, right: right}})
}

// loadRoot returns the tree's root path and whether the tree has any
// entries at all.
func (t *ProofMapIndex) loadRoot(view Snapshot) (ProofPath, bool, error) {
	data, ok, err := view.Get(t.rootKey())
	if err != nil {
		return ProofPath{}, false, wrapStorageErr(err, "get root")
	}
	if !ok || len(data) == 0 {
		return ProofPath{}, false, nil
	}
	if len(data) != KeySize+2 {
		return ProofPath{}, false, errCorruptRoot
	}
	var raw [KeySize]byte
	copy(raw[:], data[:KeySize])
	end := uint16(data[KeySize])<<8 | uint16(data[KeySize+1])
	return ProofPath{raw: raw, end: end}, true, nil
}

func (t *ProofMapIndex) setRoot(f Fork, p ProofPath) error {
	raw := p.ToBytes()
	data := make([]byte, 0, KeySize+2)
	data = append(data, raw[:]...)
	data = append(data, byte(p.end>>8), byte(p.end))
	return wrapStorageErr(f.Put(t.rootKey(), data), "set root")
}

func (t *ProofMapIndex) clearRoot(f Fork) error {
	return wrapStorageErr(f.Delete(t.rootKey()), "clear root")
}

// Get returns the value stored for key, if any.
func (t *ProofMapIndex) Get(key BinaryKey) ([]byte, bool, error) {
	target, err := t.keyPath(key)
	if err != nil {
		return nil, false, err
	}
	root, exists, err := t.loadRoot(t.view)
	if err != nil || !exists {
		return nil, false, err
	}
	cur := root
	for {
		node, found, err := t.getNode(t.view, cur)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return nil, false, errCorruptNode
		}
		if node.isLeaf {
			if cur.Equal(target) {
				return node.leaf.value, true, nil
			}
			return nil, false, nil
		}
		if !target.StartsWith(cur) {
			return nil, false, nil
		}
		bit := target.Bit(cur.end)
		child, _ := node.branch.child(bit)
		if !target.StartsWith(child.path) {
			return nil, false, nil
		}
		cur = child.path
	}
}

// Contains reports whether key is present, without returning its value.
func (t *ProofMapIndex) Contains(key BinaryKey) (bool, error) {
	_, ok, err := t.Get(key)
	return ok, err
}

// Put inserts or overwrites the value stored for key.
func (t *ProofMapIndex) Put(key BinaryKey, value BinaryValue) error {
	f, err := t.fork()
	if err != nil {
		return err
	}
	target, err := t.keyPath(key)
	if err != nil {
		return err
	}
	valueBytes := value.ToBytes()

	root, exists, err := t.loadRoot(f)
	if err != nil {
		return err
	}
	if !exists {
		if err := t.putLeaf(f, target, valueBytes); err != nil {
			return err
		}
		t.log.Debug("insert into empty map", "path", target.String())
		return t.setRoot(f, target)
	}

	newRoot, _, err := t.insertAt(f, root, target, valueBytes)
	if err != nil {
		return err
	}
	return t.setRoot(f, newRoot)
}

// insertAt returns the path (and content hash) of the subtree that should
// replace the one previously rooted at atPath, after absorbing newPath's
// value. atPath need not already be a prefix of newPath: divergence above
// atPath is handled the same way as divergence found deeper down.
func (t *ProofMapIndex) insertAt(f Fork, atPath, newPath ProofPath, value []byte) (ProofPath, Hash, error) {
	node, found, err := t.getNode(f, atPath)
	if err != nil {
		return ProofPath{}, Hash{}, err
	}
	if !found {
		return ProofPath{}, Hash{}, errCorruptNode
	}

	common := CommonPrefixLen(atPath, newPath)

	if node.isLeaf {
		if common == MaxPathBits {
			if err := t.putLeaf(f, newPath, value); err != nil {
				return ProofPath{}, Hash{}, err
			}
			return newPath, HashLeaf(t.hash, value), nil
		}
		return t.splitAt(f, atPath, node.hash(t.hash), newPath, value, common)
	}

	if common < atPath.end {
		return t.splitAt(f, atPath, node.hash(t.hash), newPath, value, common)
	}

	bit := newPath.Bit(atPath.end)
	isLeft := bit == 0
	child, other := node.branch.child(bit)
	childPath, childHash, err := t.insertAt(f, child.path, newPath, value)
	if err != nil {
		return ProofPath{}, Hash{}, err
	}
	var newBranch branchNode
	if isLeft {
		newBranch = branchNode{left: childRef{childPath, childHash}, right: other}
	} else {
		newBranch = branchNode{left: other, right: childRef{childPath, childHash}}
	}
	h := newBranch.hash(t.hash)
	if err := t.putNode(f, atPath, storedNode{branch: newBranch}); err != nil {
		return ProofPath{}, Hash{}, err
	}
	return atPath, h, nil
}

// splitAt replaces the subtree at oldPath with a new branch holding the
// existing subtree (unchanged, identified by oldPath/oldHash) alongside a
// fresh leaf for newPath, diverging at bit position commonLen.
func (t *ProofMapIndex) splitAt(f Fork, oldPath ProofPath, oldHash Hash, newPath ProofPath, value []byte, commonLen uint16) (ProofPath, Hash, error) {
	branchPath := newPath.Prefix(commonLen)
	if err := t.putLeaf(f, newPath, value); err != nil {
		return ProofPath{}, Hash{}, err
	}
	newLeafHash := HashLeaf(t.hash, value)

	var left, right childRef
	if newPath.Bit(commonLen) == 0 {
		left, right = childRef{newPath, newLeafHash}, childRef{oldPath, oldHash}
	} else {
		left, right = childRef{oldPath, oldHash}, childRef{newPath, newLeafHash}
	}
	branch := branchNode{left: left, right: right}
	if err := t.putNode(f, branchPath, storedNode{branch: branch}); err != nil {
		return ProofPath{}, Hash{}, err
	}
	t.log.Debug("split node", "at", branchPath.String())
	return branchPath, branch.hash(t.hash), nil
}

// Remove deletes key from the map. It reports whether the key was present.
func (t *ProofMapIndex) Remove(key BinaryKey) (bool, error) {
	f, err := t.fork()
	if err != nil {
		return false, err
	}
	target, err := t.keyPath(key)
	if err != nil {
		return false, err
	}
	root, exists, err := t.loadRoot(f)
	if err != nil || !exists {
		return false, err
	}

	result, changed, err := t.removeAt(f, root, target)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	if result == nil {
		t.log.Debug("map emptied")
		return true, t.clearRoot(f)
	}
	return true, t.setRoot(f, result.path)
}

// removeAt deletes target from the subtree rooted at atPath, if present. A
// nil *childRef result with changed=true means the subtree at atPath was the
// removed leaf itself and is gone. A non-nil result replaces atPath's entry
// in its parent: the surviving sibling when this branch contracts, or the
// rehashed branch otherwise.
func (t *ProofMapIndex) removeAt(f Fork, atPath, target ProofPath) (*childRef, bool, error) {
	node, found, err := t.getNode(f, atPath)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, errCorruptNode
	}

	if node.isLeaf {
		if !atPath.Equal(target) {
			return nil, false, nil
		}
		if err := t.deleteNode(f, atPath); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	if !target.StartsWith(atPath) {
		return nil, false, nil
	}
	bit := target.Bit(atPath.end)
	isLeft := bit == 0
	child, other := node.branch.child(bit)

	childResult, changed, err := t.removeAt(f, child.path, target)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return nil, false, nil
	}
	if childResult == nil {
		// Child subtree is gone; this branch contracts to its sibling.
		if err := t.deleteNode(f, atPath); err != nil {
			return nil, false, err
		}
		t.log.Debug("contract branch", "at", atPath.String())
		return &other, true, nil
	}

	var newBranch branchNode
	if isLeft {
		newBranch = branchNode{left: *childResult, right: other}
	} else {
		newBranch = branchNode{left: other, right: *childResult}
	}
	if err := t.putNode(f, atPath, storedNode{branch: newBranch}); err != nil {
		return nil, false, err
	}
	return &childRef{atPath, newBranch.hash(t.hash)}, true, nil
}

// Clear removes every entry from the index.
func (t *ProofMapIndex) Clear() error {
	f, err := t.fork()
	if err != nil {
		return err
	}
	var keys [][]byte
	prefix := []byte(t.name + ":")
	if err := f.Iterate(prefix, func(k, _ []byte) bool {
		cp := make([]byte, len(k))
		copy(cp, k)
		keys = append(keys, cp)
		return true
	}); err != nil {
		return wrapStorageErr(err, "iterate for clear")
	}
	for _, k := range keys {
		if err := f.Delete(k); err != nil {
			return wrapStorageErr(err, "delete during clear")
		}
	}
	t.log.Debug("cleared map", "name", t.name)
	return nil
}

// MerkleRoot returns the raw root hash of the tree: the zero hash for an
// empty tree, the leaf hash for a single-entry tree, or the top branch's
// hash otherwise.
func (t *ProofMapIndex) MerkleRoot() (Hash, error) {
	root, exists, err := t.loadRoot(t.view)
	if err != nil {
		return Hash{}, err
	}
	if !exists {
		return Hash{}, nil
	}
	node, found, err := t.getNode(t.view, root)
	if err != nil {
		return Hash{}, err
	}
	if !found {
		return Hash{}, errCorruptNode
	}
	return node.hash(t.hash), nil
}

// ObjectHash returns the externally visible, tagged root hash: a fixed
// constant for an empty map, or HashMapNode applied to the tree's raw
// merkle root, folding the single-entry case through HashSingleEntryMap
// exactly as the proof verifier does.
func (t *ProofMapIndex) ObjectHash() (Hash, error) {
	root, exists, err := t.loadRoot(t.view)
	if err != nil {
		return Hash{}, err
	}
	if !exists {
		return EmptyMapHash(t.hash), nil
	}
	node, found, err := t.getNode(t.view, root)
	if err != nil {
		return Hash{}, err
	}
	if !found {
		return Hash{}, errCorruptNode
	}
	if node.isLeaf {
		leafHash := node.hash(t.hash)
		return HashMapNode(t.hash, HashSingleEntryMap(t.hash, root, leafHash)), nil
	}
	return HashMapNode(t.hash, node.hash(t.hash)), nil
}
