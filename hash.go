package proofmap

import (
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// Hash is a 256-bit digest, matching the Keccak256 output width used
// throughout this package.
type Hash [32]byte

// IsZero reports whether h is the all-zero sentinel used for the merkle
// root of an empty map.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// HashFunc is the digest function the tree hashes nodes with. The default,
// DefaultHash, is go-ethereum's Keccak256; callers needing a different
// backend (e.g. cross-checking against an alternate implementation) can
// supply their own.
type HashFunc func(data ...[]byte) Hash

// DefaultHash wraps go-ethereum's Keccak256 to the HashFunc shape.
func DefaultHash(data ...[]byte) Hash {
	var h Hash
	copy(h[:], crypto.Keccak256(data...))
	return h
}

// Sha3Hash is an alternate HashFunc backed by standard (NIST) SHA3-256,
// distinct from Keccak256's pre-standardization padding. Useful for
// cross-checking an index built with one backend against a second
// independent implementation, or for deployments that must match a
// standard-SHA3 commitment scheme rather than Ethereum's.
func Sha3Hash(data ...[]byte) Hash {
	h := sha3.New256()
	for _, d := range data {
		h.Write(d)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Domain-separation tags prefixed onto hash inputs. Tag 0x02 is reserved by
// the sibling list-index kind this map's format descends from and is never
// produced or consumed here.
const (
	tagBlob     byte = 0x00
	tagList     byte = 0x02
	tagMapNode  byte = 0x03
	tagMapEntry byte = 0x04
)

// HashLeaf hashes a stored value into a leaf node's content hash.
func HashLeaf(h HashFunc, value []byte) Hash {
	return h([]byte{tagBlob}, value)
}

// HashBranch hashes a branch node from its two children's encoded blocks.
func HashBranch(h HashFunc, left, right ProofPath, leftHash, rightHash Hash) Hash {
	return h([]byte{tagMapEntry}, encodeChildBlock(left, leftHash), encodeChildBlock(right, rightHash))
}

// HashSingleEntryMap hashes the degenerate case where the map holds exactly
// one entry and the tree has no branch node at all: the lone leaf's path and
// hash folded together. ObjectHash wraps this value with HashMapNode;
// MerkleRoot returns the bare leaf hash instead.
func HashSingleEntryMap(h HashFunc, only ProofPath, leafHash Hash) Hash {
	pathBytes := only.ToBytes()
	return h([]byte{tagMapEntry}, pathBytes[:], encodePathMeta(only), leafHash[:])
}

// HashMapNode tags a raw merkle root into the externally visible object
// hash returned by ProofMapIndex.ObjectHash.
func HashMapNode(h HashFunc, root Hash) Hash {
	return h([]byte{tagMapNode}, root[:])
}

// EmptyMapHash is the fixed object hash of a map with no entries.
func EmptyMapHash(h HashFunc) Hash {
	return HashMapNode(h, h([]byte{tagBlob}))
}

// encodePathMeta packs a path's kind and length into the two bytes (kind,
// then length) that follow its 32 raw bytes in a child block. A leaf's length (256) is
// encoded as 0, since 256 does not fit a byte and a leaf's length is
// implied by its kind anyway.
func encodePathMeta(p ProofPath) []byte {
	kind := byte(0) // branch
	length := byte(p.end)
	if p.IsLeaf() {
		kind = 1
		length = 0
	}
	return []byte{kind, length}
}

// encodeChildBlock serializes a child reference the way it is embedded in
// its parent branch's hash input and its on-disk record: 32 path bytes, a
// kind byte, a length byte, then the 32-byte child hash.
func encodeChildBlock(p ProofPath, h Hash) []byte {
	pathBytes := p.ToBytes()
	out := make([]byte, 0, 66)
	out = append(out, pathBytes[:]...)
	out = append(out, encodePathMeta(p)...)
	out = append(out, h[:]...)
	return out
}

// decodeChildBlock is the inverse of encodeChildBlock, used when loading a
// branch node back from storage.
func decodeChildBlock(b []byte) (ProofPath, Hash, error) {
	if len(b) != 66 {
		return ProofPath{}, Hash{}, errCorruptNode
	}
	var raw [KeySize]byte
	copy(raw[:], b[:32])
	kind := b[32]
	length := uint16(b[33])
	var p ProofPath
	if kind == 1 {
		p = NewProofPath(raw)
	} else {
		p = ProofPath{raw: raw, end: length}
	}
	var h Hash
	copy(h[:], b[34:66])
	return p, h, nil
}
