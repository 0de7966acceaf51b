package proofmap

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

// BinaryKey is implemented by anything that can be used as a map key. A
// type's ToBytes encoding is what gets turned into a ProofPath, either
// directly (RawKey) or through a digest (HashedKey).
type BinaryKey interface {
	ToBytes() []byte
}

// BinaryValue is implemented by anything that can be stored as a map
// value. Values are opaque to the tree engine beyond their byte encoding.
type BinaryValue interface {
	ToBytes() []byte
}

// Bytes is the trivial BinaryValue: the value bytes themselves.
type Bytes []byte

func (b Bytes) ToBytes() []byte { return b }

// RawKey is a BinaryKey whose 32-byte encoding directly defines its
// ProofPath, with no hashing step. Callers use this flavor when they
// already have uniformly distributed, fixed-width keys (e.g. other
// digests) and want to avoid a redundant hash.
type RawKey [KeySize]byte

func (k RawKey) ToBytes() []byte { return k[:] }

// HashedKey wraps an arbitrary BinaryKey whose encoding may be of any
// length; its ProofPath is derived from the Keccak256 digest of the
// wrapped key's bytes, so two HashedKeys are only equal in path terms if
// their underlying encodings are identical.
type HashedKey struct {
	Inner BinaryKey
}

func (k HashedKey) ToBytes() []byte {
	return crypto.Keccak256(k.Inner.ToBytes())
}

// pathForKey derives the ProofPath a key maps to. RawKey (and any
// BinaryKey whose ToBytes already returns exactly KeySize bytes) is used
// directly; everything else is routed through h (Keccak256 by default) first.
func pathForKey(h HashFunc, key BinaryKey) (ProofPath, error) {
	b := key.ToBytes()
	if len(b) == KeySize {
		var raw [KeySize]byte
		copy(raw[:], b)
		return NewProofPath(raw), nil
	}
	digest := h(b)
	return NewProofPath([KeySize]byte(digest)), nil
}

// Point is a small concrete BinaryKey used by tests and examples to show a
// composite, non-byte-native key type going through HashedKey.
type Point struct {
	X, Y int32
}

func (p Point) ToBytes() []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint32(out[0:4], uint32(p.X))
	binary.BigEndian.PutUint32(out[4:8], uint32(p.Y))
	return out
}
