package proofmap

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors returned by the tree engine and key codecs.
var (
	// ErrKeyNotFound reports a missing key as an error. No function in this
	// package returns it: Get, Contains and Remove report a missing key
	// through their boolean result.
	ErrKeyNotFound = fmt.Errorf("proofmap: key not found")

	// ErrInvalidKeySize reports a raw key whose encoding is not exactly
	// KeySize bytes. No function in this package returns it: RawKey is a
	// fixed-size array, and keys of any other length are hashed to a path.
	ErrInvalidKeySize = fmt.Errorf("proofmap: raw key must encode to exactly %d bytes", KeySize)

	// ErrReadOnly is returned when a write operation is attempted against
	// an index opened over a Snapshot rather than a Fork.
	ErrReadOnly = fmt.Errorf("proofmap: index is read-only")

	// ErrNilDatabase is returned when NewProofMapIndex is given a nil
	// storage view.
	ErrNilDatabase = fmt.Errorf("proofmap: database cannot be nil")

	errCorruptNode = fmt.Errorf("proofmap: corrupt node record")
	errCorruptRoot = fmt.Errorf("proofmap: corrupt root record")
)

// wrapStorageErr attaches a stack trace to an error surfaced by the
// underlying Database, so failures crossing the storage boundary keep
// enough context to debug without the tree engine itself logging paths or
// values it has no business inspecting.
func wrapStorageErr(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "proofmap: %s", op)
}

// NonTerminalNodeError is returned by the verifier when a single remaining
// proof element does not address a full-length (leaf) path, meaning it
// cannot be the map's sole entry.
type NonTerminalNodeError struct {
	Path ProofPath
}

func (e NonTerminalNodeError) Error() string {
	return fmt.Sprintf("proofmap: non-terminal node at path %s cannot stand alone", e.Path)
}

// InvalidOrderingError is returned when the sibling paths in MapProof.Proof
// are not in ascending order.
type InvalidOrderingError struct {
	Prev, Next ProofPath
}

func (e InvalidOrderingError) Error() string {
	return fmt.Sprintf("proofmap: paths out of order: %s before %s", e.Prev, e.Next)
}

// DuplicatePathError is returned when the same path appears more than once
// across the proof and entries.
type DuplicatePathError struct {
	Path ProofPath
}

func (e DuplicatePathError) Error() string {
	return fmt.Sprintf("proofmap: duplicate path %s", e.Path)
}

// EmbeddedPathsError is returned when one path is a proper prefix of
// another, meaning the proof is not minimal/canonical.
type EmbeddedPathsError struct {
	Outer, Inner ProofPath
}

func (e EmbeddedPathsError) Error() string {
	return fmt.Sprintf("proofmap: path %s embeds path %s", e.Outer, e.Inner)
}

// MissingKeyPresentError is returned when a key the proof claims is absent
// actually resolves to a leaf within the reconstructed structure.
type MissingKeyPresentError struct {
	Path ProofPath
}

func (e MissingKeyPresentError) Error() string {
	return fmt.Sprintf("proofmap: claimed-missing path %s is present in the proof", e.Path)
}
