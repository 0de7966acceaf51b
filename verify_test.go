package proofmap

import "testing"

func TestVerifyRoundTripsAgainstObjectHash(t *testing.T) {
	idx := newTestIndex(t)
	keys := []RawKey{{42}, {64}, {240}, {245}, {250}, {255}}
	for i, k := range keys {
		if err := idx.Put(k, Bytes{byte(i)}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	want, err := idx.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}

	proof, err := idx.GetMultiProof([]BinaryKey{keys[0], keys[3], RawKey{1}})
	if err != nil {
		t.Fatalf("GetMultiProof: %v", err)
	}
	got, err := proof.Verify(DefaultHash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != want {
		t.Fatalf("Verify root = %x, want %x", got, want)
	}
}

func TestVerifyEmptyProofYieldsEmptyMapHash(t *testing.T) {
	proof := &MapProof{}
	got, err := proof.Verify(DefaultHash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != EmptyMapHash(DefaultHash) {
		t.Fatal("an empty proof must verify to the empty-map constant")
	}
}

func TestVerifySingleEntryProof(t *testing.T) {
	idx := newTestIndex(t)
	key := RawKey{230}
	if err := idx.Put(key, Bytes("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	want, err := idx.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}

	proof, err := idx.GetProof(key)
	if err != nil {
		t.Fatalf("GetProof: %v", err)
	}
	got, err := proof.Verify(DefaultHash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != want {
		t.Fatalf("Verify root = %x, want %x", got, want)
	}
}

func TestVerifyRejectsDuplicatePath(t *testing.T) {
	key := RawKey{230}
	path := NewProofPath([KeySize]byte(key))
	leaf := HashLeaf(DefaultHash, []byte("v"))

	proof := &MapProof{
		Entries: []ProofEntry{
			{Key: key, Path: path, Value: []byte("v"), Found: true},
		},
		Proof: []sibling{
			{Path: path, Hash: leaf},
		},
	}
	if _, err := proof.Verify(DefaultHash); err == nil {
		t.Fatal("expected an error for a path appearing twice")
	} else if _, ok := err.(DuplicatePathError); !ok {
		t.Fatalf("got %T, want DuplicatePathError", err)
	}
}

func TestVerifyRejectsEmbeddedPaths(t *testing.T) {
	var raw [KeySize]byte
	raw[0] = 0b00000101
	full := NewProofPath(raw)
	outer := full.Prefix(3)

	proof := &MapProof{
		Proof: []sibling{
			{Path: outer, Hash: HashLeaf(DefaultHash, []byte("a"))},
			{Path: full, Hash: HashLeaf(DefaultHash, []byte("b"))},
		},
	}
	if _, err := proof.Verify(DefaultHash); err == nil {
		t.Fatal("expected an error for one proof path embedding another")
	} else if _, ok := err.(EmbeddedPathsError); !ok {
		t.Fatalf("got %T, want EmbeddedPathsError", err)
	}
}

func TestVerifyRejectsMissingKeyActuallyPresent(t *testing.T) {
	key := RawKey{230}
	path := NewProofPath([KeySize]byte(key))

	proof := &MapProof{
		Proof: []sibling{
			{Path: path, Hash: HashLeaf(DefaultHash, []byte("v"))},
		},
		Entries: []ProofEntry{
			{Key: key, Path: path, Found: false},
		},
	}
	if _, err := proof.Verify(DefaultHash); err == nil {
		t.Fatal("expected an error when a claimed-missing key's path is exposed as present")
	} else if _, ok := err.(MissingKeyPresentError); !ok {
		t.Fatalf("got %T, want MissingKeyPresentError", err)
	}
}

func TestVerifyRejectsNonTerminalSoleElement(t *testing.T) {
	var raw [KeySize]byte
	raw[0] = 0b00000011
	branchPath := NewProofPath(raw).Prefix(4)

	proof := &MapProof{
		Proof: []sibling{
			{Path: branchPath, Hash: HashLeaf(DefaultHash, []byte("x"))},
		},
	}
	if _, err := proof.Verify(DefaultHash); err == nil {
		t.Fatal("expected an error for a lone non-leaf proof element")
	} else if _, ok := err.(NonTerminalNodeError); !ok {
		t.Fatalf("got %T, want NonTerminalNodeError", err)
	}
}

func TestVerifyDetectsTamperedValue(t *testing.T) {
	idx := newTestIndex(t)
	key := RawKey{230}
	if err := idx.Put(key, Bytes("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	root, err := idx.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}

	proof, err := idx.GetProof(key)
	if err != nil {
		t.Fatalf("GetProof: %v", err)
	}
	proof.Entries[0].Value = []byte("tampered")

	got, err := proof.Verify(DefaultHash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got == root {
		t.Fatal("a tampered value must not verify to the original object hash")
	}
}
