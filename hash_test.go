package proofmap

import "testing"

func TestEmptyMapHashIsFixed(t *testing.T) {
	h1 := EmptyMapHash(DefaultHash)
	h2 := EmptyMapHash(DefaultHash)
	if h1 != h2 {
		t.Fatal("EmptyMapHash must be a fixed constant for a given HashFunc")
	}
	if h1.IsZero() {
		t.Fatal("EmptyMapHash should not be the zero hash")
	}
}

func TestHashLeafDependsOnValue(t *testing.T) {
	a := HashLeaf(DefaultHash, []byte("one"))
	b := HashLeaf(DefaultHash, []byte("two"))
	if a == b {
		t.Fatal("different values must hash differently")
	}
}

func TestEncodeDecodeChildBlockRoundTrip(t *testing.T) {
	var raw [KeySize]byte
	raw[0] = 0b101
	path := NewProofPath(raw).Prefix(5)
	h := HashLeaf(DefaultHash, []byte("value"))

	block := encodeChildBlock(path, h)
	gotPath, gotHash, err := decodeChildBlock(block)
	if err != nil {
		t.Fatalf("decodeChildBlock: %v", err)
	}
	if !gotPath.Equal(path) {
		t.Fatalf("decoded path %s, want %s", gotPath, path)
	}
	if gotHash != h {
		t.Fatal("decoded hash mismatch")
	}
}

func TestDecodeChildBlockRejectsWrongLength(t *testing.T) {
	if _, _, err := decodeChildBlock(make([]byte, 10)); err == nil {
		t.Fatal("expected an error for a malformed child block")
	}
}

func TestSha3HashDiffersFromDefaultHash(t *testing.T) {
	input := []byte("proofmap")
	if DefaultHash(input) == Sha3Hash(input) {
		t.Fatal("Keccak256 and standard SHA3-256 should not collide on the same input")
	}
}
