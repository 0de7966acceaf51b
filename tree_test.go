package proofmap

import (
	"bytes"
	"testing"
)

func newTestIndex(t *testing.T) *ProofMapIndex {
	t.Helper()
	db := NewMemDB()
	idx, err := NewProofMapIndex("test", db.Fork())
	if err != nil {
		t.Fatalf("NewProofMapIndex: %v", err)
	}
	return idx
}

func TestEmptyIndexObjectHash(t *testing.T) {
	idx := newTestIndex(t)
	got, err := idx.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}
	if got != EmptyMapHash(DefaultHash) {
		t.Fatal("empty index object hash must equal the fixed empty-map constant")
	}
}

func TestPutGetContains(t *testing.T) {
	idx := newTestIndex(t)
	key := RawKey{230}

	if err := idx.Put(key, Bytes("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok, err := idx.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("Get returned (%q, %v), want (v1, true)", v, ok)
	}

	other := RawKey{128}
	ok, err = idx.Contains(other)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if ok {
		t.Fatal("Contains should be false for a key never inserted")
	}
}

// TestSingleLeafObjectHash pins down scenario S2: a single-entry map's
// object hash folds through HashSingleEntryMap, not a bare leaf hash.
func TestSingleLeafObjectHash(t *testing.T) {
	idx := newTestIndex(t)
	key := RawKey{230}
	if err := idx.Put(key, Bytes("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	path, err := idx.keyPath(key)
	if err != nil {
		t.Fatalf("keyPath: %v", err)
	}
	leafHash := HashLeaf(DefaultHash, []byte("1"))
	want := HashMapNode(DefaultHash, HashSingleEntryMap(DefaultHash, path, leafHash))

	got, err := idx.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}
	if got != want {
		t.Fatal("single-leaf object hash does not match the single-entry-map formula")
	}
}

func TestOrderIndependence(t *testing.T) {
	keys := []RawKey{{42}, {64}, {240}, {245}, {250}, {255}}
	values := []string{"1", "2", "3", "4", "5", "6"}

	forward := newTestIndex(t)
	for i, k := range keys {
		if err := forward.Put(k, Bytes(values[i])); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	forwardHash, err := forward.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}

	reverse := newTestIndex(t)
	for i := len(keys) - 1; i >= 0; i-- {
		if err := reverse.Put(keys[i], Bytes(values[i])); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	reverseHash, err := reverse.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}

	if forwardHash != reverseHash {
		t.Fatal("insertion order must not affect the resulting object hash")
	}
	if forwardHash == EmptyMapHash(DefaultHash) {
		t.Fatal("non-empty map must not hash to the empty-map constant")
	}
}

func TestDeleteReinsertRestoresHash(t *testing.T) {
	idx := newTestIndex(t)
	a, b := RawKey{1}, RawKey{2}

	if err := idx.Put(a, Bytes("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	baseline, err := idx.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}

	if err := idx.Put(b, Bytes("b")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := idx.Remove(b); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	after, err := idx.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}
	if after != baseline {
		t.Fatal("put then remove must restore the prior object hash")
	}
}

func TestHashSensitivity(t *testing.T) {
	base := newTestIndex(t)
	if err := base.Put(RawKey{1}, Bytes("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := base.Put(RawKey{2}, Bytes("b")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	baseHash, err := base.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}

	changedValue := newTestIndex(t)
	if err := changedValue.Put(RawKey{1}, Bytes("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := changedValue.Put(RawKey{2}, Bytes("B")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	changedHash, err := changedValue.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}
	if changedHash == baseHash {
		t.Fatal("changing a single value must change the object hash")
	}

	removedKey := newTestIndex(t)
	if err := removedKey.Put(RawKey{1}, Bytes("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	removedHash, err := removedKey.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}
	if removedHash == baseHash {
		t.Fatal("removing a key must change the object hash")
	}
}

func TestClearEmptiesTheIndex(t *testing.T) {
	idx := newTestIndex(t)
	for i := byte(0); i < 10; i++ {
		if err := idx.Put(RawKey{i}, Bytes{i}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := idx.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err := idx.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}
	if got != EmptyMapHash(DefaultHash) {
		t.Fatal("Clear must bring the index back to the empty-map hash")
	}
}

func TestReadOnlyViewRejectsWrites(t *testing.T) {
	db := NewMemDB()
	idx, err := NewProofMapIndex("test", db.Snapshot())
	if err != nil {
		t.Fatalf("NewProofMapIndex: %v", err)
	}
	if err := idx.Put(RawKey{1}, Bytes("a")); err != ErrReadOnly {
		t.Fatalf("Put over a Snapshot: got %v, want ErrReadOnly", err)
	}
}
