package proofmap

import "testing"

func TestExecuteBatchAppliesAllOps(t *testing.T) {
	idx := newTestIndex(t)
	if err := idx.Put(RawKey{1}, Bytes("old")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ops := []BatchOp{
		{Key: RawKey{1}, Remove: true},
		{Key: RawKey{2}, Value: Bytes("b")},
		{Key: RawKey{3}, Value: Bytes("c")},
	}
	if err := ExecuteBatch(idx, ops); err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}

	if ok, _ := idx.Contains(RawKey{1}); ok {
		t.Fatal("key 1 should have been removed")
	}
	for _, want := range []struct {
		key RawKey
		val string
	}{{RawKey{2}, "b"}, {RawKey{3}, "c"}} {
		v, ok, err := idx.Get(want.key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !ok || string(v) != want.val {
			t.Fatalf("Get(%v) = (%q, %v), want (%q, true)", want.key, v, ok, want.val)
		}
	}
}

func TestExecuteBatchFailsWithoutWritableFork(t *testing.T) {
	idx := newTestIndex(t)
	if err := idx.Put(RawKey{1}, Bytes("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	before, err := idx.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}

	ro, err := NewProofMapIndex("readonly-view", readOnlySnapshot{idx.view})
	if err != nil {
		t.Fatalf("NewProofMapIndex: %v", err)
	}

	err = ExecuteBatch(ro, []BatchOp{{Key: RawKey{2}, Value: Bytes("x")}})
	if err == nil {
		t.Fatal("expected ExecuteBatch to fail when the index has no writable fork")
	}

	after, err := idx.ObjectHash()
	if err != nil {
		t.Fatalf("ObjectHash: %v", err)
	}
	if after != before {
		t.Fatal("a failed batch must not have mutated the underlying store")
	}
}

func TestBatchPutAndBatchGet(t *testing.T) {
	idx := newTestIndex(t)
	pairs := []KVPair{
		{Key: RawKey{10}, Value: Bytes("x")},
		{Key: RawKey{20}, Value: Bytes("y")},
	}
	if err := BatchPut(idx, pairs); err != nil {
		t.Fatalf("BatchPut: %v", err)
	}

	results, err := BatchGet(idx, []BinaryKey{RawKey{10}, RawKey{20}, RawKey{30}})
	if err != nil {
		t.Fatalf("BatchGet: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].Found || string(results[0].Value) != "x" {
		t.Fatalf("results[0] = %+v", results[0])
	}
	if !results[1].Found || string(results[1].Value) != "y" {
		t.Fatalf("results[1] = %+v", results[1])
	}
	if results[2].Found {
		t.Fatal("results[2] should report not found")
	}
}

func TestBatchRemove(t *testing.T) {
	idx := newTestIndex(t)
	if err := BatchPut(idx, []KVPair{{Key: RawKey{1}, Value: Bytes("a")}, {Key: RawKey{2}, Value: Bytes("b")}}); err != nil {
		t.Fatalf("BatchPut: %v", err)
	}
	if err := BatchRemove(idx, []BinaryKey{RawKey{1}, RawKey{99}}); err != nil {
		t.Fatalf("BatchRemove: %v", err)
	}
	if ok, _ := idx.Contains(RawKey{1}); ok {
		t.Fatal("key 1 should have been removed")
	}
	if ok, _ := idx.Contains(RawKey{2}); !ok {
		t.Fatal("key 2 should remain")
	}
}

// readOnlySnapshot adapts a Snapshot so it no longer satisfies Fork, letting
// tests exercise ExecuteBatch's failure path without a second database.
type readOnlySnapshot struct {
	Snapshot
}
