package proofmap

import "fmt"

// BatchOp is one operation in a batch submitted to ExecuteBatch.
type BatchOp struct {
	Key    BinaryKey
	Value  BinaryValue // unused for Remove
	Remove bool
}

// ExecuteBatch applies every op against idx inside idx's own Fork,
// atomically: if any op fails, every prior write made by this call rolls
// back and the Fork is left exactly as it was found.
func ExecuteBatch(idx *ProofMapIndex, ops []BatchOp) error {
	f, err := idx.fork()
	if err != nil {
		return err
	}
	for i, op := range ops {
		var opErr error
		if op.Remove {
			_, opErr = idx.Remove(op.Key)
		} else {
			opErr = idx.Put(op.Key, op.Value)
		}
		if opErr != nil {
			f.Rollback()
			return fmt.Errorf("proofmap: batch operation %d failed: %w", i, opErr)
		}
	}
	return nil
}

// KVPair is one key/value pair submitted to BatchPut. A plain slice (rather
// than a map keyed by BinaryKey) sidesteps the fact that not every
// BinaryKey implementation — Bytes in particular — is comparable.
type KVPair struct {
	Key   BinaryKey
	Value BinaryValue
}

// BatchPut inserts every key/value pair, atomically.
func BatchPut(idx *ProofMapIndex, pairs []KVPair) error {
	ops := make([]BatchOp, len(pairs))
	for i, kv := range pairs {
		ops[i] = BatchOp{Key: kv.Key, Value: kv.Value}
	}
	return ExecuteBatch(idx, ops)
}

// BatchRemove deletes every listed key, atomically. Missing keys are not an
// error; Remove's own "was present" signal is simply discarded here.
func BatchRemove(idx *ProofMapIndex, keys []BinaryKey) error {
	ops := make([]BatchOp, len(keys))
	for i, k := range keys {
		ops[i] = BatchOp{Key: k, Remove: true}
	}
	return ExecuteBatch(idx, ops)
}

// BatchGetResult is one key's outcome from BatchGet, in the order queried.
type BatchGetResult struct {
	Key   BinaryKey
	Value []byte
	Found bool
}

// BatchGet looks up every key, in order. A missing key yields Found: false
// rather than aborting the batch.
func BatchGet(idx *ProofMapIndex, keys []BinaryKey) ([]BatchGetResult, error) {
	out := make([]BatchGetResult, len(keys))
	for i, k := range keys {
		v, ok, err := idx.Get(k)
		if err != nil {
			return nil, err
		}
		out[i] = BatchGetResult{Key: k, Value: v, Found: ok}
	}
	return out, nil
}
