// Package batch implements chunked, optionally parallel application of
// bulk key/value operations against a proofmap.ProofMapIndex, splitting
// large operation sets into bounded-size batches. Every chunk writes into
// the index's one Fork; nothing here commits that Fork.
package batch

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/merkleproof/proofmap"
	"github.com/merkleproof/proofmap/internal/pool"
)

// OperationType is the kind of mutation one Operation applies.
type OperationType int

const (
	Put OperationType = iota
	Delete
)

// Operation is a single unit of work submitted to a Processor.
type Operation struct {
	Type  OperationType
	Key   proofmap.BinaryKey
	Value proofmap.BinaryValue // unused for Delete
}

// Result carries one Operation's outcome, in submission order.
type Result struct {
	Key     proofmap.BinaryKey
	Success bool
	Err     error
}

// Processor applies operations against a single index in bounded-size
// chunks, each chunk running inside its own atomic batch.
type Processor struct {
	idx      *proofmap.ProofMapIndex
	maxBatch int
	mu       sync.Mutex
}

// NewProcessor creates a Processor over idx, chunking submissions larger
// than maxBatchSize.
func NewProcessor(idx *proofmap.ProofMapIndex, maxBatchSize int) *Processor {
	return &Processor{idx: idx, maxBatch: maxBatchSize}
}

// Process applies every operation, chunked, and reports each one's outcome
// in order. A chunk's failure aborts that chunk (via the index's own
// atomic batch rollback) but does not stop later chunks from running.
func (p *Processor) Process(ops []Operation) ([]Result, error) {
	if len(ops) == 0 {
		return nil, nil
	}
	if len(ops) > p.maxBatch {
		return p.processChunked(ops)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	buf := pool.Global32BytePool.Get()
	defer pool.Global32BytePool.Put(buf)
	touched := pool.GlobalStringSlicePool.Get()
	defer pool.GlobalStringSlicePool.Put(touched)

	batchOps := make([]proofmap.BatchOp, len(ops))
	for i, op := range ops {
		batchOps[i] = proofmap.BatchOp{Key: op.Key, Value: op.Value, Remove: op.Type == Delete}
		touched = append(touched, hexKey(buf, op.Key))
	}

	results := make([]Result, len(ops))
	if err := proofmap.ExecuteBatch(p.idx, batchOps); err != nil {
		err = fmt.Errorf("proofmap/batch: chunk touching %s failed: %w", strings.Join(touched, ","), err)
		for i, op := range ops {
			results[i] = Result{Key: op.Key, Err: err}
		}
		return results, err
	}
	for i, op := range ops {
		results[i] = Result{Key: op.Key, Success: true}
	}
	return results, nil
}

// hexKey hex-encodes key's bytes, staging them in the pooled buf when they
// match its fixed size; encodings of any other length are encoded
// directly. Either way it returns a newly allocated string.
func hexKey(buf []byte, key proofmap.BinaryKey) string {
	raw := key.ToBytes()
	if len(raw) != len(buf) {
		return hex.EncodeToString(raw)
	}
	copy(buf, raw)
	return hex.EncodeToString(buf)
}

func (p *Processor) processChunked(ops []Operation) ([]Result, error) {
	var all []Result
	var firstErr error
	for i := 0; i < len(ops); i += p.maxBatch {
		end := i + p.maxBatch
		if end > len(ops) {
			end = len(ops)
		}
		results, err := p.Process(ops[i:end])
		all = append(all, results...)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return all, firstErr
}

// ParallelProcessor fans work out across several independently named
// indexes (e.g. shards of a larger key space), one Processor each.
type ParallelProcessor struct {
	processors []*Processor
}

// NewParallelProcessor wraps one Processor per index, each using the same
// per-chunk batch size.
func NewParallelProcessor(idxs []*proofmap.ProofMapIndex, maxBatchSize int) *ParallelProcessor {
	processors := make([]*Processor, len(idxs))
	for i, idx := range idxs {
		processors[i] = NewProcessor(idx, maxBatchSize)
	}
	return &ParallelProcessor{processors: processors}
}

// ProcessSharded applies shards[i] against processor i concurrently,
// returning one Result slice per shard in processor order.
func (pp *ParallelProcessor) ProcessSharded(shards [][]Operation) ([][]Result, error) {
	if len(shards) != len(pp.processors) {
		return nil, fmt.Errorf("proofmap/batch: %d shards for %d processors", len(shards), len(pp.processors))
	}
	results := make([][]Result, len(shards))
	errs := make([]error, len(shards))

	var wg sync.WaitGroup
	for i := range shards {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = pp.processors[i].Process(shards[i])
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("proofmap/batch: shard %d: %w", i, err)
		}
	}
	return results, nil
}
