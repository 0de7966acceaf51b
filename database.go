package proofmap

import (
	"sort"
	"strings"
	"sync"
)

// Snapshot is a read-only, freely shareable view of the backing store.
type Snapshot interface {
	// Get returns the value for key and whether it was present.
	Get(key []byte) ([]byte, bool, error)
	// Has reports whether key is present.
	Has(key []byte) (bool, error)
	// Iterate calls fn for every key with the given prefix in ascending
	// byte order, stopping early if fn returns false.
	Iterate(prefix []byte, fn func(k, v []byte) bool) error
}

// Fork is an exclusive, read-write view layered atop a Snapshot. Writes are
// only visible to the Fork itself until Commit succeeds; Rollback discards
// them entirely.
type Fork interface {
	Snapshot
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
	Rollback()
}

// Database is a pluggable storage engine capable of handing out Snapshots
// and Forks over the same underlying data.
type Database interface {
	Snapshot() Snapshot
	Fork() Fork
}

// MemDB is an in-memory Database. Snapshot takes a point-in-time copy of
// the key space; Fork accumulates writes in a local overlay and applies
// them to the shared map atomically on Commit.
type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemDB creates an empty in-memory database.
func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

func (db *MemDB) Snapshot() Snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()
	cp := make(map[string][]byte, len(db.data))
	for k, v := range db.data {
		cp[k] = v
	}
	return &memSnapshot{data: cp}
}

func (db *MemDB) Fork() Fork {
	return &memFork{
		db:      db,
		snap:    db.Snapshot().(*memSnapshot),
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

type memSnapshot struct {
	data map[string][]byte
}

func (s *memSnapshot) Get(key []byte) ([]byte, bool, error) {
	v, ok := s.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *memSnapshot) Has(key []byte) (bool, error) {
	_, ok := s.data[string(key)]
	return ok, nil
}

func (s *memSnapshot) Iterate(prefix []byte, fn func(k, v []byte) bool) error {
	keys := make([]string, 0, len(s.data))
	p := string(prefix)
	for k := range s.data {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), s.data[k]) {
			break
		}
	}
	return nil
}

type memFork struct {
	db      *MemDB
	snap    *memSnapshot
	writes  map[string][]byte
	deletes map[string]struct{}
}

func (f *memFork) Get(key []byte) ([]byte, bool, error) {
	k := string(key)
	if _, gone := f.deletes[k]; gone {
		return nil, false, nil
	}
	if v, ok := f.writes[k]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, true, nil
	}
	return f.snap.Get(key)
}

func (f *memFork) Has(key []byte) (bool, error) {
	_, ok, err := f.Get(key)
	return ok, err
}

func (f *memFork) Iterate(prefix []byte, fn func(k, v []byte) bool) error {
	merged := make(map[string][]byte)
	_ = f.snap.Iterate(prefix, func(k, v []byte) bool {
		merged[string(k)] = v
		return true
	})
	p := string(prefix)
	for k, v := range f.writes {
		if strings.HasPrefix(k, p) {
			merged[k] = v
		}
	}
	for k := range f.deletes {
		delete(merged, k)
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), merged[k]) {
			break
		}
	}
	return nil
}

func (f *memFork) Put(key, value []byte) error {
	k := string(key)
	delete(f.deletes, k)
	cp := make([]byte, len(value))
	copy(cp, value)
	f.writes[k] = cp
	return nil
}

func (f *memFork) Delete(key []byte) error {
	k := string(key)
	delete(f.writes, k)
	f.deletes[k] = struct{}{}
	return nil
}

func (f *memFork) Commit() error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for k := range f.deletes {
		delete(f.db.data, k)
	}
	for k, v := range f.writes {
		f.db.data[k] = v
	}
	return nil
}

func (f *memFork) Rollback() {
	f.writes = make(map[string][]byte)
	f.deletes = make(map[string]struct{})
}
