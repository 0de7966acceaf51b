package proofmap

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// PebbleDB is a Database backed by a cockroachdb/pebble store, giving the
// tree engine a real, persistent, LSM-backed home instead of the in-memory
// reference implementation.
type PebbleDB struct {
	db *pebble.DB
}

// OpenPebbleDB opens (creating if necessary) a pebble-backed database at dir.
func OpenPebbleDB(dir string) (*PebbleDB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "proofmap: open pebble store")
	}
	return &PebbleDB{db: db}, nil
}

// Close releases the underlying pebble handle.
func (p *PebbleDB) Close() error {
	return p.db.Close()
}

func (p *PebbleDB) Snapshot() Snapshot {
	return &pebbleSnapshot{snap: p.db.NewSnapshot()}
}

func (p *PebbleDB) Fork() Fork {
	return &pebbleFork{db: p.db, batch: p.db.NewIndexedBatch()}
}

type pebbleSnapshot struct {
	snap *pebble.Snapshot
}

func (s *pebbleSnapshot) Get(key []byte) ([]byte, bool, error) {
	v, closer, err := s.snap.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	_ = closer.Close()
	return out, true, nil
}

func (s *pebbleSnapshot) Has(key []byte) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

func (s *pebbleSnapshot) Iterate(prefix []byte, fn func(k, v []byte) bool) error {
	iter, err := s.snap.NewIter(prefixIterOptions(prefix))
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		k := append([]byte(nil), iter.Key()...)
		v := append([]byte(nil), iter.Value()...)
		if !fn(k, v) {
			break
		}
	}
	return nil
}

type pebbleFork struct {
	db    *pebble.DB
	batch *pebble.Batch
}

func (f *pebbleFork) Get(key []byte) ([]byte, bool, error) {
	v, closer, err := f.batch.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	_ = closer.Close()
	return out, true, nil
}

func (f *pebbleFork) Has(key []byte) (bool, error) {
	_, ok, err := f.Get(key)
	return ok, err
}

func (f *pebbleFork) Iterate(prefix []byte, fn func(k, v []byte) bool) error {
	iter, err := f.batch.NewIter(prefixIterOptions(prefix))
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		k := append([]byte(nil), iter.Key()...)
		v := append([]byte(nil), iter.Value()...)
		if !fn(k, v) {
			break
		}
	}
	return nil
}

func (f *pebbleFork) Put(key, value []byte) error {
	return f.batch.Set(key, value, nil)
}

func (f *pebbleFork) Delete(key []byte) error {
	return f.batch.Delete(key, nil)
}

func (f *pebbleFork) Commit() error {
	return f.batch.Commit(pebble.Sync)
}

func (f *pebbleFork) Rollback() {
	_ = f.batch.Close()
	f.batch = f.db.NewIndexedBatch()
}

// prefixIterOptions builds the bound pair pebble needs to scan exactly the
// keys sharing prefix.
func prefixIterOptions(prefix []byte) *pebble.IterOptions {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			upper = upper[:i+1]
			return &pebble.IterOptions{LowerBound: prefix, UpperBound: upper}
		}
	}
	return &pebble.IterOptions{LowerBound: prefix}
}
