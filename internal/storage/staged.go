package storage

import "strings"

// Staged is a write overlay on top of a base DB. Reads see buffered
// writes first, then fall through to the base; nothing reaches the base
// until Commit. An operation handler stages every mutation here, and
// either commits once at the end or drops the overlay, so a failed
// operation leaves no partial state behind.
type Staged struct {
	base    DB
	writes  map[string][]byte
	deletes map[string]bool
}

// NewStaged creates an empty overlay over base.
func NewStaged(base DB) *Staged {
	return &Staged{
		base:    base,
		writes:  make(map[string][]byte),
		deletes: make(map[string]bool),
	}
}

// Get retrieves a value, preferring staged writes over the base.
func (s *Staged) Get(key []byte) ([]byte, error) {
	k := string(key)
	if s.deletes[k] {
		return nil, ErrNotFound
	}
	if v, ok := s.writes[k]; ok {
		return v, nil
	}
	return s.base.Get(key)
}

// Put stages a write.
func (s *Staged) Put(key, value []byte) error {
	k := string(key)
	delete(s.deletes, k)
	v := make([]byte, len(value))
	copy(v, value)
	s.writes[k] = v
	return nil
}

// Delete stages a delete.
func (s *Staged) Delete(key []byte) error {
	k := string(key)
	delete(s.writes, k)
	s.deletes[k] = true
	return nil
}

// Has checks key existence through the overlay.
func (s *Staged) Has(key []byte) (bool, error) {
	k := string(key)
	if s.deletes[k] {
		return false, nil
	}
	if _, ok := s.writes[k]; ok {
		return true, nil
	}
	return s.base.Has(key)
}

// ForEach iterates over all keys with the given prefix, merging staged
// writes with the base. No ordering is guaranteed, matching the base
// implementations.
func (s *Staged) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	err := s.base.ForEach(prefix, func(key, value []byte) error {
		k := string(key)
		if s.deletes[k] {
			return nil
		}
		if _, ok := s.writes[k]; ok {
			return nil // Staged write shadows the base value.
		}
		return fn(key, value)
	})
	if err != nil {
		return err
	}
	p := string(prefix)
	for k, v := range s.writes {
		if strings.HasPrefix(k, p) {
			if err := fn([]byte(k), v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Commit flushes the overlay to the base, atomically when the base
// supports batching, then resets the overlay.
func (s *Staged) Commit() error {
	if batcher, ok := s.base.(Batcher); ok {
		batch := batcher.NewBatch()
		for k := range s.deletes {
			if err := batch.Delete([]byte(k)); err != nil {
				return err
			}
		}
		for k, v := range s.writes {
			if err := batch.Put([]byte(k), v); err != nil {
				return err
			}
		}
		if err := batch.Commit(); err != nil {
			return err
		}
	} else {
		for k := range s.deletes {
			if err := s.base.Delete([]byte(k)); err != nil {
				return err
			}
		}
		for k, v := range s.writes {
			if err := s.base.Put([]byte(k), v); err != nil {
				return err
			}
		}
	}
	s.Discard()
	return nil
}

// Discard drops all staged mutations.
func (s *Staged) Discard() {
	s.writes = make(map[string][]byte)
	s.deletes = make(map[string]bool)
}

// Dirty reports whether the overlay holds uncommitted mutations.
func (s *Staged) Dirty() bool {
	return len(s.writes) > 0 || len(s.deletes) > 0
}

// Close discards staged mutations; the base DB manages its own lifecycle.
func (s *Staged) Close() error {
	s.Discard()
	return nil
}
