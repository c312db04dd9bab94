package testutils

import (
	"bytes"
	"slices"
	"sync"

	"github.com/pior/rsdb/wire"
)

// Store is an in-memory set of named databases. Detaching a database removes
// it from the listing but keeps its data, so selecting it again finds the
// previous content.
type Store struct {
	mu       sync.RWMutex
	dbs      map[string]*DB
	attached map[string]bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		dbs:      make(map[string]*DB),
		attached: make(map[string]bool),
	}
}

// Attach opens name, creating it if needed.
func (s *Store) Attach(name string) *DB {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, ok := s.dbs[name]
	if !ok {
		db = &DB{name: name, data: make(map[string][]byte)}
		s.dbs[name] = db
	}
	s.attached[name] = true
	return db
}

// Detach removes name from the attached set.
func (s *Store) Detach(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attached, name)
}

// List returns the attached database names in sorted order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.attached))
	for name := range s.attached {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DB is one database of a Store.
type DB struct {
	name string
	mu   sync.RWMutex
	data map[string][]byte
}

// Name returns the database name.
func (d *DB) Name() string {
	return d.name
}

// Set stores value under key.
func (d *DB) Set(key, value []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data[string(key)] = bytes.Clone(value)
}

// Get returns the value of key, nil when missing.
func (d *DB) Get(key []byte) []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data[string(key)]
}

// Delete removes key.
func (d *DB) Delete(key []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.data, string(key))
}

// Range returns up to limit pairs in key order.
//
// A nil from starts at the first key (last when reverse). Otherwise the scan
// starts at from, or at the nearest key past it in scan direction; exclusive
// skips from itself.
func (d *DB) Range(from []byte, reverse, exclusive bool, limit int) []wire.Pair {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.data))
	for k := range d.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	start, step := 0, 1
	if reverse {
		start, step = len(keys)-1, -1
	}

	if from != nil {
		idx, found := slices.BinarySearch(keys, string(from))
		switch {
		case !reverse && found && exclusive:
			start = idx + 1
		case !reverse:
			start = idx
		case found && !exclusive:
			start = idx
		default:
			start = idx - 1
		}
	}

	pairs := make([]wire.Pair, 0, min(limit, len(keys)))
	for i := start; i >= 0 && i < len(keys) && len(pairs) < limit; i += step {
		pairs = append(pairs, wire.Pair{Key: []byte(keys[i]), Value: d.data[keys[i]]})
	}
	return pairs
}
