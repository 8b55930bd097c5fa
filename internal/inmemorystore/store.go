package inmemorystore

import (
	"context"
	"sync"

	"github.com/specialistvlad/objgraph/internal/rulecache"
	"github.com/specialistvlad/objgraph/internal/rules"
)

// Store is an in-memory implementation of rulecache.Cache.
//
// Tables are kept in their encoded form so that callers never share
// descriptors with one another.
type Store struct {
	tables sync.Map // Key: source digest, Value: []byte (encoded rules.Table)
}

var _ rulecache.Cache = (*Store)(nil)

// New creates a new, empty in-memory rule table store.
func New() *Store {
	return &Store{}
}

// Get retrieves the table stored under key.
func (s *Store) Get(ctx context.Context, key string) (rules.Table, bool, error) {
	body, ok := s.tables.Load(key)
	if !ok {
		return nil, false, nil
	}
	table, err := rules.DecodeTable(body.([]byte))
	if err != nil {
		return nil, false, err
	}
	return table, true, nil
}

// Put records table under key.
func (s *Store) Put(ctx context.Context, key string, table rules.Table) error {
	body, err := rules.EncodeTable(table)
	if err != nil {
		return err
	}
	s.tables.Store(key, body)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
