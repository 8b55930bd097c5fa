// Package rulecache persists merged rule tables keyed by the digest of the
// rule sources they were loaded from.
//
// Two implementations of Cache are provided: Store, backed by a SQLite file,
// and the in-memory store in internal/inmemorystore.
package rulecache

import (
	"context"

	"github.com/specialistvlad/objgraph/internal/rules"
)

// Cache stores rule tables by key.
type Cache interface {
	// Get returns the table stored under key. The boolean is false when
	// nothing is stored.
	Get(ctx context.Context, key string) (rules.Table, bool, error)
	// Put stores table under key, replacing any previous entry.
	Put(ctx context.Context, key string, table rules.Table) error
	Close() error
}
