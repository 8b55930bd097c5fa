package rulecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/objgraph/internal/ctxlog"
	"github.com/specialistvlad/objgraph/internal/rules"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS rule_tables (
	key TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// Store is a SQLite-backed Cache.
type Store struct {
	db   *sql.DB
	path string
}

var _ Cache = (*Store)(nil)

// Open opens or creates the cache database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule cache: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize rule cache schema: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("Rule cache opened.", "path", path)
	return &Store{db: db, path: path}, nil
}

// Get implements Cache.
func (s *Store) Get(ctx context.Context, key string) (rules.Table, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM rule_tables WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached rule table %s: %w", key, err)
	}

	table, err := rules.DecodeTable([]byte(body))
	if err != nil {
		return nil, false, fmt.Errorf("cached rule table %s: %w", key, err)
	}
	return table, true, nil
}

// Put implements Cache.
func (s *Store) Put(ctx context.Context, key string, table rules.Table) error {
	body, err := rules.EncodeTable(table)
	if err != nil {
		return fmt.Errorf("failed to encode rule table: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rule_tables (key, body) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, created_at = CURRENT_TIMESTAMP`,
		key, string(body))
	if err != nil {
		return fmt.Errorf("failed to store rule table %s: %w", key, err)
	}
	ctxlog.FromContext(ctx).Debug("Rule table cached.", "key", key, "rules", len(table))
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
