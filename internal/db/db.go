package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the single-writer note store. Every public operation takes the
// mutex for its full duration, so no two operations ever interleave writes
// against the shared connection.
type Store struct {
	mu   sync.Mutex
	conn *sql.DB
	Path string
}

// Open opens (creating if needed) the SQLite store at path, applies the
// schema, and seeds the welcome note when the store is empty.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	// Session pragmas go in the DSN so the driver replays them on every
	// connection the pool opens, not just the first one. foreign_keys in
	// particular must hold on whichever connection runs a purge, or the
	// open_state cascade never fires.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=temp_store(MEMORY)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single writer, single connection. The store serializes every
	// operation behind its mutex anyway, so a larger pool buys nothing.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{conn: conn, Path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	if err := s.seed(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("seeding database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(schema)
	return err
}

// seed inserts the welcome note into an empty store so a fresh install has
// something to render.
func (s *Store) seed() error {
	var count int64
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM notes").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := nowMillis()
	res, err := tx.Exec(`
		INSERT INTO notes (parent_id, title, content, order_key, is_open, is_deleted, created_at, updated_at)
		VALUES (NULL, ?, ?, ?, 1, 0, ?, ?)`,
		welcomeTitle, welcomeContent, orderGap, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO open_state (note_id, last_opened_at) VALUES (?, ?)", id, now); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// nowMillis returns the current time as a millisecond epoch timestamp, the
// unit used for created_at/updated_at throughout the schema.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}

const welcomeTitle = "Welcome to Ultra Memo"

const welcomeContent = `# Welcome to Ultra Memo

Ultra Memo keeps your notes in an ordered tree.

## Getting started
- Create a sibling note next to the selected one
- Create a child note to nest ideas
- Drag notes to reorder or reparent them
- Deleted notes land in the trash and can be restored

Search covers every note title and body as you type.`
