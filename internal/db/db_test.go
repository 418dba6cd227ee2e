package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// waitMillis sleeps past the millisecond timestamp resolution so a
// subsequent mutation lands on a strictly later updated_at.
func waitMillis(t *testing.T) {
	t.Helper()
	time.Sleep(2 * time.Millisecond)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func isConflict(err error) bool {
	return errors.Is(err, ErrStructuralConflict)
}

// newTestStore opens a fresh store in a temp dir. It still contains the
// seeded welcome note.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ultra_memo.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// emptyTestStore opens a fresh store and purges the welcome note, leaving a
// completely empty tree.
func emptyTestStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	notes, err := s.Snapshot()
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	for _, n := range notes {
		if n.ParentID == nil {
			if err := s.HardDelete(n.ID); err != nil {
				t.Fatalf("purging seed note: %v", err)
			}
		}
	}
	return s
}

// mustCreateChild creates a child and fails the test on error.
func mustCreateChild(t *testing.T, s *Store, parentID *int64) *Note {
	t.Helper()
	n, err := s.CreateChild(parentID)
	if err != nil {
		t.Fatalf("creating child: %v", err)
	}
	return n
}

func TestOpen(t *testing.T) {
	t.Run("SeedsWelcomeNote", func(t *testing.T) {
		s := newTestStore(t)
		notes, err := s.Snapshot()
		if err != nil {
			t.Fatalf("reading snapshot: %v", err)
		}
		if len(notes) != 1 {
			t.Fatalf("expected 1 seeded note, got %d", len(notes))
		}
		if notes[0].Title != welcomeTitle {
			t.Errorf("seed title = %q, want %q", notes[0].Title, welcomeTitle)
		}
		if !notes[0].IsOpen {
			t.Error("seed note should be open")
		}
		if notes[0].OrderKey != orderGap {
			t.Errorf("seed order key = %v, want %v", notes[0].OrderKey, orderGap)
		}
	})

	t.Run("ReopenDoesNotReseed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ultra_memo.db")
		s, err := Open(path)
		if err != nil {
			t.Fatalf("opening store: %v", err)
		}
		if _, err := s.CreateChild(nil); err != nil {
			t.Fatalf("creating note: %v", err)
		}
		s.Close()

		s, err = Open(path)
		if err != nil {
			t.Fatalf("reopening store: %v", err)
		}
		defer s.Close()
		notes, err := s.Snapshot()
		if err != nil {
			t.Fatalf("reading snapshot: %v", err)
		}
		if len(notes) != 2 {
			t.Errorf("expected 2 notes after reopen, got %d", len(notes))
		}
	})

	t.Run("PragmasSurvivePoolRotation", func(t *testing.T) {
		s := newTestStore(t)
		n := mustCreateChild(t, s, nil)
		if err := s.TouchOpen(n.ID); err != nil {
			t.Fatalf("touching note: %v", err)
		}

		// Drop the pool's idle connection so every statement below runs
		// on a freshly opened one.
		s.conn.SetMaxIdleConns(0)

		var fk int64
		if err := s.conn.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("reading foreign_keys pragma: %v", err)
		}
		if fk != 1 {
			t.Fatalf("foreign_keys = %d on fresh connection, want 1", fk)
		}

		if err := s.HardDelete(n.ID); err != nil {
			t.Fatalf("purging note: %v", err)
		}
		var count int64
		if err := s.conn.QueryRow("SELECT COUNT(*) FROM open_state WHERE note_id = ?", n.ID).Scan(&count); err != nil {
			t.Fatalf("counting open_state rows: %v", err)
		}
		if count != 0 {
			t.Errorf("open_state rows after purge = %d, want 0", count)
		}
	})

	t.Run("CreatesDataDir", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "ultra_memo.db")
		s, err := Open(path)
		if err != nil {
			t.Fatalf("opening store in nested dir: %v", err)
		}
		s.Close()
	})
}
