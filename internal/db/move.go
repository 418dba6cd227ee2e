package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// MoveNote reparents and/or reorders a note. newParentID nil means root
// level. The note is placed immediately after afterID among the new
// siblings; when afterID is nil or not among them the note is appended at
// the end. The whole target sibling group is
// rewritten to evenly spaced keys, so repeated moves never erode the key
// space.
//
// Fails with ErrStructuralConflict when the target parent is the note itself
// or one of its descendants; nothing is written in that case.
func (s *Store) MoveNote(id int64, newParentID, afterID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newParentID != nil && *newParentID == id {
		return fmt.Errorf("%w: cannot move note into itself", ErrStructuralConflict)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := noteExists(tx, id); err != nil {
		return err
	}
	if newParentID != nil {
		if err := noteExists(tx, *newParentID); err != nil {
			return err
		}
		safe, err := isSafeReparent(tx, id, *newParentID)
		if err != nil {
			return fmt.Errorf("checking ancestry: %w", err)
		}
		if !safe {
			return fmt.Errorf("%w: cannot move note into its own descendant", ErrStructuralConflict)
		}
	}

	siblings, err := siblingIDs(tx, newParentID)
	if err != nil {
		return fmt.Errorf("reading target siblings: %w", err)
	}

	// The moving note may already live under the target parent; it gets
	// re-spliced at its new slot.
	ordered := make([]int64, 0, len(siblings)+1)
	for _, sid := range siblings {
		if sid != id {
			ordered = append(ordered, sid)
		}
	}
	at := len(ordered)
	if afterID != nil {
		for i, sid := range ordered {
			if sid == *afterID {
				at = i + 1
				break
			}
		}
	}
	ordered = append(ordered, 0)
	copy(ordered[at+1:], ordered[at:])
	ordered[at] = id

	if err := writeSequence(tx, ordered); err != nil {
		return fmt.Errorf("resequencing siblings: %w", err)
	}

	var parent any
	if newParentID != nil {
		parent = *newParentID
	}
	if _, err := tx.Exec("UPDATE notes SET parent_id = ?, updated_at = ? WHERE id = ?", parent, nowMillis(), id); err != nil {
		return fmt.Errorf("updating parent: %w", err)
	}

	return tx.Commit()
}

// isSafeReparent walks candidate's ancestor chain through stored parent_id
// links, deleted notes included, and reports false when it reaches node. The
// walk runs inside the mutation transaction so validation and commit see the
// same tree. A parent id that does not resolve terminates the walk as if a
// root was reached; a revisited id means the chain is already corrupt and the
// move is rejected rather than looping.
func isSafeReparent(tx *sql.Tx, nodeID, candidate int64) (bool, error) {
	seen := make(map[int64]bool)
	current := candidate
	for {
		if current == nodeID {
			return false, nil
		}
		if seen[current] {
			return false, nil
		}
		seen[current] = true

		var parent sql.NullInt64
		err := tx.QueryRow("SELECT parent_id FROM notes WHERE id = ?", current).Scan(&parent)
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if !parent.Valid {
			return true, nil
		}
		current = parent.Int64
	}
}
