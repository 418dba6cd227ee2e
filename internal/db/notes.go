package db

import (
	"database/sql"
	"errors"
	"fmt"
)

const defaultTitle = "New Note"

// CreateChild creates a new note under parentID (nil for root level),
// appended after the existing children.
func (s *Store) CreateChild(parentID *int64) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if parentID != nil {
		if err := noteExists(tx, *parentID); err != nil {
			return nil, err
		}
	}

	cond, args := parentCond(parentID)
	var maxKey sql.NullFloat64
	err = tx.QueryRow("SELECT MAX(order_key) FROM notes WHERE "+cond+" AND is_deleted = 0", args...).Scan(&maxKey)
	if err != nil {
		return nil, fmt.Errorf("reading sibling keys: %w", err)
	}

	var orderKey float64
	if maxKey.Valid {
		orderKey = orderKeyBetween(&maxKey.Float64, nil)
	} else {
		orderKey = orderKeyBetween(nil, nil)
	}

	n, err := insertNote(tx, parentID, orderKey)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return n, nil
}

// CreateSibling creates a new note sharing refID's parent, positioned
// immediately after it. When the midpoint gap to the next sibling has
// collapsed, the sibling group is resequenced first.
func (s *Store) CreateSibling(refID int64) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	parentID, refKey, err := siblingAnchor(tx, refID)
	if err != nil {
		return nil, err
	}

	nextKey, err := nextSiblingKey(tx, parentID, refKey)
	if err != nil {
		return nil, err
	}
	if nextKey != nil && !bisectable(refKey, *nextKey) {
		if err := resequence(tx, parentID); err != nil {
			return nil, fmt.Errorf("resequencing siblings: %w", err)
		}
		if parentID, refKey, err = siblingAnchor(tx, refID); err != nil {
			return nil, err
		}
		if nextKey, err = nextSiblingKey(tx, parentID, refKey); err != nil {
			return nil, err
		}
	}

	orderKey := orderKeyBetween(&refKey, nextKey)
	n, err := insertNote(tx, parentID, orderKey)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return n, nil
}

// siblingAnchor returns refID's parent and order key.
func siblingAnchor(tx *sql.Tx, refID int64) (*int64, float64, error) {
	var parentID sql.NullInt64
	var key float64
	err := tx.QueryRow("SELECT parent_id, order_key FROM notes WHERE id = ?", refID).Scan(&parentID, &key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: id %d", ErrNotFound, refID)
	}
	if err != nil {
		return nil, 0, err
	}
	if parentID.Valid {
		return &parentID.Int64, key, nil
	}
	return nil, key, nil
}

// nextSiblingKey returns the smallest non-deleted sibling key strictly after
// key, or nil when key belongs to the last sibling.
func nextSiblingKey(tx *sql.Tx, parentID *int64, key float64) (*float64, error) {
	cond, args := parentCond(parentID)
	args = append(args, key)
	var next float64
	err := tx.QueryRow(
		"SELECT order_key FROM notes WHERE "+cond+" AND is_deleted = 0 AND order_key > ? ORDER BY order_key ASC LIMIT 1",
		args...).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func insertNote(tx *sql.Tx, parentID *int64, orderKey float64) (*Note, error) {
	now := nowMillis()
	var parent any
	if parentID != nil {
		parent = *parentID
	}
	res, err := tx.Exec(`
		INSERT INTO notes (parent_id, title, content, order_key, is_open, is_deleted, created_at, updated_at)
		VALUES (?, ?, '', ?, 0, 0, ?, ?)`,
		parent, defaultTitle, orderKey, now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Note{
		ID:        id,
		ParentID:  parentID,
		Title:     defaultTitle,
		OrderKey:  orderKey,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// noteExists fails with ErrNotFound when id has no row. Soft-deleted notes
// still exist: they remain addressable by id.
func noteExists(tx *sql.Tx, id int64) error {
	var one int
	err := tx.QueryRow("SELECT 1 FROM notes WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return err
}

// GetNote returns the note with the given id, including soft-deleted ones.
func (s *Store) GetNote(id int64) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := scanNote(s.conn.QueryRow("SELECT "+noteColumns+" FROM notes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// UpdateNote replaces title and/or content (nil leaves a field alone) and
// returns the new updated_at. Calling it with neither field is a no-op that
// returns the current time.
func (s *Store) UpdateNote(id int64, title, content *string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMillis()
	if title == nil && content == nil {
		return now, nil
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := noteExists(tx, id); err != nil {
		return 0, err
	}
	if title != nil {
		if _, err := tx.Exec("UPDATE notes SET title = ?, updated_at = ? WHERE id = ?", *title, now, id); err != nil {
			return 0, fmt.Errorf("updating title: %w", err)
		}
	}
	if content != nil {
		if _, err := tx.Exec("UPDATE notes SET content = ?, updated_at = ? WHERE id = ?", *content, now, id); err != nil {
			return 0, fmt.Errorf("updating content: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return now, nil
}

// RenameNote sets a new title and returns the new updated_at.
func (s *Store) RenameNote(id int64, title string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMillis()
	res, err := s.conn.Exec("UPDATE notes SET title = ?, updated_at = ? WHERE id = ?", title, now, id)
	if err != nil {
		return 0, fmt.Errorf("renaming note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return 0, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return now, nil
}

// TogglePin flips the pin flag and returns the new state. Pinning is a view
// preference, so updated_at is left alone.
func (s *Store) TogglePin(id int64) (bool, error) {
	return s.toggleFlag(id, "is_pinned")
}

// ToggleMarkdown flips the markdown-view flag and returns the new state.
func (s *Store) ToggleMarkdown(id int64) (bool, error) {
	return s.toggleFlag(id, "is_markdown")
}

// toggleFlag flips a 0/1 column and returns the new state in one statement,
// so the read and the write cannot straddle anything.
func (s *Store) toggleFlag(id int64, column string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newState bool
	err := s.conn.QueryRow(
		"UPDATE notes SET "+column+" = 1 - "+column+" WHERE id = ? RETURNING "+column, id).Scan(&newState)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return false, fmt.Errorf("toggling %s: %w", column, err)
	}
	return newState, nil
}
