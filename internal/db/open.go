package db

import "fmt"

// MarkOpen records whether a note is open in the client. Opening upserts the
// MRU row; closing removes it. is_open is a view flag, so updated_at stays
// untouched.
func (s *Store) MarkOpen(id int64, isOpen bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec("UPDATE notes SET is_open = ? WHERE id = ?", isOpen, id)
	if err != nil {
		return fmt.Errorf("marking note open: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	if isOpen {
		_, err = tx.Exec("INSERT OR REPLACE INTO open_state (note_id, last_opened_at) VALUES (?, ?)", id, nowMillis())
	} else {
		_, err = tx.Exec("DELETE FROM open_state WHERE note_id = ?", id)
	}
	if err != nil {
		return fmt.Errorf("updating open state: %w", err)
	}

	return tx.Commit()
}

// TouchOpen bumps a note to the front of the MRU list, forcing it open.
func (s *Store) TouchOpen(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec("UPDATE notes SET is_open = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking note open: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO open_state (note_id, last_opened_at) VALUES (?, ?)", id, nowMillis()); err != nil {
		return fmt.Errorf("updating open state: %w", err)
	}

	return tx.Commit()
}

// OpenList returns note ids most recently opened first.
func (s *Store) OpenList(limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query("SELECT note_id FROM open_state ORDER BY last_opened_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
