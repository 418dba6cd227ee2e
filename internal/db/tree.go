package db

// Snapshot returns every non-deleted note as a flat list the client
// assembles into a tree by matching parent_id. Pinned notes sort first,
// then notes group by parent, then by order key; root-level notes (NULL
// parent) lead their group.
func (s *Store) Snapshot() ([]*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query(`
		SELECT ` + noteColumns + `,
		       EXISTS(SELECT 1 FROM notes c WHERE c.parent_id = notes.id AND c.is_deleted = 0) AS has_children
		FROM notes
		WHERE is_deleted = 0
		ORDER BY is_pinned DESC, parent_id, order_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Note
	for rows.Next() {
		n := &Note{}
		if err := rows.Scan(
			&n.ID, &n.ParentID, &n.Title, &n.Content, &n.OrderKey,
			&n.IsOpen, &n.IsPinned, &n.IsMarkdown, &n.IsDeleted, &n.CreatedAt, &n.UpdatedAt,
			&n.HasChildren); err != nil {
			return nil, err
		}
		results = append(results, n)
	}
	return results, rows.Err()
}
