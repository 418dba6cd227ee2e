package db

import "database/sql"

// Note is a single row of the notes table. HasChildren is derived and only
// populated by Snapshot.
type Note struct {
	ID          int64   `json:"id"`
	ParentID    *int64  `json:"parent_id,omitempty"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	OrderKey    float64 `json:"order_key"`
	IsOpen      bool    `json:"is_open"`
	IsPinned    bool    `json:"is_pinned"`
	IsMarkdown  bool    `json:"is_markdown"`
	IsDeleted   bool    `json:"is_deleted"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
	HasChildren bool    `json:"has_children"`
}

// DeletedNote is a trash listing entry. DeletedAt is the updated_at of the
// soft-delete, which is the last mutation a trashed note saw.
type DeletedNote struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	DeletedAt int64  `json:"deleted_at"`
}

// SearchResult is one ranked full-text hit. Snippet contains the matched
// region with <b> highlight markers. Lower Rank is more relevant (FTS5 bm25).
type SearchResult struct {
	ID      int64   `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Rank    float64 `json:"rank"`
}

// noteColumns is the standard SELECT column list for notes.
const noteColumns = `id, parent_id, title, content, order_key, is_open, is_pinned, is_markdown, is_deleted, created_at, updated_at`

// scanNote scans a note row into a Note struct. The row must match noteColumns.
func scanNote(s interface{ Scan(...any) error }) (*Note, error) {
	n := &Note{}
	var parentID sql.NullInt64
	err := s.Scan(
		&n.ID, &parentID, &n.Title, &n.Content, &n.OrderKey,
		&n.IsOpen, &n.IsPinned, &n.IsMarkdown, &n.IsDeleted, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		n.ParentID = &parentID.Int64
	}
	return n, nil
}
