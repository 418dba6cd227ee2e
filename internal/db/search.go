package db

import (
	"fmt"
	"strings"
	"unicode"
)

// Search runs a ranked full-text query over note titles and contents and
// returns up to limit hits, best rank first. The last query token matches as
// a prefix so search-as-you-type works. Soft-deleted notes are still
// indexed and do surface here: the trash hides notes from the tree, not
// from search. Only a hard delete drops a note from the index.
func (s *Store) Search(query string, limit int) ([]*SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	match := buildMatchQuery(query)
	if match == "" {
		return []*SearchResult{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query(`
		SELECT rowid, title, snippet(notes_fts, -1, '<b>', '</b>', '…', 16), rank
		FROM notes_fts
		WHERE notes_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		r := &SearchResult{}
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// buildMatchQuery turns free-form user input into an FTS5 MATCH expression.
// Tokens are stripped of FTS5 metacharacters and quoted, so user input can
// never produce a MATCH syntax error; the final token gets a * for prefix
// matching. Returns "" when nothing queryable remains.
func buildMatchQuery(query string) string {
	var tokens []string
	for _, w := range strings.Fields(query) {
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		trimmed = strings.ReplaceAll(trimmed, `"`, "")
		if trimmed == "" {
			continue
		}
		tokens = append(tokens, trimmed)
	}
	if len(tokens) == 0 {
		return ""
	}
	for i, t := range tokens {
		if i == len(tokens)-1 {
			tokens[i] = `"` + t + `"*`
		} else {
			tokens[i] = `"` + t + `"`
		}
	}
	return strings.Join(tokens, " ")
}
