package db

import (
	"strings"
	"testing"
)

func TestSearch(t *testing.T) {
	t.Run("WelcomeScenario", func(t *testing.T) {
		// The seeded store contains the welcome note; searching for
		// "welcome" must return it with a highlighted snippet, and the
		// ranking must be stable across identical queries.
		s := newTestStore(t)

		hits, err := s.Search("welcome", 10)
		if err != nil {
			t.Fatalf("searching: %v", err)
		}
		if len(hits) == 0 {
			t.Fatal("expected a hit for the welcome note")
		}
		if hits[0].Snippet == "" {
			t.Error("snippet should not be empty")
		}
		if !strings.Contains(hits[0].Snippet, "<b>") {
			t.Errorf("snippet %q lacks highlight markers", hits[0].Snippet)
		}

		again, err := s.Search("welcome", 10)
		if err != nil {
			t.Fatalf("repeat search: %v", err)
		}
		if len(again) != len(hits) {
			t.Fatalf("repeat search returned %d hits, first returned %d", len(again), len(hits))
		}
		for i := range hits {
			if again[i].ID != hits[i].ID || again[i].Rank != hits[i].Rank {
				t.Errorf("hit %d changed between identical queries", i)
			}
		}
	})

	t.Run("PrefixMatch", func(t *testing.T) {
		s := emptyTestStore(t)
		n := mustCreateChild(t, s, nil)
		if _, err := s.UpdateNote(n.ID, strptr("Quarterly planning"), strptr("budget review for the next quarter")); err != nil {
			t.Fatalf("updating: %v", err)
		}

		hits, err := s.Search("quart", 10)
		if err != nil {
			t.Fatalf("searching: %v", err)
		}
		if len(hits) != 1 || hits[0].ID != n.ID {
			t.Fatalf("prefix search failed: %v", hits)
		}
	})

	t.Run("ContentEditsReflected", func(t *testing.T) {
		s := emptyTestStore(t)
		n := mustCreateChild(t, s, nil)
		if _, err := s.UpdateNote(n.ID, nil, strptr("the original wording")); err != nil {
			t.Fatalf("updating: %v", err)
		}
		if _, err := s.UpdateNote(n.ID, nil, strptr("completely different text")); err != nil {
			t.Fatalf("updating again: %v", err)
		}

		hits, _ := s.Search("wording", 10)
		if len(hits) != 0 {
			t.Error("stale content still indexed")
		}
		hits, _ = s.Search("different", 10)
		if len(hits) != 1 {
			t.Error("new content not indexed")
		}
	})

	t.Run("SoftDeletedStillSearchable", func(t *testing.T) {
		// The trash hides notes from the tree, not from search; only a
		// hard delete drops index entries.
		s := emptyTestStore(t)
		n := mustCreateChild(t, s, nil)
		if _, err := s.RenameNote(n.ID, "searchable zombie"); err != nil {
			t.Fatalf("renaming: %v", err)
		}
		if err := s.SoftDelete(n.ID); err != nil {
			t.Fatalf("soft-deleting: %v", err)
		}

		hits, err := s.Search("zombie", 10)
		if err != nil {
			t.Fatalf("searching: %v", err)
		}
		if len(hits) != 1 {
			t.Errorf("expected trashed note in search results, got %d hits", len(hits))
		}
	})

	t.Run("LimitBoundsResults", func(t *testing.T) {
		s := emptyTestStore(t)
		for i := 0; i < 5; i++ {
			n := mustCreateChild(t, s, nil)
			if _, err := s.RenameNote(n.ID, "meeting notes"); err != nil {
				t.Fatalf("renaming: %v", err)
			}
		}
		hits, err := s.Search("meeting", 3)
		if err != nil {
			t.Fatalf("searching: %v", err)
		}
		if len(hits) != 3 {
			t.Errorf("expected 3 hits with limit 3, got %d", len(hits))
		}
	})

	t.Run("HostileInputIsSafe", func(t *testing.T) {
		s := newTestStore(t)
		for _, q := range []string{`"unbalanced`, `a AND (b OR`, `*`, `co* lon:`, `   `, ``} {
			if _, err := s.Search(q, 10); err != nil {
				t.Errorf("query %q returned error: %v", q, err)
			}
		}
	})
}

func TestBuildMatchQuery(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"welcome", `"welcome"*`},
		{"project plan", `"project" "plan"*`},
		{`  spaced   out  `, `"spaced" "out"*`},
		{`(inject) OR "quote`, `"inject" "OR" "quote"*`},
		{"", ""},
		{"()*:", ""},
	}
	for _, c := range cases {
		if got := buildMatchQuery(c.in); got != c.want {
			t.Errorf("buildMatchQuery(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func strptr(s string) *string { return &s }
