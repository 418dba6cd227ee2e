package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/ultramemo/internal/db"
)

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "ultra_memo.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestServer(t *testing.T) {
	srv := NewServer(newTestStore(t), "1.2.3")

	t.Run("InitializeReportsBuildVersion", func(t *testing.T) {
		var out struct {
			Result struct {
				ServerInfo struct {
					Name    string `json:"name"`
					Version string `json:"version"`
				} `json:"serverInfo"`
			} `json:"result"`
		}
		resp := srv.HandleMessage(context.Background(), json.RawMessage(
			`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test-client","version":"0"}}}`))
		data, err := json.Marshal(resp)
		if err != nil {
			t.Fatalf("marshaling response: %v", err)
		}
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if out.Result.ServerInfo.Name != "ultramemo" {
			t.Errorf("server name = %q, want ultramemo", out.Result.ServerInfo.Name)
		}
		if out.Result.ServerInfo.Version != "1.2.3" {
			t.Errorf("server version = %q, want the version passed to NewServer", out.Result.ServerInfo.Version)
		}
	})

	t.Run("ListsCoreTools", func(t *testing.T) {
		var out struct {
			Result struct {
				Tools []struct {
					Name string `json:"name"`
				} `json:"tools"`
			} `json:"result"`
		}
		resp := srv.HandleMessage(context.Background(), json.RawMessage(
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
		data, err := json.Marshal(resp)
		if err != nil {
			t.Fatalf("marshaling response: %v", err)
		}
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}

		got := make(map[string]bool, len(out.Result.Tools))
		for _, tool := range out.Result.Tools {
			got[tool.Name] = true
		}
		for _, name := range []string{
			"get_tree_snapshot", "get_note", "search_notes",
			"create_child", "create_sibling", "update_note",
			"move_note", "soft_delete_note",
		} {
			if !got[name] {
				t.Errorf("tool %s not registered", name)
			}
		}
	})
}
