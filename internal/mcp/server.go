// Package mcp registers the core ultramemo tools on an MCP server, giving
// agent clients the same command surface the HTTP API exposes. Served over
// stdio by the `ultramemo mcp` subcommand.
package mcp

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/ultramemo/internal/db"
)

// NewServer creates an MCPServer with all core ultramemo tools registered.
// version is the build version reported to clients during initialize.
func NewServer(store *db.Store, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"ultramemo",
		version,
		server.WithToolCapabilities(true),
	)

	registerGetTreeSnapshot(srv, store)
	registerGetNote(srv, store)
	registerSearchNotes(srv, store)
	registerCreateChild(srv, store)
	registerCreateSibling(srv, store)
	registerUpdateNote(srv, store)
	registerMoveNote(srv, store)
	registerSoftDeleteNote(srv, store)

	return srv
}

// --- get_tree_snapshot ---

func registerGetTreeSnapshot(srv *server.MCPServer, store *db.Store) {
	schema, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	})
	tool := mcp.NewToolWithRawSchema("get_tree_snapshot", "List every visible note as a flat tree snapshot", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		notes, err := store.Snapshot()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(notes)
	})
}

// --- get_note ---

func registerGetNote(srv *server.MCPServer, store *db.Store) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]string{"type": "string", "description": "Note ID"},
		},
		"required": []string{"id"},
	})
	tool := mcp.NewToolWithRawSchema("get_note", "Fetch a note's title and content by ID", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := idArg(req.GetArguments(), "id")
		if !ok {
			return mcp.NewToolResultError("invalid note id"), nil
		}
		note, err := store.GetNote(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(note)
	})
}

// --- search_notes ---

func registerSearchNotes(srv *server.MCPServer, store *db.Store) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]string{"type": "string", "description": "Full-text query; the last word matches as a prefix"},
			"limit": map[string]string{"type": "integer", "description": "Maximum number of results (default 20)"},
		},
		"required": []string{"query"},
	})
	tool := mcp.NewToolWithRawSchema("search_notes", "Search note titles and contents, ranked by relevance", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		limit := 0
		if f, ok := args["limit"].(float64); ok {
			limit = int(f)
		}
		results, err := store.Search(stringArg(args, "query"), limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(results)
	})
}

// --- create_child ---

func registerCreateChild(srv *server.MCPServer, store *db.Store) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"parent_id": map[string]string{"type": "string", "description": "Parent note ID; omit for a root-level note"},
		},
	})
	tool := mcp.NewToolWithRawSchema("create_child", "Create a new note under a parent (or at the root)", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		parentID, ok := optionalIDArg(req.GetArguments(), "parent_id")
		if !ok {
			return mcp.NewToolResultError("invalid parent_id"), nil
		}
		note, err := store.CreateChild(parentID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(note)
	})
}

// --- create_sibling ---

func registerCreateSibling(srv *server.MCPServer, store *db.Store) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reference_id": map[string]string{"type": "string", "description": "Note the new sibling is placed after"},
		},
		"required": []string{"reference_id"},
	})
	tool := mcp.NewToolWithRawSchema("create_sibling", "Create a new note immediately after an existing one", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := idArg(req.GetArguments(), "reference_id")
		if !ok {
			return mcp.NewToolResultError("invalid reference_id"), nil
		}
		note, err := store.CreateSibling(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(note)
	})
}

// --- update_note ---

func registerUpdateNote(srv *server.MCPServer, store *db.Store) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":      map[string]string{"type": "string", "description": "Note ID"},
			"title":   map[string]string{"type": "string", "description": "New title (optional)"},
			"content": map[string]string{"type": "string", "description": "New content (optional)"},
		},
		"required": []string{"id"},
	})
	tool := mcp.NewToolWithRawSchema("update_note", "Replace a note's title and/or content", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		id, ok := idArg(args, "id")
		if !ok {
			return mcp.NewToolResultError("invalid note id"), nil
		}
		var title, content *string
		if s, ok := args["title"].(string); ok {
			title = &s
		}
		if s, ok := args["content"].(string); ok {
			content = &s
		}
		updatedAt, err := store.UpdateNote(id, title, content)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]int64{"updated_at": updatedAt})
	})
}

// --- move_note ---

func registerMoveNote(srv *server.MCPServer, store *db.Store) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":            map[string]string{"type": "string", "description": "Note to move"},
			"new_parent_id": map[string]string{"type": "string", "description": "Target parent; omit for root level"},
			"after_id":      map[string]string{"type": "string", "description": "Sibling the note is placed after; omit to append"},
		},
		"required": []string{"id"},
	})
	tool := mcp.NewToolWithRawSchema("move_note", "Move a note to a new parent and/or sibling position", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		id, ok := idArg(args, "id")
		if !ok {
			return mcp.NewToolResultError("invalid note id"), nil
		}
		newParentID, ok := optionalIDArg(args, "new_parent_id")
		if !ok {
			return mcp.NewToolResultError("invalid new_parent_id"), nil
		}
		afterID, ok := optionalIDArg(args, "after_id")
		if !ok {
			return mcp.NewToolResultError("invalid after_id"), nil
		}
		if err := store.MoveNote(id, newParentID, afterID); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]string{"status": "moved"})
	})
}

// --- soft_delete_note ---

func registerSoftDeleteNote(srv *server.MCPServer, store *db.Store) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]string{"type": "string", "description": "Note ID"},
		},
		"required": []string{"id"},
	})
	tool := mcp.NewToolWithRawSchema("soft_delete_note", "Move a note to the trash (descendants keep their links)", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := idArg(req.GetArguments(), "id")
		if !ok {
			return mcp.NewToolResultError("invalid note id"), nil
		}
		if err := store.SoftDelete(id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]string{"status": "deleted"})
	})
}

// --- Helpers ---

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func idArg(args map[string]any, key string) (int64, bool) {
	id, err := strconv.ParseInt(stringArg(args, key), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// optionalIDArg parses an id argument that may be absent or empty. The
// second return is false only on a malformed value.
func optionalIDArg(args map[string]any, key string) (*int64, bool) {
	s := stringArg(args, key)
	if s == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
