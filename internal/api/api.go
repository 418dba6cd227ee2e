// Package api is the HTTP boundary of the note store. It owns id
// parsing/formatting (the wire uses stringified integers, the store uses
// int64) and the mapping from store errors to status codes; all tree
// semantics live in internal/db.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hazyhaar/ultramemo/internal/db"
)

// maxBodySize is the maximum HTTP body size for note mutation endpoints.
const maxBodySize = 1 << 20 // 1MB

type API struct {
	store       *db.Store
	searchLimit int
}

func New(store *db.Store, searchLimit int) *API {
	if searchLimit <= 0 {
		searchLimit = 20
	}
	return &API{store: store, searchLimit: searchLimit}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)

	// Tree
	mux.HandleFunc("GET /api/tree", a.handleGetTree)

	// Notes
	mux.HandleFunc("GET /api/note/{id}", a.handleGetNote)
	mux.HandleFunc("PATCH /api/note/{id}", a.handleUpdateNote)
	mux.HandleFunc("POST /api/note/{id}/rename", a.handleRenameNote)
	mux.HandleFunc("POST /api/notes", a.handleCreateChild)
	mux.HandleFunc("POST /api/note/{id}/sibling", a.handleCreateSibling)
	mux.HandleFunc("POST /api/note/{id}/move", a.handleMoveNote)
	mux.HandleFunc("POST /api/note/{id}/pin", a.handleTogglePin)
	mux.HandleFunc("POST /api/note/{id}/markdown", a.handleToggleMarkdown)

	// Search
	mux.HandleFunc("POST /api/search", a.handleSearch)

	// Open state (MRU)
	mux.HandleFunc("POST /api/note/{id}/open", a.handleMarkOpen)
	mux.HandleFunc("POST /api/note/{id}/touch", a.handleTouchOpen)
	mux.HandleFunc("GET /api/open", a.handleOpenList)

	// Trash
	mux.HandleFunc("DELETE /api/note/{id}", a.handleSoftDelete)
	mux.HandleFunc("GET /api/trash", a.handleGetTrash)
	mux.HandleFunc("POST /api/note/{id}/restore", a.handleRestore)
	mux.HandleFunc("DELETE /api/note/{id}/purge", a.handleHardDelete)
}

// --- Wire types ---

// treeNode is the wire shape of a snapshot row. Ids travel as strings.
type treeNode struct {
	ID          string  `json:"id"`
	ParentID    *string `json:"parent_id,omitempty"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	OrderKey    float64 `json:"order_key"`
	IsOpen      bool    `json:"is_open"`
	IsPinned    bool    `json:"is_pinned"`
	IsMarkdown  bool    `json:"is_markdown"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
	HasChildren bool    `json:"has_children"`
}

func toTreeNode(n *db.Note) *treeNode {
	t := &treeNode{
		ID:          formatID(n.ID),
		Title:       n.Title,
		Content:     n.Content,
		OrderKey:    n.OrderKey,
		IsOpen:      n.IsOpen,
		IsPinned:    n.IsPinned,
		IsMarkdown:  n.IsMarkdown,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
		HasChildren: n.HasChildren,
	}
	if n.ParentID != nil {
		s := formatID(*n.ParentID)
		t.ParentID = &s
	}
	return t
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// --- Handlers ---

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleGetTree(w http.ResponseWriter, r *http.Request) {
	notes, err := a.store.Snapshot()
	if err != nil {
		a.storeError(w, "reading snapshot", err)
		return
	}
	out := make([]*treeNode, 0, len(notes))
	for _, n := range notes {
		out = append(out, toTreeNode(n))
	}
	jsonResp(w, http.StatusOK, out)
}

func (a *API) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	n, err := a.store.GetNote(id)
	if err != nil {
		a.storeError(w, "reading note", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]any{
		"id":         formatID(n.ID),
		"title":      n.Title,
		"content":    n.Content,
		"updated_at": n.UpdatedAt,
	})
}

func (a *API) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	updatedAt, err := a.store.UpdateNote(id, req.Title, req.Content)
	if err != nil {
		a.storeError(w, "updating note", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]int64{"updated_at": updatedAt})
}

func (a *API) handleRenameNote(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	updatedAt, err := a.store.RenameNote(id, req.Title)
	if err != nil {
		a.storeError(w, "renaming note", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]int64{"updated_at": updatedAt})
}

func (a *API) handleCreateChild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ParentID *string `json:"parent_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	parentID, ok := a.optionalID(w, req.ParentID, "parent_id")
	if !ok {
		return
	}
	n, err := a.store.CreateChild(parentID)
	if err != nil {
		a.storeError(w, "creating child note", err)
		return
	}
	jsonResp(w, http.StatusCreated, toTreeNode(n))
}

func (a *API) handleCreateSibling(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	n, err := a.store.CreateSibling(id)
	if err != nil {
		a.storeError(w, "creating sibling note", err)
		return
	}
	jsonResp(w, http.StatusCreated, toTreeNode(n))
}

func (a *API) handleMoveNote(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		NewParentID *string `json:"new_parent_id"`
		AfterID     *string `json:"after_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	newParentID, ok := a.optionalID(w, req.NewParentID, "new_parent_id")
	if !ok {
		return
	}
	afterID, ok := a.optionalID(w, req.AfterID, "after_id")
	if !ok {
		return
	}
	if err := a.store.MoveNote(id, newParentID, afterID); err != nil {
		a.storeError(w, "moving note", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "moved"})
}

func (a *API) handleTogglePin(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	pinned, err := a.store.TogglePin(id)
	if err != nil {
		a.storeError(w, "toggling pin", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]bool{"is_pinned": pinned})
}

func (a *API) handleToggleMarkdown(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	markdown, err := a.store.ToggleMarkdown(id)
	if err != nil {
		a.storeError(w, "toggling markdown view", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]bool{"is_markdown": markdown})
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = a.searchLimit
	}
	results, err := a.store.Search(req.Query, limit)
	if err != nil {
		a.storeError(w, "searching notes", err)
		return
	}
	out := make([]map[string]any, 0, len(results))
	for _, res := range results {
		out = append(out, map[string]any{
			"id":      formatID(res.ID),
			"title":   res.Title,
			"snippet": res.Snippet,
			"rank":    res.Rank,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

func (a *API) handleMarkOpen(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		IsOpen bool `json:"is_open"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.store.MarkOpen(id, req.IsOpen); err != nil {
		a.storeError(w, "marking note open", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleTouchOpen(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	if err := a.store.TouchOpen(id); err != nil {
		a.storeError(w, "touching note", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleOpenList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	ids, err := a.store.OpenList(limit)
	if err != nil {
		a.storeError(w, "listing open notes", err)
		return
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, formatID(id))
	}
	jsonResp(w, http.StatusOK, out)
}

func (a *API) handleSoftDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	if err := a.store.SoftDelete(id); err != nil {
		a.storeError(w, "deleting note", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleGetTrash(w http.ResponseWriter, r *http.Request) {
	deleted, err := a.store.ListDeleted()
	if err != nil {
		a.storeError(w, "listing trash", err)
		return
	}
	out := make([]map[string]any, 0, len(deleted))
	for _, d := range deleted {
		out = append(out, map[string]any{
			"id":         formatID(d.ID),
			"title":      d.Title,
			"deleted_at": d.DeletedAt,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

func (a *API) handleRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	if err := a.store.Restore(id); err != nil {
		a.storeError(w, "restoring note", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "restored"})
}

func (a *API) handleHardDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	if err := a.store.HardDelete(id); err != nil {
		a.storeError(w, "purging note", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "purged"})
}

// --- Helpers ---

// pathID parses the {id} path segment. A malformed id is a validation error
// rejected before any store call.
func (a *API) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid note id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// optionalID parses an optional stringified id from a request body.
func (a *API) optionalID(w http.ResponseWriter, s *string, field string) (*int64, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		jsonError(w, "invalid "+field, http.StatusBadRequest)
		return nil, false
	}
	return &id, true
}

// decodeBody decodes a JSON request body, treating an empty body as an empty
// object so bodyless POSTs to toggle-style endpoints work.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (a *API) storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, db.ErrStructuralConflict):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		slog.Error(op, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func jsonResp(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
