// Package server exposes the HTTP API handlers.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/onnwee/chat-tender/backend/chat"
)

// ChatManager is the view of the running connections the HTTP layer
// needs: status for the ops surface and client lookup for dump control.
type ChatManager interface {
	Statuses() []chat.Status
	Client(login string) (*chat.Client, bool)
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db      *sql.DB
	ctx     context.Context
	manager ChatManager
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(ctx context.Context, db *sql.DB, manager ChatManager) *Handlers {
	return &Handlers{db: db, ctx: ctx, manager: manager}
}

// writeOK writes the standard success envelope.
func writeOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "data": data})
}

// writeErr writes the standard error envelope with the given status code.
func writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ERROR", "error": msg})
}
