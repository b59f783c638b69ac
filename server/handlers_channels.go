package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/onnwee/chat-tender/backend/store"
)

// loginPattern matches valid channel logins: lowercase alphanumerics
// and underscore, 1-25 chars.
var loginPattern = regexp.MustCompile(`^[a-z0-9_]{1,25}$`)

// HandleChannels serves the registry collection: GET lists, POST
// creates. A POST for a login already registered is rejected.
func (h *Handlers) HandleChannels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		channels, err := store.ListChannels(r.Context(), h.db)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		if channels == nil {
			channels = []store.Channel{}
		}
		writeOK(w, channels)
	case http.MethodPost:
		var c store.Channel
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		c.Login = strings.ToLower(strings.TrimSpace(c.Login))
		if !loginPattern.MatchString(c.Login) {
			writeErr(w, http.StatusBadRequest, "invalid login")
			return
		}
		if _, err := store.GetChannel(r.Context(), h.db, c.Login); err == nil {
			writeErr(w, http.StatusConflict, "channel already exists")
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := store.UpsertChannel(r.Context(), h.db, c); err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeOK(w, c)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// HandleChannelsDispatcher routes /channels/{login} and
// /channels/{login}/dump/{start|stop}.
func (h *Handlers) HandleChannelsDispatcher(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/channels/")
	parts := strings.Split(rest, "/")
	login := strings.ToLower(parts[0])
	if !loginPattern.MatchString(login) {
		writeErr(w, http.StatusBadRequest, "invalid login")
		return
	}

	if len(parts) == 1 {
		h.handleChannel(w, r, login)
		return
	}
	if len(parts) == 3 && parts[1] == "dump" {
		h.handleDump(w, r, login, parts[2])
		return
	}
	writeErr(w, http.StatusNotFound, "not found")
}

func (h *Handlers) handleChannel(w http.ResponseWriter, r *http.Request, login string) {
	switch r.Method {
	case http.MethodGet:
		c, err := store.GetChannel(r.Context(), h.db, login)
		if errors.Is(err, sql.ErrNoRows) {
			writeErr(w, http.StatusNotFound, "channel not found")
			return
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeOK(w, c)
	case http.MethodPut:
		var c store.Channel
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		if _, err := store.GetChannel(r.Context(), h.db, login); errors.Is(err, sql.ErrNoRows) {
			writeErr(w, http.StatusNotFound, "channel not found")
			return
		} else if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		// The path segment wins over any login in the body.
		c.Login = login
		if err := store.UpsertChannel(r.Context(), h.db, c); err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeOK(w, c)
	case http.MethodDelete:
		if _, err := store.GetChannel(r.Context(), h.db, login); errors.Is(err, sql.ErrNoRows) {
			writeErr(w, http.StatusNotFound, "channel not found")
			return
		} else if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := store.DeleteChannel(r.Context(), h.db, login); err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeOK(w, map[string]string{"deleted": login})
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handlers) handleDump(w http.ResponseWriter, r *http.Request, login, action string) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	client, ok := h.manager.Client(login)
	if !ok {
		writeErr(w, http.StatusNotFound, "no connection for channel")
		return
	}
	switch action {
	case "start":
		path := filepath.Join(dataDir(), login+"-"+time.Now().UTC().Format("20060102-150405")+".json")
		if err := client.StartDump(path); err != nil {
			writeErr(w, http.StatusConflict, err.Error())
			return
		}
		writeOK(w, map[string]string{"path": path})
	case "stop":
		if err := client.StopDump(); err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeOK(w, map[string]string{"stopped": login})
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}
