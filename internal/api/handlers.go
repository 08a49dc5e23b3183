package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alterngenius/chatview/internal/buildinfo"
	"github.com/alterngenius/chatview/internal/chat"
	"github.com/alterngenius/chatview/internal/session"
	"github.com/alterngenius/chatview/pkg/types"
	"github.com/alterngenius/chatview/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

type Handlers struct {
	log      *slog.Logger
	sessions session.Store
	endpoint string
}

func NewHandlers(log *slog.Logger, store session.Store, endpointURL string) *Handlers {
	return &Handlers{
		log:      log,
		sessions: store,
		endpoint: endpointURL,
	}
}

// Health is a basic liveness endpoint.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]any{
		"status":    true,
		"message":   "alterngenius-chat",
		"endpoint":  h.endpoint,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]any{
		"version":  buildinfo.Version,
		"commit":   buildinfo.Commit,
		"built_at": buildinfo.BuiltAt,
	})
}

type sessionSummary struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Updated  time.Time `json:"updated"`
	InFlight bool      `json:"in_flight"`
}

// ListSessions GET /api/sessions
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	list := h.sessions.List()
	out := make([]sessionSummary, 0, len(list))
	for _, s := range list {
		out = append(out, sessionSummary{ID: s.ID, Title: s.Title, Updated: s.Updated, InFlight: s.InFlight})
	}
	utils.JSON(w, http.StatusOK, map[string]any{"sessions": out})
}

type transcript struct {
	SessionID   string          `json:"session_id"`
	Messages    []types.Message `json:"messages"`
	InFlight    bool            `json:"in_flight"`
	SidebarOpen bool            `json:"sidebar_open"`
}

// GetMessages GET /api/sessions/{id}/messages
func (h *Handlers) GetMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := h.sessions.Get(id)
	if errors.Is(err, session.ErrNotFound) {
		utils.Error(w, http.StatusNotFound, "unknown session")
		return
	}
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	snap := view.Snapshot()
	utils.JSON(w, http.StatusOK, transcript{
		SessionID:   id,
		Messages:    snap.Messages,
		InFlight:    snap.InFlight,
		SidebarOpen: snap.SidebarOpen,
	})
}

// PostMessage POST /api/sessions/{id}/messages {message}. The session is
// created on first use.
func (h *Handlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	view, err := h.sessions.Open(chi.URLParam(r, "id"))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	// The call belongs to the session, not to this request: a client that
	// goes away leaves it running. Only Cancel or the timeout stop it.
	p, err := view.Start(context.WithoutCancel(r.Context()), req.Message)
	if errors.Is(err, chat.ErrEmptyInput) || errors.Is(err, chat.ErrInFlight) {
		utils.JSON(w, http.StatusConflict, map[string]any{"accepted": false, "reason": err.Error()})
		return
	}
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	select {
	case <-p.Done():
	case <-r.Context().Done():
		h.log.Debug("client left before reply", "session", chi.URLParam(r, "id"))
		return
	}
	res := p.Result()

	utils.JSON(w, http.StatusOK, map[string]any{
		"accepted":   true,
		"ok":         res.OK(),
		"user":       res.User,
		"reply":      res.Reply,
		"latency_ms": res.Latency.Milliseconds(),
	})
}

// Cancel POST /api/sessions/{id}/cancel
func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		utils.Error(w, http.StatusNotFound, "unknown session")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"cancelled": view.Cancel()})
}

// DeleteSession DELETE /api/sessions/{id}
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(chi.URLParam(r, "id")) {
		utils.Error(w, http.StatusNotFound, "unknown session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
