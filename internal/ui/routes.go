package ui

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/alterngenius/chatview/internal/buildinfo"
	"github.com/alterngenius/chatview/internal/chat"
	"github.com/alterngenius/chatview/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const defaultSession = "default"

func RegisterRoutes(mux chi.Router, h *UI) {
	mux.Get("/", h.Home)
	mux.Post("/ui/chat", h.ChatPost)
	mux.Get("/ui/live", h.Live)
	mux.Post("/ui/cancel", h.Cancel)
	mux.Post("/ui/sidebar", h.ToggleSidebar)
	mux.Post("/ui/session/new", h.NewSession)
	mux.Get("/ui/version-pill", h.VersionPill)
}

func sessionID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultSession
	}
	return s
}

// Home shows the chat UI. Optional session via query: /?s=<id>
func (u *UI) Home(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r.URL.Query().Get("s"))
	view, err := u.sessions.Open(sid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := view.Snapshot()
	msgs := make([]MsgView, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		msgs = append(msgs, u.msgView(m))
	}

	u.render(w, "chat.html", map[string]any{
		"SessionID":   sid,
		"Messages":    msgs,
		"InFlight":    snap.InFlight,
		"SidebarOpen": snap.SidebarOpen,
		"Sessions":    u.sessions.List(),
	}, http.StatusOK)
}

// ChatPost returns two fragments: the user bubble, then the assistant bubble.
// A rejected submission (empty or already in flight) answers 204 so nothing is swapped.
func (u *UI) ChatPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	view, err := u.sessions.Open(sessionID(r.Form.Get("session_id")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Detached from the request so a reload or closed tab does not abort
	// the call; /ui/cancel and the timeout are the only ways to stop it.
	p, err := view.Start(context.WithoutCancel(r.Context()), r.Form.Get("message"))
	if errors.Is(err, chat.ErrEmptyInput) || errors.Is(err, chat.ErrInFlight) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := u.tpl.ExecuteTemplate(w, "message.html", u.msgView(p.User())); err != nil {
		u.log.Error("template execute", "err", err)
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	select {
	case <-p.Done():
	case <-r.Context().Done():
		return
	}
	if err := u.tpl.ExecuteTemplate(w, "message.html", u.msgView(p.Result().Reply)); err != nil {
		u.log.Error("template execute", "err", err)
	}
}

// Live re-renders the pending indicator and composer. The fragment polls
// itself only while a call is in flight; once the call has finished the
// page is refreshed so the new reply shows up.
func (u *UI) Live(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r.URL.Query().Get("s"))
	view, err := u.sessions.Get(sid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	snap := view.Snapshot()
	if !snap.InFlight && r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Refresh", "true")
	}
	u.render(w, "live.html", map[string]any{
		"SessionID": sid,
		"InFlight":  snap.InFlight,
	}, http.StatusOK)
}

func (u *UI) Cancel(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	view, err := u.sessions.Get(sessionID(r.Form.Get("session_id")))
	if err == nil {
		view.Cancel()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (u *UI) ToggleSidebar(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	sid := sessionID(r.Form.Get("session_id"))
	view, err := u.sessions.Open(sid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	view.ToggleSidebar()
	redirect(w, r, "/?s="+url.QueryEscape(sid))
}

// NewSession creates a fresh session ID and redirects to /?s=...
func (u *UI) NewSession(w http.ResponseWriter, r *http.Request) {
	id := session.NewID()
	if _, err := u.sessions.Open(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	redirect(w, r, "/?s="+id)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	// If this is an HTMX request, instruct client to redirect
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

type versionVM struct {
	Version string
	Commit  string
	BuiltAt string
}

func (u *UI) VersionPill(w http.ResponseWriter, r *http.Request) {
	// avoid caching so rollouts show quickly
	w.Header().Set("Cache-Control", "no-store")
	u.render(w, "version-pill.html", versionVM{
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
		BuiltAt: buildinfo.BuiltAt,
	}, http.StatusOK)
}
