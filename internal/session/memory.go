package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alterngenius/chatview/internal/chat"
	"github.com/alterngenius/chatview/pkg/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("session not found")

// Factory builds the View behind a freshly opened session.
type Factory func() *chat.View

type Store interface {
	Get(sessionID string) (*chat.View, error)
	Open(sessionID string) (*chat.View, error)
	List() []Summary
	Delete(sessionID string) bool
}

type MemoryStore struct {
	mu      sync.RWMutex
	newView Factory
	views   map[string]*chat.View
	created map[string]time.Time
}

func NewMemoryStore(newView Factory) *MemoryStore {
	return &MemoryStore{
		newView: newView,
		views:   make(map[string]*chat.View),
		created: make(map[string]time.Time),
	}
}

func NewID() string { return uuid.NewString() }

func (s *MemoryStore) Get(sessionID string) (*chat.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Open returns the view for sessionID, creating it on first use.
func (s *MemoryStore) Open(sessionID string) (*chat.View, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("empty session id")
	}
	if v, err := s.Get(sessionID); err == nil {
		return v, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.views[sessionID]; ok {
		return v, nil
	}
	v := s.newView()
	s.views[sessionID] = v
	s.created[sessionID] = time.Now()
	return v, nil
}

func (s *MemoryStore) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[sessionID]
	if !ok {
		return false
	}
	v.Cancel()
	delete(s.views, sessionID)
	delete(s.created, sessionID)
	return true
}

// Summary is the sidebar entry for one session.
type Summary struct {
	ID       string
	Title    string
	Updated  time.Time
	InFlight bool
}

// List returns summaries, most recently updated first.
func (s *MemoryStore) List() []Summary {
	s.mu.RLock()
	ids := make([]string, 0, len(s.views))
	views := make([]*chat.View, 0, len(s.views))
	for id, v := range s.views {
		ids = append(ids, id)
		views = append(views, v)
	}
	s.mu.RUnlock()

	out := make([]Summary, 0, len(ids))
	for i, v := range views {
		snap := v.Snapshot()
		out = append(out, Summary{ID: ids[i], Title: titleFrom(snap.Messages), Updated: snap.Updated, InFlight: snap.InFlight})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Updated.Equal(out[j].Updated) {
			return out[i].ID < out[j].ID
		}
		return out[i].Updated.After(out[j].Updated)
	})
	return out
}

func titleFrom(msgs []types.Message) string {
	for _, m := range msgs {
		if m.Role == types.RoleUser {
			return clip(words(m.Content), 24)
		}
	}
	return "New chat"
}

func words(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	parts := strings.Fields(s)
	if len(parts) <= 12 {
		return strings.Join(parts, " ")
	}
	return strings.Join(parts[:12], " ")
}

// clip shortens s to at most n runes, adding an ellipsis when it cuts.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
