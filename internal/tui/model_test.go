package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alterngenius/chatview/internal/chat"
	"github.com/alterngenius/chatview/internal/logging"
	"github.com/alterngenius/chatview/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/stretchr/testify/require"
)

type senderFunc func(ctx context.Context, text string) (string, error)

func (f senderFunc) Send(ctx context.Context, text string) (string, error) { return f(ctx, text) }

func newModel(t *testing.T, s chat.Sender) (Model, *chat.View) {
	t.Helper()
	v := chat.NewView(logging.Discard(), s, chat.Options{Greeting: "Merhaba!"})
	m := NewModel(context.Background(), v, "http://127.0.0.1:8000/chat")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), v
}

// findReply runs cmd (and any batched commands) until a replyMsg shows up.
func findReply(t *testing.T, cmd tea.Cmd) replyMsg {
	t.Helper()
	out := make(chan tea.Msg, 8)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, inner := range batch {
				go run(inner)
			}
			return
		}
		out <- msg
	}
	go run(cmd)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-out:
			if r, ok := msg.(replyMsg); ok {
				return r
			}
		case <-timeout:
			t.Fatal("no reply message")
		}
	}
}

func TestEnterSubmitsAndReplyIsRendered(t *testing.T) {
	m, v := newModel(t, senderFunc(func(_ context.Context, text string) (string, error) {
		return "answer to " + text, nil
	}))

	m.input.SetValue("hello")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	require.Empty(t, m.input.Value())
	require.Empty(t, v.Input())

	reply := findReply(t, cmd)
	require.True(t, chat.Result(reply).OK())

	next, _ = m.Update(reply)
	m = next.(Model)
	require.Len(t, v.Messages(), 3)
	require.Contains(t, m.View(), "Online")
}

func TestEnterWithBlankInputDoesNothing(t *testing.T) {
	m, v := newModel(t, senderFunc(func(context.Context, string) (string, error) { return "x", nil }))
	m.input.SetValue("   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.Len(t, v.Messages(), 1)
}

func TestInFlightShowsSpinnerAndEscCancels(t *testing.T) {
	m, v := newModel(t, senderFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}))

	m.input.SetValue("slow")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.True(t, v.InFlight())
	require.Contains(t, m.View(), "thinking")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	reply := findReply(t, cmd)
	require.Error(t, reply.Err)
	require.False(t, v.InFlight())
}

func TestCtrlBTogglesSidebar(t *testing.T) {
	m, v := newModel(t, senderFunc(func(context.Context, string) (string, error) { return "x", nil }))
	require.NotContains(t, m.View(), "ctrl+c  quit")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlB})
	m = next.(Model)
	require.True(t, v.Snapshot().SidebarOpen)
	require.Contains(t, m.View(), "ctrl+c  quit")
}

func TestRenderTranscriptKeepsOrder(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 5, 0, 0, time.UTC)
	msgs := []types.Message{
		{ID: "1", Role: types.RoleAssistant, Content: "first", Timestamp: now},
		{ID: "2", Role: types.RoleUser, Content: "second", Timestamp: now},
		{ID: "3", Role: types.RoleAssistant, Content: "third", Timestamp: now},
	}
	out := RenderTranscript(msgs, nil)
	i1, i2, i3 := strings.Index(out, "first"), strings.Index(out, "second"), strings.Index(out, "third")
	require.True(t, i1 < i2 && i2 < i3)
	require.Contains(t, out, "09:05")
}

func TestRenderTranscriptMarkdown(t *testing.T) {
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("notty"), glamour.WithWordWrap(60))
	require.NoError(t, err)
	out := RenderTranscript([]types.Message{{Role: types.RoleAssistant, Content: "# Title\n\nhello"}}, r)
	require.Contains(t, out, "Title")
	require.Contains(t, out, "hello")
}
