package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/alterngenius/chatview/internal/chat"
	"github.com/alterngenius/chatview/pkg/types"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const sidebarWidth = 28

var (
	brandStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141"))
	onlineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	timeStyle      = lipgloss.NewStyle().Faint(true)
	footerStyle    = lipgloss.NewStyle().Faint(true)
	sidebarStyle   = lipgloss.NewStyle().
			Width(sidebarWidth).
			Padding(0, 1).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("238"))
)

type replyMsg chat.Result

// Model renders one chat.View in the terminal. All transcript state lives
// in the view; the model only keeps widgets.
type Model struct {
	ctx      context.Context
	view     *chat.View
	endpoint string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer

	width, height int
	ready         bool
}

func NewModel(ctx context.Context, view *chat.View, endpoint string) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask AlternGenius anything..."
	ti.Prompt = "› "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = assistantStyle

	return Model{
		ctx:      ctx,
		view:     view,
		endpoint: endpoint,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
	}
}

func waitForReply(p *chat.Pending) tea.Cmd {
	return func() tea.Msg {
		return replyMsg(p.Wait())
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.view.Cancel()
			return m, tea.Quit
		case "esc":
			m.view.Cancel()
			return m, nil
		case "ctrl+b":
			m.view.ToggleSidebar()
			m.layout()
			return m, nil
		case "enter":
			m.view.SetInput(m.input.Value())
			p, err := m.view.SubmitInput(m.ctx)
			if err != nil {
				return m, nil
			}
			m.input.Reset()
			m.refresh()
			return m, tea.Batch(waitForReply(p), m.spinner.Tick)
		}

	case replyMsg:
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.view.InFlight() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.view.SetInput(m.input.Value())
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) layout() {
	w := m.width
	if m.view.Snapshot().SidebarOpen {
		w -= sidebarWidth + 1
	}
	if w < 20 {
		w = 20
	}
	// header (1) + blank (1) + input (1) + footer (1)
	h := m.height - 4
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - 4
	if r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(w-4)); err == nil {
		m.markdown = r
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(RenderTranscript(m.view.Snapshot().Messages, m.markdown))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}
	snap := m.view.Snapshot()

	header := brandStyle.Render("✨ AlternGenius") + "  " + onlineStyle.Render("● Online")

	var bottom string
	if snap.InFlight {
		bottom = m.spinner.View() + " AlternGenius is thinking… (esc to stop)"
	} else {
		bottom = m.input.View()
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		bottom,
		footerStyle.Render("AlternGenius can make mistakes. Consider checking important information."),
	)
	if !snap.SidebarOpen {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar(snap), main)
}

func (m Model) sidebar(snap chat.Snapshot) string {
	var b strings.Builder
	b.WriteString(brandStyle.Render("AlternGenius"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "endpoint\n%s\n\n", m.endpoint)
	fmt.Fprintf(&b, "messages: %d\n\n", len(snap.Messages))
	b.WriteString("enter   send\nesc     stop request\nctrl+b  sidebar\nctrl+c  quit")
	return sidebarStyle.Height(max(m.height, 1)).Render(b.String())
}

// RenderTranscript lays the messages out in order. Assistant content is
// rendered as markdown when a renderer is available.
func RenderTranscript(msgs []types.Message, md *glamour.TermRenderer) string {
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		stamp := timeStyle.Render(msg.Timestamp.Format("15:04"))
		content := msg.Content
		if msg.IsUser() {
			b.WriteString(userStyle.Render("U") + " " + stamp + "\n")
		} else {
			b.WriteString(assistantStyle.Render("AG") + " " + stamp + "\n")
			if md != nil {
				if out, err := md.Render(content); err == nil {
					content = strings.Trim(out, "\n")
				}
			}
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String()
}
