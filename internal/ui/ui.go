package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alterngenius/chatview/internal/session"
	"github.com/alterngenius/chatview/pkg/types"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates
var templatesFS embed.FS

type UI struct {
	log      *slog.Logger
	tpl      *template.Template
	sessions session.Store
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	now      func() time.Time
}

func New(log *slog.Logger, s session.Store) (*UI, error) {
	u := &UI{log: log, sessions: s, now: time.Now}

	t, err := template.New("root").
		Funcs(template.FuncMap{"ago": u.ago}).
		ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	u.tpl = t

	u.md = goldmark.New(
		goldmark.WithRendererOptions(gmhtml.WithUnsafe(), gmhtml.WithHardWraps()),
		goldmark.WithExtensions(
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithLineNumbers(false),
				),
			),
		),
	)

	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("code", "pre", "span")
	p.AllowAttrs("style").OnElements("span", "pre") // inline styles from the highlighter
	u.policy = p

	return u, nil
}

type MsgView struct {
	ID        string
	Role      string
	Avatar    string
	HTML      template.HTML
	At        string
	Timestamp string
}

func (u *UI) msgView(m types.Message) MsgView {
	avatar := "AG"
	if m.IsUser() {
		avatar = "U"
	}
	return MsgView{
		ID:        m.ID,
		Role:      string(m.Role),
		Avatar:    avatar,
		HTML:      u.mdHTML(m.Content),
		At:        m.Timestamp.Format("15:04"),
		Timestamp: m.Timestamp.Format(time.RFC3339),
	}
}

// mdHTML renders message markdown. Replies come from a remote service, so
// the HTML is always sanitised before it reaches the page.
func (u *UI) mdHTML(src string) template.HTML {
	var buf bytes.Buffer
	if err := u.md.Convert([]byte(src), &buf); err != nil {
		u.log.Warn("markdown convert", "err", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(u.policy.SanitizeBytes(buf.Bytes()))
}

func (u *UI) ago(t time.Time) string {
	d := u.now().Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "Yesterday"
	default:
		return t.Format("Jan 2")
	}
}

func (u *UI) render(w http.ResponseWriter, name string, data any, status int) {
	var buf bytes.Buffer
	if err := u.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		u.errTpl(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (u *UI) errTpl(w http.ResponseWriter, err error) {
	u.log.Error("template execute", "err", err)
	http.Error(w, "template error", http.StatusInternalServerError)
}
