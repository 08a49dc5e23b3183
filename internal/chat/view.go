package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alterngenius/chatview/pkg/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const DefaultTimeout = 60 * time.Second

var (
	ErrEmptyInput = errors.New("empty input")
	ErrInFlight   = errors.New("a request is already in flight")
)

// Sender delivers one user message to the remote endpoint and returns its reply.
type Sender interface {
	Send(ctx context.Context, text string) (string, error)
}

// Observer is notified about every submission attempt.
type Observer interface {
	ObserveRejected(reason string)
	ObserveCompleted(res Result)
}

type Options struct {
	Greeting    string
	ErrorPrefix string
	Timeout     time.Duration
	Observer    Observer
}

// Result is the outcome of one accepted submission. Err is nil when the
// endpoint answered successfully; Reply is appended to the transcript either way.
type Result struct {
	User    types.Message
	Reply   types.Message
	Err     error
	Latency time.Duration
}

func (r Result) OK() bool { return r.Err == nil }

// Snapshot is a copy of everything a renderer needs.
type Snapshot struct {
	Messages    []types.Message
	Input       string
	InFlight    bool
	SidebarOpen bool
	Updated     time.Time
}

// View owns one transcript and its transient UI state. At most one call
// to the endpoint is outstanding per View.
type View struct {
	log    *slog.Logger
	sender Sender
	opts   Options

	mu          sync.Mutex
	messages    []types.Message
	input       string
	inFlight    bool
	sidebarOpen bool
	cancel      context.CancelFunc
	updated     time.Time
}

func NewView(log *slog.Logger, sender Sender, opts Options) *View {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	v := &View{log: log, sender: sender, opts: opts}
	if opts.Greeting != "" {
		v.appendLocked(types.RoleAssistant, opts.Greeting)
	}
	return v
}

// Submit sends text and blocks until the assistant reply is in the transcript.
// Empty input or an outstanding call rejects the submission without side effects.
func (v *View) Submit(ctx context.Context, text string) (Result, error) {
	p, err := v.Start(ctx, text)
	if err != nil {
		return Result{}, err
	}
	return p.Wait(), nil
}

// Start appends the user message, marks the view in flight and runs the
// endpoint call in the background.
func (v *View) Start(ctx context.Context, text string) (*Pending, error) {
	if strings.TrimSpace(text) == "" {
		v.rejected("empty")
		return nil, ErrEmptyInput
	}

	v.mu.Lock()
	if v.inFlight {
		v.mu.Unlock()
		v.rejected("in_flight")
		return nil, ErrInFlight
	}
	user := v.appendLocked(types.RoleUser, text)
	v.input = ""
	v.inFlight = true
	callCtx, cancel := context.WithTimeout(ctx, v.opts.Timeout)
	v.cancel = cancel
	v.mu.Unlock()

	p := &Pending{user: user, done: make(chan struct{})}
	go v.run(callCtx, cancel, text, p)
	return p, nil
}

func (v *View) run(ctx context.Context, cancel context.CancelFunc, text string, p *Pending) {
	defer cancel()

	start := time.Now()
	body, err := v.sender.Send(ctx, text)
	latency := time.Since(start)

	content := body
	if err != nil {
		v.log.Error("sending message", "err", err, "duration_ms", latency.Milliseconds())
		content = v.errorContent(err)
	}

	v.mu.Lock()
	reply := v.appendLocked(types.RoleAssistant, content)
	v.inFlight = false
	v.cancel = nil
	v.mu.Unlock()

	p.res = Result{User: p.user, Reply: reply, Err: err, Latency: latency}
	if v.opts.Observer != nil {
		v.opts.Observer.ObserveCompleted(p.res)
	}
	close(p.done)
}

// Cancel aborts the outstanding call, if any. The call then resolves as a failure.
func (v *View) Cancel() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel == nil {
		return false
	}
	v.cancel()
	return true
}

func (v *View) errorContent(err error) string {
	reason := err.Error()
	if v.opts.ErrorPrefix == "" {
		return reason
	}
	return v.opts.ErrorPrefix + " " + reason
}

func (v *View) rejected(reason string) {
	v.log.Debug("submission rejected", "reason", reason)
	if v.opts.Observer != nil {
		v.opts.Observer.ObserveRejected(reason)
	}
}

// appendLocked must be called with mu held (or before the View is shared).
func (v *View) appendLocked(role types.Role, content string) types.Message {
	now := time.Now()
	m := types.Message{
		ID:        uuid.NewString(),
		Content:   content,
		Role:      role,
		Timestamp: now,
	}
	v.messages = append(v.messages, m)
	v.updated = now
	return m
}

func (v *View) Messages() []types.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]types.Message, len(v.messages))
	copy(out, v.messages)
	return out
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	msgs := make([]types.Message, len(v.messages))
	copy(msgs, v.messages)
	return Snapshot{
		Messages:    msgs,
		Input:       v.input,
		InFlight:    v.inFlight,
		SidebarOpen: v.sidebarOpen,
		Updated:     v.updated,
	}
}

func (v *View) InFlight() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inFlight
}

func (v *View) Input() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.input
}

func (v *View) SetInput(s string) {
	v.mu.Lock()
	v.input = s
	v.mu.Unlock()
}

// SubmitInput submits whatever is currently in the pending input.
func (v *View) SubmitInput(ctx context.Context) (*Pending, error) {
	return v.Start(ctx, v.Input())
}

func (v *View) ToggleSidebar() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sidebarOpen = !v.sidebarOpen
	return v.sidebarOpen
}

func (v *View) SetSidebar(open bool) {
	v.mu.Lock()
	v.sidebarOpen = open
	v.mu.Unlock()
}

// Pending tracks one accepted submission until its reply is appended.
type Pending struct {
	user types.Message
	done chan struct{}
	res  Result
}

func (p *Pending) User() types.Message { return p.user }

func (p *Pending) Done() <-chan struct{} { return p.done }

// Result is only meaningful once Done is closed.
func (p *Pending) Result() Result { return p.res }

func (p *Pending) Wait() Result {
	<-p.done
	return p.res
}
