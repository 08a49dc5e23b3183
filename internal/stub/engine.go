package stub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alterngenius/chatview/internal/ollama"
)

// Engine produces the answer for one question.
type Engine interface {
	Generate(ctx context.Context, model, prompt string) (text string, latency time.Duration, err error)
}

type EchoEngine struct {
	minLatency time.Duration
}

func NewEchoEngine(minLatency time.Duration) *EchoEngine { return &EchoEngine{minLatency: minLatency} }

func (e *EchoEngine) Generate(ctx context.Context, model, prompt string) (string, time.Duration, error) {
	start := time.Now()
	if e.minLatency > 0 {
		t := time.NewTimer(e.minLatency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", time.Since(start), ctx.Err()
		case <-t.C:
		}
	}
	text := fmt.Sprintf("(demo:%s) you said: %s", model, prompt)
	return text, time.Since(start), nil
}

const DefaultPersona = "You are an AI finance assistant."

type OllamaEngine struct {
	c       *ollama.Client
	persona string
}

func NewOllamaEngine(c *ollama.Client, persona string) *OllamaEngine {
	if persona == "" {
		persona = DefaultPersona
	}
	return &OllamaEngine{c: c, persona: persona}
}

func (e *OllamaEngine) Generate(ctx context.Context, model, prompt string) (string, time.Duration, error) {
	text, latency, err := e.c.Generate(ctx, model, e.Prompt(prompt))
	return strings.TrimSpace(text), latency, err
}

// Prompt wraps the user's question in the assistant persona.
func (e *OllamaEngine) Prompt(question string) string {
	var b strings.Builder
	b.WriteString(e.persona)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\nAnswer:")
	return b.String()
}
