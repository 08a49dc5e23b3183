package models

import (
	"context"
	"slices"
	"strings"

	"github.com/alterngenius/chatview/internal/ollama"
	"github.com/pkg/errors"
)

// OllamaManager reports the models pulled into a local Ollama daemon, which is
// what the development endpoint can answer with.
type OllamaManager struct{ c *ollama.Client }

func NewOllamaManager(c *ollama.Client) *OllamaManager { return &OllamaManager{c: c} }

// List returns the pulled model tags, sorted and without duplicates.
func (m *OllamaManager) List(ctx context.Context) ([]string, error) {
	tags, err := m.c.Tags(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list ollama models")
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Healthy succeeds once model has been pulled. A bare name such as "gemma3"
// matches the "gemma3:latest" tag, as it does for ollama itself.
func (m *OllamaManager) Healthy(ctx context.Context, model string) error {
	names, err := m.List(ctx)
	if err != nil {
		return err
	}
	want := canonicalTag(model)
	if slices.ContainsFunc(names, func(n string) bool { return canonicalTag(n) == want }) {
		return nil
	}
	return errors.Wrapf(ErrUnknownModel, "%s not pulled (have: %s)", model, strings.Join(names, ", "))
}

func canonicalTag(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, ":") {
		return name
	}
	return name + ":latest"
}
