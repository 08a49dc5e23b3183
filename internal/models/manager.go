package models

import (
	"context"
	"slices"

	"github.com/pkg/errors"
)

var ErrUnknownModel = errors.New("unknown model")

// Manager answers which models the development endpoint can serve.
type Manager interface {
	List(ctx context.Context) ([]string, error)
	Healthy(ctx context.Context, model string) error
}

type StaticManager struct{ items []string }

func NewStaticManager(items ...string) *StaticManager { return &StaticManager{items: items} }

func (m *StaticManager) List(ctx context.Context) ([]string, error) {
	return slices.Clone(m.items), nil
}

func (m *StaticManager) Healthy(ctx context.Context, model string) error {
	if slices.Contains(m.items, model) {
		return nil
	}
	return ErrUnknownModel
}
