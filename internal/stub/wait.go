package stub

import (
	"context"
	"log/slog"
	"time"

	"github.com/alterngenius/chatview/internal/ollama"
	"github.com/pkg/errors"
)

// WaitForOllama polls until the API answers and every listed model is present.
func WaitForOllama(ctx context.Context, oc *ollama.Client, models []string, interval time.Duration, log *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() error {
		if err := oc.Ping(ctx); err != nil {
			return errors.Wrap(err, "ollama not reachable")
		}
		if len(models) == 0 {
			return nil // only API readiness required
		}

		tags, err := oc.Tags(ctx)
		if err != nil {
			return errors.Wrap(err, "list tags")
		}
		have := map[string]struct{}{}
		for _, t := range tags {
			have[t.Name] = struct{}{}
		}
		for _, m := range models {
			if _, ok := have[m]; !ok {
				return errors.Errorf("model not present yet: %s", m)
			}
		}
		return nil
	}

	// do an immediate attempt first
	err := check()
	if err == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "waiting for ollama (last: %v)", err)
		case <-ticker.C:
			if err = check(); err == nil {
				return nil
			}
			log.Debug("waiting for ollama", "err", err)
		}
	}
}
