// Package suggest holds the pluggable suggestion sources and helpers that feed
// the search box: remote completion services, the local history and
// dictionary, and instant-answer helpers.
package suggest

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

// Source produces ranked completions for a term.
type Source interface {
	Name() string
	Fetch(ctx context.Context, term string, limit int) ([]Item, error)
}

// Helper produces an instant answer for a term it accepts.
type Helper interface {
	Name() string
	Accepts(term string) bool
	Fetch(ctx context.Context, term string) (*HelperPayload, error)
}

// Collect runs src and turns failures into an empty result. Every returned
// item carries term and the source name, and invalid items are dropped.
func Collect(ctx context.Context, src Source, term string, limit int, logger *log.Logger) []Item {
	if limit <= 0 {
		return nil
	}
	items, err := src.Fetch(ctx, term, limit)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("suggestion fetch failed", "source", src.Name(), "term", term, "err", err)
		}
		return nil
	}
	out := make([]Item, 0, min(len(items), limit))
	for _, it := range items {
		if !it.Valid() {
			continue
		}
		it.Term = term
		if it.Source == "" {
			it.Source = src.Name()
		}
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Answer runs h and turns failures or empty payloads into nil.
func Answer(ctx context.Context, h Helper, term string, logger *log.Logger) *HelperPayload {
	p, err := h.Fetch(ctx, term)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("helper fetch failed", "helper", h.Name(), "term", term, "err", err)
		}
		return nil
	}
	if p.Empty() {
		return nil
	}
	p.Term = term
	if p.Source == "" {
		p.Source = h.Name()
	}
	return p
}
