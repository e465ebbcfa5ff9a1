package suggest

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/bastiangx/quicksearch/internal/utils"
	"github.com/bastiangx/quicksearch/pkg/history"
)

// HistorySource serves best history matches as suggestions.
type HistorySource struct {
	store *history.Store

	mu   sync.RWMutex
	opts history.MatchOptions
}

// NewHistorySource wraps store. Kinds default to both history kinds.
func NewHistorySource(store *history.Store, opts history.MatchOptions) *HistorySource {
	h := &HistorySource{store: store}
	h.SetOptions(opts)
	return h
}

func (h *HistorySource) Name() string { return "history" }

// SetOptions replaces the match options used by later fetches.
func (h *HistorySource) SetOptions(opts history.MatchOptions) {
	if len(opts.Kinds) == 0 {
		opts.Kinds = []history.Kind{history.Query, history.Navigation}
	}
	h.mu.Lock()
	h.opts = opts
	h.mu.Unlock()
}

func (h *HistorySource) Fetch(_ context.Context, term string, limit int) ([]Item, error) {
	h.mu.RLock()
	opts := h.opts
	h.mu.RUnlock()
	if limit > 0 && (opts.Limit <= 0 || limit < opts.Limit) {
		opts.Limit = limit
	}
	return BestHistoryItems(h.store, term, opts), nil
}

// BestHistoryItems returns at most opts.Limit distinct history items for term.
// Repeats are dropped before the cut, so an often repeated search takes one
// slot instead of all of them.
func BestHistoryItems(store *history.Store, term string, opts history.MatchOptions) []Item {
	if opts.Limit <= 0 {
		return nil
	}
	want := opts.Limit
	opts.Limit = max(store.Len(), want)
	return DedupeItems(HistoryItems(store.BestMatches(term, opts), term), want)
}

// DedupeItems keeps the first item of each text and kind, up to limit items.
func DedupeItems(items []Item, limit int) []Item {
	if limit <= 0 {
		return nil
	}
	type key struct {
		text string
		kind Kind
	}
	seen := make(map[key]bool, len(items))
	out := make([]Item, 0, min(len(items), limit))
	for _, it := range items {
		k := key{it.Text, it.Kind}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}

// HistoryItems converts matches to items, keeping their order. Relevance is
// the score scaled to 1..1000.
func HistoryItems(matches []history.Match, term string) []Item {
	items := make([]Item, 0, len(matches))
	for _, m := range matches {
		text := strings.TrimSpace(m.Entry.Query)
		if text == "" {
			continue
		}
		it := Item{
			Text:      text,
			Kind:      HistoryQuery,
			Relevance: max(int(math.Round(m.Score*1000)), 1),
			Term:      term,
			Source:    "history",
		}
		if m.Entry.Kind == history.Navigation {
			it.Kind = HistoryNavigation
			it.URL = utils.NormalizeURL(text)
		}
		items = append(items, it)
	}
	return items
}
