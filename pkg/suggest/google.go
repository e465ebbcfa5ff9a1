package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// GoogleURL is the chrome-client completion endpoint.
const GoogleURL = "https://suggestqueries.google.com/complete/search?client=chrome&q={term}"

// Google completes queries through the Google suggest API.
type Google struct {
	fetcher *Fetcher
}

// NewGoogle builds the source for template, GoogleURL when empty.
func NewGoogle(template string, opts FetcherOptions) (*Google, error) {
	if template == "" {
		template = GoogleURL
	}
	f, err := NewFetcher(template, opts)
	if err != nil {
		return nil, err
	}
	return &Google{fetcher: f}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Fetch(ctx context.Context, term string, limit int) ([]Item, error) {
	if strings.TrimSpace(term) == "" {
		return nil, nil
	}
	body, err := g.fetcher.Get(ctx, g.fetcher.URL(term))
	if err != nil {
		return nil, err
	}
	items, err := parseGoogle(body, term)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

type googleMeta struct {
	Relevance []json.RawMessage `json:"google:suggestrelevance"`
	Types     []string          `json:"google:suggesttype"`
}

// parseGoogle decodes [term, [texts], [descriptions], [], {meta}].
func parseGoogle(body []byte, term string) ([]Item, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("google: decode response: %w", err)
	}
	if len(raw) < 5 {
		return nil, fmt.Errorf("google: response has %d elements, want 5", len(raw))
	}

	var texts []string
	if err := json.Unmarshal(raw[1], &texts); err != nil {
		return nil, fmt.Errorf("google: decode texts: %w", err)
	}
	var meta googleMeta
	if err := json.Unmarshal(raw[4], &meta); err != nil {
		return nil, fmt.Errorf("google: decode metadata: %w", err)
	}

	var items []Item
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" || i >= len(meta.Relevance) || i >= len(meta.Types) {
			continue
		}

		var kind Kind
		switch strings.TrimSpace(meta.Types[i]) {
		case "QUERY":
			kind = QueryCompletion
		case "NAVIGATION":
			kind = NavigationTarget
		default:
			continue
		}

		relevance := parseRelevance(meta.Relevance[i])
		if relevance < 1 {
			continue
		}

		it := Item{Text: text, Kind: kind, Relevance: relevance, Term: term}
		if kind == NavigationTarget {
			it.URL = text
		}
		items = append(items, it)
	}
	return items, nil
}

// parseRelevance accepts numbers and numeric strings.
func parseRelevance(raw json.RawMessage) int {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return 0
}
