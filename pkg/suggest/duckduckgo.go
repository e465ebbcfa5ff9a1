package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bastiangx/quicksearch/internal/utils"
)

const (
	// DuckDuckGoURL is the Instant Answer endpoint.
	DuckDuckGoURL = "https://api.duckduckgo.com/?format=json&no_redirect=1&skip_disambig=1&q={term}"

	duckduckgoBase = "https://duckduckgo.com"
)

// DuckDuckGo answers terms from the DuckDuckGo Instant Answer API.
type DuckDuckGo struct {
	fetcher *Fetcher
}

// NewDuckDuckGo builds the helper for template, DuckDuckGoURL when empty.
func NewDuckDuckGo(template string, opts FetcherOptions) (*DuckDuckGo, error) {
	if template == "" {
		template = DuckDuckGoURL
	}
	f, err := NewFetcher(template, opts)
	if err != nil {
		return nil, err
	}
	return &DuckDuckGo{fetcher: f}, nil
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Accepts rejects blank and URL-like terms.
func (d *DuckDuckGo) Accepts(term string) bool {
	return !utils.IsBlank(term) && !utils.LooksLikeURL(term)
}

func (d *DuckDuckGo) Fetch(ctx context.Context, term string) (*HelperPayload, error) {
	body, err := d.fetcher.Get(ctx, d.fetcher.URL(strings.TrimSpace(term)))
	if err != nil {
		return nil, err
	}
	return parseDuckDuckGo(body, term)
}

type ddgResponse struct {
	Heading      string `json:"Heading"`
	Abstract     string `json:"Abstract"`
	AbstractText string `json:"AbstractText"`
	AbstractURL  string `json:"AbstractURL"`
	Definition   string `json:"Definition"`
	Image        string `json:"Image"`
	ImageWidth   any    `json:"ImageWidth"`
	ImageHeight  any    `json:"ImageHeight"`
}

// parseDuckDuckGo returns nil when the answer has neither an abstract nor a
// definition.
func parseDuckDuckGo(body []byte, term string) (*HelperPayload, error) {
	var resp ddgResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("duckduckgo: decode response: %w", err)
	}

	p := &HelperPayload{
		Source:  "duckduckgo",
		Term:    term,
		Heading: StripMarkup(resp.Heading),
		URL:     strings.TrimSpace(resp.AbstractURL),
	}
	if !utils.IsBlank(resp.Abstract) {
		abstract := resp.AbstractText
		if utils.IsBlank(abstract) {
			abstract = resp.Abstract
		}
		p.Abstract = StripMarkup(abstract)
	}
	if !utils.IsBlank(resp.Definition) && resp.Definition != resp.Abstract {
		p.Definition = StripMarkup(resp.Definition)
	}
	if img := strings.TrimSpace(resp.Image); img != "" {
		if strings.HasPrefix(img, "/") {
			img = duckduckgoBase + img
		}
		p.Image = &Image{URL: img, Width: anyInt(resp.ImageWidth), Height: anyInt(resp.ImageHeight)}
	}

	if p.Empty() {
		return nil, nil
	}
	return p, nil
}

// anyInt reads the dimension fields, which arrive as numbers or strings.
func anyInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		var i int
		fmt.Sscanf(n, "%d", &i)
		return i
	}
	return 0
}
