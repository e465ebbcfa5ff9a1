package suggest

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/quicksearch/internal/utils"
)

// WikipediaURL is the OpenSearch endpoint in XML form.
const WikipediaURL = "https://en.wikipedia.org/w/api.php?action=opensearch&format=xml&limit=1&search={term}"

// Wikipedia answers terms with the description of the best matching article.
type Wikipedia struct {
	fetcher *Fetcher
}

// NewWikipedia builds the helper for template, WikipediaURL when empty.
func NewWikipedia(template string, opts FetcherOptions) (*Wikipedia, error) {
	if template == "" {
		template = WikipediaURL
	}
	f, err := NewFetcher(template, opts)
	if err != nil {
		return nil, err
	}
	return &Wikipedia{fetcher: f}, nil
}

func (w *Wikipedia) Name() string { return "wikipedia" }

// Accepts rejects URL-like terms and terms shorter than two runes.
func (w *Wikipedia) Accepts(term string) bool {
	term = strings.TrimSpace(term)
	return utf8.RuneCountInString(term) > 1 && !utils.LooksLikeURL(term)
}

func (w *Wikipedia) Fetch(ctx context.Context, term string) (*HelperPayload, error) {
	body, err := w.fetcher.Get(ctx, w.fetcher.URL(strings.TrimSpace(term)))
	if err != nil {
		return nil, err
	}
	return parseWikipedia(body, term)
}

type openSearch struct {
	Items []openSearchItem `xml:"Section>Item"`
}

type openSearchItem struct {
	Text        string `xml:"Text"`
	Description string `xml:"Description"`
	URL         string `xml:"Url"`
	Image       *struct {
		Source string `xml:"source,attr"`
		Width  int    `xml:"width,attr"`
		Height int    `xml:"height,attr"`
	} `xml:"Image"`
}

func parseWikipedia(body []byte, term string) (*HelperPayload, error) {
	var doc openSearch
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("wikipedia: decode response: %w", err)
	}

	for _, it := range doc.Items {
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			continue
		}
		p := &HelperPayload{
			Source:   "wikipedia",
			Term:     term,
			Heading:  strings.TrimSpace(it.Text),
			Abstract: desc,
			URL:      strings.TrimSpace(it.URL),
		}
		if it.Image != nil && strings.TrimSpace(it.Image.Source) != "" {
			p.Image = &Image{URL: strings.TrimSpace(it.Image.Source), Width: it.Image.Width, Height: it.Image.Height}
		}
		return p, nil
	}
	return nil, nil
}
