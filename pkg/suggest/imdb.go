package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// IMDbURL is the title suggestion endpoint. {first_char} is the first
	// letter of the lowercased term.
	IMDbURL = "https://sg.media-imdb.com/suggests/{first_char}/{term}.json"

	imdbBase = "https://www.imdb.com"
)

// IMDb suggests titles and people. Results are navigation targets.
type IMDb struct {
	fetcher *Fetcher
}

// NewIMDb builds the source for template, IMDbURL when empty.
func NewIMDb(template string, opts FetcherOptions) (*IMDb, error) {
	if template == "" {
		template = IMDbURL
	}
	f, err := NewFetcher(template, opts)
	if err != nil {
		return nil, err
	}
	return &IMDb{fetcher: f}, nil
}

func (m *IMDb) Name() string { return "imdb" }

func (m *IMDb) Fetch(ctx context.Context, term string, limit int) ([]Item, error) {
	q := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(term)), " ", "_")
	if q == "" {
		return nil, nil
	}
	first, _ := utf8.DecodeRuneInString(q)

	body, err := m.fetcher.Get(ctx, m.fetcher.URL(q, "{first_char}", string(first)))
	if err != nil {
		return nil, err
	}
	items, err := parseIMDb(body, term)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

type imdbEntry struct {
	Label string          `json:"l"`
	Sub   string          `json:"s"`
	ID    string          `json:"id"`
	Year  int             `json:"y"`
	Type  string          `json:"q"`
	Image json.RawMessage `json:"i"`
}

type imdbResponse struct {
	D []imdbEntry `json:"d"`
}

// parseIMDb accepts plain JSON or a JSONP wrapper such as imdb$term({...}).
func parseIMDb(body []byte, term string) ([]Item, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] != '{' {
		start := bytes.IndexByte(body, '(')
		end := bytes.LastIndexByte(body, ')')
		if start < 0 || end <= start {
			return nil, fmt.Errorf("imdb: malformed jsonp response")
		}
		body = body[start+1 : end]
	}

	var resp imdbResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("imdb: decode response: %w", err)
	}

	items := make([]Item, 0, len(resp.D))
	for i, e := range resp.D {
		label := strings.TrimSpace(e.Label)
		if label == "" {
			continue
		}
		items = append(items, Item{
			Text:      label,
			Kind:      NavigationTarget,
			Relevance: len(resp.D) - i,
			Term:      term,
			URL:       imdbURL(e.ID),
			Detail:    imdbDetail(e),
			Image:     imdbImage(e.Image),
		})
	}
	return items, nil
}

func imdbURL(id string) string {
	switch {
	case strings.HasPrefix(id, "nm"):
		return imdbBase + "/name/" + id
	case strings.HasPrefix(id, "tt"):
		return imdbBase + "/title/" + id
	}
	return imdbBase
}

func imdbDetail(e imdbEntry) string {
	var parts []string
	if e.Year > 0 {
		parts = append(parts, strconv.Itoa(e.Year))
	}
	switch e.Type {
	case "feature":
		parts = append(parts, "Movie")
	case "TV series":
		parts = append(parts, "TV series")
	}
	if s := strings.TrimSpace(e.Sub); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " · ")
}

// imdbImage reads the poster, sent either as [url, width, height] or as
// {"imageUrl": ..., "width": ..., "height": ...}.
func imdbImage(raw json.RawMessage) *Image {
	if len(raw) == 0 {
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		img := &Image{}
		if json.Unmarshal(arr[0], &img.URL) != nil || img.URL == "" {
			return nil
		}
		if len(arr) > 2 {
			json.Unmarshal(arr[1], &img.Width)
			json.Unmarshal(arr[2], &img.Height)
		}
		return img
	}
	var obj struct {
		URL    string `json:"imageUrl"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.URL != "" {
		return &Image{URL: obj.URL, Width: obj.Width, Height: obj.Height}
	}
	return nil
}
