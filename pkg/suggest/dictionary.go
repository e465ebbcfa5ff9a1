package suggest

import (
	"context"
	"strconv"
	"strings"

	"github.com/bastiangx/quicksearch/pkg/dictionary"
)

const dictionaryCacheSize = 256

// DictionarySource completes words from a local dictionary.
type DictionarySource struct {
	dict         *dictionary.Dictionary
	minFrequency int
	cache        *PrefixCache
}

// NewDictionarySource wraps dict. Words below minFrequency are never suggested.
func NewDictionarySource(dict *dictionary.Dictionary, minFrequency int) *DictionarySource {
	return &DictionarySource{
		dict:         dict,
		minFrequency: minFrequency,
		cache:        NewPrefixCache(dictionaryCacheSize),
	}
}

func (d *DictionarySource) Name() string { return "dictionary" }

// Fetch completes the last word of term; earlier words are kept as typed.
func (d *DictionarySource) Fetch(_ context.Context, term string, limit int) ([]Item, error) {
	if strings.HasSuffix(term, " ") {
		return nil, nil
	}
	head, word := splitLastWord(term)
	if word == "" {
		return nil, nil
	}

	key := word + "\x00" + strconv.Itoa(limit)
	if items, ok := d.cache.Get(key); ok {
		return withHead(items, head, term), nil
	}

	words := d.dict.Complete(word, limit, d.minFrequency)
	items := make([]Item, 0, len(words))
	for _, w := range words {
		items = append(items, Item{
			Text:      w.Text,
			Kind:      QueryCompletion,
			Relevance: max(w.Frequency, 1),
		})
	}
	d.cache.Put(key, items)
	return withHead(items, head, term), nil
}

func splitLastWord(term string) (head, word string) {
	i := strings.LastIndexByte(term, ' ')
	if i < 0 {
		return "", term
	}
	return term[:i+1], term[i+1:]
}

func withHead(items []Item, head, term string) []Item {
	for i := range items {
		items[i].Text = head + items[i].Text
		items[i].Term = term
	}
	return items
}
