/*
Package dictionary loads frequency-ranked word lists into a patricia trie and
completes prefixes against them.

Two on-disk formats are understood:

  - plain text (.txt): one word per line, optionally followed by whitespace and
    an integer frequency. Lines without a frequency are ranked by position,
    earlier lines scoring higher.
  - chunked binary (dict_NNNN.bin): little-endian int32 word count, then per
    word a uint16 length, the UTF-8 bytes and a uint16 rank (1 is the most
    frequent).

A directory path loads every chunk file it contains.

	dict, err := dictionary.Load("data/", dictionary.LoadOptions{MaxWords: 50000})
	words := dict.Complete("amer", 5, 20)
*/
package dictionary

import (
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Word is a completion candidate with its frequency score.
type Word struct {
	Text      string
	Frequency int
}

// Dictionary is a prefix-searchable word set. Safe for concurrent use.
type Dictionary struct {
	mu           sync.RWMutex
	trie         *patricia.Trie
	totalWords   int
	maxFrequency int
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{trie: patricia.NewTrie()}
}

// Add inserts or updates a word. Words are stored lowercase.
func (d *Dictionary) Add(word string, frequency int) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.trie.Insert(patricia.Prefix(word), frequency) {
		d.totalWords++
	} else {
		d.trie.Set(patricia.Prefix(word), frequency)
	}
	if frequency > d.maxFrequency {
		d.maxFrequency = frequency
	}
}

// Len returns the number of distinct words.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.totalWords
}

// MaxFrequency returns the highest frequency seen.
func (d *Dictionary) MaxFrequency() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.maxFrequency
}

// Complete returns up to limit words starting with prefix, most frequent
// first. The prefix itself is never returned, words below minFrequency are
// skipped, and upper-case letters typed in the prefix are carried over.
func (d *Dictionary) Complete(prefix string, limit, minFrequency int) []Word {
	lowerPrefix := strings.ToLower(prefix)
	if lowerPrefix == "" {
		return nil
	}

	capitalPositions := make([]bool, 0, len(prefix))
	for _, r := range prefix {
		capitalPositions = append(capitalPositions, r >= 'A' && r <= 'Z')
	}

	var words []Word

	d.mu.RLock()
	err := d.trie.VisitSubtree(patricia.Prefix(lowerPrefix), func(p patricia.Prefix, item patricia.Item) error {
		word := string(p)
		if word == lowerPrefix {
			return nil
		}

		freq := 1
		switch v := item.(type) {
		case int:
			freq = v
		case int32:
			freq = int(v)
		case uint16:
			freq = int(v)
		default:
			log.Errorf("Unknown item type: %T for word %s", item, p)
		}
		if freq < minFrequency {
			return nil
		}

		words = append(words, Word{
			Text:      applyCapitalization(word, capitalPositions),
			Frequency: freq,
		})
		return nil
	})
	d.mu.RUnlock()

	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
		return nil
	}

	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Frequency > words[j].Frequency
	})
	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return words
}

func applyCapitalization(word string, capitalPositions []bool) string {
	if len(capitalPositions) == 0 {
		return word
	}
	runes := []rune(word)
	for i := 0; i < len(runes) && i < len(capitalPositions); i++ {
		if capitalPositions[i] && runes[i] >= 'a' && runes[i] <= 'z' {
			runes[i] = runes[i] - 'a' + 'A'
		}
	}
	return string(runes)
}
