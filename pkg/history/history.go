/*
Package history keeps the bounded list of past searches and navigations.

Entries are appended in order, consecutive duplicates are coalesced and the
oldest entries are evicted once the cap is exceeded. The whole list is written
to the settings store as a JSON array of {query, kind} objects (newest last)
after every change.

A replay cursor supports stepping through past entries from the input field:
it starts one past the newest entry and is reset whenever a session ends.

Best matches rank entries against the typed term with the fuzzy scorer:

	matches := h.BestMatches("gith", history.MatchOptions{
		Kinds:     []history.Kind{history.Query, history.Navigation},
		MinScore:  0.35,
		Limit:     3,
		Fuzziness: 0.5,
	})
*/
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/bastiangx/quicksearch/pkg/fuzzy"
	"github.com/bastiangx/quicksearch/pkg/store"
	"github.com/charmbracelet/log"
)

// DefaultKey is the settings key the list is persisted under.
const DefaultKey = "search-history-data"

// MatchOptions controls a BestMatches query.
type MatchOptions struct {
	Kinds     []Kind
	MinScore  float64
	Limit     int
	Fuzziness float64
}

// Store is the history list plus its replay cursor. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	limit   int
	cursor  int
	draft   string
	kv      store.Store
	key     string
	logger  *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the settings key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New returns an empty Store capped at limit entries. kv may be nil, in which
// case nothing is persisted.
func New(kv store.Store, limit int, opts ...Option) *Store {
	s := &Store{
		limit:  limit,
		kv:     kv,
		key:    DefaultKey,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. A missing key
// leaves the list empty; entries that fail to decode are skipped.
func (s *Store) Load() error {
	if s.kv == nil {
		return nil
	}
	data, err := s.kv.Get(s.key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode history: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal(r, &e); err != nil || strings.TrimSpace(e.Query) == "" {
			s.logger.Warnf("Skipping malformed history entry %s", string(r))
			continue
		}
		entries = append(entries, e)
	}

	s.mu.Lock()
	s.entries = entries
	s.evictLocked()
	s.cursor = len(s.entries)
	s.draft = ""
	s.mu.Unlock()

	s.logger.Debugf("Loaded %d history entries", len(entries))
	return nil
}

// Add appends e unless it repeats the newest entry, then persists the list.
// The cursor is reset either way.
func (s *Store) Add(e Entry) error {
	if strings.TrimSpace(e.Query) == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursor = len(s.entries)
	s.draft = ""
	if n := len(s.entries); n > 0 && s.entries[n-1] == e {
		return nil
	}
	s.entries = append(s.entries, e)
	s.evictLocked()
	s.cursor = len(s.entries)
	return s.persistLocked()
}

// Prev steps the cursor back and returns the older entry. At the oldest entry
// it returns current unchanged and reports false.
func (s *Store) Prev(current string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor <= 0 {
		return Entry{Query: current}, false
	}
	if s.cursor >= len(s.entries) {
		s.draft = current
	}
	s.cursor--
	return s.entries[s.cursor], true
}

// Next steps the cursor forward. Stepping past the newest entry restores the
// text that was typed before replay started.
func (s *Store) Next(current string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.entries) {
		return Entry{Query: current}, false
	}
	s.cursor++
	if s.cursor == len(s.entries) {
		draft := s.draft
		s.draft = ""
		return Entry{Query: draft}, false
	}
	return s.entries[s.cursor], true
}

// ResetCursor moves the cursor one past the newest entry.
func (s *Store) ResetCursor() {
	s.mu.Lock()
	s.cursor = len(s.entries)
	s.draft = ""
	s.mu.Unlock()
}

// Cursor returns the replay cursor position.
func (s *Store) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// BestMatches scores every entry of an accepted kind against term and returns
// at most opts.Limit matches scoring at least opts.MinScore, best first.
// Entries with equal text are scored independently.
func (s *Store) BestMatches(term string, opts MatchOptions) []Match {
	if strings.TrimSpace(term) == "" || opts.Limit <= 0 {
		return nil
	}

	s.mu.RLock()
	var matches []Match
	for _, e := range s.entries {
		if !slices.Contains(opts.Kinds, e.Kind) {
			continue
		}
		score := fuzzy.Score(e.Query, term, opts.Fuzziness)
		if score >= opts.MinScore {
			matches = append(matches, Match{Score: score, Entry: e})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches
}

// Entries returns a copy of the list, oldest first.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SetLimit changes the cap, evicting immediately when the list is longer.
func (s *Store) SetLimit(limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.limit = limit
	before := len(s.entries)
	s.evictLocked()
	if s.cursor > len(s.entries) {
		s.cursor = len(s.entries)
	}
	if before == len(s.entries) {
		return nil
	}
	return s.persistLocked()
}

// Clear drops every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.cursor = 0
	s.draft = ""
	return s.persistLocked()
}

func (s *Store) evictLocked() {
	if s.limit > 0 && len(s.entries) > s.limit {
		s.entries = slices.Clone(s.entries[len(s.entries)-s.limit:])
	}
}

func (s *Store) persistLocked() error {
	if s.kv == nil {
		return nil
	}
	entries := s.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.kv.Put(s.key, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
