// Package engine describes configured search destinations and how they are
// selected: by id, by keyword trigger, or by fuzzy matching in a picker.
package engine

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sahilm/fuzzy"
)

// TermPlaceholder marks where the URL-encoded term goes in templates.
const TermPlaceholder = "{term}"

// DefaultSource selects the registry's default suggestion source.
const DefaultSource = "default"

var (
	// ErrInvalidEngine reports an engine config with missing or bad fields.
	ErrInvalidEngine = errors.New("invalid engine")
	// ErrUnknownEngine reports a lookup for an engine that is not configured.
	ErrUnknownEngine = errors.New("unknown engine")
	// ErrMissingTermPlaceholder reports a URL template without {term}.
	ErrMissingTermPlaceholder = errors.New("url template is missing " + TermPlaceholder)
)

// Engine is one configured search destination.
type Engine struct {
	ID                int      `toml:"id" yaml:"id" json:"id" msgpack:"id"`
	Name              string   `toml:"name" yaml:"name" json:"name" msgpack:"name"`
	Keyword           string   `toml:"keyword" yaml:"keyword" json:"keyword" msgpack:"kw"`
	URL               string   `toml:"url" yaml:"url" json:"url" msgpack:"url"`
	EnableSuggestions bool     `toml:"enable_suggestions" yaml:"enable_suggestions" json:"enable_suggestions" msgpack:"sg"`
	EnableHelpers     bool     `toml:"enable_helpers" yaml:"enable_helpers" json:"enable_helpers" msgpack:"hp"`
	AllowedHelpers    []string `toml:"allowed_helpers,omitempty" yaml:"allowed_helpers,omitempty" json:"allowed_helpers,omitempty" msgpack:"ah,omitempty"`
	SuggestionsSource string   `toml:"suggestions_source,omitempty" yaml:"suggestions_source,omitempty" json:"suggestions_source,omitempty" msgpack:"ss,omitempty"`

	// OpenURL marks the pseudo engine that opens the input as an address.
	OpenURL bool `toml:"-" yaml:"-" json:"open_url,omitempty" msgpack:"ou,omitempty"`
}

// Validate checks the fields every engine must carry.
func (e Engine) Validate() error {
	if e.OpenURL {
		if strings.TrimSpace(e.Keyword) == "" {
			return fmt.Errorf("%w: open url engine needs a keyword", ErrInvalidEngine)
		}
		return nil
	}
	if e.ID <= 0 {
		return fmt.Errorf("%w: id must be a positive integer, got %d", ErrInvalidEngine, e.ID)
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w %d: name is blank", ErrInvalidEngine, e.ID)
	}
	if strings.TrimSpace(e.Keyword) == "" {
		return fmt.Errorf("%w %q: keyword is blank", ErrInvalidEngine, e.Name)
	}
	if strings.TrimSpace(e.URL) == "" {
		return fmt.Errorf("%w %q: url is blank", ErrInvalidEngine, e.Name)
	}
	if !strings.Contains(e.URL, TermPlaceholder) {
		return fmt.Errorf("%w %q: %w", ErrInvalidEngine, e.Name, ErrMissingTermPlaceholder)
	}
	return nil
}

// Source returns the configured suggestion source name, DefaultSource when unset.
func (e Engine) Source() string {
	if strings.TrimSpace(e.SuggestionsSource) == "" {
		return DefaultSource
	}
	return e.SuggestionsSource
}

// AllowsHelper reports whether the named helper may run for this engine.
func (e Engine) AllowsHelper(name string) bool {
	if !e.EnableHelpers {
		return false
	}
	for _, h := range e.AllowedHelpers {
		if h == name {
			return true
		}
	}
	return false
}

// QueryURL fills the template with the encoded term.
func (e Engine) QueryURL(term string) string {
	return strings.ReplaceAll(e.URL, TermPlaceholder, EncodeTerm(term))
}

// EncodeTerm escapes a term for use in a URL query, encoding spaces as %20.
func EncodeTerm(term string) string {
	return strings.ReplaceAll(url.QueryEscape(term), "+", "%20")
}

// Set is an immutable collection of validated engines with a default.
type Set struct {
	engines   []Engine
	byID      map[int]int
	byKeyword map[string]int
	def       int
	openURL   *Engine
}

// NewSet validates engines and resolves the default by id. A zero defaultID
// selects the first engine. openURL may be nil.
func NewSet(engines []Engine, defaultID int, openURL *Engine) (*Set, error) {
	if len(engines) == 0 {
		return nil, fmt.Errorf("%w: no engines configured", ErrInvalidEngine)
	}

	s := &Set{
		engines:   make([]Engine, len(engines)),
		byID:      make(map[int]int, len(engines)),
		byKeyword: make(map[string]int, len(engines)),
		def:       -1,
	}
	copy(s.engines, engines)

	for i, e := range s.engines {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidEngine, e.ID)
		}
		kw := strings.ToLower(strings.TrimSpace(e.Keyword))
		if _, dup := s.byKeyword[kw]; dup {
			return nil, fmt.Errorf("%w: duplicate keyword %q", ErrInvalidEngine, e.Keyword)
		}
		s.byID[e.ID] = i
		s.byKeyword[kw] = i
	}

	if defaultID == 0 {
		s.def = 0
	} else if i, ok := s.byID[defaultID]; ok {
		s.def = i
	} else {
		return nil, fmt.Errorf("%w: default engine id %d", ErrUnknownEngine, defaultID)
	}

	if openURL != nil {
		o := *openURL
		o.OpenURL = true
		if err := o.Validate(); err != nil {
			return nil, err
		}
		if _, clash := s.byKeyword[strings.ToLower(o.Keyword)]; clash {
			return nil, fmt.Errorf("%w: open url keyword %q clashes with an engine", ErrInvalidEngine, o.Keyword)
		}
		s.openURL = &o
	}
	return s, nil
}

// Default returns the default engine.
func (s *Set) Default() Engine {
	return s.engines[s.def]
}

// ByID finds an engine by id.
func (s *Set) ByID(id int) (Engine, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Engine{}, false
	}
	return s.engines[i], true
}

// ByKeyword finds an engine by its keyword trigger, ignoring case. The open
// url pseudo engine is matched too.
func (s *Set) ByKeyword(keyword string) (Engine, bool) {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if s.openURL != nil && strings.ToLower(s.openURL.Keyword) == kw {
		return *s.openURL, true
	}
	i, ok := s.byKeyword[kw]
	if !ok {
		return Engine{}, false
	}
	return s.engines[i], true
}

// OpenURL returns the open url pseudo engine, if configured.
func (s *Set) OpenURL() (Engine, bool) {
	if s.openURL == nil {
		return Engine{}, false
	}
	return *s.openURL, true
}

// All returns the configured engines in order.
func (s *Set) All() []Engine {
	out := make([]Engine, len(s.engines))
	copy(out, s.engines)
	return out
}

// Others returns every engine except current, followed by the open url
// engine unless it is current.
func (s *Set) Others(current Engine) []Engine {
	out := make([]Engine, 0, len(s.engines)+1)
	for _, e := range s.engines {
		if !current.OpenURL && e.ID == current.ID {
			continue
		}
		out = append(out, e)
	}
	if s.openURL != nil && !current.OpenURL {
		out = append(out, *s.openURL)
	}
	return out
}

// engineSource adapts engines to fuzzy.Source.
type engineSource []Engine

func (es engineSource) String(i int) string { return es[i].Keyword + " " + es[i].Name }
func (es engineSource) Len() int            { return len(es) }

// Match returns engines whose keyword or name fuzzily matches pattern, best
// first. A blank pattern returns every engine.
func (s *Set) Match(pattern string) []Engine {
	if strings.TrimSpace(pattern) == "" {
		return s.All()
	}
	src := engineSource(s.engines)
	matches := fuzzy.FindFrom(pattern, src)
	out := make([]Engine, 0, len(matches))
	for _, m := range matches {
		out = append(out, src[m.Index])
	}
	return out
}
