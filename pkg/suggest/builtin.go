package suggest

import (
	"fmt"

	"github.com/bastiangx/quicksearch/pkg/dictionary"
	"github.com/bastiangx/quicksearch/pkg/history"
)

// BuiltinOptions configures the built-in registries.
type BuiltinOptions struct {
	Fetcher FetcherOptions
	// DefaultSource names the source used by engines asking for "default".
	DefaultSource string
	// Templates overrides endpoint URLs by source or helper name.
	Templates map[string]string

	History        *history.Store
	HistoryOptions history.MatchOptions

	// Dictionary registers the dictionary source when non-nil.
	Dictionary   *dictionary.Dictionary
	MinFrequency int
}

// Builtins is the fixed set of sources and helpers shipped with quicksearch.
type Builtins struct {
	Sources *Registry[Source]
	Helpers *Registry[Helper]
	History *HistorySource
}

// NewBuiltins constructs every built-in source and helper.
func NewBuiltins(opts BuiltinOptions) (*Builtins, error) {
	google, err := NewGoogle(opts.Templates["google"], opts.Fetcher)
	if err != nil {
		return nil, fmt.Errorf("google source: %w", err)
	}
	imdb, err := NewIMDb(opts.Templates["imdb"], opts.Fetcher)
	if err != nil {
		return nil, fmt.Errorf("imdb source: %w", err)
	}
	sources := []Source{google, imdb}

	var hist *HistorySource
	if opts.History != nil {
		hist = NewHistorySource(opts.History, opts.HistoryOptions)
		sources = append(sources, hist)
	}
	if opts.Dictionary != nil {
		sources = append(sources, NewDictionarySource(opts.Dictionary, opts.MinFrequency))
	}

	def := opts.DefaultSource
	if def == "" {
		def = google.Name()
	}
	srcReg, err := NewRegistry(def, sources...)
	if err != nil {
		return nil, err
	}

	ddg, err := NewDuckDuckGo(opts.Templates["duckduckgo"], opts.Fetcher)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo helper: %w", err)
	}
	wiki, err := NewWikipedia(opts.Templates["wikipedia"], opts.Fetcher)
	if err != nil {
		return nil, fmt.Errorf("wikipedia helper: %w", err)
	}
	helperReg, err := NewRegistry[Helper](ddg.Name(), ddg, wiki)
	if err != nil {
		return nil, err
	}

	return &Builtins{Sources: srcReg, Helpers: helperReg, History: hist}, nil
}
