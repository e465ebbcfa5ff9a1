package aggregate

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bastiangx/quicksearch/internal/logger"
	"github.com/bastiangx/quicksearch/pkg/config"
	"github.com/bastiangx/quicksearch/pkg/engine"
	"github.com/bastiangx/quicksearch/pkg/history"
	"github.com/bastiangx/quicksearch/pkg/store"
	"github.com/bastiangx/quicksearch/pkg/suggest"
)

func TestMain(m *testing.M) {
	// ants starts its package-level pool at init.
	goleak.VerifyTestMain(m, goleak.IgnoreCurrent())
}

const waitFor = 2 * time.Second

// fakeSource returns canned items per term. A gated term blocks until its
// gate is closed, ignoring cancellation so that late results can be observed.
type fakeSource struct {
	name string

	mu      sync.Mutex
	calls   []string
	results map[string][]string
	gates   map[string]chan struct{}
	nav     map[string]bool
	ctxErrs []error
	honour  bool
}

func newFakeSource(name string) *fakeSource {
	return &fakeSource{
		name:    name,
		results: make(map[string][]string),
		gates:   make(map[string]chan struct{}),
		nav:     make(map[string]bool),
	}
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, term string, limit int) ([]suggest.Item, error) {
	f.mu.Lock()
	f.calls = append(f.calls, term)
	gate := f.gates[term]
	texts := f.results[term]
	honour := f.honour
	f.mu.Unlock()

	if gate != nil {
		if honour {
			select {
			case <-gate:
			case <-ctx.Done():
				f.mu.Lock()
				f.ctxErrs = append(f.ctxErrs, ctx.Err())
				f.mu.Unlock()
				return nil, ctx.Err()
			}
		} else {
			<-gate
		}
	}

	items := make([]suggest.Item, 0, len(texts))
	for i, text := range texts {
		kind := suggest.QueryCompletion
		if f.nav[text] {
			kind = suggest.NavigationTarget
		}
		items = append(items, suggest.Item{Text: text, Kind: kind, Relevance: 100 - i})
	}
	return items, nil
}

func (f *fakeSource) set(term string, texts ...string) {
	f.mu.Lock()
	f.results[term] = texts
	f.mu.Unlock()
}

func (f *fakeSource) gate(term string) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[term] = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

type fakeHelper struct {
	name    string
	accepts func(string) bool

	mu    sync.Mutex
	calls []string
}

func (h *fakeHelper) Name() string { return h.name }

func (h *fakeHelper) Accepts(term string) bool {
	if h.accepts == nil {
		return true
	}
	return h.accepts(term)
}

func (h *fakeHelper) Fetch(_ context.Context, term string) (*suggest.HelperPayload, error) {
	h.mu.Lock()
	h.calls = append(h.calls, term)
	h.mu.Unlock()
	return &suggest.HelperPayload{Heading: term, Abstract: h.name + " says " + term}, nil
}

func (h *fakeHelper) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.calls)
}

type fixture struct {
	mgr     *Manager
	google  *fakeSource
	imdb    *fakeSource
	ddg     *fakeHelper
	wiki    *fakeHelper
	history *history.Store

	mu    sync.Mutex
	snaps []Snapshot
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Suggestions.DelayMS = 20
	cfg.Helpers.DelayMS = 20
	cfg.HTTP.PoolSize = 4
	return cfg
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	f := &fixture{
		google:  newFakeSource("google"),
		imdb:    newFakeSource("imdb"),
		ddg:     &fakeHelper{name: "duckduckgo"},
		wiki:    &fakeHelper{name: "wikipedia"},
		history: history.New(store.NewMemory(), cfg.History.Limit, history.WithLogger(logger.Discard())),
	}

	sources, err := suggest.NewRegistry[suggest.Source]("google", f.google, f.imdb)
	require.NoError(t, err)
	helpers, err := suggest.NewRegistry[suggest.Helper]("duckduckgo", f.ddg, f.wiki)
	require.NoError(t, err)

	f.mgr, err = New(cfg, sources, helpers, f.history, WithLogger(logger.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, f.mgr.Close()) })

	unsubscribe := f.mgr.Subscribe(func(s Snapshot) {
		f.mu.Lock()
		f.snaps = append(f.snaps, s)
		f.mu.Unlock()
	})
	t.Cleanup(unsubscribe)
	return f
}

func (f *fixture) open(t *testing.T) {
	t.Helper()
	_, err := f.mgr.OpenSession()
	require.NoError(t, err)
}

func (f *fixture) input(t *testing.T, term string) {
	t.Helper()
	require.NoError(t, f.mgr.SetInput(term))
}

func (f *fixture) snapshots() []Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.snaps)
}

func (f *fixture) waitSettled(t *testing.T) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		s := f.mgr.Current()
		return s.SuggestionsState != Debouncing && s.SuggestionsState != Fetching &&
			s.HelpersState != Debouncing && s.HelpersState != Fetching
	}, waitFor, 5*time.Millisecond)
	return f.mgr.Current()
}

func texts(items []suggest.Item) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Text)
	}
	return out
}

func groupTexts(s Snapshot) map[string][]string {
	out := make(map[string][]string)
	for _, g := range s.Groups {
		out[g.Label] = texts(g.Items)
	}
	return out
}

func TestSetInputRequiresSession(t *testing.T) {
	f := newFixture(t, testConfig())
	assert.ErrorIs(t, f.mgr.SetInput("go"), ErrNoSession)

	_, err := f.mgr.Activate(suggest.Item{Text: "go", Relevance: 1})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestGithScenario(t *testing.T) {
	f := newFixture(t, testConfig())
	require.NoError(t, f.history.Add(history.Entry{Query: "github issues", Kind: history.Query}))
	require.NoError(t, f.history.Add(history.Entry{Query: "weather", Kind: history.Query}))
	f.google.set("gith", "github", "gith", "github actions", "GitHub")

	f.open(t)
	f.input(t, "gith")

	// history is matched on the keystroke itself
	immediate := f.mgr.Current()
	hist, ok := immediate.Group(LabelHistory)
	require.True(t, ok)
	assert.Equal(t, []string{"github issues"}, texts(hist.Items))

	s := f.waitSettled(t)
	want := map[string][]string{
		LabelSuggestions: {"github", "github actions"},
		LabelHistory:     {"github issues"},
	}
	if diff := cmp.Diff(want, groupTexts(s)); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, LabelSuggestions, s.Groups[0].Label)
	assert.Equal(t, 0, s.Highlight)
	for _, it := range s.Items() {
		assert.Equal(t, "gith", it.Term)
	}
}

func TestHistoryRepeatsTakeOneSlot(t *testing.T) {
	f := newFixture(t, testConfig())
	for _, q := range []string{"github", "weather", "github", "news", "github", "github issues", "gitlab"} {
		require.NoError(t, f.history.Add(history.Entry{Query: q, Kind: history.Query}))
	}

	f.open(t)
	f.input(t, "git")

	hist, ok := f.mgr.Current().Group(LabelHistory)
	require.True(t, ok)
	assert.Equal(t, []string{"github", "gitlab", "github issues"}, texts(hist.Items))
}

func TestDebounceFetchesOnce(t *testing.T) {
	cfg := testConfig()
	cfg.Suggestions.DelayMS = 80
	cfg.Helpers.DelayMS = 80
	f := newFixture(t, cfg)
	f.google.set("gith", "github")

	f.open(t)
	for _, term := range []string{"g", "gi", "git", "gith"} {
		f.input(t, term)
	}

	s := f.waitSettled(t)
	assert.Equal(t, []string{"gith"}, f.google.Calls())
	assert.Equal(t, []string{"gith"}, f.ddg.Calls())
	assert.Equal(t, []string{"gith"}, f.wiki.Calls())
	assert.Len(t, s.Helpers, 2)
}

func TestStaleResultsAreDiscarded(t *testing.T) {
	f := newFixture(t, testConfig())
	f.google.set("ab", "ab stale")
	f.google.set("abc", "abc fresh")
	release := f.google.gate("ab")

	f.open(t)
	f.input(t, "ab")
	require.Eventually(t, func() bool {
		return slices.Contains(f.google.Calls(), "ab")
	}, waitFor, 5*time.Millisecond)

	f.input(t, "abc")
	s := f.waitSettled(t)
	assert.Equal(t, []string{"abc fresh"}, groupTexts(s)[LabelSuggestions])

	close(release)
	time.Sleep(50 * time.Millisecond)

	for _, snap := range f.snapshots() {
		for _, it := range snap.Items() {
			assert.NotEqual(t, "ab", it.Term, "stale item %q presented", it.Text)
		}
	}
	assert.Equal(t, []string{"abc fresh"}, groupTexts(f.mgr.Current())[LabelSuggestions])
}

func TestKeywordSwitchesEngine(t *testing.T) {
	f := newFixture(t, testConfig())
	f.open(t)

	f.input(t, "wiki ")
	s := f.mgr.Current()
	assert.Equal(t, "Wikipedia", s.Engine.Name)
	assert.Empty(t, s.Input)

	f.input(t, "go")
	f.waitSettled(t)
	assert.Empty(t, f.ddg.Calls())
	assert.Equal(t, []string{"go"}, f.wiki.Calls())

	// keywords only switch from the default engine
	f.input(t, "d ")
	assert.Equal(t, "Wikipedia", f.mgr.Current().Engine.Name)
	f.waitSettled(t)

	require.NoError(t, f.mgr.ResetEngine())
	assert.Equal(t, "Google", f.mgr.Current().Engine.Name)
}

func TestHelperRejectingTermShowsNothing(t *testing.T) {
	f := newFixture(t, testConfig())
	reject := func(string) bool { return false }
	f.ddg.accepts = reject
	f.wiki.accepts = reject

	f.open(t)
	f.input(t, "x")
	s := f.waitSettled(t)

	assert.Empty(t, f.ddg.Calls())
	assert.Empty(t, f.wiki.Calls())
	assert.Empty(t, s.Helpers)
	for _, snap := range f.snapshots() {
		assert.False(t, snap.HelpersLoading)
	}
}

func TestHelpersKeepEngineOrder(t *testing.T) {
	f := newFixture(t, testConfig())
	f.open(t)
	f.input(t, "golang")

	s := f.waitSettled(t)
	require.Len(t, s.Helpers, 2)
	assert.Equal(t, "duckduckgo", s.Helpers[0].Source)
	assert.Equal(t, "wikipedia", s.Helpers[1].Source)
	assert.Equal(t, config.PositionTop, s.HelperPosition)
}

func TestBlankInputClears(t *testing.T) {
	f := newFixture(t, testConfig())
	f.google.set("go", "golang")
	f.open(t)
	f.input(t, "go")
	f.waitSettled(t)

	f.input(t, "  ")
	s := f.mgr.Current()
	assert.Empty(t, s.Groups)
	assert.Empty(t, s.Helpers)
	assert.Equal(t, Idle, s.SuggestionsState)
	assert.Equal(t, Idle, s.HelpersState)
	assert.Equal(t, -1, s.Highlight)
}

func TestAutoAccept(t *testing.T) {
	cfg := testConfig()
	cfg.Suggestions.AutoAccept = true
	f := newFixture(t, cfg)
	f.google.set("gi", "github", "gitlab")
	f.google.set("gi ", "gi joe")

	f.open(t)
	f.input(t, "gi")
	s := f.waitSettled(t)
	assert.Equal(t, "github", s.Prefill)

	// echo of the prefill does not refetch
	f.input(t, "github")
	assert.Empty(t, f.mgr.Current().Prefill)

	// deleting the selection suppresses exactly one proposal
	f.input(t, "git")
	s = f.mgr.Current()
	assert.Equal(t, Settled, s.SuggestionsState)
	assert.Empty(t, s.Prefill)

	f.input(t, "gith")
	assert.Equal(t, "github", f.mgr.Current().Prefill)
	assert.Equal(t, []string{"gi"}, f.google.Calls())

	f.input(t, "gi ")
	s = f.waitSettled(t)
	assert.Equal(t, []string{"gi joe"}, groupTexts(s)[LabelSuggestions])
	assert.Empty(t, s.Prefill)
}

func TestAutoAcceptIsCaseSensitive(t *testing.T) {
	cfg := testConfig()
	cfg.Suggestions.AutoAccept = true
	f := newFixture(t, cfg)
	f.google.set("Gi", "github")

	f.open(t)
	f.input(t, "Gi")
	s := f.waitSettled(t)
	assert.Equal(t, []string{"github"}, groupTexts(s)[LabelSuggestions])
	assert.Empty(t, s.Prefill)
}

func TestRehighlightIgnoresCase(t *testing.T) {
	f := newFixture(t, testConfig())
	f.google.set("gi", "GitHub", "gitlab")

	f.open(t)
	f.input(t, "gi")
	s := f.waitSettled(t)
	require.Equal(t, []string{"GitHub", "gitlab"}, groupTexts(s)[LabelSuggestions])

	f.input(t, "GIT")
	s = f.mgr.Current()
	assert.Equal(t, Settled, s.SuggestionsState)
	assert.Equal(t, "GIT", s.Input)
	assert.Equal(t, []string{"GitHub", "gitlab"}, groupTexts(s)[LabelSuggestions])
	assert.Equal(t, 0, s.Highlight)

	time.Sleep(3 * time.Duration(testConfig().Suggestions.DelayMS) * time.Millisecond)
	assert.Equal(t, []string{"gi"}, f.google.Calls())
}

func TestSuppressAutoAccept(t *testing.T) {
	cfg := testConfig()
	cfg.Suggestions.AutoAccept = true
	f := newFixture(t, cfg)
	f.google.set("go", "golang")

	f.open(t)
	f.mgr.SuppressAutoAccept()
	f.input(t, "go")
	s := f.waitSettled(t)
	assert.Empty(t, s.Prefill)
}

func TestCloseSessionCancelsFetches(t *testing.T) {
	f := newFixture(t, testConfig())
	f.google.honour = true
	f.google.gate("slow")

	f.open(t)
	f.input(t, "slow")
	require.Eventually(t, func() bool {
		return slices.Contains(f.google.Calls(), "slow")
	}, waitFor, 5*time.Millisecond)

	f.mgr.CloseSession()
	require.Eventually(t, func() bool {
		f.google.mu.Lock()
		defer f.google.mu.Unlock()
		return len(f.google.ctxErrs) == 1
	}, waitFor, 5*time.Millisecond)
	f.google.mu.Lock()
	assert.True(t, errors.Is(f.google.ctxErrs[0], context.Canceled))
	f.google.mu.Unlock()

	s := f.mgr.Current()
	assert.Empty(t, s.SessionID)
	assert.Empty(t, s.Groups)
	assert.False(t, s.Open())
}

func TestActivate(t *testing.T) {
	f := newFixture(t, testConfig())

	f.open(t)
	act, err := f.mgr.Activate(suggest.Item{Text: "rock & roll", Kind: suggest.QueryCompletion, Relevance: 1})
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com/search?q=rock%20%26%20roll", act.URL)
	assert.False(t, act.Switched)
	assert.Empty(t, f.mgr.Current().SessionID)

	f.open(t)
	act, err = f.mgr.Activate(suggest.Item{Text: "github.com", Kind: suggest.NavigationTarget, Relevance: 1})
	require.NoError(t, err)
	assert.Equal(t, "https://github.com", act.URL)

	want := []history.Entry{
		{Query: "rock & roll", Kind: history.Query},
		{Query: "github.com", Kind: history.Navigation},
	}
	assert.Equal(t, want, f.history.Entries())
}

func TestSelectEngineList(t *testing.T) {
	f := newFixture(t, testConfig())
	f.google.set("go", "golang")
	f.open(t)
	f.input(t, "go")
	f.waitSettled(t)

	require.NoError(t, f.mgr.SelectEngineList())
	s := f.mgr.Current()
	require.Len(t, s.Groups, 1)
	assert.Equal(t, LabelEngines, s.Groups[0].Label)
	assert.Equal(t, []string{"Wikipedia", "IMDb", "DuckDuckGo", "Open URL"}, texts(s.Groups[0].Items))
	assert.Empty(t, s.Helpers)

	act, err := f.mgr.Activate(s.Groups[0].Items[2])
	require.NoError(t, err)
	assert.True(t, act.Switched)
	assert.Equal(t, "DuckDuckGo", act.Engine.Name)

	s = f.mgr.Current()
	assert.NotEmpty(t, s.SessionID)
	assert.Equal(t, "DuckDuckGo", s.Engine.Name)
	assert.Empty(t, f.history.Entries())
}

func TestOpenURLEngine(t *testing.T) {
	f := newFixture(t, testConfig())
	require.NoError(t, f.history.Add(history.Entry{Query: "example.com", Kind: history.Navigation}))
	require.NoError(t, f.history.Add(history.Entry{Query: "example code", Kind: history.Query}))
	f.google.set("exam", "example.com", "example")
	f.google.nav["example.com"] = true

	f.open(t)
	f.input(t, "url ")
	assert.True(t, f.mgr.Current().Engine.OpenURL)

	f.input(t, "exam")
	s := f.waitSettled(t)
	want := map[string][]string{
		LabelSuggestions: {"example.com"},
		LabelHistory:     {"example.com"},
	}
	if diff := cmp.Diff(want, groupTexts(s)); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, f.ddg.Calls())

	f.input(t, "example.org")
	act, err := f.mgr.Submit()
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", act.URL)
	entries := f.history.Entries()
	assert.Equal(t, history.Entry{Query: "example.org", Kind: history.Navigation}, entries[len(entries)-1])
}

func TestSubmitEmpty(t *testing.T) {
	f := newFixture(t, testConfig())
	f.open(t)
	_, err := f.mgr.Submit()
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestHistoryReplay(t *testing.T) {
	f := newFixture(t, testConfig())
	require.NoError(t, f.history.Add(history.Entry{Query: "alpha", Kind: history.Query}))
	require.NoError(t, f.history.Add(history.Entry{Query: "beta", Kind: history.Query}))

	f.open(t)
	f.input(t, "dra")
	f.waitSettled(t)
	calls := len(f.google.Calls())

	text, err := f.mgr.HistoryPrev()
	require.NoError(t, err)
	assert.Equal(t, "beta", text)
	f.input(t, text)

	text, err = f.mgr.HistoryPrev()
	require.NoError(t, err)
	assert.Equal(t, "alpha", text)
	f.input(t, text)

	text, err = f.mgr.HistoryNext()
	require.NoError(t, err)
	assert.Equal(t, "beta", text)
	f.input(t, text)

	text, err = f.mgr.HistoryNext()
	require.NoError(t, err)
	assert.Equal(t, "dra", text)
	f.input(t, text)

	time.Sleep(60 * time.Millisecond)
	assert.Len(t, f.google.Calls(), calls)
	assert.Equal(t, "dra", f.mgr.Current().Input)
}

func TestUpdateConfig(t *testing.T) {
	f := newFixture(t, testConfig())
	for _, q := range []string{"one", "two", "three"} {
		require.NoError(t, f.history.Add(history.Entry{Query: q, Kind: history.Query}))
	}

	cfg := testConfig()
	cfg.History.Limit = 2
	cfg.Helpers.Position = config.PositionBottom
	require.NoError(t, f.mgr.UpdateConfig(cfg))
	assert.Equal(t, 2, f.history.Len())
	assert.Equal(t, config.PositionBottom, f.mgr.Current().HelperPosition)

	bad := testConfig()
	bad.Helpers.Position = "middle"
	assert.ErrorIs(t, f.mgr.UpdateConfig(bad), config.ErrInvalidConfig)

	unknown := testConfig()
	unknown.Engines[2].SuggestionsSource = "bing"
	assert.ErrorIs(t, f.mgr.UpdateConfig(unknown), suggest.ErrUnknownSource)
	assert.Equal(t, config.PositionBottom, f.mgr.Current().HelperPosition)
}

func TestNewRejectsUnknownNames(t *testing.T) {
	sources, err := suggest.NewRegistry[suggest.Source]("google", newFakeSource("google"))
	require.NoError(t, err)
	helpers, err := suggest.NewRegistry[suggest.Helper]("duckduckgo", &fakeHelper{name: "duckduckgo"})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"unknown source", func(c *config.Config) { c.Engines = c.Engines[:1]; c.Engines[0].SuggestionsSource = "imdb" }, suggest.ErrUnknownSource},
		{"unknown helper", func(c *config.Config) { c.Engines = c.Engines[:1] }, suggest.ErrUnknownSource},
		{"missing placeholder", func(c *config.Config) { c.Engines[0].URL = "https://example.com" }, engine.ErrMissingTermPlaceholder},
		{"unknown default", func(c *config.Config) { c.DefaultEngine = 42 }, engine.ErrUnknownEngine},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(cfg)
			_, err := New(cfg, sources, helpers, nil, WithLogger(logger.Discard()))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSnapshotVersionsIncrease(t *testing.T) {
	f := newFixture(t, testConfig())
	f.google.set("go", "golang")
	f.open(t)
	f.input(t, "g")
	f.input(t, "go")
	f.waitSettled(t)
	f.mgr.CloseSession()

	snaps := f.snapshots()
	require.NotEmpty(t, snaps)
	for i := 1; i < len(snaps); i++ {
		assert.Greater(t, snaps[i].Version, snaps[i-1].Version)
	}
}

func TestDisplayRefreshesImmediately(t *testing.T) {
	cfg := testConfig()
	cfg.Suggestions.DelayMS = 10000
	cfg.Helpers.DelayMS = 10000
	f := newFixture(t, cfg)
	f.google.set("go", "golang")

	f.open(t)
	f.input(t, "go")
	require.NoError(t, f.mgr.Display(DisplayOptions{Suggestions: true, Helpers: true, History: true}))

	s := f.waitSettled(t)
	assert.Equal(t, []string{"golang"}, groupTexts(s)[LabelSuggestions])
	assert.Len(t, s.Helpers, 2)

	require.NoError(t, f.mgr.Display(DisplayOptions{Engines: true}))
	_, ok := f.mgr.Current().Group(LabelEngines)
	assert.True(t, ok)
}

func TestCloseIsIdempotent(t *testing.T) {
	sources, err := suggest.NewRegistry[suggest.Source]("google", newFakeSource("google"), newFakeSource("imdb"))
	require.NoError(t, err)
	helpers, err := suggest.NewRegistry[suggest.Helper]("duckduckgo", &fakeHelper{name: "duckduckgo"}, &fakeHelper{name: "wikipedia"})
	require.NoError(t, err)

	mgr, err := New(testConfig(), sources, helpers, nil, WithPoolSize(2), WithLogger(logger.Discard()))
	require.NoError(t, err)
	require.NoError(t, mgr.Close())
	require.NoError(t, mgr.Close())

	_, err = mgr.OpenSession()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSharedPoolOutlivesManager(t *testing.T) {
	pool, err := ants.NewPool(2)
	require.NoError(t, err)
	defer func() { assert.NoError(t, pool.ReleaseTimeout(time.Second)) }()

	sources, err := suggest.NewRegistry[suggest.Source]("google", newFakeSource("google"), newFakeSource("imdb"))
	require.NoError(t, err)
	helpers, err := suggest.NewRegistry[suggest.Helper]("duckduckgo", &fakeHelper{name: "duckduckgo"}, &fakeHelper{name: "wikipedia"})
	require.NoError(t, err)

	mgr, err := New(testConfig(), sources, helpers, nil, WithPool(pool), WithLogger(logger.Discard()))
	require.NoError(t, err)
	require.NoError(t, mgr.Close())

	assert.False(t, pool.IsClosed())
	done := make(chan struct{})
	require.NoError(t, pool.Submit(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("shared pool stopped running tasks")
	}
}
