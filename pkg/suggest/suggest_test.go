package suggest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/quicksearch/internal/logger"
	"github.com/bastiangx/quicksearch/pkg/dictionary"
	"github.com/bastiangx/quicksearch/pkg/engine"
	"github.com/bastiangx/quicksearch/pkg/history"
	"github.com/bastiangx/quicksearch/pkg/store"
)

func serve(t *testing.T, status int, body string) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &paths
}

func quiet() *log.Logger { return logger.Discard() }

func TestFetcherRequiresPlaceholder(t *testing.T) {
	_, err := NewFetcher("https://example.com/search", FetcherOptions{})
	assert.ErrorIs(t, err, engine.ErrMissingTermPlaceholder)

	_, err = NewGoogle("https://example.com/?q=", FetcherOptions{})
	assert.ErrorIs(t, err, engine.ErrMissingTermPlaceholder)
}

func TestFetcherSendsUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f, err := NewFetcher(srv.URL+"/?q={term}", FetcherOptions{UserAgent: "test-agent"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/?q=rock%20%26%20roll", f.URL("rock & roll"))

	body, err := f.Get(context.Background(), f.URL("x"))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "test-agent", ua)
}

func TestFetcherBadStatus(t *testing.T) {
	srv, _ := serve(t, http.StatusInternalServerError, "boom")
	f, err := NewFetcher(srv.URL+"/?q={term}", FetcherOptions{})
	require.NoError(t, err)

	_, err = f.Get(context.Background(), f.URL("x"))
	assert.ErrorIs(t, err, ErrBadStatus)
}

const googleBody = `["gith",["github","github copilot","gith","   ","github.com","githaroo"],
["","","","","",""],[],
{"google:suggestrelevance":[1250,601,600,900,"550",0],
 "google:suggesttype":["QUERY","QUERY","CALCULATOR","QUERY","NAVIGATION","QUERY"]}]`

func TestGoogle(t *testing.T) {
	srv, paths := serve(t, http.StatusOK, googleBody)
	g, err := NewGoogle(srv.URL+"/complete?client=chrome&q={term}", FetcherOptions{})
	require.NoError(t, err)

	items := Collect(context.Background(), g, "gith", 10, quiet())
	require.Len(t, items, 3)

	assert.Equal(t, Item{Text: "github", Kind: QueryCompletion, Relevance: 1250, Term: "gith", Source: "google"}, items[0])
	assert.Equal(t, "github copilot", items[1].Text)
	assert.Equal(t, NavigationTarget, items[2].Kind)
	assert.Equal(t, 550, items[2].Relevance)
	assert.Equal(t, "github.com", items[2].URL)

	assert.Equal(t, []string{"/complete?client=chrome&q=gith"}, *paths)

	limited := Collect(context.Background(), g, "gith", 1, quiet())
	assert.Len(t, limited, 1)
}

func TestGoogleFailuresAreEmpty(t *testing.T) {
	testCases := map[string]struct {
		status int
		body   string
	}{
		"server error": {http.StatusServiceUnavailable, googleBody},
		"not json":     {http.StatusOK, "<html>"},
		"short array":  {http.StatusOK, `["gith",["github"]]`},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			srv, _ := serve(t, tc.status, tc.body)
			g, err := NewGoogle(srv.URL+"/?q={term}", FetcherOptions{})
			require.NoError(t, err)
			assert.Empty(t, Collect(context.Background(), g, "gith", 5, quiet()))
		})
	}
}

func TestIMDb(t *testing.T) {
	body := `imdb$star_wars({"v":1,"q":"star_wars","d":[
{"l":"Star Wars","id":"tt0076759","s":"Mark Hamill, Harrison Ford","y":1977,"q":"feature","i":["https://m.media-amazon.com/images/a.jpg",1000,1500]},
{"l":"","id":"tt0000001"},
{"l":"Star Wars: Andor","id":"tt9253284","s":"Diego Luna","y":2022,"q":"TV series","i":{"imageUrl":"https://m.media-amazon.com/images/b.jpg","width":800,"height":1200}},
{"l":"Mark Hamill","id":"nm0000434","s":"Actor"}]})`
	srv, paths := serve(t, http.StatusOK, body)
	m, err := NewIMDb(srv.URL+"/suggests/{first_char}/{term}.json", FetcherOptions{})
	require.NoError(t, err)

	items := Collect(context.Background(), m, "Star Wars", 10, quiet())
	require.Len(t, items, 3)
	assert.Equal(t, []string{"/suggests/s/star_wars.json"}, *paths)

	assert.Equal(t, "Star Wars", items[0].Text)
	assert.Equal(t, NavigationTarget, items[0].Kind)
	assert.Equal(t, "https://www.imdb.com/title/tt0076759", items[0].URL)
	assert.Equal(t, "1977 · Movie · Mark Hamill, Harrison Ford", items[0].Detail)
	require.NotNil(t, items[0].Image)
	assert.Equal(t, 1000, items[0].Image.Width)

	require.NotNil(t, items[1].Image)
	assert.Equal(t, "https://m.media-amazon.com/images/b.jpg", items[1].Image.URL)

	assert.Equal(t, "https://www.imdb.com/name/nm0000434", items[2].URL)

	assert.Greater(t, items[0].Relevance, items[1].Relevance)
	assert.Greater(t, items[1].Relevance, items[2].Relevance)
	assert.Positive(t, items[2].Relevance)
}

func TestIMDbPlainJSON(t *testing.T) {
	items, err := parseIMDb([]byte(`{"d":[{"l":"Alien","id":"tt0078748"}]}`), "alien")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Relevance)

	_, err = parseIMDb([]byte(`imdb$x(`), "x")
	assert.Error(t, err)
}

func TestDuckDuckGo(t *testing.T) {
	body := `{"Heading":"Go (programming language)",
"Abstract":"<b>Go</b> is a statically typed language",
"AbstractText":"<b>Go</b> is a statically typed,  compiled language &amp; more",
"AbstractURL":"https://en.wikipedia.org/wiki/Go_(programming_language)",
"Definition":"",
"Image":"/i/go.png","ImageWidth":"64","ImageHeight":64}`
	srv, _ := serve(t, http.StatusOK, body)
	d, err := NewDuckDuckGo(srv.URL+"/?q={term}", FetcherOptions{})
	require.NoError(t, err)

	assert.True(t, d.Accepts("golang"))
	assert.False(t, d.Accepts("github.com"))
	assert.False(t, d.Accepts("  "))

	p := Answer(context.Background(), d, "golang", quiet())
	require.NotNil(t, p)
	assert.Equal(t, "duckduckgo", p.Source)
	assert.Equal(t, "golang", p.Term)
	assert.Equal(t, "Go (programming language)", p.Heading)
	assert.Equal(t, "Go is a statically typed, compiled language & more", p.Abstract)
	assert.Empty(t, p.Definition)
	require.NotNil(t, p.Image)
	assert.Equal(t, "https://duckduckgo.com/i/go.png", p.Image.URL)
	assert.Equal(t, 64, p.Image.Width)
	assert.Equal(t, 64, p.Image.Height)
}

func TestDuckDuckGoEmptyAnswer(t *testing.T) {
	p, err := parseDuckDuckGo([]byte(`{"Heading":"Nothing","Abstract":"","Definition":""}`), "nothing")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = parseDuckDuckGo([]byte(`{"Abstract":"same","AbstractText":"same","Definition":"same"}`), "same")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Empty(t, p.Definition)
}

const wikiBody = `<?xml version="1.0"?>
<SearchSuggestion xmlns="http://opensearch.org/searchsuggest2" version="2.0">
<Query xml:space="preserve">golang</Query>
<Section>
<Item><Text xml:space="preserve">Golang</Text><Url xml:space="preserve">https://en.wikipedia.org/wiki/Golang</Url></Item>
<Item><Text xml:space="preserve">Go (programming language)</Text>
<Description xml:space="preserve"> Go is a programming language designed at Google. </Description>
<Url xml:space="preserve">https://en.wikipedia.org/wiki/Go_(programming_language)</Url>
<Image source="https://upload.wikimedia.org/go.png" width="50" height="19"/></Item>
</Section>
</SearchSuggestion>`

func TestWikipedia(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, wikiBody)
	w, err := NewWikipedia(srv.URL+"/?search={term}", FetcherOptions{})
	require.NoError(t, err)

	assert.False(t, w.Accepts("g"))
	assert.False(t, w.Accepts("https://go.dev"))
	assert.True(t, w.Accepts("go"))

	p := Answer(context.Background(), w, "golang", quiet())
	require.NotNil(t, p)
	assert.Equal(t, "Go (programming language)", p.Heading)
	assert.Equal(t, "Go is a programming language designed at Google.", p.Abstract)
	require.NotNil(t, p.Image)
	assert.Equal(t, Image{URL: "https://upload.wikimedia.org/go.png", Width: 50, Height: 19}, *p.Image)
}

func TestWikipediaNoDescription(t *testing.T) {
	p, err := parseWikipedia([]byte(`<SearchSuggestion><Section><Item><Text>x</Text></Item></Section></SearchSuggestion>`), "x")
	require.NoError(t, err)
	assert.Nil(t, p)
}

type failingSource struct{ err error }

func (f failingSource) Name() string { return "failing" }
func (f failingSource) Fetch(context.Context, string, int) ([]Item, error) {
	return nil, f.err
}

func TestCollectRecoversErrors(t *testing.T) {
	assert.Nil(t, Collect(context.Background(), failingSource{errors.New("down")}, "x", 5, quiet()))
	assert.Nil(t, Collect(context.Background(), failingSource{context.Canceled}, "x", 5, quiet()))
	assert.Nil(t, Collect(context.Background(), failingSource{}, "x", 0, quiet()))
}

func TestRegistry(t *testing.T) {
	a := failingSource{}
	reg, err := NewRegistry[Source]("failing", a)
	require.NoError(t, err)

	got, ok := reg.Get("")
	assert.True(t, ok)
	assert.Equal(t, "failing", got.Name())

	_, err = reg.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.Equal(t, []string{"failing"}, reg.Names())

	_, err = NewRegistry[Source]("failing", a, a)
	assert.ErrorIs(t, err, ErrDuplicateSource)

	_, err = NewRegistry[Source]("other", a)
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestBuiltins(t *testing.T) {
	hist := history.New(store.NewMemory(), 10)
	b, err := NewBuiltins(BuiltinOptions{History: hist, Dictionary: dictionary.New()})
	require.NoError(t, err)

	assert.Equal(t, []string{"google", "imdb", "history", "dictionary"}, b.Sources.Names())
	assert.Equal(t, []string{"duckduckgo", "wikipedia"}, b.Helpers.Names())
	def, ok := b.Sources.Default()
	require.True(t, ok)
	assert.Equal(t, "google", def.Name())
	assert.NotNil(t, b.History)

	_, err = NewBuiltins(BuiltinOptions{Templates: map[string]string{"imdb": "https://imdb.example/"}})
	assert.ErrorIs(t, err, engine.ErrMissingTermPlaceholder)

	_, err = NewBuiltins(BuiltinOptions{DefaultSource: "history"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestHistorySourceSkipsRepeats(t *testing.T) {
	hist := history.New(store.NewMemory(), 10)
	for _, q := range []string{"github", "weather", "github", "news", "github", "github issues", "gitlab"} {
		require.NoError(t, hist.Add(history.Entry{Query: q, Kind: history.Query}))
	}

	src := NewHistorySource(hist, history.MatchOptions{MinScore: 0.35, Fuzziness: 0.5, Limit: 3})
	items, err := src.Fetch(context.Background(), "git", 5)
	require.NoError(t, err)

	var got []string
	for _, it := range items {
		got = append(got, it.Text)
	}
	assert.Equal(t, []string{"github", "gitlab", "github issues"}, got)

	items, err = src.Fetch(context.Background(), "git", 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDedupeItems(t *testing.T) {
	items := []Item{
		{Text: "go", Kind: HistoryQuery},
		{Text: "go", Kind: HistoryNavigation},
		{Text: "go", Kind: HistoryQuery},
		{Text: "rust", Kind: HistoryQuery},
	}
	assert.Len(t, DedupeItems(items, 10), 3)
	assert.Len(t, DedupeItems(items, 2), 2)
	assert.Empty(t, DedupeItems(items, 0))
}

func TestHistorySource(t *testing.T) {
	hist := history.New(store.NewMemory(), 10)
	require.NoError(t, hist.Add(history.Entry{Query: "github issues", Kind: history.Query}))
	require.NoError(t, hist.Add(history.Entry{Query: "github.com", Kind: history.Navigation}))
	require.NoError(t, hist.Add(history.Entry{Query: "weather", Kind: history.Query}))

	src := NewHistorySource(hist, history.MatchOptions{MinScore: 0.35, Fuzziness: 0.5, Limit: 3})
	items, err := src.Fetch(context.Background(), "gith", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.True(t, strings.HasPrefix(it.Text, "github"))
		assert.Positive(t, it.Relevance)
	}

	var nav Item
	for _, it := range items {
		if it.Kind == HistoryNavigation {
			nav = it
		}
	}
	assert.Equal(t, "https://github.com", nav.URL)

	src.SetOptions(history.MatchOptions{Kinds: []history.Kind{history.Navigation}, MinScore: 0.35, Fuzziness: 0.5, Limit: 3})
	items, err = src.Fetch(context.Background(), "gith", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, HistoryNavigation, items[0].Kind)
}

func TestDictionarySource(t *testing.T) {
	dict := dictionary.New()
	dict.Add("weather", 500)
	dict.Add("weekend", 300)
	dict.Add("west", 5)

	src := NewDictionarySource(dict, 10)
	items, err := src.Fetch(context.Background(), "nice We", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "nice Weather", items[0].Text)
	assert.Equal(t, "nice Weekend", items[1].Text)
	assert.Equal(t, "nice We", items[0].Term)

	// second lookup is served from the cache with a different head
	items, err = src.Fetch(context.Background(), "We", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Weather", items[0].Text)
	assert.Equal(t, 1, src.cache.Stats()["cacheHits"])

	items, err = src.Fetch(context.Background(), "we ", 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPrefixCacheEvictsLRU(t *testing.T) {
	c := NewPrefixCache(2)
	c.Put("a", []Item{{Text: "a"}})
	c.Put("b", []Item{{Text: "b"}})
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Put("c", []Item{{Text: "c"}})

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Stats()["cachedPrefixes"])
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "Go is fun & fast", StripMarkup("<p><b>Go</b> is   fun &amp; fast</p>"))
	assert.Equal(t, "plain text", StripMarkup(" plain \n text "))
	assert.Equal(t, "a b", StripMarkup("a<br/>b"))
}

func TestKindText(t *testing.T) {
	b, err := HistoryNavigation.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "history_navigation", string(b))

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("engine_switch")))
	assert.Equal(t, EngineSwitch, k)
	assert.Error(t, k.UnmarshalText([]byte("bogus")))

	assert.True(t, HistoryQuery.IsSuggestion())
	assert.False(t, HelperAnswer.IsSuggestion())
	assert.True(t, NavigationTarget.IsNavigation())
}
