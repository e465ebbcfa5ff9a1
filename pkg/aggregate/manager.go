/*
Package aggregate merges remote suggestions, instant answers and search
history into one presented result set while the user types.

Suggestions and helpers are independent concerns, each moving through
Idle, Debouncing, Fetching and Settled. Every input change restarts both
debounce timers. Fetches run on a bounded ants pool and capture the term they
were issued for; a result is applied only if that term is still the current
input of the same session, otherwise it is dropped. History matches are
computed synchronously on every input change.

All presented state lives behind one mutex. Changes are published as
versioned Snapshots to subscribers.
*/
package aggregate

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/bastiangx/quicksearch/internal/utils"
	"github.com/bastiangx/quicksearch/pkg/config"
	"github.com/bastiangx/quicksearch/pkg/engine"
	"github.com/bastiangx/quicksearch/pkg/history"
	"github.com/bastiangx/quicksearch/pkg/suggest"
)

// keywordPattern matches input that ends in whitespace, the trigger for
// switching engines by keyword.
var keywordPattern = regexp.MustCompile(`^(.+?)\s$`)

const releaseTimeout = 3 * time.Second

// Manager coordinates one input session at a time.
type Manager struct {
	mu sync.Mutex

	cfg     settings
	engines *engine.Set
	sources *suggest.Registry[suggest.Source]
	helpers *suggest.Registry[suggest.Helper]
	history *history.Store

	pool     *ants.Pool
	ownsPool bool
	logger   *log.Logger
	closed   bool

	sessionID     string
	sessionCtx    context.Context
	cancelSession context.CancelFunc

	current   engine.Engine
	input     string
	highlight int
	listing   bool

	remote         []suggest.Item
	historyItems   []suggest.Item
	engineItems    []suggest.Item
	helperSlots    []*suggest.HelperPayload
	helpersPending int

	sugState  State
	helpState State
	sug       debouncer
	help      debouncer

	suppressAutoAccept bool
	prefill            string
	// quietText is input the manager itself proposed (a prefill or a history
	// replay); when it comes back through SetInput nothing is refetched.
	quietText string

	version uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	emitMu      sync.Mutex
	lastEmitted uint64
}

// New builds a manager for cfg. hist may be nil to disable history.
func New(
	cfg *config.Config,
	sources *suggest.Registry[suggest.Source],
	helpers *suggest.Registry[suggest.Helper],
	hist *history.Store,
	opts ...Option,
) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	engines, err := cfg.EngineSet()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:       settingsFrom(cfg),
		engines:   engines,
		sources:   sources,
		helpers:   helpers,
		history:   hist,
		logger:    log.Default(),
		highlight: -1,
		subs:      make(map[int]func(Snapshot)),
	}
	if err := m.validateEngines(engines, m.cfg); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			m.releasePool()
			return nil, err
		}
	}
	if m.pool == nil {
		size := cfg.HTTP.PoolSize
		if size < 1 {
			size = 8
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return nil, err
		}
		m.pool = pool
		m.ownsPool = true
	}

	m.current = engines.Default()
	return m, nil
}

// validateEngines checks that every source and helper an engine names exists.
func (m *Manager) validateEngines(engines *engine.Set, cfg settings) error {
	for _, e := range engines.All() {
		if e.EnableSuggestions {
			if _, err := m.sources.Lookup(resolveSource(e, cfg)); err != nil {
				return fmt.Errorf("engine %q: %w", e.Name, err)
			}
		}
		for _, name := range e.AllowedHelpers {
			if name == "" {
				continue
			}
			if _, err := m.helpers.Lookup(name); err != nil {
				return fmt.Errorf("engine %q: helper %q: %w", e.Name, name, err)
			}
		}
	}
	return nil
}

// resolveSource maps an engine's source setting to a registry name; "" is
// the registry default.
func resolveSource(e engine.Engine, cfg settings) string {
	name := e.Source()
	if name == engine.DefaultSource {
		return cfg.defaultSource
	}
	return name
}

// Close ends the session and releases the fetch pool.
func (m *Manager) Close() error {
	m.CloseSession()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	return m.releasePool()
}

func (m *Manager) releasePool() error {
	if m.pool == nil || !m.ownsPool {
		return nil
	}
	return m.pool.ReleaseTimeout(releaseTimeout)
}

// Subscribe registers fn for every emitted snapshot and returns a function
// that removes it. fn runs on the emitting goroutine and must not call back
// into the Manager.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// OpenSession starts a fresh session on the default engine and returns its id.
// An open session is closed first.
func (m *Manager) OpenSession() (string, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}
	m.endSessionLocked()

	m.sessionID = uuid.NewString()
	m.sessionCtx, m.cancelSession = context.WithCancel(context.Background())
	m.current = m.engines.Default()
	id := m.sessionID
	m.logger.Debug("session opened", "session", id)

	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)
	return id, nil
}

// CloseSession cancels pending timers, resets the history cursor and clears
// the presented state. In-flight fetches are discarded when they finish.
func (m *Manager) CloseSession() {
	m.mu.Lock()
	if m.sessionID == "" {
		m.mu.Unlock()
		return
	}
	m.logger.Debug("session closed", "session", m.sessionID)
	m.endSessionLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)
}

func (m *Manager) endSessionLocked() {
	m.sug.stop()
	m.help.stop()
	if m.cancelSession != nil {
		m.cancelSession()
		m.cancelSession = nil
	}
	if m.history != nil {
		m.history.ResetCursor()
	}
	m.sessionID = ""
	m.sessionCtx = nil
	m.input = ""
	m.quietText = ""
	m.prefill = ""
	m.suppressAutoAccept = false
	m.current = m.engines.Default()
	m.clearResultsLocked()
}

func (m *Manager) clearResultsLocked() {
	m.remote = nil
	m.historyItems = nil
	m.engineItems = nil
	m.helperSlots = nil
	m.helpersPending = 0
	m.listing = false
	m.highlight = -1
	m.sugState = Idle
	m.helpState = Idle
}

// SetInput reports a change of the input text.
func (m *Manager) SetInput(term string) error {
	m.mu.Lock()
	if m.sessionID == "" {
		m.mu.Unlock()
		return ErrNoSession
	}
	if term == m.input && !m.listing {
		m.mu.Unlock()
		return nil
	}

	old := m.input
	m.input = term
	quiet := m.quietText != "" && term == m.quietText
	m.quietText = ""
	m.prefill = ""

	if quiet {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.emit(snap)
		return nil
	}

	if len(term) < len(old) && strings.HasPrefix(old, term) {
		m.suppressAutoAccept = true
	}

	if m.switchByKeywordLocked(term) {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.emit(snap)
		return nil
	}

	m.refreshLocked(term)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)
	return nil
}

// switchByKeywordLocked switches engines when the default engine is active
// and term is an engine keyword followed by whitespace.
func (m *Manager) switchByKeywordLocked(term string) bool {
	if !m.onDefaultEngineLocked() {
		return false
	}
	match := keywordPattern.FindStringSubmatch(term)
	if match == nil {
		return false
	}
	e, ok := m.engines.ByKeyword(strings.TrimSpace(match[1]))
	if !ok || sameEngine(e, m.current) {
		return false
	}
	m.logger.Debug("engine switched by keyword", "engine", e.Name)
	m.switchEngineLocked(e)
	return true
}

func (m *Manager) onDefaultEngineLocked() bool {
	return sameEngine(m.current, m.engines.Default())
}

func sameEngine(a, b engine.Engine) bool {
	return a.OpenURL == b.OpenURL && a.ID == b.ID
}

func (m *Manager) switchEngineLocked(e engine.Engine) {
	m.sug.stop()
	m.help.stop()
	m.current = e
	m.input = ""
	m.prefill = ""
	m.quietText = ""
	m.clearResultsLocked()
}

// refreshLocked recomputes history and restarts both debounce cycles for term.
func (m *Manager) refreshLocked(term string) {
	m.listing = false
	m.engineItems = nil
	m.help.stop()
	m.helperSlots = nil
	m.helpersPending = 0

	if utils.IsBlank(term) {
		m.sug.stop()
		m.remote = nil
		m.historyItems = nil
		m.highlight = -1
		m.sugState = Idle
		m.helpState = Idle
		return
	}

	m.historyItems = m.historyMatchesLocked(term)

	if m.canRehighlightLocked(term) {
		m.sug.stop()
		m.sugState = Settled
		m.highlight = 0
		m.logger.Debug("re-highlighting", "term", term)
		m.computePrefillLocked()
	} else {
		m.remote = nil
		m.startSuggestionsLocked(term, m.cfg.suggestionDelay)
		m.highlight = m.firstHighlightLocked()
	}

	m.startHelpersLocked(term, m.cfg.helperDelay)
}

// canRehighlightLocked reports whether the open results still fit term: the
// top suggestion starts with it, ignoring case.
func (m *Manager) canRehighlightLocked(term string) bool {
	if m.sugState != Settled || len(m.remote) == 0 || strings.HasSuffix(term, " ") {
		return false
	}
	top, ok := m.topSuggestionLocked()
	return ok && utils.HasPrefixIgnoreCase(top.Text, term)
}

func (m *Manager) suggestionsAllowedLocked() bool {
	return m.cfg.suggestionsEnabled && (m.current.EnableSuggestions || m.current.OpenURL)
}

func (m *Manager) helpersAllowedLocked() bool {
	return m.cfg.helpersEnabled && m.current.EnableHelpers && !m.current.OpenURL && len(m.current.AllowedHelpers) > 0
}

func (m *Manager) startSuggestionsLocked(term string, delay time.Duration) {
	if !m.suggestionsAllowedLocked() {
		m.sug.stop()
		m.sugState = Idle
		return
	}
	sid := m.sessionID
	m.sugState = Debouncing
	m.sug.restart(m.sessionCtx, delay, func(ctx context.Context, gen uint64) {
		m.fireSuggestions(ctx, gen, sid, term)
	})
}

func (m *Manager) startHelpersLocked(term string, delay time.Duration) {
	if !m.helpersAllowedLocked() {
		m.help.stop()
		m.helpState = Idle
		return
	}
	sid := m.sessionID
	m.helpState = Debouncing
	m.help.restart(m.sessionCtx, delay, func(ctx context.Context, gen uint64) {
		m.fireHelpers(ctx, gen, sid, term)
	})
}

// liveLocked reports whether a cycle captured for (sid, term) may still
// touch the presented state.
func (m *Manager) liveLocked(sid, term string) bool {
	return sid == m.sessionID && term == m.input && !m.listing
}

func (m *Manager) fireSuggestions(ctx context.Context, gen uint64, sid, term string) {
	m.mu.Lock()
	if !m.sug.current(gen) || !m.liveLocked(sid, term) {
		m.mu.Unlock()
		return
	}
	src, ok := m.sources.Get(m.sourceNameLocked())
	limit := m.cfg.suggestionLimit
	navOnly := m.current.OpenURL
	m.sugState = Fetching
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)

	if !ok {
		m.applySuggestions(gen, sid, term, nil, navOnly)
		return
	}
	err := m.pool.Submit(func() {
		items := suggest.Collect(ctx, src, term, limit, m.logger)
		m.applySuggestions(gen, sid, term, items, navOnly)
	})
	if err != nil {
		m.logger.Warn("suggestion fetch not scheduled", "term", term, "err", err)
		m.applySuggestions(gen, sid, term, nil, navOnly)
	}
}

func (m *Manager) sourceNameLocked() string {
	if m.current.OpenURL {
		return m.cfg.defaultSource
	}
	return resolveSource(m.current, m.cfg)
}

func (m *Manager) applySuggestions(gen uint64, sid, term string, items []suggest.Item, navOnly bool) {
	m.mu.Lock()
	if !m.sug.current(gen) || !m.liveLocked(sid, term) {
		m.mu.Unlock()
		m.logger.Debug("discarding stale suggestions", "term", term)
		return
	}

	filter := utils.NewSuggestionFilter(term)
	remote := make([]suggest.Item, 0, len(items))
	for _, it := range items {
		if navOnly && !it.Kind.IsNavigation() {
			continue
		}
		if !filter.ShouldInclude(it.Text) {
			continue
		}
		remote = append(remote, it)
	}

	m.remote = remote
	m.sugState = Settled
	m.highlight = m.firstHighlightLocked()
	m.computePrefillLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)
}

func (m *Manager) fireHelpers(ctx context.Context, gen uint64, sid, term string) {
	m.mu.Lock()
	if !m.help.current(gen) || !m.liveLocked(sid, term) {
		m.mu.Unlock()
		return
	}

	var accepted []suggest.Helper
	for _, name := range m.current.AllowedHelpers {
		if name == "" {
			continue
		}
		h, ok := m.helpers.Get(name)
		if !ok || !h.Accepts(term) {
			continue
		}
		accepted = append(accepted, h)
	}

	m.helperSlots = make([]*suggest.HelperPayload, len(accepted))
	m.helpersPending = len(accepted)
	if len(accepted) == 0 {
		m.helpState = Settled
	} else {
		m.helpState = Fetching
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)

	for i, h := range accepted {
		err := m.pool.Submit(func() {
			p := suggest.Answer(ctx, h, term, m.logger)
			m.applyHelper(gen, sid, term, i, p)
		})
		if err != nil {
			m.logger.Warn("helper fetch not scheduled", "helper", h.Name(), "err", err)
			m.applyHelper(gen, sid, term, i, nil)
		}
	}
}

func (m *Manager) applyHelper(gen uint64, sid, term string, slot int, p *suggest.HelperPayload) {
	m.mu.Lock()
	if !m.help.current(gen) || !m.liveLocked(sid, term) || slot >= len(m.helperSlots) {
		m.mu.Unlock()
		m.logger.Debug("discarding stale helper answer", "term", term)
		return
	}
	m.helperSlots[slot] = p
	m.helpersPending--
	if m.helpersPending <= 0 {
		m.helpersPending = 0
		m.helpState = Settled
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)
}

func (m *Manager) historyMatchesLocked(term string) []suggest.Item {
	if !m.cfg.historyEnabled || m.history == nil {
		return nil
	}
	opts := m.cfg.historyMatch
	if m.current.OpenURL {
		opts.Kinds = []history.Kind{history.Navigation}
	} else {
		opts.Kinds = []history.Kind{history.Query, history.Navigation}
	}

	return suggest.BestHistoryItems(m.history, term, opts)
}

// topSuggestionLocked returns the first presented suggestion-kind item.
func (m *Manager) topSuggestionLocked() (suggest.Item, bool) {
	for _, items := range [][]suggest.Item{m.remote, m.historyItems} {
		for _, it := range items {
			if it.Kind.IsSuggestion() {
				return it, true
			}
		}
	}
	return suggest.Item{}, false
}

func (m *Manager) firstHighlightLocked() int {
	if len(m.remote) > 0 || len(m.historyItems) > 0 {
		return 0
	}
	return -1
}

// computePrefillLocked applies auto-accept: the top suggestion is proposed
// when it extends the exact input. A pending suppression skips one proposal.
func (m *Manager) computePrefillLocked() {
	m.prefill = ""
	if !m.cfg.autoAccept {
		return
	}
	term := m.input
	if term == "" || strings.HasSuffix(term, " ") {
		return
	}
	top, ok := m.topSuggestionLocked()
	if !ok {
		return
	}
	if m.suppressAutoAccept {
		m.suppressAutoAccept = false
		return
	}
	if top.Text == term || !strings.HasPrefix(top.Text, term) {
		return
	}
	m.prefill = top.Text
	m.quietText = top.Text
}

// SuppressAutoAccept skips the next auto-accept, as after a destructive edit
// the manager cannot see (for example deleting a selection).
func (m *Manager) SuppressAutoAccept() {
	m.mu.Lock()
	m.suppressAutoAccept = true
	m.mu.Unlock()
}

// ResetEngine returns to the default engine.
func (m *Manager) ResetEngine() error {
	m.mu.Lock()
	if m.sessionID == "" {
		m.mu.Unlock()
		return ErrNoSession
	}
	if m.onDefaultEngineLocked() {
		m.mu.Unlock()
		return nil
	}
	input := m.input
	m.switchEngineLocked(m.engines.Default())
	m.input = input
	m.refreshLocked(input)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)
	return nil
}

// HistoryPrev replays the previous history entry into the input. The
// returned text is quiet: echoing it through SetInput fetches nothing.
func (m *Manager) HistoryPrev() (string, error) {
	return m.replay(func(h *history.Store, cur string) history.Entry {
		e, _ := h.Prev(cur)
		return e
	})
}

// HistoryNext replays the next history entry, restoring the typed text past
// the newest one.
func (m *Manager) HistoryNext() (string, error) {
	return m.replay(func(h *history.Store, cur string) history.Entry {
		e, _ := h.Next(cur)
		return e
	})
}

func (m *Manager) replay(step func(*history.Store, string) history.Entry) (string, error) {
	m.mu.Lock()
	if m.sessionID == "" {
		m.mu.Unlock()
		return "", ErrNoSession
	}
	if m.history == nil {
		text := m.input
		m.mu.Unlock()
		return text, nil
	}

	e := step(m.history, m.input)
	m.sug.stop()
	m.help.stop()
	m.clearResultsLocked()
	m.input = e.Query
	m.prefill = ""
	m.quietText = e.Query
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)
	return e.Query, nil
}

// SelectEngineList cancels pending fetches and presents the other engines
// as EngineSwitch items.
func (m *Manager) SelectEngineList() error {
	m.mu.Lock()
	if m.sessionID == "" {
		m.mu.Unlock()
		return ErrNoSession
	}
	m.listEnginesLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)
	return nil
}

func (m *Manager) listEnginesLocked() {
	m.sug.stop()
	m.help.stop()
	m.clearResultsLocked()
	m.prefill = ""

	others := m.engines.Others(m.current)
	items := make([]suggest.Item, 0, len(others))
	for i, e := range others {
		items = append(items, suggest.Item{
			Text:      e.Name,
			Kind:      suggest.EngineSwitch,
			Relevance: len(others) - i,
			Term:      m.input,
			Detail:    e.Keyword,
			EngineID:  e.ID,
		})
	}
	m.listing = true
	m.engineItems = items
	if len(items) > 0 {
		m.highlight = 0
	}
}

// Display refreshes the selected parts for the current input immediately,
// without waiting for the debounce delays.
func (m *Manager) Display(opts DisplayOptions) error {
	m.mu.Lock()
	if m.sessionID == "" {
		m.mu.Unlock()
		return ErrNoSession
	}

	if opts.Engines {
		m.listEnginesLocked()
	} else if term := m.input; !utils.IsBlank(term) {
		m.listing = false
		m.engineItems = nil
		if opts.History {
			m.historyItems = m.historyMatchesLocked(term)
		}
		if opts.Suggestions {
			m.remote = nil
			m.startSuggestionsLocked(term, 0)
		}
		if opts.Helpers {
			m.helperSlots = nil
			m.helpersPending = 0
			m.startHelpersLocked(term, 0)
		}
		m.highlight = m.firstHighlightLocked()
	}

	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)
	return nil
}

// Activate resolves item into an action. Queries and navigation targets are
// recorded in history and end the session; engine switches keep it open.
func (m *Manager) Activate(item suggest.Item) (Action, error) {
	m.mu.Lock()
	if m.sessionID == "" {
		m.mu.Unlock()
		return Action{}, ErrNoSession
	}

	if item.Kind == suggest.EngineSwitch {
		e, ok := m.engines.ByKeyword(item.Detail)
		if !ok {
			e, ok = m.engines.ByID(item.EngineID)
		}
		if !ok {
			m.mu.Unlock()
			return Action{}, fmt.Errorf("%w: %q", engine.ErrUnknownEngine, item.Text)
		}
		m.switchEngineLocked(e)
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.emit(snap)
		return Action{Engine: e, Switched: true}, nil
	}

	text := strings.TrimSpace(item.Text)
	if text == "" {
		m.mu.Unlock()
		return Action{}, ErrEmptyInput
	}

	act := Action{Engine: m.current, Query: text}
	var entry *history.Entry
	switch {
	case item.Kind == suggest.HelperAnswer:
		act.URL = item.URL
	case item.Kind.IsNavigation() || m.current.OpenURL:
		act.URL = item.URL
		if act.URL == "" {
			act.URL = utils.NormalizeURL(text)
		}
		entry = &history.Entry{Query: text, Kind: history.Navigation}
	default:
		act.URL = m.current.QueryURL(text)
		entry = &history.Entry{Query: text, Kind: history.Query}
	}
	hist := m.history
	record := m.cfg.historyEnabled
	m.mu.Unlock()

	if entry != nil && record && hist != nil {
		if err := hist.Add(*entry); err != nil {
			m.logger.Warn("history not saved", "query", entry.Query, "err", err)
		}
	}
	if act.URL != "" {
		m.CloseSession()
	}
	return act, nil
}

// Submit activates the current input as typed.
func (m *Manager) Submit() (Action, error) {
	m.mu.Lock()
	if m.sessionID == "" {
		m.mu.Unlock()
		return Action{}, ErrNoSession
	}
	text := m.input
	m.mu.Unlock()

	if utils.IsBlank(text) {
		return Action{}, ErrEmptyInput
	}
	return m.Activate(suggest.Item{Text: text, Kind: suggest.QueryCompletion, Relevance: 1, Term: text})
}

// UpdateConfig swaps tunables and engines. The active engine is kept when
// it still exists. History is trimmed to the new cap.
func (m *Manager) UpdateConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	engines, err := cfg.EngineSet()
	if err != nil {
		return err
	}
	next := settingsFrom(cfg)
	if err := m.validateEngines(engines, next); err != nil {
		return err
	}

	m.mu.Lock()
	m.cfg = next
	m.engines = engines
	if m.current.OpenURL {
		if e, ok := engines.OpenURL(); ok {
			m.current = e
		} else {
			m.current = engines.Default()
		}
	} else if e, ok := engines.ByID(m.current.ID); ok {
		m.current = e
	} else {
		m.current = engines.Default()
	}
	hist := m.history
	m.mu.Unlock()

	if m.ownsPool && cfg.HTTP.PoolSize > 0 {
		m.pool.Tune(cfg.HTTP.PoolSize)
	}
	if hist != nil {
		if err := hist.SetLimit(cfg.History.Limit); err != nil {
			m.logger.Warn("history limit not applied", "err", err)
		}
	}
	m.logger.Debug("config updated", "engines", len(engines.All()))
	return nil
}

// Engines returns the configured engine set.
func (m *Manager) Engines() *engine.Set {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engines
}

// Current returns the presented state without emitting it.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.buildLocked()
	s.Version = m.version
	return s
}

func (m *Manager) snapshotLocked() Snapshot {
	m.version++
	s := m.buildLocked()
	s.Version = m.version
	return s
}

func (m *Manager) buildLocked() Snapshot {
	s := Snapshot{
		SessionID:          m.sessionID,
		Input:              m.input,
		Engine:             m.current,
		Highlight:          m.highlight,
		HelperPosition:     m.cfg.helperPosition,
		SuggestionsState:   m.sugState,
		HelpersState:       m.helpState,
		SuggestionsLoading: m.sugState == Fetching,
		HelpersLoading:     m.helpState == Fetching && m.helpersPending > 0,
		Prefill:            m.prefill,
	}

	if m.listing {
		if len(m.engineItems) > 0 {
			s.Groups = []Group{{Label: LabelEngines, Items: slices.Clone(m.engineItems)}}
		}
	} else {
		if len(m.remote) > 0 {
			s.Groups = append(s.Groups, Group{Label: LabelSuggestions, Items: slices.Clone(m.remote)})
		}
		if len(m.historyItems) > 0 {
			s.Groups = append(s.Groups, Group{Label: LabelHistory, Items: slices.Clone(m.historyItems)})
		}
	}

	for _, p := range m.helperSlots {
		if p != nil {
			s.Helpers = append(s.Helpers, *p)
		}
	}
	if len(s.Groups) == 0 {
		s.Highlight = -1
	}
	return s
}

// emit delivers snap unless a newer snapshot has already gone out.
func (m *Manager) emit(snap Snapshot) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	if snap.Version <= m.lastEmitted {
		return
	}
	m.lastEmitted = snap.Version

	m.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
