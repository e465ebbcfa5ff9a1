package aggregate

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/panjf2000/ants/v2"

	"github.com/bastiangx/quicksearch/pkg/config"
	"github.com/bastiangx/quicksearch/pkg/history"
)

// Option configures a Manager.
type Option func(*Manager) error

// WithLogger sets the logger. Default is log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = log.Default()
		}
		m.logger = logger
		return nil
	}
}

// WithPoolSize sizes the fetch pool. Default is the [http] pool_size setting.
func WithPoolSize(size int) Option {
	return func(m *Manager) error {
		if size < 1 {
			size = 1
		}
		if m.pool != nil && m.ownsPool {
			m.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		m.pool = pool
		m.ownsPool = true
		return nil
	}
}

// WithPool runs fetches on a caller-owned pool. The manager never releases it.
func WithPool(pool *ants.Pool) Option {
	return func(m *Manager) error {
		if m.pool != nil && m.ownsPool {
			m.pool.Release()
		}
		m.pool = pool
		m.ownsPool = false
		return nil
	}
}

// settings is the tunable part of the config the manager reads on every
// keystroke.
type settings struct {
	suggestionsEnabled bool
	suggestionDelay    time.Duration
	suggestionLimit    int
	defaultSource      string
	autoAccept         bool

	historyEnabled bool
	historyMatch   history.MatchOptions

	helpersEnabled bool
	helperDelay    time.Duration
	helperPosition string
}

func settingsFrom(cfg *config.Config) settings {
	return settings{
		suggestionsEnabled: cfg.Suggestions.Enabled,
		suggestionDelay:    cfg.SuggestionDelay(),
		suggestionLimit:    cfg.Suggestions.Limit,
		defaultSource:      cfg.Suggestions.Source,
		autoAccept:         cfg.Suggestions.AutoAccept,
		historyEnabled:     cfg.History.Enabled,
		historyMatch: history.MatchOptions{
			MinScore:  cfg.History.MinScore,
			Limit:     cfg.History.MaxMatches,
			Fuzziness: cfg.History.Fuzziness,
		},
		helpersEnabled: cfg.Helpers.Enabled,
		helperDelay:    cfg.HelperDelay(),
		helperPosition: cfg.Helpers.Position,
	}
}
