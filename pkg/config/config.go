/*
Package config manages the TOML (or YAML) config for quicksearch.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/bastiangx/quicksearch/internal/utils"
	"github.com/bastiangx/quicksearch/pkg/engine"
)

// DefaultFileName is the config file created in the config directory.
const DefaultFileName = "config.toml"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the entire config structure
type Config struct {
	DefaultEngine  int    `toml:"default_engine" yaml:"default_engine"`
	OpenURLKeyword string `toml:"open_url_keyword" yaml:"open_url_keyword"`
	OpenURLLabel   string `toml:"open_url_label" yaml:"open_url_label"`

	Suggestions SuggestionsConfig `toml:"suggestions" yaml:"suggestions"`
	History     HistoryConfig     `toml:"history" yaml:"history"`
	Helpers     HelpersConfig     `toml:"helpers" yaml:"helpers"`
	HTTP        HTTPConfig        `toml:"http" yaml:"http"`
	Dictionary  DictionaryConfig  `toml:"dictionary" yaml:"dictionary"`

	Engines []engine.Engine `toml:"engines" yaml:"engines"`
}

// SuggestionsConfig has remote suggestion options.
type SuggestionsConfig struct {
	Enabled    bool   `toml:"enabled" yaml:"enabled"`
	DelayMS    int    `toml:"delay_ms" yaml:"delay_ms"`
	Limit      int    `toml:"limit" yaml:"limit"`
	Source     string `toml:"source" yaml:"source"`
	AutoAccept bool   `toml:"auto_accept" yaml:"auto_accept"`
}

// HistoryConfig holds search history options.
type HistoryConfig struct {
	Enabled    bool    `toml:"enabled" yaml:"enabled"`
	Limit      int     `toml:"limit" yaml:"limit"`
	MaxMatches int     `toml:"max_matches" yaml:"max_matches"`
	MinScore   float64 `toml:"min_score" yaml:"min_score"`
	Fuzziness  float64 `toml:"fuzziness" yaml:"fuzziness"`
	StoreDir   string  `toml:"store_dir" yaml:"store_dir"`
}

// HelpersConfig holds instant answer options.
type HelpersConfig struct {
	Enabled  bool   `toml:"enabled" yaml:"enabled"`
	DelayMS  int    `toml:"delay_ms" yaml:"delay_ms"`
	Position string `toml:"position" yaml:"position"`
}

// HTTPConfig tunes outgoing requests and the fetch pool.
type HTTPConfig struct {
	TimeoutMS  int     `toml:"timeout_ms" yaml:"timeout_ms"`
	UserAgent  string  `toml:"user_agent" yaml:"user_agent"`
	RatePerSec float64 `toml:"rate_per_sec" yaml:"rate_per_sec"`
	Burst      int     `toml:"burst" yaml:"burst"`
	PoolSize   int     `toml:"pool_size" yaml:"pool_size"`
}

// DictionaryConfig holds local word list options. An empty path disables it.
type DictionaryConfig struct {
	Path         string `toml:"path" yaml:"path"`
	MaxWords     int    `toml:"max_words" yaml:"max_words"`
	MinFrequency int    `toml:"min_frequency" yaml:"min_frequency"`
}

// Helper positions.
const (
	PositionTop    = "top"
	PositionBottom = "bottom"
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DefaultEngine:  1,
		OpenURLKeyword: "url",
		OpenURLLabel:   "Open URL",
		Suggestions: SuggestionsConfig{
			Enabled:    true,
			DelayMS:    300,
			Limit:      5,
			Source:     "google",
			AutoAccept: false,
		},
		History: HistoryConfig{
			Enabled:    true,
			Limit:      500,
			MaxMatches: 3,
			MinScore:   0.35,
			Fuzziness:  0.5,
		},
		Helpers: HelpersConfig{
			Enabled:  true,
			DelayMS:  500,
			Position: PositionTop,
		},
		HTTP: HTTPConfig{
			TimeoutMS:  5000,
			UserAgent:  "quicksearch/1.0",
			RatePerSec: 5,
			Burst:      5,
			PoolSize:   8,
		},
		Dictionary: DictionaryConfig{
			MaxWords:     50000,
			MinFrequency: 20,
		},
		Engines: DefaultEngines(),
	}
}

// DefaultEngines returns the engines shipped in a fresh config.
func DefaultEngines() []engine.Engine {
	return []engine.Engine{
		{
			ID:                1,
			Name:              "Google",
			Keyword:           "g",
			URL:               "https://www.google.com/search?q={term}",
			EnableSuggestions: true,
			EnableHelpers:     true,
			AllowedHelpers:    []string{"duckduckgo", "wikipedia"},
			SuggestionsSource: engine.DefaultSource,
		},
		{
			ID:                2,
			Name:              "Wikipedia",
			Keyword:           "wiki",
			URL:               "https://en.wikipedia.org/wiki/Special:Search?search={term}",
			EnableSuggestions: true,
			EnableHelpers:     true,
			AllowedHelpers:    []string{"wikipedia"},
			SuggestionsSource: engine.DefaultSource,
		},
		{
			ID:                3,
			Name:              "IMDb",
			Keyword:           "imdb",
			URL:               "https://www.imdb.com/find?q={term}",
			EnableSuggestions: true,
			SuggestionsSource: "imdb",
		},
		{
			ID:                4,
			Name:              "DuckDuckGo",
			Keyword:           "d",
			URL:               "https://duckduckgo.com/?q={term}",
			EnableSuggestions: true,
			EnableHelpers:     true,
			AllowedHelpers:    []string{"duckduckgo"},
			SuggestionsSource: engine.DefaultSource,
		},
	}
}

// SuggestionDelay returns the suggestions debounce delay.
func (c *Config) SuggestionDelay() time.Duration {
	return time.Duration(c.Suggestions.DelayMS) * time.Millisecond
}

// HelperDelay returns the helpers debounce delay.
func (c *Config) HelperDelay() time.Duration {
	return time.Duration(c.Helpers.DelayMS) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutMS) * time.Millisecond
}

// Validate checks tunables and engines.
func (c *Config) Validate() error {
	if c.Suggestions.DelayMS < 0 || c.Helpers.DelayMS < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	}
	if c.Suggestions.Limit < 0 || c.History.MaxMatches < 0 || c.History.Limit < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	if c.History.MinScore < 0 || c.History.MinScore > 1 {
		return fmt.Errorf("%w: history.min_score %v outside [0, 1]", ErrInvalidConfig, c.History.MinScore)
	}
	if c.History.Fuzziness < 0 || c.History.Fuzziness > 1 {
		return fmt.Errorf("%w: history.fuzziness %v outside [0, 1]", ErrInvalidConfig, c.History.Fuzziness)
	}
	switch c.Helpers.Position {
	case PositionTop, PositionBottom:
	default:
		return fmt.Errorf("%w: helpers.position %q must be %q or %q", ErrInvalidConfig, c.Helpers.Position, PositionTop, PositionBottom)
	}
	if _, err := c.EngineSet(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// EngineSet builds the validated engine set, including the open url pseudo
// engine when a keyword is configured.
func (c *Config) EngineSet() (*engine.Set, error) {
	var openURL *engine.Engine
	if kw := strings.TrimSpace(c.OpenURLKeyword); kw != "" {
		label := c.OpenURLLabel
		if strings.TrimSpace(label) == "" {
			label = "Open URL"
		}
		openURL = &engine.Engine{Name: label, Keyword: kw, OpenURL: true}
	}
	return engine.NewSet(c.Engines, c.DefaultEngine, openURL)
}

// GetConfigDir returns the config directory, falling back to a writable
// location when the platform default is not usable.
func GetConfigDir() string {
	return filepath.Dir(utils.NewPathResolver().GetConfigPath(DefaultFileName))
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), DefaultFileName)
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/quicksearch/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		_, statErr := os.Stat(customConfigPath)
		if statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				return nil, customConfigPath, err
			}
			log.Debugf("Loaded config from custom path: %s", customConfigPath)
			return config, customConfigPath, nil
		}
		log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
	}

	defaultPath := GetDefaultConfigPath()
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads a TOML or YAML file over the defaults and validates it.
// Malformed TOML falls back to recovering whichever sections still parse.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	default:
		if err := decodeTOML(configPath, config); err != nil {
			config, err = tryPartialParse(configPath)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return config, nil
}

// decodeTOML decodes into config, replacing the default engine list only
// when the file declares engines.
func decodeTOML(configPath string, config *Config) error {
	defaults := config.Engines
	config.Engines = nil
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		config.Engines = defaults
		return err
	}
	if len(config.Engines) == 0 {
		config.Engines = defaults
	}
	return nil
}

// tryPartialParse keeps every value that decodes with the right type.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if val, ok := utils.ExtractInt64(tempConfig, "default_engine"); ok {
		config.DefaultEngine = val
	}
	if val, ok := utils.ExtractString(tempConfig, "open_url_keyword"); ok {
		config.OpenURLKeyword = val
	}
	if val, ok := utils.ExtractString(tempConfig, "open_url_label"); ok {
		config.OpenURLLabel = val
	}
	if section, ok := utils.ExtractSection(tempConfig, "suggestions"); ok {
		extractSuggestionsConfig(section, &config.Suggestions)
	}
	if section, ok := utils.ExtractSection(tempConfig, "history"); ok {
		extractHistoryConfig(section, &config.History)
	}
	if section, ok := utils.ExtractSection(tempConfig, "helpers"); ok {
		extractHelpersConfig(section, &config.Helpers)
	}
	if section, ok := utils.ExtractSection(tempConfig, "http"); ok {
		extractHTTPConfig(section, &config.HTTP)
	}
	if section, ok := utils.ExtractSection(tempConfig, "dictionary"); ok {
		extractDictionaryConfig(section, &config.Dictionary)
	}
	if tables, ok := utils.ExtractTables(tempConfig, "engines"); ok && len(tables) > 0 {
		config.Engines = extractEngines(tables)
	}
	return config, nil
}

func extractSuggestionsConfig(data map[string]any, s *SuggestionsConfig) {
	if val, ok := utils.ExtractBool(data, "enabled"); ok {
		s.Enabled = val
	}
	if val, ok := utils.ExtractInt64(data, "delay_ms"); ok {
		s.DelayMS = val
	}
	if val, ok := utils.ExtractInt64(data, "limit"); ok {
		s.Limit = val
	}
	if val, ok := utils.ExtractString(data, "source"); ok {
		s.Source = val
	}
	if val, ok := utils.ExtractBool(data, "auto_accept"); ok {
		s.AutoAccept = val
	}
}

func extractHistoryConfig(data map[string]any, h *HistoryConfig) {
	if val, ok := utils.ExtractBool(data, "enabled"); ok {
		h.Enabled = val
	}
	if val, ok := utils.ExtractInt64(data, "limit"); ok {
		h.Limit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_matches"); ok {
		h.MaxMatches = val
	}
	if val, ok := utils.ExtractFloat(data, "min_score"); ok {
		h.MinScore = val
	}
	if val, ok := utils.ExtractFloat(data, "fuzziness"); ok {
		h.Fuzziness = val
	}
	if val, ok := utils.ExtractString(data, "store_dir"); ok {
		h.StoreDir = val
	}
}

func extractHelpersConfig(data map[string]any, h *HelpersConfig) {
	if val, ok := utils.ExtractBool(data, "enabled"); ok {
		h.Enabled = val
	}
	if val, ok := utils.ExtractInt64(data, "delay_ms"); ok {
		h.DelayMS = val
	}
	if val, ok := utils.ExtractString(data, "position"); ok {
		h.Position = val
	}
}

func extractHTTPConfig(data map[string]any, h *HTTPConfig) {
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		h.TimeoutMS = val
	}
	if val, ok := utils.ExtractString(data, "user_agent"); ok {
		h.UserAgent = val
	}
	if val, ok := utils.ExtractFloat(data, "rate_per_sec"); ok {
		h.RatePerSec = val
	}
	if val, ok := utils.ExtractInt64(data, "burst"); ok {
		h.Burst = val
	}
	if val, ok := utils.ExtractInt64(data, "pool_size"); ok {
		h.PoolSize = val
	}
}

func extractDictionaryConfig(data map[string]any, d *DictionaryConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		d.Path = val
	}
	if val, ok := utils.ExtractInt64(data, "max_words"); ok {
		d.MaxWords = val
	}
	if val, ok := utils.ExtractInt64(data, "min_frequency"); ok {
		d.MinFrequency = val
	}
}

func extractEngines(tables []map[string]any) []engine.Engine {
	engines := make([]engine.Engine, 0, len(tables))
	for _, t := range tables {
		var e engine.Engine
		e.ID, _ = utils.ExtractInt64(t, "id")
		e.Name, _ = utils.ExtractString(t, "name")
		e.Keyword, _ = utils.ExtractString(t, "keyword")
		e.URL, _ = utils.ExtractString(t, "url")
		e.EnableSuggestions, _ = utils.ExtractBool(t, "enable_suggestions")
		e.EnableHelpers, _ = utils.ExtractBool(t, "enable_helpers")
		e.SuggestionsSource, _ = utils.ExtractString(t, "suggestions_source")
		if list, ok := t["allowed_helpers"].([]any); ok {
			for _, v := range list {
				if s, ok := v.(string); ok {
					e.AllowedHelpers = append(e.AllowedHelpers, s)
				}
			}
		}
		engines = append(engines, e)
	}
	return engines
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	return utils.SaveTOMLFile(DefaultConfig(), GetDefaultConfigPath())
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
