// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the quicksearch suggestion server and its terminal tools.

quicksearch turns keystrokes into search suggestions. While the user types,
it asks a remote suggestion source for completions, asks instant answer
helpers for a short abstract, and fuzzily matches earlier searches from the
history. Results are debounced per concern, fetched on a bounded pool and
dropped if the input moved on before they arrived.

# Usage

Serve a presenter over stdin/stdout (JSON lines):

	quicksearch serve

The same with msgpack framing and debug logs on stderr:

	quicksearch --debug serve --msgpack

Try it interactively:

	quicksearch repl

Inspect the stored history and the configured engines:

	quicksearch history list
	quicksearch engines wiki

# Configuration

The config file lives in the user config directory and is created with
defaults on first run. It is watched while serving, and edits apply to the
next keystroke:

	default_engine = 1
	open_url_keyword = "url"

	[suggestions]
	delay_ms = 300
	limit = 5
	source = "google"

	[[engines]]
	id = 2
	name = "Wikipedia"
	keyword = "wiki"
	url = "https://en.wikipedia.org/wiki/Special:Search?search={term}"
	enable_suggestions = true
	enable_helpers = true
	allowed_helpers = ["wikipedia"]

Typing an engine keyword followed by a space switches to that engine.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	qcli "github.com/bastiangx/quicksearch/internal/cli"
	"github.com/bastiangx/quicksearch/internal/logger"
	"github.com/bastiangx/quicksearch/internal/utils"
	"github.com/bastiangx/quicksearch/pkg/aggregate"
	"github.com/bastiangx/quicksearch/pkg/config"
	"github.com/bastiangx/quicksearch/pkg/dictionary"
	"github.com/bastiangx/quicksearch/pkg/history"
	"github.com/bastiangx/quicksearch/pkg/server"
	"github.com/bastiangx/quicksearch/pkg/store"
	"github.com/bastiangx/quicksearch/pkg/suggest"
)

const (
	Version = "0.1.0"
	AppName = "quicksearch"
	gh      = "https://github.com/bastiangx/quicksearch"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    AppName,
		Usage:   "Incremental search suggestions and instant answers",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config file (TOML or YAML)",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Toggle debug logging",
			},
			&cli.StringFlag{
				Name:  "history-dir",
				Usage: "Directory of the history store (overrides [history] store_dir)",
			},
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "Keep history in memory only",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Append logs to this file instead of stderr",
			},
		},
		Before: setupLogger,
		Action: serveCommand,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve a presenter over stdin/stdout",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "msgpack",
						Usage: "Use msgpack framing instead of JSON lines",
					},
				},
			},
			{
				Name:   "repl",
				Usage:  "Type queries and see the settled results",
				Action: replCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "width",
						Usage: "Wrap width of the helper panel",
						Value: 80,
					},
					&cli.StringFlag{
						Name:  "style",
						Usage: "Helper panel style (dark, light, notty); detected when empty",
					},
				},
			},
			{
				Name:  "history",
				Usage: "Inspect or clear the search history",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "Print every entry, oldest first",
						Action: historyListCommand,
					},
					{
						Name:   "clear",
						Usage:  "Drop every entry",
						Action: historyClearCommand,
					},
				},
			},
			{
				Name:      "engines",
				Usage:     "List configured engines, optionally filtered by a fuzzy pattern",
				ArgsUsage: "[pattern]",
				Action:    enginesCommand,
			},
			{
				Name:  "config",
				Usage: "Locate or reset the config file",
				Subcommands: []*cli.Command{
					{
						Name:   "path",
						Usage:  "Print the config file in use",
						Action: configPathCommand,
					},
					{
						Name:   "rebuild",
						Usage:  "Overwrite the default config file with the built-in defaults",
						Action: configRebuildCommand,
					},
				},
			},
			{
				Name:   "version",
				Usage:  "Show the current version",
				Action: versionCommand,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	if c.Bool("debug") {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if path := c.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
		logger.SetOutput(f)
	}
	return nil
}

// runtime holds everything a command needs, built from the flags.
type runtime struct {
	cfg      *config.Config
	cfgPath  string
	kv       store.Store
	history  *history.Store
	builtins *suggest.Builtins
	mgr      *aggregate.Manager
}

// openStore resolves the history directory and opens the history on it.
func openStore(c *cli.Context, cfg *config.Config) (store.Store, *history.Store, error) {
	dir := c.String("history-dir")
	if dir == "" {
		dir = cfg.History.StoreDir
	}
	if dir == "" {
		dir = utils.NewPathResolver().HistoryDir()
	}
	log.Debugf("Using history dir: %s", utils.GetAbsolutePath(dir))

	kv, err := store.OpenBadger(dir, c.Bool("in-memory"), logger.New("badger"))
	if err != nil {
		return nil, nil, fmt.Errorf("open history store: %w", err)
	}

	hist := history.New(kv, cfg.History.Limit, history.WithLogger(logger.New("history")))
	if err := hist.Load(); err != nil {
		log.Warnf("History not loaded: %v", err)
	}
	return kv, hist, nil
}

func setup(c *cli.Context) (*runtime, error) {
	cfg, cfgPath, err := config.LoadConfigWithPriority(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(cfgPath))

	kv, hist, err := openStore(c, cfg)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, cfgPath: cfgPath, kv: kv, history: hist}

	var dict *dictionary.Dictionary
	if cfg.Dictionary.Path != "" {
		dict, err = dictionary.Load(cfg.Dictionary.Path, dictionary.LoadOptions{MaxWords: cfg.Dictionary.MaxWords})
		if err != nil {
			log.Warnf("Dictionary not loaded, continuing without it: %v", err)
			dict = nil
		}
	}

	rt.builtins, err = suggest.NewBuiltins(suggest.BuiltinOptions{
		Fetcher:        fetcherOptions(cfg),
		DefaultSource:  cfg.Suggestions.Source,
		History:        hist,
		HistoryOptions: historyOptions(cfg),
		Dictionary:     dict,
		MinFrequency:   cfg.Dictionary.MinFrequency,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.mgr, err = aggregate.New(cfg, rt.builtins.Sources, rt.builtins.Helpers, hist,
		aggregate.WithLogger(logger.New("aggregate")),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func fetcherOptions(cfg *config.Config) suggest.FetcherOptions {
	return suggest.FetcherOptions{
		Timeout:    cfg.HTTP.Timeout(),
		UserAgent:  cfg.HTTP.UserAgent,
		RatePerSec: cfg.HTTP.RatePerSec,
		Burst:      cfg.HTTP.Burst,
	}
}

func historyOptions(cfg *config.Config) history.MatchOptions {
	return history.MatchOptions{
		MinScore:  cfg.History.MinScore,
		Limit:     cfg.History.MaxMatches,
		Fuzziness: cfg.History.Fuzziness,
	}
}

// applyConfig is the config watcher callback.
func (rt *runtime) applyConfig(cfg *config.Config) {
	if err := rt.mgr.UpdateConfig(cfg); err != nil {
		log.Warnf("Config change rejected: %v", err)
		return
	}
	if rt.builtins.History != nil {
		rt.builtins.History.SetOptions(historyOptions(cfg))
	}
	log.Info("Config reloaded")
}

func (rt *runtime) Close() {
	if rt.mgr != nil {
		if err := rt.mgr.Close(); err != nil {
			log.Warnf("Closing manager: %v", err)
		}
	}
	if rt.kv != nil {
		if err := rt.kv.Close(); err != nil {
			log.Warnf("Closing history store: %v", err)
		}
	}
}

func serveCommand(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := server.NewServer(rt.mgr,
		server.WithMsgpack(c.Bool("msgpack")),
		server.WithLogger(logger.New("server")),
	)
	g.Go(func() error {
		// end of input stops the watcher too
		defer cancel()
		return srv.Start(ctx)
	})

	if rt.cfgPath != "" {
		w, err := config.NewWatcher(rt.cfgPath, rt.applyConfig, logger.New("config"))
		if err != nil {
			log.Warnf("Config changes will not be picked up: %v", err)
		} else {
			g.Go(func() error { return w.Run(ctx) })
		}
	}

	showStartupInfo(rt.cfgPath)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func replCommand(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	renderer, err := qcli.NewRenderer(os.Stdout, c.Int("width"), c.String("style"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.SetReportTimestamp(false)
	return qcli.NewInputHandler(rt.mgr, renderer).Start(ctx)
}

func withHistory(c *cli.Context, fn func(*history.Store) error) error {
	cfg, _, err := config.LoadConfigWithPriority(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	kv, hist, err := openStore(c, cfg)
	if err != nil {
		return err
	}
	defer kv.Close()
	return fn(hist)
}

func historyListCommand(c *cli.Context) error {
	return withHistory(c, func(hist *history.Store) error {
		kindStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		for i, e := range hist.Entries() {
			fmt.Fprintf(c.App.Writer, "%4d  %s %s\n", i+1, e.Query, kindStyle.Render("("+e.Kind.String()+")"))
		}
		return nil
	})
}

func historyClearCommand(c *cli.Context) error {
	return withHistory(c, func(hist *history.Store) error {
		n := hist.Len()
		if err := hist.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "cleared %d entries\n", n)
		return nil
	})
}

func enginesCommand(c *cli.Context) error {
	cfg, _, err := config.LoadConfigWithPriority(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	set, err := cfg.EngineSet()
	if err != nil {
		return err
	}

	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Width(8)
	nameStyle := lipgloss.NewStyle().Width(14)
	urlStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	def := set.Default()

	for _, e := range set.Match(c.Args().First()) {
		name := e.Name
		if e.ID == def.ID {
			name += "*"
		}
		fmt.Fprintln(c.App.Writer, lipgloss.JoinHorizontal(lipgloss.Top,
			keyStyle.Render(e.Keyword), nameStyle.Render(name), urlStyle.Render(e.URL)))
	}
	if o, ok := set.OpenURL(); ok {
		fmt.Fprintln(c.App.Writer, lipgloss.JoinHorizontal(lipgloss.Top,
			keyStyle.Render(o.Keyword), nameStyle.Render(o.Name)))
	}
	return nil
}

func configPathCommand(c *cli.Context) error {
	_, cfgPath, err := config.LoadConfigWithPriority(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintln(c.App.Writer, config.GetActiveConfigPath(cfgPath))
	return nil
}

func configRebuildCommand(c *cli.Context) error {
	if err := config.RebuildConfigFile(); err != nil {
		return fmt.Errorf("rebuild config: %w", err)
	}
	fmt.Fprintln(c.App.Writer, config.GetDefaultConfigPath())
	return nil
}

func versionCommand(c *cli.Context) error {
	l := logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	banner := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"}).
		Render("quicksearch")

	l.Print("")
	l.Print(banner + " suggestions and instant answers while you type")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
	return nil
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(cfgPath string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	if cfgPath != "" {
		log.Infof("config: ( %s )", cfgPath)
	} else {
		log.Info("config: built-in defaults")
	}
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
