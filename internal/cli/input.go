// Package cli is an interactive loop over the aggregation manager, for
// trying engines, sources and helpers from a terminal.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/quicksearch/pkg/aggregate"
)

// errQuit ends the loop without an error.
var errQuit = errors.New("quit")

// InputHandler reads one input per line and prints the settled results.
// Lines starting with ':' are commands:
//
//	:engines      list the other engines
//	:go N         activate row N (the highlighted row without N)
//	:submit       search for the input as typed
//	:prev, :next  replay history
//	:reset        back to the default engine
//	:q            quit
//
// Everything else replaces the input text. Trailing whitespace is kept, so
// "wiki " switches to the engine with keyword wiki.
type InputHandler struct {
	mgr      *aggregate.Manager
	renderer *Renderer
	in       io.Reader
	out      io.Writer
	settle   time.Duration

	requestCount int
}

// NewInputHandler wires a handler to stdin/stdout.
func NewInputHandler(mgr *aggregate.Manager, renderer *Renderer) *InputHandler {
	return &InputHandler{
		mgr:      mgr,
		renderer: renderer,
		in:       os.Stdin,
		out:      os.Stdout,
		settle:   10 * time.Second,
	}
}

// SetIO replaces stdin/stdout.
func (h *InputHandler) SetIO(in io.Reader, out io.Writer) {
	h.in = in
	h.out = out
}

// Start runs the loop until :q, end of input or ctx is done.
func (h *InputHandler) Start(ctx context.Context) error {
	log.Print("quicksearch REPL")
	log.Print("type a query and press Enter, :q to exit")

	if _, err := h.mgr.OpenSession(); err != nil {
		return err
	}
	defer h.mgr.CloseSession()

	reader := bufio.NewReader(h.in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(h.out, "> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		if err := h.handleInput(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			log.Errorf("%v", err)
		}
	}
}

func (h *InputHandler) handleInput(ctx context.Context, line string) error {
	h.requestCount++
	start := time.Now()

	if !strings.HasPrefix(line, ":") {
		if err := h.ensureSession(); err != nil {
			return err
		}
		if err := h.mgr.SetInput(line); err != nil {
			return err
		}
		h.show(ctx)
		log.Debugf("Took [ %v ] for %q (request %d)", time.Since(start), line, h.requestCount)
		return nil
	}

	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	if err := h.ensureSession(); err != nil {
		return err
	}

	switch cmd {
	case "q", "quit":
		return errQuit
	case "engines":
		if err := h.mgr.SelectEngineList(); err != nil {
			return err
		}
		h.show(ctx)
	case "go":
		return h.activate(ctx, strings.TrimSpace(arg))
	case "submit":
		act, err := h.mgr.Submit()
		if err != nil {
			return err
		}
		h.printAction(act)
	case "prev", "next":
		var text string
		var err error
		if cmd == "prev" {
			text, err = h.mgr.HistoryPrev()
		} else {
			text, err = h.mgr.HistoryNext()
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(h.out, "history: %s\n", text)
	case "reset":
		if err := h.mgr.ResetEngine(); err != nil {
			return err
		}
		h.show(ctx)
	default:
		return fmt.Errorf("unknown command :%s", cmd)
	}
	return nil
}

// ensureSession reopens the session a previous activation closed.
func (h *InputHandler) ensureSession() error {
	if h.mgr.Current().SessionID != "" {
		return nil
	}
	_, err := h.mgr.OpenSession()
	return err
}

func (h *InputHandler) activate(ctx context.Context, arg string) error {
	snap := h.mgr.Current()
	items := snap.Items()
	i := snap.Highlight
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("row number: %w", err)
		}
		i = n - 1
	}
	if i < 0 || i >= len(items) {
		return fmt.Errorf("no row %d", i+1)
	}

	act, err := h.mgr.Activate(items[i])
	if err != nil {
		return err
	}
	if act.Switched {
		h.show(ctx)
		return nil
	}
	h.printAction(act)
	return nil
}

func (h *InputHandler) printAction(act aggregate.Action) {
	fmt.Fprintf(h.out, "open %s\n", act.URL)
}

// show waits for both concerns to settle and prints the view.
func (h *InputHandler) show(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, h.settle)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		snap := h.mgr.Current()
		if settled(snap) {
			fmt.Fprint(h.out, h.renderer.Render(snap))
			return
		}
		select {
		case <-ctx.Done():
			log.Warn("results did not settle", "input", snap.Input)
			fmt.Fprint(h.out, h.renderer.Render(snap))
			return
		case <-ticker.C:
		}
	}
}

func settled(s aggregate.Snapshot) bool {
	busy := func(st aggregate.State) bool {
		return st == aggregate.Debouncing || st == aggregate.Fetching
	}
	return !busy(s.SuggestionsState) && !busy(s.HelpersState)
}
