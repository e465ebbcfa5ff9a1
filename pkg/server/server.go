package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/quicksearch/pkg/aggregate"
)

// Server handles the IPC for one presenter.
type Server struct {
	mgr    *aggregate.Manager
	codec  Codec
	logger *log.Logger
	// input is closed on cancel to unblock a pending read
	input io.Closer

	// writes come from the request loop and from result events
	mu sync.Mutex

	requests int
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	in      io.Reader
	out     io.Writer
	msgpack bool
	logger  *log.Logger
}

// WithIO replaces stdin/stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(o *serverOptions) {
		o.in = in
		o.out = out
	}
}

// WithMsgpack switches the wire format from JSON lines to msgpack.
func WithMsgpack(on bool) Option {
	return func(o *serverOptions) { o.msgpack = on }
}

// WithLogger sets the logger. Default is log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(o *serverOptions) { o.logger = logger }
}

// NewServer creates a server for mgr using stdin/stdout for IPC.
func NewServer(mgr *aggregate.Manager, opts ...Option) *Server {
	o := serverOptions{in: os.Stdin, out: os.Stdout, logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	codec := NewJSONCodec(o.in, o.out)
	if o.msgpack {
		codec = NewMsgpackCodec(o.in, o.out)
	}
	srv := &Server{mgr: mgr, codec: codec, logger: o.logger}
	if c, ok := o.in.(io.Closer); ok {
		srv.input = c
	}
	return srv
}

// Start begins listening for IPC requests. It returns nil at end of input and
// ctx.Err() when ctx is cancelled first. On cancel the input is closed if it
// is an io.Closer; otherwise the reader goroutine stays blocked until the
// input ends.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Debug("Starting server")

	unsubscribe := s.mgr.Subscribe(func(snap aggregate.Snapshot) {
		s.send(ResultsEvent{Type: TypeResults, Snapshot: snap})
	})
	defer unsubscribe()

	s.send(Reply{Type: TypeReady, Status: "ready"})

	type decoded struct {
		req Request
		err error
	}
	reqs := make(chan decoded)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			var req Request
			err := s.codec.Decode(&req)
			select {
			case reqs <- decoded{req, err}:
			case <-done:
				return
			}
			if err != nil && !errors.Is(err, errMalformed) {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if s.input != nil {
				if err := s.input.Close(); err != nil {
					s.logger.Debugf("Closing input: %v", err)
				}
			}
			return ctx.Err()
		case d := <-reqs:
			switch {
			case d.err == nil:
				s.handleRequest(d.req)
			case errors.Is(d.err, errMalformed):
				s.logger.Errorf("Unmarshaling request: %v", d.err)
				s.sendError("", "invalid request", CodeBadRequest)
			case errors.Is(d.err, io.EOF):
				s.logger.Debug("Input closed")
				return nil
			default:
				s.logger.Errorf("Reading request: %v", d.err)
				return d.err
			}
		}
	}
}

// handleRequest dispatches one request and replies to it.
func (s *Server) handleRequest(req Request) {
	s.requests++
	start := time.Now()
	reply := Reply{Type: TypeAck, ID: req.ID}

	var err error
	switch req.Cmd {
	case "open":
		reply.Session, err = s.mgr.OpenSession()
	case "close":
		s.mgr.CloseSession()
	case "input":
		err = s.mgr.SetInput(req.Text)
	case "activate":
		reply.Action, err = s.activate(req.Index)
	case "submit":
		var act aggregate.Action
		if act, err = s.mgr.Submit(); err == nil {
			reply.Action = &act
		}
	case "engines":
		if err = s.mgr.SelectEngineList(); err == nil {
			reply.Engines = s.mgr.Engines().All()
		}
	case "prev", "next":
		var text string
		if req.Cmd == "prev" {
			text, err = s.mgr.HistoryPrev()
		} else {
			text, err = s.mgr.HistoryNext()
		}
		reply.Text = &text
	case "reset_engine":
		err = s.mgr.ResetEngine()
	case "suppress":
		s.mgr.SuppressAutoAccept()
	case "health":
		reply.Status = "ok"
		reply.Requests = s.requests
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown command: %q", req.Cmd), CodeBadRequest)
		return
	}

	if err != nil {
		s.logger.Debug("Request failed", "id", req.ID, "cmd", req.Cmd, "err", err)
		s.sendError(req.ID, err.Error(), errorCode(err))
		return
	}
	reply.TimeTaken = time.Since(start).Milliseconds()
	s.send(reply)
}

// activate resolves index against the current snapshot; a nil index means
// the highlighted item.
func (s *Server) activate(index *int) (*aggregate.Action, error) {
	snap := s.mgr.Current()
	if snap.SessionID == "" {
		return nil, aggregate.ErrNoSession
	}
	items := snap.Items()
	i := snap.Highlight
	if index != nil {
		i = *index
	}
	if i < 0 || i >= len(items) {
		return nil, fmt.Errorf("%w: index %d out of range (%d items)", errBadIndex, i, len(items))
	}
	act, err := s.mgr.Activate(items[i])
	if err != nil {
		return nil, err
	}
	return &act, nil
}

var errBadIndex = errors.New("bad index")

func errorCode(err error) int {
	switch {
	case errors.Is(err, aggregate.ErrNoSession):
		return CodeNoSession
	case errors.Is(err, aggregate.ErrClosed):
		return CodeUnavailable
	case errors.Is(err, aggregate.ErrEmptyInput), errors.Is(err, errBadIndex):
		return CodeBadRequest
	}
	return CodeInternal
}

// send writes one message; a failed write is logged, never fatal.
func (s *Server) send(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.codec.Encode(v); err != nil {
		s.logger.Errorf("Writing response: %v", err)
	}
}

// sendError sends an error reply.
func (s *Server) sendError(id, message string, code int) {
	s.send(Reply{Type: TypeError, ID: id, Error: message, Code: code})
}
