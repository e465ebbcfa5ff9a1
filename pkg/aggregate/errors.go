package aggregate

import "errors"

var (
	// ErrNoSession is returned by input operations outside a session.
	ErrNoSession = errors.New("aggregate: no open session")
	// ErrClosed is returned once the manager has been closed.
	ErrClosed = errors.New("aggregate: manager closed")
	// ErrEmptyInput is returned when submitting blank input.
	ErrEmptyInput = errors.New("aggregate: empty input")
)
