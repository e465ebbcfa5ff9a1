/*
Package server exposes the aggregation manager over stdin/stdout.

A presenter (a launcher dialog, an editor plugin, a shell widget) sends one
request per keystroke or user action and renders the result events it gets
back. Messages are JSON lines by default, or a plain msgpack stream when the
server is started with msgpack enabled.

# IPC

Every request carries an id and a command:

	{"id": "r1", "cmd": "open"}
	{"id": "r2", "cmd": "input", "text": "gith"}
	{"id": "r3", "cmd": "activate", "index": 0}

Requests are answered with an ack or an error reply bearing the same id:

	{"type": "ack", "id": "r2", "t": 0}
	{"type": "error", "id": "r3", "error": "aggregate: no open session", "code": 409}

Results arrive asynchronously as they settle, without an id, and always carry
the complete presented state:

	{"type": "results", "snapshot": {"version": 7, "input": "gith", "groups": [...]}}

Snapshots are delivered in version order; a presenter only ever needs the
latest one.

# Commands

open, close: start or end a session.
input: report the new input text.
activate: activate the item at index of the flattened groups, or the
highlighted item when index is omitted.
submit: activate the input text as typed.
engines: present the engine list.
prev, next: replay history; the reply carries the replayed text.
reset_engine: return to the default engine.
suppress: skip the next auto-accept.
health: liveness probe.
*/
package server

import (
	"github.com/bastiangx/quicksearch/pkg/aggregate"
	"github.com/bastiangx/quicksearch/pkg/engine"
)

// Message types.
const (
	TypeReady   = "ready"
	TypeAck     = "ack"
	TypeError   = "error"
	TypeResults = "results"
)

// Error codes carried in error replies.
const (
	CodeBadRequest  = 400
	CodeNoSession   = 409
	CodeInternal    = 500
	CodeUnavailable = 503
)

// Request is one command from the presenter.
type Request struct {
	ID    string `json:"id" msgpack:"id"`
	Cmd   string `json:"cmd" msgpack:"cmd"`
	Text  string `json:"text,omitempty" msgpack:"text,omitempty"`
	Index *int   `json:"index,omitempty" msgpack:"index,omitempty"`
}

// Reply answers a request.
type Reply struct {
	Type    string            `json:"type" msgpack:"type"`
	ID      string            `json:"id,omitempty" msgpack:"id,omitempty"`
	Status  string            `json:"status,omitempty" msgpack:"status,omitempty"`
	Session string            `json:"session,omitempty" msgpack:"session,omitempty"`
	Text    *string           `json:"text,omitempty" msgpack:"text,omitempty"`
	Action  *aggregate.Action `json:"action,omitempty" msgpack:"action,omitempty"`
	Engines []engine.Engine   `json:"engines,omitempty" msgpack:"engines,omitempty"`
	Error   string            `json:"error,omitempty" msgpack:"error,omitempty"`
	Code    int               `json:"code,omitempty" msgpack:"code,omitempty"`
	// Requests counts the requests handled so far; set on health replies.
	Requests int `json:"requests,omitempty" msgpack:"requests,omitempty"`
	// TimeTaken is the handling time in milliseconds.
	TimeTaken int64 `json:"t" msgpack:"t"`
}

// ResultsEvent carries a snapshot pushed by the manager.
type ResultsEvent struct {
	Type     string             `json:"type" msgpack:"type"`
	Snapshot aggregate.Snapshot `json:"snapshot" msgpack:"snapshot"`
}
