package aggregate

import (
	"fmt"

	"github.com/bastiangx/quicksearch/pkg/engine"
	"github.com/bastiangx/quicksearch/pkg/suggest"
)

// State is the lifecycle of one concern (suggestions or helpers).
type State int

const (
	Idle State = iota
	Debouncing
	Fetching
	Settled
)

var stateNames = [...]string{"idle", "debouncing", "fetching", "settled"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Group labels.
const (
	LabelSuggestions = "Suggestions"
	LabelHistory     = "History"
	LabelEngines     = "Engines"
)

// Group is a labelled run of items.
type Group struct {
	Label string         `json:"label" msgpack:"label"`
	Items []suggest.Item `json:"items" msgpack:"items"`
}

// Snapshot is the complete presented state at one point in time. Versions
// increase monotonically; subscribers never see an older version after a
// newer one.
type Snapshot struct {
	Version   uint64        `json:"version" msgpack:"version"`
	SessionID string        `json:"session_id,omitempty" msgpack:"session_id,omitempty"`
	Input     string        `json:"input" msgpack:"input"`
	Engine    engine.Engine `json:"engine" msgpack:"engine"`
	Groups    []Group       `json:"groups,omitempty" msgpack:"groups,omitempty"`
	// Highlight indexes the flattened group items; -1 when nothing is selected.
	Highlight int `json:"highlight" msgpack:"highlight"`

	Helpers        []suggest.HelperPayload `json:"helpers,omitempty" msgpack:"helpers,omitempty"`
	HelperPosition string                  `json:"helper_position" msgpack:"helper_position"`

	SuggestionsState   State `json:"suggestions_state" msgpack:"suggestions_state"`
	HelpersState       State `json:"helpers_state" msgpack:"helpers_state"`
	SuggestionsLoading bool  `json:"suggestions_loading" msgpack:"suggestions_loading"`
	HelpersLoading     bool  `json:"helpers_loading" msgpack:"helpers_loading"`

	// Prefill is the full text of an auto-accepted suggestion. The presenter
	// replaces the input with it and selects everything past len(Input).
	Prefill string `json:"prefill,omitempty" msgpack:"prefill,omitempty"`
}

// Items flattens the groups in display order.
func (s Snapshot) Items() []suggest.Item {
	var out []suggest.Item
	for _, g := range s.Groups {
		out = append(out, g.Items...)
	}
	return out
}

// Group returns the group with label, if present.
func (s Snapshot) Group(label string) (Group, bool) {
	for _, g := range s.Groups {
		if g.Label == label {
			return g, true
		}
	}
	return Group{}, false
}

// Open reports whether there is anything to show.
func (s Snapshot) Open() bool {
	return s.SessionID != "" && (len(s.Groups) > 0 || len(s.Helpers) > 0)
}

// DisplayOptions selects what Display refreshes.
type DisplayOptions struct {
	Suggestions bool
	Helpers     bool
	History     bool
	Engines     bool
}

// Action is the outcome of activating an item.
type Action struct {
	// URL to open; empty when the activation only switched engines.
	URL      string        `json:"url,omitempty" msgpack:"url,omitempty"`
	Query    string        `json:"query,omitempty" msgpack:"query,omitempty"`
	Engine   engine.Engine `json:"engine" msgpack:"engine"`
	Switched bool          `json:"switched,omitempty" msgpack:"switched,omitempty"`
}
