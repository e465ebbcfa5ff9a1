package suggest

import (
	"fmt"
	"strings"
)

// Kind classifies a presented item.
type Kind int

const (
	QueryCompletion Kind = iota
	NavigationTarget
	HistoryQuery
	HistoryNavigation
	HelperAnswer
	EngineSwitch
)

var kindNames = [...]string{
	QueryCompletion:   "query_completion",
	NavigationTarget:  "navigation_target",
	HistoryQuery:      "history_query",
	HistoryNavigation: "history_navigation",
	HelperAnswer:      "helper_answer",
	EngineSwitch:      "engine_switch",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && k >= 0 {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("suggest: unknown kind %q", string(b))
}

// IsSuggestion reports kinds that come from suggestion sources or history.
func (k Kind) IsSuggestion() bool {
	return k <= HistoryNavigation
}

// IsNavigation reports kinds that point at an address rather than a query.
func (k Kind) IsNavigation() bool {
	return k == NavigationTarget || k == HistoryNavigation
}

// Item is one presented row. Term is the input it was computed for and is
// what staleness is judged against.
type Item struct {
	Text      string `json:"text" msgpack:"t"`
	Kind      Kind   `json:"kind" msgpack:"k"`
	Relevance int    `json:"relevance" msgpack:"r"`
	Term      string `json:"term" msgpack:"q"`
	Source    string `json:"source,omitempty" msgpack:"s,omitempty"`
	URL       string `json:"url,omitempty" msgpack:"u,omitempty"`
	Detail    string `json:"detail,omitempty" msgpack:"d,omitempty"`
	EngineID  int    `json:"engine_id,omitempty" msgpack:"e,omitempty"`
	Image     *Image `json:"image,omitempty" msgpack:"img,omitempty"`
}

// Valid reports whether the item may be presented.
func (it Item) Valid() bool {
	return strings.TrimSpace(it.Text) != "" && it.Relevance > 0
}

// Image is an illustration attached to a helper answer.
type Image struct {
	URL    string `json:"url" msgpack:"u"`
	Width  int    `json:"width,omitempty" msgpack:"w,omitempty"`
	Height int    `json:"height,omitempty" msgpack:"h,omitempty"`
}

// HelperPayload is an instant answer for a term.
type HelperPayload struct {
	Source     string `json:"source" msgpack:"src"`
	Term       string `json:"term" msgpack:"q"`
	Heading    string `json:"heading,omitempty" msgpack:"hd,omitempty"`
	Abstract   string `json:"abstract,omitempty" msgpack:"ab,omitempty"`
	Definition string `json:"definition,omitempty" msgpack:"df,omitempty"`
	URL        string `json:"url,omitempty" msgpack:"u,omitempty"`
	Image      *Image `json:"image,omitempty" msgpack:"img,omitempty"`
}

// Empty reports a payload with nothing worth showing.
func (p *HelperPayload) Empty() bool {
	return p == nil || (strings.TrimSpace(p.Abstract) == "" && strings.TrimSpace(p.Definition) == "")
}
