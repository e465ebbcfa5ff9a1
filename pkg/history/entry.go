package history

import "fmt"

// Kind tells whether an entry was searched for or navigated to.
type Kind int

const (
	Query Kind = iota
	Navigation
)

func (k Kind) String() string {
	switch k {
	case Query:
		return "query"
	case Navigation:
		return "navigation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Query, Navigation:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("history: invalid kind %d", int(k))
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "query":
		*k = Query
	case "navigation":
		*k = Navigation
	default:
		return fmt.Errorf("history: unknown kind %q", string(b))
	}
	return nil
}

// Entry is one remembered input.
type Entry struct {
	Query string `json:"query"`
	Kind  Kind   `json:"kind"`
}

// Match pairs an entry with its fuzzy score against a term.
type Match struct {
	Score float64
	Entry Entry
}
