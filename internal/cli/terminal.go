package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/bastiangx/quicksearch/pkg/aggregate"
	"github.com/bastiangx/quicksearch/pkg/config"
	"github.com/bastiangx/quicksearch/pkg/suggest"
)

// Renderer draws snapshots as numbered rows with an optional helper panel.
type Renderer struct {
	width    int
	markdown *glamour.TermRenderer

	label     lipgloss.Style
	row       lipgloss.Style
	active    lipgloss.Style
	tag       lipgloss.Style
	dim       lipgloss.Style
	engineTag lipgloss.Style
}

// NewRenderer builds styles for out. style names a glamour style ("dark",
// "light", "notty", ...); "" picks one from the terminal background.
func NewRenderer(out io.Writer, width int, style string) (*Renderer, error) {
	if width <= 0 {
		width = 80
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width-4))
	if err != nil {
		return nil, fmt.Errorf("helper panel renderer: %w", err)
	}

	lg := lipgloss.NewRenderer(out)
	return &Renderer{
		width:     width,
		markdown:  md,
		label:     lg.NewStyle().Bold(true).Foreground(lipgloss.Color("244")),
		row:       lg.NewStyle().PaddingLeft(1),
		active:    lg.NewStyle().PaddingLeft(1).Bold(true).Foreground(lipgloss.Color("75")),
		tag:       lg.NewStyle().Foreground(lipgloss.Color("241")),
		dim:       lg.NewStyle().Faint(true),
		engineTag: lg.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
	}, nil
}

// Render returns the full view of s.
func (r *Renderer) Render(s aggregate.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", r.engineTag.Render("["+s.Engine.Name+"]"), s.Input)
	if s.Prefill != "" {
		fmt.Fprintf(&b, "%s\n", r.dim.Render("auto: "+s.Prefill))
	}

	helpers := r.renderHelpers(s)
	if s.HelperPosition != config.PositionBottom {
		b.WriteString(helpers)
	}

	n := 0
	for _, g := range s.Groups {
		b.WriteString(r.label.Render(g.Label))
		b.WriteByte('\n')
		for _, it := range g.Items {
			style := r.row
			if n == s.Highlight {
				style = r.active
			}
			line := fmt.Sprintf("%2d. %s", n+1, it.Text)
			if tag := r.describe(it); tag != "" {
				line += " " + r.tag.Render(tag)
			}
			b.WriteString(style.Render(line))
			b.WriteByte('\n')
			n++
		}
	}

	if s.SuggestionsLoading {
		b.WriteString(r.dim.Render("fetching suggestions..."))
		b.WriteByte('\n')
	}
	if s.HelpersLoading {
		b.WriteString(r.dim.Render("fetching answers..."))
		b.WriteByte('\n')
	}

	if s.HelperPosition == config.PositionBottom {
		b.WriteString(helpers)
	}
	return b.String()
}

func (r *Renderer) describe(it suggest.Item) string {
	switch it.Kind {
	case suggest.NavigationTarget, suggest.HistoryNavigation:
		if it.URL != "" {
			return it.URL
		}
		return "url"
	case suggest.EngineSwitch:
		return "(" + it.Detail + ")"
	}
	if it.Detail != "" {
		return it.Detail
	}
	if it.Source != "" && it.Source != "history" {
		return formatWithCommas(it.Relevance)
	}
	return ""
}

func (r *Renderer) renderHelpers(s aggregate.Snapshot) string {
	var b strings.Builder
	for _, p := range s.Helpers {
		out, err := r.markdown.Render(helperMarkdown(p))
		if err != nil {
			fmt.Fprintf(&b, "%s\n%s\n", p.Heading, p.Abstract)
			continue
		}
		b.WriteString(out)
	}
	return b.String()
}

// helperMarkdown lays out one instant answer.
func helperMarkdown(p suggest.HelperPayload) string {
	var b strings.Builder
	heading := p.Heading
	if heading == "" {
		heading = p.Term
	}
	fmt.Fprintf(&b, "### %s\n\n", heading)
	if p.Abstract != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Abstract)
	}
	if p.Definition != "" {
		fmt.Fprintf(&b, "*%s*\n\n", p.Definition)
	}
	if p.URL != "" {
		fmt.Fprintf(&b, "%s (%s)\n", p.URL, p.Source)
	} else {
		fmt.Fprintf(&b, "(%s)\n", p.Source)
	}
	return b.String()
}

// formatWithCommas formats an integer with comma separators
func formatWithCommas(n int) string {
	str := fmt.Sprintf("%d", n)
	if n < 1000 {
		return str
	}
	var b strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(char)
	}
	return b.String()
}
