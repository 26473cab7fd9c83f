package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PanelID names a display panel. Highlighting is declarative: the cockpit
// stores at most one highlighted PanelID and each panel picks its border
// style from it.
type PanelID string

const (
	PanelCynefin   PanelID = "cynefin"
	PanelCausal    PanelID = "causal"
	PanelBayesian  PanelID = "bayesian"
	PanelGuardian  PanelID = "guardian"
	PanelTrace     PanelID = "trace"
	PanelLogs      PanelID = "logs"
	PanelDataFlow  PanelID = "dataflow"
	PanelInspector PanelID = "inspector"
	PanelKPI       PanelID = "kpi"
	PanelAgents    PanelID = "agents"
	PanelActions   PanelID = "actions"
	PanelChat      PanelID = "chat"
	PanelNone      PanelID = ""
)

// ParsePanelID maps an assistant highlight target to a panel. Unknown
// targets map to PanelNone.
func ParsePanelID(s string) PanelID {
	switch PanelID(strings.ToLower(strings.TrimSpace(s))) {
	case PanelCynefin, PanelCausal, PanelBayesian, PanelGuardian, PanelTrace,
		PanelLogs, PanelDataFlow, PanelInspector, PanelKPI, PanelAgents,
		PanelActions, PanelChat:
		return PanelID(strings.ToLower(strings.TrimSpace(s)))
	}
	return PanelNone
}

// Panel wraps body in a titled, bordered box. A highlighted panel gets the
// accent border.
func Panel(s Styles, id PanelID, title, body string, width int, highlighted PanelID) string {
	style := s.Panel
	if id != PanelNone && id == highlighted {
		style = s.PanelHighlighted
	}
	content := s.PanelTitle.Render(title)
	if body != "" {
		content += "\n" + body
	}
	inner := width - PanelBorderWidth*2 - PanelPaddingH*2
	if inner > 0 {
		style = style.Width(inner)
	}
	return style.Render(content)
}

// Bar renders a horizontal value bar of the given width for v in [0,1].
func Bar(s Styles, v float64, width int, color lipgloss.Color) string {
	if width < 2 {
		width = 2
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	filled := int(v * float64(width))
	if filled > width {
		filled = width
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	rest := s.Muted.Render(strings.Repeat("░", width-filled))
	return bar + rest
}

// Truncate shortens s to max runes with an ellipsis.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// WrapText hard-wraps text at width, preserving existing newlines.
func WrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for len([]rune(line)) > width {
			runes := []rune(line)
			cut := width
			// Prefer breaking at a space.
			for i := width; i > width/2; i-- {
				if runes[i-1] == ' ' {
					cut = i
					break
				}
			}
			out = append(out, strings.TrimRight(string(runes[:cut]), " "))
			line = string(runes[cut:])
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
