package ui

import (
	"fmt"
	"strings"

	"carf/internal/format"
	"carf/internal/types"
)

// RenderBayesian renders the belief-state panel: uncertainty split,
// posterior mean, and the recommended probe.
func RenderBayesian(s Styles, bayesian *types.BayesianResult, width int, highlighted PanelID) string {
	if bayesian == nil {
		return Panel(s, PanelBayesian, "Bayesian Beliefs",
			s.EmptyState.Render("No belief state for this query."),
			width, highlighted)
	}

	barWidth := PanelContentWidth(width) - 24
	if barWidth < 5 {
		barWidth = 5
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %s %s\n",
		"Epistemic",
		Bar(s, bayesian.EpistemicUncertainty, barWidth, ColorInfo),
		s.Muted.Render(format.SafePercentage(bayesian.EpistemicUncertainty)))
	fmt.Fprintf(&b, "%-12s %s %s\n",
		"Aleatoric",
		Bar(s, bayesian.AleatoricUncertainty, barWidth, ColorWarning),
		s.Muted.Render(format.SafePercentage(bayesian.AleatoricUncertainty)))

	fmt.Fprintf(&b, "\n%s %.2f   %s %s\n",
		s.Muted.Render("Posterior mean:"),
		bayesian.PosteriorMean,
		s.Muted.Render("confidence:"),
		s.ConfidenceBadge(bayesian.ConfidenceLevel))

	if bayesian.RecommendedProbe != "" {
		b.WriteString("\n")
		b.WriteString(s.Bold.Render("Recommended probe"))
		b.WriteString("\n")
		b.WriteString(s.Body.Render(WrapText(bayesian.RecommendedProbe, PanelContentWidth(width))))
	}

	return Panel(s, PanelBayesian, "Bayesian Beliefs", strings.TrimRight(b.String(), "\n"), width, highlighted)
}
