package ui

import (
	"fmt"
	"strings"

	"carf/internal/format"
	"carf/internal/types"
)

// RenderCausal renders the causal analysis card: effect estimate,
// refutation robustness, the synthesized DAG, and the sensitivity sparkline.
func RenderCausal(s Styles, causal *types.CausalResult, width int, highlighted PanelID) string {
	if causal == nil {
		return Panel(s, PanelCausal, "Causal Analysis",
			s.EmptyState.Render("No causal analysis for this query."),
			width, highlighted)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s\n",
		s.Bold.Render(causal.Treatment),
		s.Muted.Render("→"),
		s.Bold.Render(causal.Outcome),
		s.Muted.Render("("+causal.Method+")"))

	fmt.Fprintf(&b, "%s %s",
		s.Muted.Render("Effect:"),
		s.Title.Render(format.FormatEffect(causal.Effect)))
	if causal.Unit != "" {
		fmt.Fprintf(&b, " %s", s.Muted.Render(causal.Unit))
	}
	if len(causal.ConfidenceInterval) == 2 {
		fmt.Fprintf(&b, "  %s", s.Muted.Render(fmt.Sprintf("CI [%.2f, %.2f]",
			causal.ConfidenceInterval[0], causal.ConfidenceInterval[1])))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s   %s p=%.3f\n",
		s.Muted.Render("Robustness:"),
		s.Bold.Render(format.Robustness(causal.RefutationsPassed, causal.RefutationsTotal)),
		s.Muted.Render("significance:"),
		causal.PValue)

	if len(causal.ConfoundersControlled) > 0 {
		fmt.Fprintf(&b, "%s %s\n",
			s.Muted.Render("Controlled:"),
			strings.Join(causal.ConfoundersControlled, ", "))
	}

	if dag := format.BuildDAG(causal); len(dag.Nodes) > 0 {
		b.WriteString("\n")
		b.WriteString(renderDAG(s, dag))
	}

	gamma := format.Gamma(causal.RefutationsPassed, causal.RefutationsTotal)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s γ=%.1f %s\n",
		s.Muted.Render("Sensitivity"),
		gamma,
		s.Subtitle.Render("(illustrative)"))
	b.WriteString(renderSparkline(s, format.SensitivityCurve(gamma), PanelContentWidth(width)))

	return Panel(s, PanelCausal, "Causal Analysis", strings.TrimRight(b.String(), "\n"), width, highlighted)
}

// renderDAG draws the confounder/treatment/outcome graph as indented ASCII.
func renderDAG(s Styles, dag format.DAG) string {
	var treatment, outcome string
	var confounders []string
	for _, n := range dag.Nodes {
		switch n.Kind {
		case "treatment":
			treatment = n.ID
		case "outcome":
			outcome = n.ID
		case "confounder":
			confounders = append(confounders, n.ID)
		}
	}

	var b strings.Builder
	for _, c := range confounders {
		fmt.Fprintf(&b, "  %s\n", s.Warning.Render("["+c+"]"))
		b.WriteString(s.Muted.Render("   ├──▶ ") + s.Body.Render(treatment) + "\n")
		b.WriteString(s.Muted.Render("   └──▶ ") + s.Body.Render(outcome) + "\n")
	}
	fmt.Fprintf(&b, "  %s %s %s",
		s.Success.Render("("+treatment+")"),
		s.Muted.Render("──▶"),
		s.Info.Render("("+outcome+")"))
	return b.String()
}

// renderSparkline draws the bound curve as a one-line sparkline.
func renderSparkline(s Styles, points []format.CurvePoint, width int) string {
	if len(points) == 0 {
		return ""
	}
	blocks := []rune("▁▂▃▄▅▆▇█")
	n := len(points)
	if width > 0 && n > width {
		n = width
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		p := points[i*len(points)/n]
		idx := int(p.Bound * float64(len(blocks)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		b.WriteRune(blocks[idx])
	}
	return s.Info.Render(b.String())
}
