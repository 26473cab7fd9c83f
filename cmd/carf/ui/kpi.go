package ui

import (
	"fmt"
	"sort"
	"strings"

	"carf/internal/format"
	"carf/internal/types"
)

// RenderKPI renders the executive metric cards with the auto-selected (or
// overridden) chart for each category breakdown.
func RenderKPI(s Styles, metrics []types.KPIMetric, override format.ChartType, width int, highlighted PanelID) string {
	if len(metrics) == 0 {
		return Panel(s, PanelKPI, "Executive KPIs",
			s.EmptyState.Render("No metrics available."),
			width, highlighted)
	}

	var b strings.Builder
	for i, m := range metrics {
		if i > 0 {
			b.WriteString("\n")
		}
		delta := ""
		switch {
		case m.Delta > 0:
			delta = s.Success.Render(fmt.Sprintf(" ▲ %+.1f", m.Delta))
		case m.Delta < 0:
			delta = s.Error.Render(fmt.Sprintf(" ▼ %+.1f", m.Delta))
		}
		fmt.Fprintf(&b, "%s  %s%s%s\n",
			s.Bold.Render(m.Label),
			s.Title.Render(fmt.Sprintf("%.1f", m.Value)),
			s.Muted.Render(m.Unit),
			delta)

		if len(m.Categories) > 0 {
			chart := override
			if chart == "" || chart == "auto" {
				chart = format.AutoChartType(m.Categories)
			}
			b.WriteString(renderBreakdown(s, m.Categories, chart, PanelContentWidth(width)))
		}
	}
	return Panel(s, PanelKPI, "Executive KPIs", strings.TrimRight(b.String(), "\n"), width, highlighted)
}

func renderBreakdown(s Styles, categories map[string]float64, chart format.ChartType, width int) string {
	keys := make([]string, 0, len(categories))
	var total float64
	for k, v := range categories {
		keys = append(keys, k)
		if v > 0 {
			total += v
		}
	}
	sort.Slice(keys, func(i, j int) bool { return categories[keys[i]] > categories[keys[j]] })

	var b strings.Builder
	switch chart {
	case format.ChartCards:
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s %s  ", s.Muted.Render(k+":"), s.Body.Render(fmt.Sprintf("%.1f", categories[k])))
		}
		b.WriteString("\n")
	case format.ChartPie:
		for _, k := range keys {
			share := 0.0
			if total > 0 {
				share = categories[k] / total
			}
			fmt.Fprintf(&b, "  %-14s %s\n", Truncate(k, 14), s.Muted.Render(format.SafePercentage(share)))
		}
	default: // bar
		barWidth := width - 24
		if barWidth < 5 {
			barWidth = 5
		}
		var max float64 = 1
		for _, v := range categories {
			if v > max {
				max = v
			}
		}
		for _, k := range keys {
			fmt.Fprintf(&b, "  %-14s %s\n", Truncate(k, 14), Bar(s, categories[k]/max, barWidth, s.Theme.Accent))
		}
	}
	return b.String()
}

// RenderAgents renders the agent comparison table.
func RenderAgents(s Styles, agents []types.AgentStats, width int, highlighted PanelID) string {
	table := NewSimpleTable("", "Agent", "Queries", "Confidence", "Latency", "Success")
	for _, a := range agents {
		table.AddRow(
			a.Name,
			fmt.Sprintf("%d", a.QueriesHandled),
			format.SafePercentage(a.AvgConfidence),
			fmt.Sprintf("%dms", a.AvgLatencyMS),
			format.SafePercentage(a.SuccessRate),
		)
	}
	return Panel(s, PanelAgents, "Agent Comparison", table.View(s), width, highlighted)
}

// domainActions is the fixed action set offered per classified domain.
var domainActions = map[types.Domain][]string{
	types.DomainClear:       {"apply", "resubmit"},
	types.DomainComplicated: {"deep_analysis", "sensitivity_check", "escalate"},
	types.DomainComplex:     {"run_probe", "explore_scenarios", "escalate"},
	types.DomainChaotic:     {"apply", "halt", "escalate"},
	types.DomainDisorder:    {"resubmit", "fallback"},
}

// ActionsForDomain returns the recommended next actions for a domain.
func ActionsForDomain(d types.Domain) []string {
	if actions, ok := domainActions[d]; ok {
		return actions
	}
	return domainActions[types.DomainDisorder]
}

// RenderActions renders the recommended-action list for the current domain,
// numbered to match the action hotkeys.
func RenderActions(s Styles, qr *types.QueryResponse, width int, highlighted PanelID) string {
	if qr == nil {
		return Panel(s, PanelActions, "Recommended Actions",
			s.EmptyState.Render("Run an analysis to get recommendations."),
			width, highlighted)
	}

	var b strings.Builder
	for i, action := range ActionsForDomain(qr.Domain) {
		fmt.Fprintf(&b, "%s %s\n",
			s.Badge.Render(fmt.Sprintf("%d", i+1)),
			s.Body.Render(actionLabel(action)))
	}
	return Panel(s, PanelActions, "Recommended Actions", strings.TrimRight(b.String(), "\n"), width, highlighted)
}

func actionLabel(action string) string {
	labels := map[string]string{
		"deep_analysis":     "Deep analysis of the causal estimate",
		"sensitivity_check": "Check sensitivity to hidden confounders",
		"run_probe":         "Run the recommended probe",
		"explore_scenarios": "Explore alternative scenarios",
		"apply":             "Apply the proposed action",
		"halt":              "Halt and stabilize",
		"escalate":          "Escalate for human review",
		"fallback":          "Fall back to a safe default",
		"resubmit":          "Rephrase and resubmit the query",
	}
	if l, ok := labels[action]; ok {
		return l
	}
	return action
}
