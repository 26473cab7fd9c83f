package ui

import (
	"fmt"
	"strings"

	"carf/internal/types"
)

// RenderTrace renders the execution trace timeline with per-step durations
// scaled against the longest step.
func RenderTrace(s Styles, steps []types.ReasoningStep, width int, highlighted PanelID) string {
	if len(steps) == 0 {
		return Panel(s, PanelTrace, "Execution Trace",
			s.EmptyState.Render("No trace recorded yet."),
			width, highlighted)
	}

	var maxDur int64 = 1
	for _, step := range steps {
		if step.DurationMS > maxDur {
			maxDur = step.DurationMS
		}
	}

	barWidth := PanelContentWidth(width) - 44
	if barWidth < 5 {
		barWidth = 5
	}

	var b strings.Builder
	for i, step := range steps {
		fmt.Fprintf(&b, "%s %-10s %-18s %s %s\n",
			s.Muted.Render(fmt.Sprintf("%2d.", i+1)),
			s.Bold.Render(Truncate(step.Node, 10)),
			s.Body.Render(Truncate(step.Action, 18)),
			Bar(s, float64(step.DurationMS)/float64(maxDur), barWidth, s.Theme.Accent),
			s.Muted.Render(fmt.Sprintf("%dms", step.DurationMS)))
	}
	return Panel(s, PanelTrace, "Execution Trace", strings.TrimRight(b.String(), "\n"), width, highlighted)
}

// RenderLogStream renders the developer log pane with its connection state.
func RenderLogStream(s Styles, entries []types.LogEntry, state string, paused bool, width, height int, highlighted PanelID) string {
	title := "Live Logs"
	indicator := s.Muted.Render("● " + state)
	switch state {
	case "connected":
		indicator = s.Success.Render("● connected")
	case "polling":
		indicator = s.Warning.Render("● polling")
	case "connecting":
		indicator = s.Info.Render("● connecting")
	}
	if paused {
		indicator = s.Warning.Render("⏸ paused")
	}

	rows := PanelContentHeight(height) - 2
	if rows < 1 {
		rows = 1
	}
	start := 0
	if len(entries) > rows {
		start = len(entries) - rows
	}

	var b strings.Builder
	b.WriteString(indicator + "\n")
	if len(entries) == 0 {
		b.WriteString(s.EmptyState.Render("Waiting for log entries…"))
	}
	for _, e := range entries[start:] {
		level := s.Muted
		switch e.Level {
		case "warn", "warning":
			level = s.Warning
		case "error":
			level = s.Error
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			s.Muted.Render(e.Timestamp.Format("15:04:05")),
			level.Render(fmt.Sprintf("%-5s", strings.ToUpper(e.Level))),
			s.Body.Render(Truncate(fmt.Sprintf("[%s] %s", e.Source, e.Message), PanelContentWidth(width)-15)))
	}
	return Panel(s, PanelLogs, title, strings.TrimRight(b.String(), "\n"), width, highlighted)
}

// RenderDataFlow renders the pipeline diagram for the current response:
// which stages ran and which produced results.
func RenderDataFlow(s Styles, qr *types.QueryResponse, width int, highlighted PanelID) string {
	if qr == nil {
		return Panel(s, PanelDataFlow, "Data Flow",
			s.EmptyState.Render("No active pipeline."),
			width, highlighted)
	}

	stage := func(name string, active bool) string {
		if active {
			return s.Success.Render("[" + name + "]")
		}
		return s.Muted.Render("[" + name + "]")
	}
	arrow := s.Muted.Render("─▶")

	line := strings.Join([]string{
		stage("query", true),
		arrow,
		stage("router", true),
		arrow,
		stage("causal", qr.Causal != nil),
		arrow,
		stage("bayesian", qr.Bayesian != nil),
		arrow,
		stage("guardian", qr.Guardian != nil),
	}, " ")

	var b strings.Builder
	b.WriteString(line + "\n\n")
	fmt.Fprintf(&b, "%s %s\n", s.Muted.Render("Triggered method:"), s.Bold.Render(orNA(qr.TriggeredMethod)))
	fmt.Fprintf(&b, "%s %dms", s.Muted.Render("Total duration:"), qr.DurationMS)
	return Panel(s, PanelDataFlow, "Data Flow", b.String(), width, highlighted)
}

// RenderInspector renders the raw response summary for the developer view.
func RenderInspector(s Styles, qr *types.QueryResponse, width, height int, highlighted PanelID) string {
	if qr == nil {
		return Panel(s, PanelInspector, "Response Inspector",
			s.EmptyState.Render("No response captured."),
			width, highlighted)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", s.Muted.Render("session:"), qr.SessionID)
	fmt.Fprintf(&b, "%s %s (%.2f)\n", s.Muted.Render("domain:"), qr.Domain, qr.DomainConfidence)
	fmt.Fprintf(&b, "%s causal=%v bayesian=%v guardian=%v\n",
		s.Muted.Render("slices:"),
		qr.Causal != nil, qr.Bayesian != nil, qr.Guardian != nil)
	fmt.Fprintf(&b, "%s %d steps\n", s.Muted.Render("trace:"), len(qr.ReasoningChain))
	b.WriteString("\n")
	b.WriteString(s.Body.Render(WrapText(Truncate(qr.Response, 600), PanelContentWidth(width))))
	return Panel(s, PanelInspector, "Response Inspector", strings.TrimRight(b.String(), "\n"), width, highlighted)
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
