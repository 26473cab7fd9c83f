package cockpit

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"carf/cmd/carf/ui"
)

// walkthroughStep is one stop of a guided tour: it can switch the view mode
// and highlight a panel while showing its text.
type walkthroughStep struct {
	title     string
	body      string
	view      ViewMode
	highlight ui.PanelID
}

// walkthroughTrack is a linear step sequence. There is no branching:
// advancing past the last step completes the track and resets.
type walkthroughTrack struct {
	id    string
	name  string
	steps []walkthroughStep
}

var walkthroughTracks = []walkthroughTrack{
	{
		id:   "quick-demo",
		name: "Quick demo",
		steps: []walkthroughStep{
			{title: "Scenarios", body: "Everything starts from a scenario. Cycle them with ctrl+s; the suggested queries update with it.", view: ViewAnalyst, highlight: ui.PanelChat},
			{title: "Ask a question", body: "Type a question and press enter. The backend classifies it into a Cynefin domain and routes it to the right method.", view: ViewAnalyst, highlight: ui.PanelCynefin},
			{title: "Read the result", body: "Each panel shows one slice of the answer. Panels without data for this query show an empty state instead.", view: ViewAnalyst, highlight: ui.PanelCausal},
		},
	},
	{
		id:   "analyst",
		name: "Analyst tour",
		steps: []walkthroughStep{
			{title: "Cynefin router", body: "The router panel shows the classified domain, its confidence badge, the entropy bucket, and the full score distribution.", view: ViewAnalyst, highlight: ui.PanelCynefin},
			{title: "Causal analysis", body: "Effect estimate, refutation robustness, the controlled confounders, and the DAG. The sensitivity curve is illustrative; trust the refutation counts.", view: ViewAnalyst, highlight: ui.PanelCausal},
			{title: "Bayesian beliefs", body: "For complex scenarios the backend tracks epistemic vs aleatoric uncertainty and recommends the probe that reduces it fastest.", view: ViewAnalyst, highlight: ui.PanelBayesian},
			{title: "Guardian", body: "Every proposed action is checked against policy. Actions can require explicit human approval.", view: ViewAnalyst, highlight: ui.PanelGuardian},
		},
	},
	{
		id:   "executive",
		name: "Executive tour",
		steps: []walkthroughStep{
			{title: "KPIs", body: "Top-line metrics with automatic chart selection. Override the chart type in settings.", view: ViewExecutive, highlight: ui.PanelKPI},
			{title: "Agent comparison", body: "Per-agent throughput, confidence, and latency, refreshed periodically.", view: ViewExecutive, highlight: ui.PanelAgents},
			{title: "Recommended actions", body: "The action set follows the classified domain. Run one with alt+number.", view: ViewExecutive, highlight: ui.PanelActions},
		},
	},
	{
		id:   "production",
		name: "Production ops",
		steps: []walkthroughStep{
			{title: "Guardian health", body: "The header shows the standing Guardian status and the pending escalation count; the panel breaks down each policy decision.", view: ViewAnalyst, highlight: ui.PanelGuardian},
			{title: "Escalations", body: "When a result needs human judgment, file an escalation with ctrl+x. The pending badge tracks open reviews.", view: ViewAnalyst, highlight: ui.PanelChat},
			{title: "Live logs", body: "Watch the backend in real time in the developer view. The stream falls back to polling when the WebSocket drops.", view: ViewDeveloper, highlight: ui.PanelLogs},
			{title: "Point at production", body: "Open settings with ctrl+g and change the API base URL to switch from the demo backend to a real deployment.", view: ViewAnalyst, highlight: ui.PanelNone},
		},
	},
	{
		id:   "contributor",
		name: "Contributor tour",
		steps: []walkthroughStep{
			{title: "Execution trace", body: "The developer view shows every reasoning step with its duration and confidence.", view: ViewDeveloper, highlight: ui.PanelTrace},
			{title: "Live logs", body: "Streamed over WebSocket with a polling fallback; pause with ctrl+p.", view: ViewDeveloper, highlight: ui.PanelLogs},
			{title: "Exports", body: "ctrl+e writes a debug bundle with the raw response, trace, and cockpit state. Attach it to bug reports.", view: ViewDeveloper, highlight: ui.PanelInspector},
		},
	},
}

// walkthroughState tracks the open tour. track -1 means the chooser is
// showing.
type walkthroughState struct {
	track int
	step  int
}

func newWalkthroughState() walkthroughState {
	return walkthroughState{track: -1}
}

// updateWalkthrough handles keys while the walkthrough overlay is open.
func (m Model) updateWalkthrough(key tea.KeyMsg) (Model, tea.Cmd) {
	w := &m.walkthrough

	if key.String() == "esc" {
		m.overlay = OverlayNone
		m.walkthrough = newWalkthroughState()
		m.highlighted = ui.PanelNone
		return m, nil
	}

	// Track chooser.
	if w.track < 0 {
		if key.Type == tea.KeyRunes && len(key.Runes) == 1 {
			idx := int(key.Runes[0] - '1')
			if idx >= 0 && idx < len(walkthroughTracks) {
				w.track = idx
				w.step = 0
				m.applyWalkthroughStep()
			}
		}
		return m, nil
	}

	track := walkthroughTracks[w.track]
	switch key.String() {
	case "right", "n", "enter", " ":
		w.step++
		if w.step >= len(track.steps) {
			// Completion resets the tour and closes the overlay.
			m.overlay = OverlayNone
			m.walkthrough = newWalkthroughState()
			m.highlighted = ui.PanelNone
			m.appendSystemMessage(fmt.Sprintf("Walkthrough %q completed.", track.name))
			return m, nil
		}
		m.applyWalkthroughStep()
	case "left", "b":
		if w.step > 0 {
			w.step--
			m.applyWalkthroughStep()
		}
	}
	return m, nil
}

func (m *Model) applyWalkthroughStep() {
	w := m.walkthrough
	if w.track < 0 || w.track >= len(walkthroughTracks) {
		return
	}
	track := walkthroughTracks[w.track]
	if w.step < 0 || w.step >= len(track.steps) {
		return
	}
	step := track.steps[w.step]
	m.viewMode = step.view
	m.highlighted = step.highlight
}

func (m Model) renderWalkthrough(width int) string {
	s := m.styles
	w := m.walkthrough

	if w.track < 0 {
		var b strings.Builder
		b.WriteString(s.Title.Render("Walkthrough") + "\n\n")
		for i, track := range walkthroughTracks {
			fmt.Fprintf(&b, "  %s %s\n", s.Badge.Render(fmt.Sprintf("%d", i+1)), s.Body.Render(track.name))
		}
		b.WriteString("\n" + s.Muted.Render("press a number to start · esc close"))
		return b.String()
	}

	track := walkthroughTracks[w.track]
	step := track.steps[w.step]
	return strings.Join([]string{
		s.Title.Render(fmt.Sprintf("%s · %d/%d", track.name, w.step+1, len(track.steps))),
		"",
		s.Bold.Render(step.title),
		s.Body.Render(ui.WrapText(step.body, width-6)),
		"",
		s.Muted.Render("→ next · ← back · esc close"),
	}, "\n")
}
