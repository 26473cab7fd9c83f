package cockpit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"carf/cmd/carf/ui"
	"carf/internal/api"
	"carf/internal/format"
	"carf/internal/types"
)

// View renders the full cockpit frame.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.layout.TerminalWidth == 0 {
		return "starting…"
	}
	if m.layout.TooSmall() {
		return m.styles.ErrorBanner.Render(fmt.Sprintf(
			"Terminal too small: need at least %dx%d.",
			ui.MinimumTerminalWidth, ui.MinimumTerminalHeight))
	}

	sections := []string{
		m.renderHeader(),
		m.renderTabBar(),
		m.renderContent(),
	}
	if m.errBanner != "" {
		sections = append(sections, m.styles.ErrorBanner.Render(ui.Truncate(m.errBanner, m.layout.TerminalWidth-2)))
	}
	sections = append(sections, m.renderInput(), m.renderFooter())

	base := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.overlay != OverlayNone {
		return m.renderOverlay()
	}
	return base
}

func (m Model) renderHeader() string {
	s := m.styles
	scenario := m.activeScenario()

	left := s.Header.Render("carf · " + scenario.Name)

	var parts []string
	if m.guardianStatus != nil {
		status := m.guardianStatus.OverallStatus
		style := s.Success
		if status != "healthy" {
			style = s.Warning
		}
		parts = append(parts, style.Render("guardian:"+status))
	}
	if m.pendingCount > 0 {
		parts = append(parts, s.BadgeLow.Render(fmt.Sprintf("%d pending", m.pendingCount)))
	}
	right := strings.Join(parts, " ")

	gap := m.layout.TerminalWidth - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderTabBar() string {
	s := m.styles
	tabs := make([]string, 0, 3)
	for _, mode := range []ViewMode{ViewAnalyst, ViewDeveloper, ViewExecutive} {
		style := s.Tab
		if mode == m.viewMode {
			style = s.TabOn
		}
		tabs = append(tabs, style.Render(mode.String()))
	}
	return s.TabBar.Render(strings.Join(tabs, " "))
}

func (m Model) renderContent() string {
	switch m.viewMode {
	case ViewDeveloper:
		return m.renderDeveloperView()
	case ViewExecutive:
		return m.renderExecutiveView()
	default:
		return m.renderAnalystView()
	}
}

// renderAnalystView shows the result panels on the left and the chat
// transcript on the right.
func (m Model) renderAnalystView() string {
	s := m.styles
	leftWidth, rightWidth := ui.SplitPaneWidths(m.layout.TerminalWidth)
	cells := ui.GridCellWidths(leftWidth, 2)

	var causal *types.CausalResult
	var bayesian *types.BayesianResult
	var guardian *types.GuardianResult
	if m.queryResponse != nil {
		causal = m.queryResponse.Causal
		bayesian = m.queryResponse.Bayesian
		guardian = m.queryResponse.Guardian
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		ui.RenderCynefin(s, m.queryResponse, cells[0], m.highlighted),
		" ",
		ui.RenderCausal(s, causal, cells[1], m.highlighted))
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		ui.RenderBayesian(s, bayesian, cells[0], m.highlighted),
		" ",
		ui.RenderGuardian(s, guardian, cells[1], m.highlighted))

	left := lipgloss.JoinVertical(lipgloss.Left, top, bottom)
	chat := ui.Panel(s, ui.PanelChat, "Conversation", m.chatView.View(), rightWidth, m.highlighted)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", chat)
}

func (m Model) renderDeveloperView() string {
	s := m.styles
	width := m.layout.TerminalWidth
	cells := ui.GridCellWidths(width, 2)

	// Before the first query the trace panel shows the newest backend
	// workflow run instead of an empty state.
	steps := m.workflowSteps
	if m.queryResponse != nil {
		steps = m.queryResponse.ReasoningChain
	}

	logHeight := m.layout.ContentHeight() / 2
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		ui.RenderTrace(s, steps, cells[0], m.highlighted),
		" ",
		ui.RenderLogStream(s, m.logEntries, string(m.streamState), m.stream.Paused(), cells[1], logHeight, m.highlighted))
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		ui.RenderDataFlow(s, m.queryResponse, cells[0], m.highlighted),
		" ",
		ui.RenderInspector(s, m.queryResponse, cells[1], logHeight, m.highlighted))

	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

func (m Model) renderExecutiveView() string {
	s := m.styles
	cells := ui.GridCellWidths(m.layout.TerminalWidth, 2)

	// The backend's chart recommendation fills in when the local setting
	// is auto; an explicit setting always wins.
	chart := m.chartChoice
	if chart == "auto" && m.serverViz != nil && m.serverViz.ChartType != "" {
		chart = format.ChartType(m.serverViz.ChartType)
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		ui.RenderKPI(s, m.deriveKPIs(), chart, cells[0], m.highlighted),
		" ",
		ui.RenderAgents(s, m.agents, cells[1], m.highlighted))
	actions := ui.RenderActions(s, m.queryResponse, m.layout.TerminalWidth, m.highlighted)

	return lipgloss.JoinVertical(lipgloss.Left, top, actions)
}

// deriveKPIs builds the executive metric cards from the current result, the
// agent comparison, and the learned experience patterns.
func (m Model) deriveKPIs() []types.KPIMetric {
	var metrics []types.KPIMetric

	if m.queryResponse != nil {
		metrics = append(metrics, types.KPIMetric{
			Label: "Classification confidence",
			Value: m.queryResponse.DomainConfidence * 100,
			Unit:  "%",
		})
		if m.queryResponse.Causal != nil {
			c := m.queryResponse.Causal
			metrics = append(metrics, types.KPIMetric{
				Label: "Estimated effect",
				Value: c.Effect,
				Unit:  " " + c.Unit,
			})
		}
	}

	if len(m.agents) > 0 {
		var queries int
		var latency int64
		for _, a := range m.agents {
			queries += a.QueriesHandled
			latency += a.AvgLatencyMS
		}
		metrics = append(metrics, types.KPIMetric{
			Label: "Queries handled",
			Value: float64(queries),
			Unit:  "",
		}, types.KPIMetric{
			Label: "Avg latency",
			Value: float64(latency) / float64(len(m.agents)),
			Unit:  "ms",
		})
	}

	if len(m.patterns) > 0 {
		categories := make(map[string]float64, len(m.patterns))
		var total int
		for _, p := range m.patterns {
			categories[p.Pattern] = float64(p.Count)
			total += p.Count
		}
		metrics = append(metrics, types.KPIMetric{
			Label:      "Experience patterns",
			Value:      float64(total),
			Unit:       " obs",
			Categories: categories,
		})
	}

	return metrics
}

// renderChat renders the full transcript for the chat viewport.
func (m Model) renderChat() string {
	s := m.styles
	width := m.chatView.Width
	if width <= 0 {
		width = 60
	}

	var b strings.Builder
	for i, msg := range m.chat {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case types.RoleUser:
			b.WriteString(s.UserMsg.Render("you ") + s.Muted.Render(msg.Time.Format("15:04")))
			b.WriteString("\n" + s.Body.Render(ui.WrapText(msg.Content, width)))
		case types.RoleAssistant:
			header := s.Bold.Render("carf ")
			if msg.Confidence >= 0 {
				header += s.ConfidenceBadge(msg.Confidence)
			}
			b.WriteString(header)
			b.WriteString("\n" + s.AssistantMsg.Render(m.markdown.Render(msg.Content, width-3)))
		default:
			b.WriteString(s.SystemMsg.Render(ui.WrapText("· "+msg.Content, width)))
		}
	}

	if m.processing {
		if len(m.chat) > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.spin.View() + s.Muted.Render(" analyzing…"))
	}
	return b.String()
}

func (m Model) renderInput() string {
	return m.styles.Content.Render(m.input.View())
}

func (m Model) renderFooter() string {
	s := m.styles
	stream := string(m.streamState)
	if m.stream.Paused() {
		stream = "paused"
	}
	streamStyle := s.Muted
	switch m.streamState {
	case api.StreamConnected:
		streamStyle = s.Success
	case api.StreamPolling:
		streamStyle = s.Warning
	}

	hints := "enter submit · tab view · ctrl+s scenario · ? help"
	return s.Footer.Render(hints + "  " + streamStyle.Render("logs:"+stream))
}

// renderOverlay centers the open overlay in a bordered box over a cleared
// frame. Bubble Tea repaints the whole screen each frame, so the base view
// behind the overlay is simply not drawn.
func (m Model) renderOverlay() string {
	width := m.layout.TerminalWidth
	height := m.layout.TerminalHeight

	boxWidth := width * 3 / 4
	if boxWidth > 100 {
		boxWidth = 100
	}

	var content string
	switch m.overlay {
	case OverlayOnboarding:
		content = m.renderOnboarding(boxWidth)
	case OverlaySettings:
		content = m.renderSettings(boxWidth)
	case OverlayMethodology:
		content = m.renderMethodology(boxWidth, height-6)
	case OverlayEscalation:
		content = m.renderEscalation(boxWidth)
	case OverlayHistory:
		content = m.renderHistoryOverlay(boxWidth, height-6)
	case OverlayWalkthrough:
		content = m.renderWalkthrough(boxWidth)
	case OverlayHelp:
		content = m.renderHelp(boxWidth)
	case OverlayWizard:
		content = m.renderWizard(boxWidth)
	case OverlayFileAnalysis:
		content = m.renderFileAnalysis(boxWidth)
	case OverlayArena:
		content = m.renderArena(boxWidth)
	}

	box := m.styles.Panel.
		BorderForeground(m.styles.Theme.Accent).
		Width(boxWidth).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
