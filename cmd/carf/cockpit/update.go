package cockpit

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"carf/cmd/carf/ui"
	"carf/internal/api"
	"carf/internal/types"
)

// Update is the single message handler for the cockpit.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.processing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case scenarioLoadedMsg:
		return m.handleScenarioLoaded(msg)

	case queryResultMsg:
		return m.handleQueryResult(msg)

	case agentStatsMsg:
		m.agentsInFlight = false
		if msg.err != nil {
			m.log.Debug("agent stats refresh failed", zap.Error(msg.err))
			return m, nil
		}
		m.agents = msg.agents
		m.patterns = msg.patterns
		if msg.pendingCount >= 0 {
			m.pendingCount = msg.pendingCount
		}
		return m, nil

	case refreshTickMsg:
		cmds := []tea.Cmd{m.refreshTickCmd()}
		// Skip the refresh when the previous one is still in flight.
		if !m.agentsInFlight {
			m.agentsInFlight = true
			cmds = append(cmds, m.fetchAgentStatsCmd())
		}
		return m, tea.Batch(cmds...)

	case logEntryMsg:
		m.logEntries = append(m.logEntries, types.LogEntry(msg))
		if len(m.logEntries) > maxLogLines {
			m.logEntries = m.logEntries[len(m.logEntries)-maxLogLines:]
		}
		return m, m.waitLogEntryCmd()

	case streamStateMsg:
		m.streamState = api.StreamState(msg)
		if m.streamState == api.StreamStopped {
			return m, nil
		}
		return m, m.waitStreamStateCmd()

	case streamClosedMsg:
		return m, nil

	case configReloadedMsg:
		if msg.cfg != nil {
			m.applyConfig(msg.cfg)
			m.appendSystemMessage("Configuration reloaded.")
		}
		return m, m.waitConfigCmd()

	case visitedMsg:
		if !msg.visited && m.overlay == OverlayNone {
			m.overlay = OverlayOnboarding
		}
		return m, nil

	case workflowTraceMsg:
		if msg.err != nil {
			m.log.Debug("workflow trace unavailable", zap.Error(msg.err))
			return m, nil
		}
		m.workflowSteps = msg.steps
		return m, nil

	case vizConfigMsg:
		if msg.err != nil {
			m.log.Debug("visualization config unavailable", zap.Error(msg.err))
			return m, nil
		}
		m.serverViz = msg.viz
		return m, nil

	case insightsMsg:
		if msg.err != nil {
			m.errBanner = "Generating insights failed: " + msg.err.Error()
			return m, nil
		}
		m.appendChat(types.NewChatMessage(types.RoleAssistant, bulletList("Insights", msg.lines)))
		return m, nil

	case similarMsg:
		if msg.epoch != m.epoch || msg.err != nil || len(msg.matches) == 0 {
			return m, nil
		}
		parts := make([]string, len(msg.matches))
		for i, match := range msg.matches {
			parts[i] = fmt.Sprintf("%q (%.0f%%)", match.Query, match.Similarity*100)
		}
		m.appendSystemMessage("Similar past analyses: " + strings.Join(parts, ", "))
		return m, nil

	case suggestionsMsg:
		if msg.err != nil {
			m.errBanner = "Fetching suggestions failed: " + msg.err.Error()
			return m, nil
		}
		m.appendChat(types.NewChatMessage(types.RoleAssistant, bulletList("Suggested improvements", msg.lines)))
		return m, nil

	case fileDigestMsg:
		if msg.err != nil {
			m.errBanner = "File analysis failed: " + msg.err.Error()
			return m, nil
		}
		return m.submitQuery(digestQuery(msg))

	case explainMsg:
		if msg.err != nil {
			m.errBanner = "Loading methodology failed: " + msg.err.Error()
			m.overlay = OverlayNone
			return m, nil
		}
		m.methodology = msg.markdown
		m.overlayView.SetContent(m.markdown.Render(msg.markdown, m.overlayView.Width))
		m.overlayView.GotoTop()
		return m, nil

	case escalationFiledMsg:
		if msg.err != nil {
			m.errBanner = "Escalation failed: " + msg.err.Error()
			m.appendSystemMessage("Could not file the escalation. " + msg.err.Error())
		} else {
			m.pendingCount++
			m.appendSystemMessage("Escalation filed for human review.")
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.errBanner = "Export failed: " + msg.err.Error()
		} else {
			m.appendSystemMessage("Exported " + msg.path)
		}
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.errBanner = "Loading history failed: " + msg.err.Error()
			return m, nil
		}
		items := make([]list.Item, len(msg.sessions))
		for i, session := range msg.sessions {
			items[i] = historyItem{session: session}
		}
		return m, m.historyList.SetItems(items)
	}

	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.layout = ui.NewLayoutConfig(msg.Width, msg.Height)

	m.input.SetWidth(msg.Width - 4)

	_, chatWidth := ui.SplitPaneWidths(msg.Width)
	m.chatView.Width = ui.PanelContentWidth(chatWidth)
	m.chatView.Height = m.layout.ContentHeight() - 2
	if m.chatView.Height < 3 {
		m.chatView.Height = 3
	}
	m.chatView.SetContent(m.renderChat())

	m.historyList.SetSize(msg.Width-8, m.layout.ContentHeight()-4)
	m.overlayView.Width = msg.Width - 10
	m.overlayView.Height = m.layout.ContentHeight() - 4
	if m.methodology != "" {
		m.overlayView.SetContent(m.markdown.Render(m.methodology, m.overlayView.Width))
	}
	return m
}

// handleKey routes keys: quit first, then the open overlay, then the main
// bindings, and finally the query textarea.
func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.String() == "ctrl+c" {
		m.quitting = true
		m.Shutdown()
		return m, tea.Quit
	}

	switch m.overlay {
	case OverlayOnboarding:
		m.overlay = OverlayNone
		return m, m.markVisitedCmd()
	case OverlayHelp:
		if key.String() == "esc" || key.String() == "?" {
			m.overlay = OverlayNone
		}
		return m, nil
	case OverlaySettings:
		return m.updateSettings(key)
	case OverlayEscalation:
		return m.updateEscalation(key)
	case OverlayWalkthrough:
		return m.updateWalkthrough(key)
	case OverlayHistory:
		return m.updateHistory(key)
	case OverlayWizard:
		return m.updateWizard(key)
	case OverlayFileAnalysis:
		return m.updateFileAnalysis(key)
	case OverlayArena:
		return m.updateArena(key)
	case OverlayMethodology:
		if key.String() == "esc" {
			m.overlay = OverlayNone
			return m, nil
		}
		var cmd tea.Cmd
		m.overlayView, cmd = m.overlayView.Update(key)
		return m, cmd
	}

	switch key.String() {
	case "enter":
		return m.submitQuery(m.input.Value())

	case "tab":
		m.viewMode = (m.viewMode + 1) % 3
		return m, nil

	case "shift+tab":
		m.viewMode = (m.viewMode + 2) % 3
		return m, nil

	case "ctrl+s":
		return m.changeScenario((m.scenarioIdx + 1) % max(len(m.scenarios), 1))

	case "ctrl+h":
		m.overlay = OverlayHistory
		return m, m.loadHistoryCmd()

	case "ctrl+g":
		m.settings = newSettingsState(m.cfg)
		m.overlay = OverlaySettings
		return m, nil

	case "ctrl+o":
		m.overlay = OverlayMethodology
		sessionID := ""
		if m.queryResponse != nil {
			sessionID = m.queryResponse.SessionID
		}
		return m, m.explainCmd(sessionID)

	case "ctrl+x":
		m.overlay = OverlayEscalation
		return m, nil

	case "ctrl+w":
		m.walkthrough = newWalkthroughState()
		m.overlay = OverlayWalkthrough
		return m, nil

	case "ctrl+d":
		m.wizard = wizardState{}
		m.overlay = OverlayWizard
		return m, nil

	case "ctrl+f":
		m.fileAnalysis = fileAnalysisState{}
		m.overlay = OverlayFileAnalysis
		return m, nil

	case "ctrl+r":
		m.overlay = OverlayArena
		return m, nil

	case "ctrl+n":
		sessionID := ""
		if m.queryResponse != nil {
			sessionID = m.queryResponse.SessionID
		}
		return m, m.generateInsightsCmd(sessionID)

	case "ctrl+u":
		if m.queryResponse == nil {
			m.errBanner = "Run an analysis first; suggestions need a completed session."
			return m, nil
		}
		return m, m.suggestImprovementsCmd(m.queryResponse.SessionID)

	case "ctrl+p":
		if m.stream.Paused() {
			m.stream.Resume()
		} else {
			m.stream.Pause()
		}
		return m, nil

	case "ctrl+e":
		return m, m.exportDebugCmd()

	case "ctrl+t":
		return m, m.exportTraceCmd()

	case "ctrl+y":
		return m, m.exportChatCmd()

	case "esc":
		m.errBanner = ""
		m.highlighted = ui.PanelNone
		return m, nil

	case "?":
		// Only intercept help when it would not be query text.
		if strings.TrimSpace(m.input.Value()) == "" {
			m.overlay = OverlayHelp
			return m, nil
		}
	}

	// alt+1…alt+9 run the recommended action with that number.
	if action, ok := altActionKey(key.String()); ok {
		return m.dispatchDomainAction(actionByIndex(m.queryResponse, action))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func altActionKey(key string) (int, bool) {
	if len(key) == 5 && strings.HasPrefix(key, "alt+") && key[4] >= '1' && key[4] <= '9' {
		return int(key[4] - '1'), true
	}
	return 0, false
}

func actionByIndex(qr *types.QueryResponse, idx int) string {
	if qr == nil {
		return ""
	}
	actions := ui.ActionsForDomain(qr.Domain)
	if idx < 0 || idx >= len(actions) {
		return ""
	}
	return actions[idx]
}

// changeScenario resets the result and chat state unconditionally, then
// kicks off the parallel scenario fetch. The epoch bump discards any query
// reply still in flight for the previous scenario.
func (m Model) changeScenario(idx int) (tea.Model, tea.Cmd) {
	if len(m.scenarios) == 0 {
		return m, nil
	}
	m.scenarioIdx = idx % len(m.scenarios)
	m.epoch++
	m.queryResponse = nil
	m.chat = nil
	m.highlighted = ui.PanelNone
	m.errBanner = ""
	m.processing = false
	m.compareWith = nil
	m.chatView.SetContent("")

	scenario := m.activeScenario()
	m.log.Info("scenario changed", zap.String("scenario", scenario.ID), zap.Int("epoch", m.epoch))
	m.appendSystemMessage(fmt.Sprintf("Scenario: %s. %s", scenario.Name, scenario.Description))
	return m, m.loadScenarioCmd(m.epoch, scenario.ID)
}

// submitQuery validates and issues a query. Submitting while a query is in
// flight, or with a blank input, is a no-op. The current epoch is captured
// but not bumped: only a scenario change invalidates in-flight replies, and
// the processing flag already serializes query submissions.
func (m Model) submitQuery(raw string) (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(raw)
	if m.processing || query == "" {
		return m, nil
	}
	if runes := []rune(query); len(runes) > ui.MaxQueryLength {
		query = string(runes[:ui.MaxQueryLength])
	}

	m.appendChat(types.NewChatMessage(types.RoleUser, query))
	m.input.Reset()
	m.processing = true
	m.errBanner = ""

	m.log.Info("query submitted",
		zap.String("scenario", m.activeScenario().ID),
		zap.Int("epoch", m.epoch),
		zap.Int("length", len(query)))
	return m, tea.Batch(m.spin.Tick, m.submitQueryCmd(m.epoch, query, m.activeScenario().ID))
}

func (m Model) handleScenarioLoaded(msg scenarioLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.epoch != m.epoch {
		m.log.Debug("dropping stale scenario load", zap.Int("epoch", msg.epoch))
		return m, nil
	}
	if msg.err != nil {
		// Static catalog fallback: the scenario stays usable offline.
		m.log.Warn("scenario load failed, using static catalog", zap.Error(msg.err))
		m.appendSystemMessage("Backend unreachable; using the built-in scenario catalog.")
		return m, nil
	}
	if msg.info != nil {
		m.scenarios[m.scenarioIdx] = *msg.info
		if len(msg.info.SuggestedQueries) > 0 {
			m.appendSystemMessage("Suggested: " + strings.Join(msg.info.SuggestedQueries, " · "))
		}
	}
	if msg.guardian != nil {
		m.guardianStatus = msg.guardian
	}
	if msg.pendingCount >= 0 {
		m.pendingCount = msg.pendingCount
	}
	return m, nil
}

func (m Model) handleQueryResult(msg queryResultMsg) (tea.Model, tea.Cmd) {
	if msg.epoch != m.epoch {
		// The scenario changed while this query was in flight.
		m.log.Info("dropping stale query result",
			zap.Int("got", msg.epoch), zap.Int("want", m.epoch))
		return m, nil
	}

	m.processing = false

	if msg.err != nil {
		m.errBanner = "Query failed: " + msg.err.Error()
		m.appendSystemMessage("The analysis could not be completed. " + msg.err.Error())
		return m, nil
	}

	m.queryResponse = msg.response
	m.highlighted = ui.PanelNone

	assistant := types.NewChatMessage(types.RoleAssistant, msg.response.Response)
	assistant.Confidence = msg.response.DomainConfidence
	m.appendChat(assistant)

	session := types.AnalysisSession{
		ID:         msg.response.SessionID,
		Timestamp:  time.Now().UTC(),
		Scenario:   m.activeScenario().ID,
		Query:      msg.response.Query,
		DurationMS: msg.elapsed.Milliseconds(),
		Response:   msg.response,
	}
	return m, tea.Batch(
		m.recordSessionCmd(session),
		m.fetchSimilarCmd(m.epoch, msg.response.Query))
}

// bulletList formats backend-provided lines as a markdown list for the chat.
func bulletList(title string, lines []string) string {
	var b strings.Builder
	b.WriteString("**" + title + "**\n")
	for _, line := range lines {
		b.WriteString("\n- " + line)
	}
	return b.String()
}

// dispatchDomainAction maps an action token to a synthesized query or an
// overlay. Unknown tokens are logged and ignored.
func (m Model) dispatchDomainAction(action string) (tea.Model, tea.Cmd) {
	switch action {
	case "deep_analysis":
		return m.submitQuery("Run a deeper analysis of the current causal estimate.")
	case "sensitivity_check":
		return m.submitQuery("How sensitive is the estimate to unobserved confounding?")
	case "run_probe":
		probe := "the recommended probe"
		if m.queryResponse != nil && m.queryResponse.Bayesian != nil && m.queryResponse.Bayesian.RecommendedProbe != "" {
			probe = m.queryResponse.Bayesian.RecommendedProbe
		}
		return m.submitQuery("Run " + probe + " and update the belief state.")
	case "explore_scenarios":
		m.overlay = OverlayArena
		return m, nil
	case "apply":
		return m.submitQuery("Apply the proposed action and report the expected outcome.")
	case "halt":
		return m.submitQuery("Halt the current action and outline a stabilization plan.")
	case "escalate":
		m.overlay = OverlayEscalation
		return m, nil
	case "fallback":
		return m.submitQuery("Fall back to the safe default strategy.")
	case "resubmit":
		if m.queryResponse != nil && m.queryResponse.Query != "" {
			return m.submitQuery(m.queryResponse.Query)
		}
		return m, nil
	case "":
		return m, nil
	default:
		m.log.Warn("unknown domain action", zap.String("action", action))
		return m, nil
	}
}
