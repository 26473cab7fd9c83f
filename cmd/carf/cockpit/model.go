// Package cockpit is the interactive dashboard orchestrator: it owns the
// active scenario, the current query response, the view mode, the chat
// transcript, and every overlay, fanning result slices out to the display
// panels in cmd/carf/ui.
package cockpit

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"carf/cmd/carf/ui"
	"carf/internal/api"
	"carf/internal/config"
	"carf/internal/format"
	"carf/internal/history"
	"carf/internal/logging"
	"carf/internal/mockapi"
	"carf/internal/types"
)

// ViewMode selects which panel grid is rendered.
type ViewMode int

const (
	ViewAnalyst ViewMode = iota
	ViewDeveloper
	ViewExecutive
)

func (v ViewMode) String() string {
	switch v {
	case ViewDeveloper:
		return "developer"
	case ViewExecutive:
		return "executive"
	default:
		return "analyst"
	}
}

// ParseViewMode maps a config value to a view mode.
func ParseViewMode(s string) ViewMode {
	switch s {
	case "developer":
		return ViewDeveloper
	case "executive":
		return ViewExecutive
	default:
		return ViewAnalyst
	}
}

// Overlay identifies the modal overlay currently open, if any.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayOnboarding
	OverlaySettings
	OverlayMethodology
	OverlayEscalation
	OverlayHistory
	OverlayWalkthrough
	OverlayHelp
	OverlayWizard
	OverlayFileAnalysis
	OverlayArena
)

const maxLogLines = 500

// Model is the cockpit's single source of truth.
type Model struct {
	client   *api.Client
	recorder history.Recorder
	cfg      *config.Config
	watcher  *config.Watcher
	styles   ui.Styles
	markdown *ui.MarkdownRenderer
	layout   ui.LayoutConfig
	log      *zap.Logger

	// Scenario state.
	scenarios   []types.ScenarioInfo
	scenarioIdx int

	// Result state. queryResponse is replaced wholesale on each submission
	// and cleared on scenario change.
	queryResponse *types.QueryResponse

	// Conversation.
	chat     []types.ChatMessage
	chatView viewport.Model
	input    textarea.Model

	// Orchestration.
	viewMode    ViewMode
	overlay     Overlay
	highlighted ui.PanelID
	processing  bool
	spin        spinner.Model
	errBanner   string

	// epoch guards against stale async responses: every scenario change
	// bumps it, and replies carrying an older epoch are dropped. Query
	// submissions reuse the current epoch; the processing flag keeps them
	// serialized.
	epoch int

	// Secondary data.
	guardianStatus *types.GuardianStatus
	pendingCount   int
	agents         []types.AgentStats
	agentsInFlight bool
	patterns       []types.ExperiencePattern
	workflowSteps  []types.ReasoningStep
	serverViz      *types.VisualizationConfig

	// Developer log stream.
	stream      *api.LogStream
	streamState api.StreamState
	logEntries  []types.LogEntry

	// Overlays.
	settings     settingsState
	escalation   escalationState
	historyList  list.Model
	compareWith  *types.AnalysisSession
	walkthrough  walkthroughState
	wizard       wizardState
	fileAnalysis fileAnalysisState
	methodology  string
	overlayView  viewport.Model
	chartChoice  format.ChartType

	quitting bool
}

// New builds the cockpit model. The recorder and client are injected so the
// demo command and tests can substitute their own.
func New(cfg *config.Config, client *api.Client, recorder history.Recorder, watcher *config.Watcher) Model {
	styles := ui.NewStyles(ui.ThemeByName(cfg.Display.Theme))

	input := textarea.New()
	input.Placeholder = "Ask about the active scenario…"
	input.CharLimit = ui.MaxQueryLength
	input.SetHeight(1)
	input.ShowLineNumbers = false
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Spinner

	historyDelegate := list.NewDefaultDelegate()
	historyList := list.New(nil, historyDelegate, 0, 0)
	historyList.Title = "Analysis History"
	historyList.SetShowStatusBar(false)
	historyList.SetFilteringEnabled(true)

	// The static catalog doubles as the offline fallback; copied so scenario
	// metadata refreshed from the backend never mutates the shared slice.
	scenarios := make([]types.ScenarioInfo, len(mockapi.Scenarios))
	copy(scenarios, mockapi.Scenarios)

	m := Model{
		client:      client,
		recorder:    recorder,
		cfg:         cfg,
		watcher:     watcher,
		styles:      styles,
		markdown:    ui.NewMarkdownRenderer(styles.Theme.IsDark),
		log:         logging.Get(logging.CategoryCockpit),
		scenarios:   scenarios,
		viewMode:    ParseViewMode(cfg.Display.DefaultView),
		chartChoice: format.ChartType(cfg.Display.ChartType),
		input:       input,
		spin:        spin,
		historyList: historyList,
		stream:      api.NewLogStream(client),
		streamState: api.StreamConnecting,
		settings:    newSettingsState(cfg),
		walkthrough: newWalkthroughState(),
	}
	return m
}

// Init starts the log stream, the refresh ticker, and the initial scenario
// load, and checks the onboarding gate.
func (m Model) Init() tea.Cmd {
	m.stream.Start()

	cmds := []tea.Cmd{
		m.spin.Tick,
		textarea.Blink,
		m.loadScenarioCmd(m.epoch, m.activeScenario().ID),
		m.fetchAgentStatsCmd(),
		m.fetchWorkflowTraceCmd(),
		m.fetchVizConfigCmd(m.viewMode.String()),
		m.refreshTickCmd(),
		m.waitLogEntryCmd(),
		m.waitStreamStateCmd(),
		m.checkVisitedCmd(),
	}
	if m.watcher != nil {
		cmds = append(cmds, m.waitConfigCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) activeScenario() types.ScenarioInfo {
	if len(m.scenarios) == 0 {
		return types.ScenarioInfo{ID: "discount-churn", Name: "Discount vs Churn"}
	}
	return m.scenarios[m.scenarioIdx%len(m.scenarios)]
}

// appendChat adds a message and snaps the transcript viewport to the bottom.
func (m *Model) appendChat(msg types.ChatMessage) {
	m.chat = append(m.chat, msg)
	m.chatView.SetContent(m.renderChat())
	m.chatView.GotoBottom()
}

func (m *Model) appendSystemMessage(content string) {
	m.appendChat(types.NewChatMessage(types.RoleSystem, content))
}

// Shutdown tears down background resources. Called once on quit.
func (m *Model) Shutdown() {
	m.stream.Stop()
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	if m.recorder != nil {
		_ = m.recorder.Close()
	}
	logging.Sync()
}
