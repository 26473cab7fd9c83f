package cockpit

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"carf/cmd/carf/ui"
	"carf/internal/config"
	"carf/internal/format"
	"carf/internal/types"
)

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

const (
	settingAPIURL = iota
	settingTheme
	settingRefresh
	settingChart
	settingCount
)

type settingsState struct {
	field   int
	apiURL  string
	theme   string
	refresh string
	chart   string
}

func newSettingsState(cfg *config.Config) settingsState {
	return settingsState{
		apiURL:  cfg.API.BaseURL,
		theme:   cfg.Display.Theme,
		refresh: cfg.Display.RefreshInterval,
		chart:   cfg.Display.ChartType,
	}
}

func cycle(options []string, current string, delta int) string {
	idx := 0
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(options)) % len(options)
	return options[idx]
}

// updateSettings handles keys while the settings overlay is open.
func (m Model) updateSettings(key tea.KeyMsg) (Model, tea.Cmd) {
	s := &m.settings
	switch key.String() {
	case "esc":
		m.overlay = OverlayNone
		m.settings = newSettingsState(m.cfg)
	case "up", "shift+tab":
		s.field = (s.field - 1 + settingCount) % settingCount
	case "down", "tab":
		s.field = (s.field + 1) % settingCount
	case "left", "right":
		delta := 1
		if key.String() == "left" {
			delta = -1
		}
		switch s.field {
		case settingTheme:
			s.theme = cycle([]string{"auto", "dark", "light"}, s.theme, delta)
		case settingChart:
			s.chart = cycle([]string{"auto", "cards", "bar", "pie"}, s.chart, delta)
		case settingRefresh:
			s.refresh = cycle([]string{"10s", "30s", "1m", "5m"}, s.refresh, delta)
		}
	case "backspace":
		if s.field == settingAPIURL && len(s.apiURL) > 0 {
			s.apiURL = s.apiURL[:len(s.apiURL)-1]
		}
	case "enter":
		return m.applySettings()
	default:
		if s.field == settingAPIURL && key.Type == tea.KeyRunes {
			s.apiURL += string(key.Runes)
		}
	}
	return m, nil
}

// applySettings validates, persists, and applies the edited settings.
func (m Model) applySettings() (Model, tea.Cmd) {
	cfg := *m.cfg
	cfg.API.BaseURL = strings.TrimSpace(m.settings.apiURL)
	cfg.Display.Theme = m.settings.theme
	cfg.Display.RefreshInterval = m.settings.refresh
	cfg.Display.ChartType = m.settings.chart

	if err := cfg.Validate(); err != nil {
		m.errBanner = "Invalid settings: " + err.Error()
		return m, nil
	}
	if err := cfg.Save(config.DefaultPath()); err != nil {
		m.errBanner = "Saving settings failed: " + err.Error()
		return m, nil
	}

	m.applyConfig(&cfg)
	m.overlay = OverlayNone
	m.appendSystemMessage("Settings saved.")
	return m, nil
}

// applyConfig swaps in a new config (from the settings overlay or the file
// watcher) and re-derives display state.
func (m *Model) applyConfig(cfg *config.Config) {
	m.cfg = cfg
	m.styles = ui.NewStyles(ui.ThemeByName(cfg.Display.Theme))
	m.markdown = ui.NewMarkdownRenderer(m.styles.Theme.IsDark)
	m.chartChoice = format.ChartType(cfg.Display.ChartType)
	m.settings = newSettingsState(cfg)
	m.chatView.SetContent(m.renderChat())
}

func (m Model) renderSettings(width int) string {
	s := m.styles
	row := func(idx int, label, value string) string {
		cursor := "  "
		style := s.Body
		if m.settings.field == idx {
			cursor = s.Success.Render("▶ ")
			style = s.Bold
		}
		return fmt.Sprintf("%s%-18s %s", cursor, s.Muted.Render(label), style.Render(value))
	}

	lines := []string{
		s.Title.Render("Settings"),
		"",
		row(settingAPIURL, "API base URL", m.settings.apiURL+"▏"),
		row(settingTheme, "Theme", m.settings.theme),
		row(settingRefresh, "Refresh interval", m.settings.refresh),
		row(settingChart, "Chart type", m.settings.chart),
		"",
		s.Muted.Render("↑/↓ select · ←/→ cycle · type to edit URL · enter save · esc cancel"),
	}
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// Escalation compose
// ---------------------------------------------------------------------------

type escalationState struct {
	reason string
}

func (m Model) updateEscalation(key tea.KeyMsg) (Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.overlay = OverlayNone
		m.escalation.reason = ""
	case "enter":
		reason := strings.TrimSpace(m.escalation.reason)
		if reason == "" {
			return m, nil
		}
		sessionID := ""
		if m.queryResponse != nil {
			sessionID = m.queryResponse.SessionID
		}
		m.overlay = OverlayNone
		m.escalation.reason = ""
		return m, m.fileEscalationCmd(sessionID, reason)
	case "backspace":
		if len(m.escalation.reason) > 0 {
			m.escalation.reason = m.escalation.reason[:len(m.escalation.reason)-1]
		}
	default:
		if key.Type == tea.KeyRunes || key.Type == tea.KeySpace {
			m.escalation.reason += string(key.Runes)
			if key.Type == tea.KeySpace {
				m.escalation.reason += " "
			}
		}
	}
	return m, nil
}

func (m Model) renderEscalation(width int) string {
	s := m.styles
	session := "none"
	if m.queryResponse != nil {
		session = m.queryResponse.SessionID
	}
	lines := []string{
		s.Title.Render("Escalate for Human Review"),
		"",
		s.Muted.Render("Session: ") + s.Body.Render(session),
		"",
		s.Muted.Render("Reason:"),
		s.Body.Render(ui.WrapText(m.escalation.reason+"▏", width-6)),
		"",
		s.Muted.Render("enter submit · esc cancel"),
	}
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// historyItem adapts an AnalysisSession to the bubbles list.
type historyItem struct {
	session types.AnalysisSession
}

func (h historyItem) Title() string {
	domain := types.DomainDisorder
	if h.session.Response != nil {
		domain = h.session.Response.Domain
	}
	return fmt.Sprintf("[%s] %s", domain, ui.Truncate(h.session.Query, 60))
}

func (h historyItem) Description() string {
	return fmt.Sprintf("%s · %s · %dms",
		h.session.Timestamp.Format("2006-01-02 15:04"),
		h.session.Scenario,
		h.session.DurationMS)
}

func (h historyItem) FilterValue() string {
	return h.session.Query
}

func (m Model) updateHistory(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && !m.historyList.SettingFilter() {
		switch key.String() {
		case "esc":
			m.overlay = OverlayNone
			m.compareWith = nil
			return m, nil
		case "enter":
			if item, ok := m.historyList.SelectedItem().(historyItem); ok {
				m.overlay = OverlayNone
				m.loadSession(item.session)
			}
			return m, nil
		case "c":
			if item, ok := m.historyList.SelectedItem().(historyItem); ok {
				session := item.session
				m.compareWith = &session
			}
			return m, nil
		case "d":
			if item, ok := m.historyList.SelectedItem().(historyItem); ok {
				m.historyList.RemoveItem(m.historyList.Index())
				return m, m.deleteSessionCmd(item.session.ID)
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

// loadSession restores a persisted session as the current result.
func (m *Model) loadSession(session types.AnalysisSession) {
	m.queryResponse = session.Response
	m.highlighted = ui.PanelNone
	m.appendSystemMessage(fmt.Sprintf("Loaded session from %s: %q",
		session.Timestamp.Format("2006-01-02 15:04"), session.Query))
}

func (m Model) renderHistoryOverlay(width, height int) string {
	help := m.styles.Muted.Render("enter load · c compare · d delete · / filter · esc close")
	compare := ""
	if m.compareWith != nil {
		compare = "\n" + m.renderComparison(width)
	}
	return m.historyList.View() + compare + "\n" + help
}

// renderComparison shows the pinned session next to the current result.
func (m Model) renderComparison(width int) string {
	s := m.styles
	line := func(label string, resp *types.QueryResponse) string {
		if resp == nil {
			return fmt.Sprintf("%s %s", s.Muted.Render(label), s.EmptyState.Render("no result"))
		}
		effect := "N/A"
		if resp.Causal != nil {
			effect = format.FormatEffect(resp.Causal.Effect)
		}
		return fmt.Sprintf("%s %s conf=%s effect=%s",
			s.Muted.Render(label),
			s.DomainStyle(resp.Domain).Render(string(resp.Domain)),
			format.SafePercentage(resp.DomainConfidence),
			effect)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		s.PanelTitle.Render("Comparison"),
		line("pinned: ", m.compareWith.Response),
		line("current:", m.queryResponse))
}

// ---------------------------------------------------------------------------
// Methodology + onboarding + help
// ---------------------------------------------------------------------------

func (m Model) renderMethodology(width, height int) string {
	if m.methodology == "" {
		return m.styles.EmptyState.Render("Loading methodology…")
	}
	return m.overlayView.View() + "\n" + m.styles.Muted.Render("↑/↓ scroll · esc close")
}

const onboardingText = `Welcome to the carf cockpit.

carf visualizes the output of the reasoning backend: Cynefin domain
classification, causal-inference estimates, Bayesian belief states, and
Guardian policy decisions.

  · Pick a scenario with ctrl+s, then type a question and press enter.
  · Switch between analyst, developer, and executive views with tab.
  · Press ctrl+w for a guided walkthrough, ? for all key bindings.

Press any key to begin.`

func (m Model) renderOnboarding(width int) string {
	s := m.styles
	return ui.Logo(s) + "\n" + s.Body.Render(ui.WrapText(onboardingText, width-6))
}

var helpBindings = [][2]string{
	{"enter", "submit query"},
	{"tab", "cycle view mode"},
	{"ctrl+s", "next scenario"},
	{"alt+1…9", "run recommended action"},
	{"ctrl+h", "analysis history"},
	{"ctrl+d", "query wizard"},
	{"ctrl+f", "analyze a file"},
	{"ctrl+r", "simulation arena"},
	{"ctrl+n", "generate insights"},
	{"ctrl+u", "improvement suggestions"},
	{"ctrl+e", "export debug bundle"},
	{"ctrl+t", "export trace"},
	{"ctrl+y", "export chat transcript"},
	{"ctrl+g", "settings"},
	{"ctrl+o", "methodology"},
	{"ctrl+x", "escalate for review"},
	{"ctrl+p", "pause/resume log stream"},
	{"ctrl+w", "walkthrough"},
	{"?", "toggle this help"},
	{"esc", "dismiss overlay/banner"},
	{"ctrl+c", "quit"},
}

func (m Model) renderHelp(width int) string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Title.Render("Key Bindings") + "\n\n")
	for _, kv := range helpBindings {
		fmt.Fprintf(&b, "  %s %s\n", s.Bold.Render(fmt.Sprintf("%-10s", kv[0])), s.Muted.Render(kv[1]))
	}
	return strings.TrimRight(b.String(), "\n")
}
