package cockpit

import (
	tea "github.com/charmbracelet/bubbletea"

	"carf/internal/export"
	"carf/internal/types"
)

func (m Model) developerState() export.DeveloperState {
	return export.DeveloperState{
		Scenario:    m.activeScenario().ID,
		ViewMode:    m.viewMode.String(),
		StreamState: string(m.streamState),
		APIBaseURL:  m.client.BaseURL(),
	}
}

// exportDebugCmd writes the full debug bundle to the working directory.
func (m Model) exportDebugCmd() tea.Cmd {
	response := m.queryResponse
	state := m.developerState()
	return func() tea.Msg {
		path, err := export.WriteDebug("", response, state)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m Model) exportTraceCmd() tea.Cmd {
	response := m.queryResponse
	return func() tea.Msg {
		path, err := export.WriteTrace("", response)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m Model) exportChatCmd() tea.Cmd {
	scenario := m.activeScenario().ID
	chat := make([]types.ChatMessage, len(m.chat))
	copy(chat, m.chat)
	return func() tea.Msg {
		path, err := export.WriteChat("", scenario, chat)
		return exportDoneMsg{path: path, err: err}
	}
}
