package cockpit

import (
	"time"

	"carf/internal/api"
	"carf/internal/config"
	"carf/internal/types"
)

// scenarioLoadedMsg carries the fan-out results of a scenario change. err is
// set only when the scenario fetch itself failed; guardian and pendingCount
// are best-effort (nil / -1 mean "leave current value unchanged").
type scenarioLoadedMsg struct {
	epoch        int
	info         *types.ScenarioInfo
	guardian     *types.GuardianStatus
	pendingCount int
	err          error
}

// queryResultMsg is the reply to one submitted query, tagged with the epoch
// it was issued under.
type queryResultMsg struct {
	epoch    int
	response *types.QueryResponse
	elapsed  time.Duration
	err      error
}

type agentStatsMsg struct {
	agents       []types.AgentStats
	patterns     []types.ExperiencePattern
	pendingCount int
	err          error
}

// refreshTickMsg drives the periodic agent-stats and escalation refresh.
type refreshTickMsg time.Time

type logEntryMsg types.LogEntry

type streamStateMsg api.StreamState

type streamClosedMsg struct{}

type configReloadedMsg struct{ cfg *config.Config }

type visitedMsg struct{ visited bool }

// workflowTraceMsg carries the trace of the newest backend workflow run.
// Shown in the developer view until the first query produces a reasoning
// chain of its own.
type workflowTraceMsg struct {
	steps []types.ReasoningStep
	err   error
}

type vizConfigMsg struct {
	viz *types.VisualizationConfig
	err error
}

type insightsMsg struct {
	lines []string
	err   error
}

// similarMsg lists past analyses related to the query just answered.
type similarMsg struct {
	epoch   int
	matches []types.SimilarExperience
	err     error
}

type suggestionsMsg struct {
	lines []string
	err   error
}

// fileDigestMsg is the bounded summary of a local file picked in the file
// analysis overlay; the handler turns it into a query.
type fileDigestMsg struct {
	path  string
	lines int
	bytes int64
	head  string
	err   error
}

type explainMsg struct {
	markdown string
	err      error
}

type escalationFiledMsg struct{ err error }

type exportDoneMsg struct {
	path string
	err  error
}

type historyLoadedMsg struct {
	sessions []types.AnalysisSession
	err      error
}
