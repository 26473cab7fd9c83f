package cockpit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carf/cmd/carf/ui"
	"carf/internal/api"
	"carf/internal/config"
	"carf/internal/types"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Display.Theme = "dark"
	client := api.NewClient("http://127.0.0.1:1", time.Second)
	m := New(cfg, client, nil, nil)
	m, _ = apply(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(Model)
	require.True(t, ok)
	return next, cmd
}

func sampleResponse() *types.QueryResponse {
	return &types.QueryResponse{
		SessionID:        "sess-1",
		Query:            "why is churn up",
		Domain:           types.DomainComplicated,
		DomainConfidence: 0.87,
		Response:         "Churn increases are driven by the discount cohort.",
	}
}

func TestSubmitWhileProcessingIsNoOp(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("first question")
	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.True(t, m.processing)
	chatLen := len(m.chat)

	m.input.SetValue("second question")
	m, cmd = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Len(t, m.chat, chatLen)
}

func TestSubmitBlankQueryIsNoOp(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("   ")
	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.processing)
	assert.Empty(t, m.chat)
}

func TestScenarioChangeResetsResultState(t *testing.T) {
	m := newTestModel(t)
	m.queryResponse = sampleResponse()
	m.chat = []types.ChatMessage{types.NewChatMessage(types.RoleUser, "old")}
	m.highlighted = ui.PanelCausal
	m.errBanner = "stale error"
	m.processing = true
	startEpoch := m.epoch
	startIdx := m.scenarioIdx

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.Nil(t, m.queryResponse)
	assert.Equal(t, ui.PanelNone, m.highlighted)
	assert.Empty(t, m.errBanner)
	assert.False(t, m.processing)
	assert.Equal(t, startEpoch+1, m.epoch)
	assert.NotEqual(t, startIdx, m.scenarioIdx)

	// Only the scenario announcement remains in the transcript.
	require.Len(t, m.chat, 1)
	assert.Equal(t, types.RoleSystem, m.chat[0].Role)
}

func TestStaleQueryResultIsDiscarded(t *testing.T) {
	m := newTestModel(t)
	m.epoch = 3
	m.processing = true

	m, cmd := apply(t, m, queryResultMsg{epoch: 2, response: sampleResponse()})
	assert.Nil(t, cmd)
	assert.Nil(t, m.queryResponse)
	assert.True(t, m.processing, "a stale reply must not clear the in-flight state")
}

func TestQueryErrorSetsBannerAndClearsProcessing(t *testing.T) {
	m := newTestModel(t)
	m.processing = true

	m, _ = apply(t, m, queryResultMsg{epoch: m.epoch, err: errors.New("backend down")})
	assert.False(t, m.processing)
	assert.Contains(t, m.errBanner, "backend down")
	require.NotEmpty(t, m.chat)
	assert.Equal(t, types.RoleSystem, m.chat[len(m.chat)-1].Role)
}

func TestQuerySuccessAppendsBadgedAssistantMessage(t *testing.T) {
	m := newTestModel(t)
	m.processing = true

	m, cmd := apply(t, m, queryResultMsg{
		epoch:    m.epoch,
		response: sampleResponse(),
		elapsed:  120 * time.Millisecond,
	})
	assert.NotNil(t, cmd, "the session should be recorded")
	assert.False(t, m.processing)
	require.NotNil(t, m.queryResponse)

	last := m.chat[len(m.chat)-1]
	assert.Equal(t, types.RoleAssistant, last.Role)
	assert.InDelta(t, 0.87, last.Confidence, 1e-9)
}

func TestStaleScenarioLoadIsDiscarded(t *testing.T) {
	m := newTestModel(t)
	m.epoch = 5

	info := types.ScenarioInfo{ID: "other", Name: "Other"}
	m, _ = apply(t, m, scenarioLoadedMsg{epoch: 4, info: &info, pendingCount: 9})
	assert.Zero(t, m.pendingCount)
}

func TestScenarioLoadFailureFallsBackToCatalog(t *testing.T) {
	m := newTestModel(t)
	name := m.activeScenario().Name

	m, _ = apply(t, m, scenarioLoadedMsg{epoch: m.epoch, err: errors.New("refused")})
	assert.Equal(t, name, m.activeScenario().Name)
	require.NotEmpty(t, m.chat)
	assert.Equal(t, types.RoleSystem, m.chat[len(m.chat)-1].Role)
}

func TestTabCyclesViewModes(t *testing.T) {
	m := newTestModel(t)
	require.Equal(t, ViewAnalyst, m.viewMode)

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewDeveloper, m.viewMode)
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewExecutive, m.viewMode)
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewAnalyst, m.viewMode)
}

func TestEscClearsBannerAndHighlight(t *testing.T) {
	m := newTestModel(t)
	m.errBanner = "boom"
	m.highlighted = ui.PanelCynefin

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.errBanner)
	assert.Equal(t, ui.PanelNone, m.highlighted)
}

func TestLogEntriesAreCapped(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < maxLogLines+50; i++ {
		m, _ = apply(t, m, logEntryMsg{Message: "line", Level: "info"})
	}
	assert.Len(t, m.logEntries, maxLogLines)
}

func TestExportFailureShowsBanner(t *testing.T) {
	m := newTestModel(t)
	m, _ = apply(t, m, exportDoneMsg{err: errors.New("disk full")})
	assert.Contains(t, m.errBanner, "disk full")

	m, _ = apply(t, m, exportDoneMsg{path: "carf-debug-1.json"})
	assert.Equal(t, types.RoleSystem, m.chat[len(m.chat)-1].Role)
}

func TestViewRendersAllModes(t *testing.T) {
	m := newTestModel(t)
	m.queryResponse = sampleResponse()

	for _, mode := range []ViewMode{ViewAnalyst, ViewDeveloper, ViewExecutive} {
		m.viewMode = mode
		view := m.View()
		assert.NotEmpty(t, view, mode.String())
	}
}

func TestViewTooSmallGuard(t *testing.T) {
	m := newTestModel(t)
	m, _ = apply(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Contains(t, m.View(), "Terminal too small")
}

func TestWalkthroughStepSwitchesViewAndHighlight(t *testing.T) {
	m := newTestModel(t)
	m.overlay = OverlayWalkthrough
	m.walkthrough = newWalkthroughState()

	// Pick the analyst tour from the chooser.
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	assert.Equal(t, ViewAnalyst, m.viewMode)
	assert.Equal(t, ui.PanelCynefin, m.highlighted)

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.Equal(t, ui.PanelCausal, m.highlighted)

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, OverlayNone, m.overlay)
	assert.Equal(t, ui.PanelNone, m.highlighted)
}

func TestOnboardingShowsOnFirstVisit(t *testing.T) {
	m := newTestModel(t)
	m, _ = apply(t, m, visitedMsg{visited: false})
	assert.Equal(t, OverlayOnboarding, m.overlay)

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, OverlayNone, m.overlay)
	assert.NotNil(t, cmd, "dismissal should persist the visited flag")
}

func TestSubmitDoesNotInvalidateScenarioMetadata(t *testing.T) {
	m := newTestModel(t)
	startEpoch := m.epoch

	m.input.SetValue("does the discount reduce churn")
	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.True(t, m.processing)
	assert.Equal(t, startEpoch, m.epoch, "submitting must not bump the epoch")

	// A scenario fan-out still in flight from Init lands after the submit
	// and must be applied, not dropped as stale.
	m, _ = apply(t, m, scenarioLoadedMsg{
		epoch:        m.epoch,
		guardian:     &types.GuardianStatus{OverallStatus: "healthy", ActivePolicies: 7},
		pendingCount: 2,
	})
	require.NotNil(t, m.guardianStatus)
	assert.Equal(t, "healthy", m.guardianStatus.OverallStatus)
	assert.Equal(t, 2, m.pendingCount)
	assert.True(t, m.processing, "the in-flight query is unaffected")
}

func TestOverlongQueryTruncatesOnRuneBoundary(t *testing.T) {
	m := newTestModel(t)
	long := strings.Repeat("département", ui.MaxQueryLength/10)

	updated, cmd := m.submitQuery(long)
	m = updated.(Model)
	require.NotNil(t, cmd)

	require.NotEmpty(t, m.chat)
	sent := m.chat[len(m.chat)-1].Content
	assert.True(t, utf8.ValidString(sent))
	assert.Len(t, []rune(sent), ui.MaxQueryLength)
}

func TestPartialScenarioLoadKeepsExistingMetadata(t *testing.T) {
	m := newTestModel(t)
	m.guardianStatus = &types.GuardianStatus{OverallStatus: "healthy"}
	m.pendingCount = 3

	info := types.ScenarioInfo{ID: "discount-churn", Name: "Discount vs Churn"}
	m, _ = apply(t, m, scenarioLoadedMsg{epoch: m.epoch, info: &info, pendingCount: -1})

	require.NotNil(t, m.guardianStatus, "a nil guardian leaves the last known status")
	assert.Equal(t, "healthy", m.guardianStatus.OverallStatus)
	assert.Equal(t, 3, m.pendingCount, "-1 leaves the pending count unchanged")
}

func TestWizardComposesAndSubmitsQuery(t *testing.T) {
	m := newTestModel(t)
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	require.Equal(t, OverlayWizard, m.overlay)

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	for _, r := range "the retention discount" {
		m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, OverlayNone, m.overlay)
	assert.True(t, m.processing)

	require.NotEmpty(t, m.chat)
	last := m.chat[len(m.chat)-1]
	assert.Equal(t, types.RoleUser, last.Role)
	assert.Contains(t, last.Content, "causal effect of the retention discount")
}

func TestFileAnalysisDigestBecomesQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "churn.csv")
	require.NoError(t, os.WriteFile(path, []byte("customer_id,tenure,churned\n1,24,0\n2,3,1\n"), 0o644))

	msg := analyzeFileCmd(path)()
	digest, ok := msg.(fileDigestMsg)
	require.True(t, ok)
	require.NoError(t, digest.err)
	assert.Equal(t, 3, digest.lines)
	assert.Contains(t, digest.head, "customer_id")

	m := newTestModel(t)
	m, cmd := apply(t, m, digest)
	require.NotNil(t, cmd)
	assert.True(t, m.processing)
	assert.Contains(t, m.chat[len(m.chat)-1].Content, "churn.csv")
}

func TestFileAnalysisMissingFileShowsBanner(t *testing.T) {
	msg := analyzeFileCmd(filepath.Join(t.TempDir(), "absent.csv"))()
	digest, ok := msg.(fileDigestMsg)
	require.True(t, ok)
	require.Error(t, digest.err)

	m := newTestModel(t)
	m, _ = apply(t, m, digest)
	assert.Contains(t, m.errBanner, "File analysis failed")
	assert.False(t, m.processing)
}

func TestExploreScenariosOpensArena(t *testing.T) {
	m := newTestModel(t)
	m.queryResponse = sampleResponse()
	m.queryResponse.Domain = types.DomainComplex

	updated, _ := m.dispatchDomainAction("explore_scenarios")
	m = updated.(Model)
	assert.Equal(t, OverlayArena, m.overlay)
	assert.NotEmpty(t, m.renderArena(80))

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, OverlayNone, m.overlay)
}

func TestInsightsAppendAssistantMessage(t *testing.T) {
	m := newTestModel(t)
	m, _ = apply(t, m, insightsMsg{lines: []string{"churn effect is robust", "guardian blocked one action"}})

	require.NotEmpty(t, m.chat)
	last := m.chat[len(m.chat)-1]
	assert.Equal(t, types.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "churn effect is robust")
}

func TestStaleSimilarMatchesAreDiscarded(t *testing.T) {
	m := newTestModel(t)
	m.epoch = 2

	m, _ = apply(t, m, similarMsg{epoch: 1, matches: []types.SimilarExperience{{Query: "old", Similarity: 0.9}}})
	assert.Empty(t, m.chat)

	m, _ = apply(t, m, similarMsg{epoch: 2, matches: []types.SimilarExperience{{Query: "related churn question", Similarity: 0.8}}})
	require.NotEmpty(t, m.chat)
	assert.Contains(t, m.chat[len(m.chat)-1].Content, "related churn question")
}

func TestWorkflowTraceBacksDeveloperView(t *testing.T) {
	m := newTestModel(t)
	m.viewMode = ViewDeveloper
	m, _ = apply(t, m, workflowTraceMsg{steps: []types.ReasoningStep{
		{Node: "router", Action: "classify_domain", DurationMS: 14, Confidence: 0.9},
	}})
	assert.Contains(t, m.View(), "classify_domain")

	// A real query result takes precedence over the workflow fallback.
	m.queryResponse = sampleResponse()
	m.queryResponse.ReasoningChain = []types.ReasoningStep{
		{Node: "causal", Action: "estimate_effect", DurationMS: 431, Confidence: 0.87},
	}
	assert.Contains(t, m.View(), "estimate_effect")
}

func TestProductionWalkthroughTrack(t *testing.T) {
	m := newTestModel(t)
	m.overlay = OverlayWalkthrough
	m.walkthrough = newWalkthroughState()

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}})
	assert.Equal(t, ViewAnalyst, m.viewMode)
	assert.Equal(t, ui.PanelGuardian, m.highlighted)

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.Equal(t, ViewDeveloper, m.viewMode)
	assert.Equal(t, ui.PanelLogs, m.highlighted)
}
