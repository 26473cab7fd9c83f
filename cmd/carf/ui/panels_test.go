package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carf/internal/format"
	"carf/internal/types"
)

func testStyles() Styles {
	return NewStyles(DarkTheme())
}

func TestPanelsRenderEmptyStateOnNil(t *testing.T) {
	s := testStyles()

	// None of the panels may panic or render blank on missing data.
	views := map[string]string{
		"cynefin":   RenderCynefin(s, nil, 60, PanelNone),
		"causal":    RenderCausal(s, nil, 60, PanelNone),
		"bayesian":  RenderBayesian(s, nil, 60, PanelNone),
		"guardian":  RenderGuardian(s, nil, 60, PanelNone),
		"trace":     RenderTrace(s, nil, 60, PanelNone),
		"dataflow":  RenderDataFlow(s, nil, 60, PanelNone),
		"inspector": RenderInspector(s, nil, 60, 20, PanelNone),
		"kpi":       RenderKPI(s, nil, "auto", 60, PanelNone),
		"actions":   RenderActions(s, nil, 60, PanelNone),
	}
	for name, view := range views {
		assert.NotEmpty(t, view, "panel %s rendered nothing", name)
	}
	assert.Contains(t, stripANSI(views["causal"]), "No causal analysis")
	assert.Contains(t, stripANSI(views["bayesian"]), "No belief state")
	assert.Contains(t, stripANSI(views["guardian"]), "No policy decision")
}

func TestRenderCausalShowsReferenceNumbers(t *testing.T) {
	s := testStyles()
	view := stripANSI(RenderCausal(s, &types.CausalResult{
		Treatment:         "discount",
		Outcome:           "churn",
		Effect:            -0.42,
		RefutationsPassed: 4,
		RefutationsTotal:  5,
		Method:            "backdoor.linear_regression",
	}, 80, PanelNone))

	assert.Contains(t, view, "-0.420")
	assert.Contains(t, view, "4/5")
	assert.Contains(t, view, "γ=2.2")
}

func TestRenderCynefinShowsEntropyBucket(t *testing.T) {
	s := testStyles()
	view := stripANSI(RenderCynefin(s, &types.QueryResponse{
		Domain:           types.DomainComplex,
		DomainConfidence: 0.66,
		DomainEntropy:    0.48,
	}, 80, PanelNone))

	assert.Contains(t, view, "COMPLEX")
	assert.Contains(t, view, "Moderate ambiguity")
}

func TestRenderGuardianApprovalFlag(t *testing.T) {
	s := testStyles()
	view := stripANSI(RenderGuardian(s, &types.GuardianResult{
		OverallStatus:         "conditional",
		RequiresHumanApproval: true,
		ProposedAction:        "shed load",
		Policies: []types.PolicyDecision{
			{Name: "blast_radius", Status: "pass"},
			{Name: "human_approval", Status: "required"},
		},
	}, 80, PanelNone))

	assert.Contains(t, view, "requires human approval")
	assert.Contains(t, view, "blast_radius")
}

func TestHighlightedPanelUsesAccentBorder(t *testing.T) {
	s := testStyles()
	plain := RenderCausal(s, nil, 60, PanelNone)
	lit := RenderCausal(s, nil, 60, PanelCausal)
	other := RenderCausal(s, nil, 60, PanelBayesian)

	assert.NotEqual(t, plain, lit, "highlight must change the rendered border")
	assert.Equal(t, plain, other, "highlighting another panel must not change this one")
}

func TestParsePanelID(t *testing.T) {
	assert.Equal(t, PanelCausal, ParsePanelID("causal"))
	assert.Equal(t, PanelCynefin, ParsePanelID(" Cynefin "))
	assert.Equal(t, PanelNone, ParsePanelID("sidebar"))
}

func TestActionsForDomain(t *testing.T) {
	for _, d := range types.AllDomains() {
		assert.NotEmpty(t, ActionsForDomain(d), "domain %s has no actions", d)
	}
	assert.Equal(t, ActionsForDomain(types.DomainDisorder), ActionsForDomain(types.Domain("bogus")))
}

func TestRenderLogStreamStates(t *testing.T) {
	s := testStyles()
	entries := []types.LogEntry{
		{Timestamp: time.Now(), Level: "info", Source: "router", Message: "classified"},
	}

	connected := stripANSI(RenderLogStream(s, entries, "connected", false, 80, 20, PanelNone))
	assert.Contains(t, connected, "connected")
	assert.Contains(t, connected, "classified")

	paused := stripANSI(RenderLogStream(s, entries, "connected", true, 80, 20, PanelNone))
	assert.Contains(t, paused, "paused")

	empty := stripANSI(RenderLogStream(s, nil, "connecting", false, 80, 20, PanelNone))
	assert.Contains(t, empty, "Waiting for log entries")
}

func TestConfidenceBadgeBuckets(t *testing.T) {
	s := testStyles()
	assert.Contains(t, stripANSI(s.ConfidenceBadge(0.8)), "HIGH")
	assert.Contains(t, stripANSI(s.ConfidenceBadge(0.5)), "MED")
	assert.Contains(t, stripANSI(s.ConfidenceBadge(0.49)), "LOW")
}

func TestTruncateAndWrap(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hell…", Truncate("hello world", 5))
	assert.Equal(t, "", Truncate("hello", 0))

	wrapped := WrapText("one two three four five", 10)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 10)
	}
}

func TestGridCellWidths(t *testing.T) {
	widths := GridCellWidths(100, 3)
	require.Len(t, widths, 3)
	sum := widths[0] + widths[1] + widths[2] + PanelGap*2
	assert.Equal(t, 100, sum)
}

func TestMarkdownRendererNeverFails(t *testing.T) {
	r := NewMarkdownRenderer(true)
	out := r.Render("# Title\n\nsome *markdown*", 60)
	assert.NotEmpty(t, out)

	// Cached second render returns identical output.
	assert.Equal(t, out, r.Render("# Title\n\nsome *markdown*", 60))

	// Degenerate width still renders.
	assert.NotEmpty(t, r.Render("plain", 0))
}

func TestRenderKPIChartOverride(t *testing.T) {
	s := testStyles()
	metrics := []types.KPIMetric{{
		Label: "Decisions",
		Value: 42,
		Categories: map[string]float64{
			"causal": 20, "bayesian": 10, "guardian": 8, "manual": 4,
		},
	}}

	auto := stripANSI(RenderKPI(s, metrics, format.ChartType("auto"), 80, PanelNone))
	pie := stripANSI(RenderKPI(s, metrics, format.ChartPie, 80, PanelNone))
	assert.NotEmpty(t, auto)
	assert.Contains(t, pie, "%")
}

// stripANSI removes escape sequences so tests can assert on plain text.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
