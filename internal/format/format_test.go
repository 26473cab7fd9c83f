package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carf/internal/types"
)

func TestConfidenceBucketBoundaries(t *testing.T) {
	cases := []struct {
		confidence float64
		want       ConfidenceLevel
	}{
		{0.0, ConfidenceLow},
		{0.49, ConfidenceLow},
		{0.5, ConfidenceMedium},
		{0.79, ConfidenceMedium},
		{0.8, ConfidenceHigh},
		{1.0, ConfidenceHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ConfidenceBucket(tc.confidence), "confidence %v", tc.confidence)
	}
}

func TestEntropyBucketBoundaries(t *testing.T) {
	cases := []struct {
		entropy float64
		want    string
	}{
		{0.0, "Low ambiguity"},
		{0.29, "Low ambiguity"},
		{0.3, "Moderate ambiguity"},
		{0.59, "Moderate ambiguity"},
		{0.6, "High ambiguity"},
		{1.0, "High ambiguity"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EntropyBucket(tc.entropy), "entropy %v", tc.entropy)
	}
}

func TestSafePercentage(t *testing.T) {
	assert.Equal(t, "87%", SafePercentage(0.87))
	assert.Equal(t, "100%", SafePercentage(1.3))
	assert.Equal(t, "0%", SafePercentage(-0.2))
	assert.Equal(t, "N/A", SafePercentage(math.NaN()))
}

func TestFormatEffect(t *testing.T) {
	assert.Equal(t, "-0.420", FormatEffect(-0.42))
	assert.Equal(t, "0.000", FormatEffect(0))
	assert.Equal(t, "1.235", FormatEffect(1.23456))
}

func TestRobustness(t *testing.T) {
	assert.Equal(t, "4/5", Robustness(4, 5))
	assert.Equal(t, "0/3", Robustness(0, 3))
	assert.Equal(t, "N/A", Robustness(0, 0))
}

func TestGamma(t *testing.T) {
	assert.InDelta(t, 2.2, Gamma(4, 5), 1e-9)
	assert.InDelta(t, 2.5, Gamma(5, 5), 1e-9)
	assert.InDelta(t, 1.0, Gamma(0, 5), 1e-9)
	assert.InDelta(t, 1.0, Gamma(3, 0), 1e-9)
}

func TestSensitivityCurveShape(t *testing.T) {
	pts := SensitivityCurve(2.2)
	require.Len(t, pts, 20)

	assert.InDelta(t, 1.0, pts[0].Gamma, 1e-9)
	assert.InDelta(t, 1.0, pts[0].Bound, 1e-9)
	assert.InDelta(t, 2.2, pts[19].Gamma, 1e-9)
	assert.InDelta(t, 0.0, pts[19].Bound, 1e-6)

	// Monotonically non-increasing bound along the curve.
	for i := 1; i < len(pts); i++ {
		assert.LessOrEqual(t, pts[i].Bound, pts[i-1].Bound)
		assert.Greater(t, pts[i].Gamma, pts[i-1].Gamma)
	}
}

func TestSensitivityCurveDegenerateGamma(t *testing.T) {
	pts := SensitivityCurve(0.5)
	require.Len(t, pts, 20)
	for _, p := range pts {
		assert.False(t, math.IsNaN(p.Bound))
	}
}

func TestBuildDAG(t *testing.T) {
	dag := BuildDAG(&types.CausalResult{
		Treatment:             "discount",
		Outcome:               "churn",
		ConfoundersControlled: []string{"tenure", "plan", ""},
	})

	require.Len(t, dag.Nodes, 4)
	assert.Equal(t, "treatment", dag.Nodes[0].Kind)
	assert.Equal(t, "outcome", dag.Nodes[1].Kind)

	// treatment→outcome plus two edges per confounder.
	require.Len(t, dag.Edges, 5)
	assert.Equal(t, DAGEdge{From: "discount", To: "churn"}, dag.Edges[0])
}

func TestBuildDAGEmpty(t *testing.T) {
	assert.Empty(t, BuildDAG(nil).Nodes)
	assert.Empty(t, BuildDAG(&types.CausalResult{Treatment: "x"}).Nodes)
}

func TestAutoChartType(t *testing.T) {
	assert.Equal(t, ChartCards, AutoChartType(nil))
	assert.Equal(t, ChartCards, AutoChartType(map[string]float64{"a": 1, "b": 2, "c": 3}))
	assert.Equal(t, ChartPie, AutoChartType(map[string]float64{"a": 10, "b": 2, "c": 2, "d": 2}))
	assert.Equal(t, ChartBar, AutoChartType(map[string]float64{"a": 3, "b": 3, "c": 3, "d": 3}))
	assert.Equal(t, ChartCards, AutoChartType(map[string]float64{"a": 0, "b": 0, "c": 0, "d": 0}))
}
