// Package types defines the shared view-model types used across carf packages.
// This package sits at the bottom of the import graph: the API client decodes
// into these types once, and every panel renders from them without re-deriving
// null-safety.
package types

import (
	"time"
)

// =============================================================================
// CYNEFIN DOMAIN
// =============================================================================

// Domain is a Cynefin classification domain. The backend is not trusted to
// send a valid value; use ParseDomain at the decode boundary.
type Domain string

const (
	DomainClear       Domain = "clear"
	DomainComplicated Domain = "complicated"
	DomainComplex     Domain = "complex"
	DomainChaotic     Domain = "chaotic"
	DomainDisorder    Domain = "disorder"
)

// Valid reports whether d is one of the five recognized domains.
func (d Domain) Valid() bool {
	switch d {
	case DomainClear, DomainComplicated, DomainComplex, DomainChaotic, DomainDisorder:
		return true
	}
	return false
}

// Title returns the domain name with an uppercase first letter for display.
func (d Domain) Title() string {
	s := string(d)
	if s == "" {
		return ""
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// AllDomains lists the five domains in canonical display order.
func AllDomains() []Domain {
	return []Domain{DomainClear, DomainComplicated, DomainComplex, DomainChaotic, DomainDisorder}
}

// =============================================================================
// QUERY RESPONSE VIEW MODEL
// =============================================================================

// QueryResponse is the fully-defaulted view model built from one backend
// reply. It replaces (never merges with) the previous response on each
// submission and is discarded on scenario change.
//
// Invariants established by decode: Domain is always valid (unrecognized
// values become disorder), DomainConfidence and DomainEntropy are clamped to
// [0,1], and the three result pointers are independently nil.
type QueryResponse struct {
	SessionID        string  `json:"session_id"`
	Query            string  `json:"query"`
	Domain           Domain  `json:"domain"`
	DomainConfidence float64 `json:"domain_confidence"`
	DomainEntropy    float64 `json:"domain_entropy"`
	Response         string  `json:"response"`

	Causal   *CausalResult   `json:"causal_result,omitempty"`
	Bayesian *BayesianResult `json:"bayesian_result,omitempty"`
	Guardian *GuardianResult `json:"guardian_result,omitempty"`

	ReasoningChain []ReasoningStep `json:"reasoning_chain"`

	// Router transparency metadata.
	RouterReasoning     string             `json:"router_reasoning"`
	RouterKeyIndicators []string           `json:"router_key_indicators"`
	DomainScores        map[Domain]float64 `json:"domain_scores"`
	TriggeredMethod     string             `json:"triggered_method"`

	DurationMS int64     `json:"duration_ms"`
	ReceivedAt time.Time `json:"received_at"`
}

// CausalResult holds the causal-inference slice of a response. All numeric
// fields are display values computed server-side.
type CausalResult struct {
	Treatment             string    `json:"treatment"`
	Outcome               string    `json:"outcome"`
	Effect                float64   `json:"effect"`
	Unit                  string    `json:"unit"`
	PValue                float64   `json:"p_value"`
	ConfidenceInterval    []float64 `json:"confidence_interval"`
	RefutationsPassed     int       `json:"refutations_passed"`
	RefutationsTotal      int       `json:"refutations_total"`
	ConfoundersControlled []string  `json:"confounders_controlled"`
	Method                string    `json:"method"`
}

// BayesianResult holds the belief-state slice of a response.
type BayesianResult struct {
	EpistemicUncertainty float64 `json:"epistemic_uncertainty"`
	AleatoricUncertainty float64 `json:"aleatoric_uncertainty"`
	RecommendedProbe     string  `json:"recommended_probe"`
	PosteriorMean        float64 `json:"posterior_mean"`
	ConfidenceLevel      float64 `json:"confidence_level"`
}

// GuardianResult holds the policy-decision slice of a response.
type GuardianResult struct {
	OverallStatus         string           `json:"overall_status"`
	Policies              []PolicyDecision `json:"policies"`
	RequiresHumanApproval bool             `json:"requires_human_approval"`
	ProposedAction        string           `json:"proposed_action"`
}

// PolicyDecision is one Guardian policy check outcome.
type PolicyDecision struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// ReasoningStep is one entry of the ordered execution trace.
type ReasoningStep struct {
	Node       string    `json:"node"`
	Action     string    `json:"action"`
	DurationMS int64     `json:"duration_ms"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// =============================================================================
// CHAT
// =============================================================================

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// ChatMessage is one transcript entry in the conversational query flow.
// Confidence is only meaningful on assistant messages; -1 means "no badge".
type ChatMessage struct {
	ID         string    `json:"id"`
	Role       ChatRole  `json:"role"`
	Content    string    `json:"content"`
	Confidence float64   `json:"confidence"`
	Time       time.Time `json:"time"`
}

// =============================================================================
// HISTORY
// =============================================================================

// AnalysisSession is a persisted history entry wrapping one QueryResponse.
type AnalysisSession struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Scenario   string         `json:"scenario"`
	Query      string         `json:"query"`
	DurationMS int64          `json:"duration_ms"`
	Response   *QueryResponse `json:"response"`
}

// =============================================================================
// SECONDARY VIEW RECORDS
// =============================================================================

// ScenarioInfo describes one selectable scenario, from the API or the static
// catalog fallback.
type ScenarioInfo struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	SuggestedQueries []string `json:"suggested_queries"`
}

// AgentStats is one row of the agent comparison panel.
type AgentStats struct {
	Name           string  `json:"name"`
	QueriesHandled int     `json:"queries_handled"`
	AvgConfidence  float64 `json:"avg_confidence"`
	AvgLatencyMS   int64   `json:"avg_latency_ms"`
	SuccessRate    float64 `json:"success_rate"`
}

// Escalation is one human-review request.
type Escalation struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ExperiencePattern is one recurring pattern from the experience buffer.
type ExperiencePattern struct {
	Pattern   string  `json:"pattern"`
	Count     int     `json:"count"`
	AvgReward float64 `json:"avg_reward"`
}

// KPIMetric is one executive-view metric with an optional category breakdown.
type KPIMetric struct {
	Label      string             `json:"label"`
	Value      float64            `json:"value"`
	Unit       string             `json:"unit"`
	Delta      float64            `json:"delta"`
	Categories map[string]float64 `json:"categories,omitempty"`
}

// LogEntry is one developer log line, from the stream or the polling
// fallback.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
}

// GuardianStatus is the standing Guardian summary fetched on scenario change.
type GuardianStatus struct {
	OverallStatus  string `json:"overall_status"`
	ActivePolicies int    `json:"active_policies"`
	RecentBlocks   int    `json:"recent_blocks"`
}

// WorkflowRun is one backend workflow execution, listed by recency. Its full
// trace is fetched separately by ID.
type WorkflowRun struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	Domain     Domain    `json:"domain"`
	DurationMS int64     `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
}

// SimilarExperience is one past analysis related to the current query.
type SimilarExperience struct {
	Query      string  `json:"query"`
	Domain     Domain  `json:"domain"`
	Similarity float64 `json:"similarity"`
}

// VisualizationConfig is the backend's display recommendation for a view
// context. ChartType feeds the executive chart selector when the local
// setting is "auto".
type VisualizationConfig struct {
	ChartType      string `json:"chart_type"`
	RefreshSeconds int    `json:"refresh_seconds"`
}
