package mockapi

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"carf/internal/types"
)

// Scenarios is the canned catalog served by the demo backend. The cockpit
// embeds the same catalog as its static fallback.
var Scenarios = []types.ScenarioInfo{
	{
		ID:          "discount-churn",
		Name:        "Discount vs Churn",
		Description: "Does offering a retention discount causally reduce customer churn?",
		SuggestedQueries: []string{
			"Does the discount reduce churn?",
			"What confounders were controlled for?",
			"How robust is the effect estimate?",
		},
	},
	{
		ID:          "supply-disruption",
		Name:        "Supply Disruption",
		Description: "Unfolding supplier outage with incomplete information.",
		SuggestedQueries: []string{
			"What do we know about the disruption so far?",
			"Which probe reduces uncertainty the most?",
		},
	},
	{
		ID:          "incident-response",
		Name:        "Incident Response",
		Description: "Live production incident needing immediate stabilizing action.",
		SuggestedQueries: []string{
			"What should we do right now?",
			"Is the proposed action within policy?",
		},
	},
}

// ScenarioByID looks a scenario up in the catalog.
func ScenarioByID(id string) (types.ScenarioInfo, bool) {
	for _, s := range Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return types.ScenarioInfo{}, false
}

// queryResponse builds the canned reply for a scenario. The discount-churn
// reply carries the reference numbers used throughout the demo walkthrough:
// effect -0.42 with 4/5 refutations passed.
func queryResponse(scenario, query string) map[string]any {
	now := time.Now().UTC()
	trace := []map[string]any{
		{"node": "router", "action": "classify_domain", "duration_ms": 14, "confidence": 0.9, "timestamp": now.Format(time.RFC3339)},
	}

	switch scenario {
	case "supply-disruption":
		trace = append(trace, map[string]any{
			"node": "bayesian", "action": "update_beliefs", "duration_ms": 260, "confidence": 0.62,
			"timestamp": now.Add(20 * time.Millisecond).Format(time.RFC3339),
		})
		return map[string]any{
			"session_id":        uuid.NewString(),
			"query":             query,
			"domain":            "complex",
			"domain_confidence": 0.66,
			"domain_entropy":    0.48,
			"response":          "The situation is still evolving. Probing the alternate supplier's capacity would reduce uncertainty the most.",
			"bayesian_result": map[string]any{
				"epistemic_uncertainty": 0.41,
				"aleatoric_uncertainty": 0.22,
				"recommended_probe":     "Request capacity confirmation from the alternate supplier",
				"posterior_mean":        0.57,
				"confidence_level":      0.66,
			},
			"router_reasoning":      "Signals conflict and the causal structure is not yet stable; emergent-practice territory.",
			"router_key_indicators": []string{"conflicting reports", "no stable baseline", "novel failure mode"},
			"domain_scores":         map[string]float64{"clear": 0.03, "complicated": 0.12, "complex": 0.66, "chaotic": 0.13, "disorder": 0.06},
			"triggered_method":      "bayesian_update",
			"reasoning_chain":       trace,
			"duration_ms":           318,
		}

	case "incident-response":
		trace = append(trace, map[string]any{
			"node": "guardian", "action": "check_policies", "duration_ms": 35, "confidence": 0.88,
			"timestamp": now.Add(18 * time.Millisecond).Format(time.RFC3339),
		})
		return map[string]any{
			"session_id":        uuid.NewString(),
			"query":             query,
			"domain":            "chaotic",
			"domain_confidence": 0.81,
			"domain_entropy":    0.19,
			"response":          "Act first to stabilize: shed non-critical load. The action is within policy but requires human approval.",
			"guardian_result": map[string]any{
				"overall_status": "conditional",
				"policies": []map[string]any{
					{"name": "blast_radius", "status": "pass", "detail": "change limited to one service tier"},
					{"name": "human_approval", "status": "required", "detail": "production traffic shaping needs sign-off"},
				},
				"requires_human_approval": true,
				"proposed_action":         "shed non-critical load",
			},
			"router_reasoning":      "Active harm accumulating; novel practice required, act-sense-respond.",
			"router_key_indicators": []string{"cascading failures", "time pressure", "no known playbook"},
			"domain_scores":         map[string]float64{"clear": 0.02, "complicated": 0.05, "complex": 0.12, "chaotic": 0.81, "disorder": 0.0},
			"triggered_method":      "guardian_review",
			"reasoning_chain":       trace,
			"duration_ms":           96,
		}

	default: // discount-churn and anything unrecognized
		trace = append(trace,
			map[string]any{
				"node": "causal", "action": "estimate_effect", "duration_ms": 431, "confidence": 0.87,
				"timestamp": now.Add(20 * time.Millisecond).Format(time.RFC3339),
			},
			map[string]any{
				"node": "causal", "action": "run_refutations", "duration_ms": 655, "confidence": 0.8,
				"timestamp": now.Add(460 * time.Millisecond).Format(time.RFC3339),
			})
		return map[string]any{
			"session_id":        uuid.NewString(),
			"query":             query,
			"domain":            "complicated",
			"domain_confidence": 0.87,
			"domain_entropy":    0.21,
			"response": "The retention discount causally reduces churn: the estimated effect is -0.420 " +
				"(4 of 5 refutation tests passed). Tenure and plan tier were controlled as confounders.",
			"causal_result": map[string]any{
				"treatment":              "discount",
				"outcome":                "churn",
				"effect":                 -0.42,
				"unit":                   "probability",
				"p_value":                0.011,
				"confidence_interval":    []float64{-0.55, -0.29},
				"refutations_passed":     4,
				"refutations_total":      5,
				"confounders_controlled": []string{"tenure", "plan_tier", "region"},
				"method":                 "backdoor.linear_regression",
			},
			"router_reasoning":      "Stable cause-effect structure with expert analysis required; good-practice territory.",
			"router_key_indicators": []string{"historical data available", "stable relationships", "quantifiable outcome"},
			"domain_scores":         map[string]float64{"clear": 0.04, "complicated": 0.87, "complex": 0.07, "chaotic": 0.01, "disorder": 0.01},
			"triggered_method":      "causal_inference",
			"reasoning_chain":       trace,
			"duration_ms":           1104,
		}
	}
}

func agentStats() map[string]any {
	return map[string]any{
		"agents": []map[string]any{
			{"name": "causal", "queries_handled": 42, "avg_confidence": 0.84, "avg_latency_ms": 980, "success_rate": 0.93},
			{"name": "bayesian", "queries_handled": 27, "avg_confidence": 0.68, "avg_latency_ms": 420, "success_rate": 0.89},
			{"name": "guardian", "queries_handled": 63, "avg_confidence": 0.91, "avg_latency_ms": 55, "success_rate": 0.99},
		},
	}
}

func experiencePatterns() map[string]any {
	return map[string]any{
		"patterns": []map[string]any{
			{"pattern": "discount queries route to causal", "count": 31, "avg_reward": 0.82},
			{"pattern": "ambiguous scenarios trigger probes", "count": 12, "avg_reward": 0.64},
		},
	}
}

// workflowRuns is the canned recent-workflow list. The IDs are stable so
// /workflow/trace/{id} can resolve them.
func workflowRuns(limit int) map[string]any {
	now := time.Now().UTC()
	runs := []map[string]any{
		{"id": "wf-churn-001", "query": "Does the discount reduce churn?", "domain": "complicated", "duration_ms": 1104, "started_at": now.Add(-2 * time.Minute).Format(time.RFC3339)},
		{"id": "wf-supply-002", "query": "What do we know about the disruption so far?", "domain": "complex", "duration_ms": 318, "started_at": now.Add(-9 * time.Minute).Format(time.RFC3339)},
		{"id": "wf-incident-003", "query": "What should we do right now?", "domain": "chaotic", "duration_ms": 96, "started_at": now.Add(-26 * time.Minute).Format(time.RFC3339)},
	}
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	return map[string]any{"workflows": runs}
}

// workflowTrace resolves a canned trace by workflow ID.
func workflowTrace(id string) (map[string]any, bool) {
	now := time.Now().UTC()
	traces := map[string][]map[string]any{
		"wf-churn-001": {
			{"node": "router", "action": "classify_domain", "duration_ms": 14, "confidence": 0.9, "timestamp": now.Format(time.RFC3339)},
			{"node": "causal", "action": "estimate_effect", "duration_ms": 431, "confidence": 0.87, "timestamp": now.Format(time.RFC3339)},
			{"node": "causal", "action": "run_refutations", "duration_ms": 655, "confidence": 0.8, "timestamp": now.Format(time.RFC3339)},
		},
		"wf-supply-002": {
			{"node": "router", "action": "classify_domain", "duration_ms": 12, "confidence": 0.84, "timestamp": now.Format(time.RFC3339)},
			{"node": "bayesian", "action": "update_beliefs", "duration_ms": 260, "confidence": 0.62, "timestamp": now.Format(time.RFC3339)},
		},
		"wf-incident-003": {
			{"node": "router", "action": "classify_domain", "duration_ms": 9, "confidence": 0.92, "timestamp": now.Format(time.RFC3339)},
			{"node": "guardian", "action": "check_policies", "duration_ms": 35, "confidence": 0.88, "timestamp": now.Format(time.RFC3339)},
		},
	}
	trace, ok := traces[id]
	if !ok {
		return nil, false
	}
	return map[string]any{"trace": trace}, true
}

func visualizationConfig(context string) map[string]any {
	chart := "bar"
	if context == "executive" {
		chart = "cards"
	}
	return map[string]any{"chart_type": chart, "refresh_seconds": 30}
}

func insights() map[string]any {
	return map[string]any{
		"insights": []string{
			"Retention discounts show a robust negative effect on churn across cohorts.",
			"Bayesian probes resolved supplier uncertainty within two iterations on average.",
			"Guardian blocked one high-blast-radius action in the last week.",
		},
	}
}

func similarExperiences(query string) map[string]any {
	_ = query
	return map[string]any{
		"similar": []map[string]any{
			{"query": "Does the discount reduce churn?", "domain": "complicated", "similarity": 0.82},
			{"query": "Effect of loyalty pricing on retention", "domain": "complicated", "similarity": 0.71},
			{"query": "Churn drivers in the annual-plan cohort", "domain": "complex", "similarity": 0.58},
		},
	}
}

func improvementSuggestions() map[string]any {
	return map[string]any{
		"suggestions": []string{
			"Add seasonality as a controlled confounder for churn estimates.",
			"Increase refutation coverage with a placebo-outcome test.",
			"Collect per-region sample sizes to tighten the confidence interval.",
		},
	}
}

// syntheticLog fabricates one demo log line, cycling sources.
func syntheticLog(i int) types.LogEntry {
	sources := []string{"router", "causal", "bayesian", "guardian"}
	levels := []string{"info", "info", "info", "debug", "warn"}
	return types.LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     levels[i%len(levels)],
		Source:    sources[i%len(sources)],
		Message:   fmt.Sprintf("%s heartbeat %d", sources[i%len(sources)], i),
	}
}
