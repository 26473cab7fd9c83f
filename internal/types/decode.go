package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParseDomain normalizes a backend-supplied domain string. Unrecognized or
// empty values map to disorder rather than failing the whole decode.
func ParseDomain(s string) Domain {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	if d.Valid() {
		return d
	}
	return DomainDisorder
}

// Clamp01 clamps v to [0,1]. NaN becomes 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

// rawQueryResponse mirrors the backend wire shape. Everything is optional;
// DecodeQueryResponse supplies the defaults.
type rawQueryResponse struct {
	SessionID        string          `json:"session_id"`
	Query            string          `json:"query"`
	Domain           string          `json:"domain"`
	DomainConfidence *float64        `json:"domain_confidence"`
	DomainEntropy    *float64        `json:"domain_entropy"`
	Response         string          `json:"response"`
	Causal           *CausalResult   `json:"causal_result"`
	Bayesian         *BayesianResult `json:"bayesian_result"`
	Guardian         *GuardianResult `json:"guardian_result"`
	ReasoningChain   []rawStep       `json:"reasoning_chain"`

	RouterReasoning     string             `json:"router_reasoning"`
	RouterKeyIndicators []string           `json:"router_key_indicators"`
	DomainScores        map[string]float64 `json:"domain_scores"`
	TriggeredMethod     string             `json:"triggered_method"`

	DurationMS int64 `json:"duration_ms"`
}

type rawStep struct {
	Node       string   `json:"node"`
	Action     string   `json:"action"`
	DurationMS int64    `json:"duration_ms"`
	Confidence *float64 `json:"confidence"`
	Timestamp  string   `json:"timestamp"`
}

// DecodeQueryResponse parses a raw backend reply into a fully-defaulted
// QueryResponse. It only fails on malformed JSON; missing fields get safe
// defaults so downstream panels never re-check for them.
func DecodeQueryResponse(data []byte) (*QueryResponse, error) {
	var raw rawQueryResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}

	qr := &QueryResponse{
		SessionID:           raw.SessionID,
		Query:               raw.Query,
		Domain:              ParseDomain(raw.Domain),
		Response:            raw.Response,
		Causal:              raw.Causal,
		Bayesian:            raw.Bayesian,
		Guardian:            raw.Guardian,
		RouterReasoning:     raw.RouterReasoning,
		RouterKeyIndicators: raw.RouterKeyIndicators,
		TriggeredMethod:     raw.TriggeredMethod,
		DurationMS:          raw.DurationMS,
		ReceivedAt:          time.Now(),
	}

	if qr.SessionID == "" {
		qr.SessionID = uuid.NewString()
	}
	if raw.DomainConfidence != nil {
		qr.DomainConfidence = Clamp01(*raw.DomainConfidence)
	}
	if raw.DomainEntropy != nil {
		qr.DomainEntropy = Clamp01(*raw.DomainEntropy)
	}
	if qr.Bayesian != nil {
		qr.Bayesian.EpistemicUncertainty = Clamp01(qr.Bayesian.EpistemicUncertainty)
		qr.Bayesian.AleatoricUncertainty = Clamp01(qr.Bayesian.AleatoricUncertainty)
		qr.Bayesian.ConfidenceLevel = Clamp01(qr.Bayesian.ConfidenceLevel)
	}

	if len(raw.DomainScores) > 0 {
		qr.DomainScores = make(map[Domain]float64, len(raw.DomainScores))
		for k, v := range raw.DomainScores {
			qr.DomainScores[ParseDomain(k)] = Clamp01(v)
		}
	}

	for _, s := range raw.ReasoningChain {
		step := ReasoningStep{
			Node:       s.Node,
			Action:     s.Action,
			DurationMS: s.DurationMS,
		}
		if s.Confidence != nil {
			step.Confidence = Clamp01(*s.Confidence)
		}
		if ts, err := time.Parse(time.RFC3339, s.Timestamp); err == nil {
			step.Timestamp = ts
		}
		qr.ReasoningChain = append(qr.ReasoningChain, step)
	}

	return qr, nil
}

// NewChatMessage builds a transcript entry with a fresh ID. Confidence -1
// means no badge is rendered.
func NewChatMessage(role ChatRole, content string) ChatMessage {
	return ChatMessage{
		ID:         uuid.NewString(),
		Role:       role,
		Content:    content,
		Confidence: -1,
		Time:       time.Now(),
	}
}
