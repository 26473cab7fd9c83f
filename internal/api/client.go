// Package api is the typed client for the reasoning backend. All endpoint
// wrappers decode at the boundary (via internal/types) and return fully
// defaulted view models; callers never see raw JSON.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"carf/internal/logging"
	"carf/internal/types"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.Code, e.Body)
}

// Client issues requests against one backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient builds a client for baseURL. A zero timeout means 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logging.Get(logging.CategoryAPI),
	}
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body))
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", path, err)
	}

	c.log.Debug("request complete",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(data))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return nil, &StatusError{Endpoint: path, Code: resp.StatusCode, Body: detail}
	}
	return data, nil
}

// SubmitQuery posts a query and decodes the reply into a QueryResponse.
func (c *Client) SubmitQuery(ctx context.Context, query, scenario string) (*types.QueryResponse, error) {
	data, err := c.post(ctx, "/query", map[string]string{
		"query":    query,
		"scenario": scenario,
	})
	if err != nil {
		return nil, err
	}
	return types.DecodeQueryResponse(data)
}

// Scenario fetches metadata for one scenario.
func (c *Client) Scenario(ctx context.Context, id string) (*types.ScenarioInfo, error) {
	data, err := c.get(ctx, "/scenario/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var info types.ScenarioInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if info.ID == "" {
		info.ID = id
	}
	return &info, nil
}

// AgentStats fetches the agent comparison rows.
func (c *Client) AgentStats(ctx context.Context) ([]types.AgentStats, error) {
	data, err := c.get(ctx, "/agents/stats")
	if err != nil {
		return nil, err
	}
	var payload struct {
		Agents []types.AgentStats `json:"agents"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding agent stats: %w", err)
	}
	return payload.Agents, nil
}

// GuardianStatus fetches the standing Guardian summary.
func (c *Client) GuardianStatus(ctx context.Context) (*types.GuardianStatus, error) {
	data, err := c.get(ctx, "/guardian/status")
	if err != nil {
		return nil, err
	}
	var status types.GuardianStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("decoding guardian status: %w", err)
	}
	return &status, nil
}

// Escalations lists escalations, optionally only pending ones.
func (c *Client) Escalations(ctx context.Context, pendingOnly bool) ([]types.Escalation, error) {
	data, err := c.get(ctx, "/escalations?pending_only="+strconv.FormatBool(pendingOnly))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Escalations []types.Escalation `json:"escalations"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding escalations: %w", err)
	}
	return payload.Escalations, nil
}

// SubmitEscalation files a human-review request for a session.
func (c *Client) SubmitEscalation(ctx context.Context, sessionID, reason string) error {
	_, err := c.post(ctx, "/escalations", map[string]string{
		"session_id": sessionID,
		"reason":     reason,
	})
	return err
}

// ExperiencePatterns fetches recurring patterns from the experience buffer.
func (c *Client) ExperiencePatterns(ctx context.Context) ([]types.ExperiencePattern, error) {
	data, err := c.get(ctx, "/experience/patterns")
	if err != nil {
		return nil, err
	}
	var payload struct {
		Patterns []types.ExperiencePattern `json:"patterns"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding experience patterns: %w", err)
	}
	return payload.Patterns, nil
}

// Explain asks the backend for a methodology explanation of a session.
func (c *Client) Explain(ctx context.Context, sessionID string) (string, error) {
	data, err := c.post(ctx, "/explain", map[string]string{"session_id": sessionID})
	if err != nil {
		return "", err
	}
	var payload struct {
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decoding explanation: %w", err)
	}
	return payload.Explanation, nil
}

// WorkflowRecent lists the most recent backend workflow runs.
func (c *Client) WorkflowRecent(ctx context.Context, limit int) ([]types.WorkflowRun, error) {
	if limit <= 0 {
		limit = 10
	}
	data, err := c.get(ctx, "/workflow/recent?limit="+strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Workflows []types.WorkflowRun `json:"workflows"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding workflows: %w", err)
	}
	return payload.Workflows, nil
}

// WorkflowTrace fetches the reasoning trace of one workflow run.
func (c *Client) WorkflowTrace(ctx context.Context, id string) ([]types.ReasoningStep, error) {
	data, err := c.get(ctx, "/workflow/trace/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Trace []types.ReasoningStep `json:"trace"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding workflow trace: %w", err)
	}
	for i := range payload.Trace {
		payload.Trace[i].Confidence = types.Clamp01(payload.Trace[i].Confidence)
	}
	return payload.Trace, nil
}

// VisualizationConfig fetches the backend's display recommendation for a
// view context ("executive", "analyst", ...).
func (c *Client) VisualizationConfig(ctx context.Context, viewContext string) (*types.VisualizationConfig, error) {
	data, err := c.get(ctx, "/config/visualization?context="+url.QueryEscape(viewContext))
	if err != nil {
		return nil, err
	}
	var cfg types.VisualizationConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding visualization config: %w", err)
	}
	return &cfg, nil
}

// GenerateInsights asks the backend for executive insight lines, optionally
// scoped to one session.
func (c *Client) GenerateInsights(ctx context.Context, sessionID string) ([]string, error) {
	data, err := c.post(ctx, "/insights/generate", map[string]string{"session_id": sessionID})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Insights []string `json:"insights"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding insights: %w", err)
	}
	return payload.Insights, nil
}

// SimilarExperiences finds past analyses related to a query.
func (c *Client) SimilarExperiences(ctx context.Context, query string, topK int) ([]types.SimilarExperience, error) {
	if topK <= 0 {
		topK = 3
	}
	data, err := c.get(ctx, "/experience/similar?query="+url.QueryEscape(query)+"&top_k="+strconv.Itoa(topK))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Similar []types.SimilarExperience `json:"similar"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding similar experiences: %w", err)
	}
	for i := range payload.Similar {
		payload.Similar[i].Similarity = types.Clamp01(payload.Similar[i].Similarity)
	}
	return payload.Similar, nil
}

// SuggestImprovements asks the agent layer for improvement suggestions on a
// completed session.
func (c *Client) SuggestImprovements(ctx context.Context, sessionID string) ([]string, error) {
	data, err := c.post(ctx, "/agent/suggest-improvements", map[string]string{"session_id": sessionID})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}
	return payload.Suggestions, nil
}

// RecentLogs is the polling fallback for the live stream.
func (c *Client) RecentLogs(ctx context.Context, limit int) ([]types.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	data, err := c.get(ctx, "/developer/logs?limit="+strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Logs []types.LogEntry `json:"logs"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding logs: %w", err)
	}
	return payload.Logs, nil
}

// Health probes the backend. Used by the status subcommand.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, "/health")
	return err
}
