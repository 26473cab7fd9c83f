package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carf/internal/types"
)

func TestSubmitQueryDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/query", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "does discount reduce churn", req["query"])
		assert.Equal(t, "discount-churn", req["scenario"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"session_id": "s-1",
			"domain": "complicated",
			"domain_confidence": 0.87,
			"causal_result": {"treatment": "discount", "outcome": "churn", "effect": -0.42}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	qr, err := client.SubmitQuery(context.Background(), "does discount reduce churn", "discount-churn")
	require.NoError(t, err)
	assert.Equal(t, types.DomainComplicated, qr.Domain)
	require.NotNil(t, qr.Causal)
	assert.Equal(t, -0.42, qr.Causal.Effect)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.SubmitQuery(context.Background(), "q", "")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "/query", statusErr.Endpoint)
	assert.Contains(t, statusErr.Body, "backend exploded")
}

func TestConnectionRefused(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := client.GuardianStatus(context.Background())
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr), "transport failures are not status errors")
}

func TestScenarioFillsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/scenario/discount-churn", r.URL.Path)
		w.Write([]byte(`{"name": "Discount vs Churn", "suggested_queries": ["does discount reduce churn"]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	info, err := client.Scenario(context.Background(), "discount-churn")
	require.NoError(t, err)
	assert.Equal(t, "discount-churn", info.ID)
	assert.Equal(t, "Discount vs Churn", info.Name)
	assert.Len(t, info.SuggestedQueries, 1)
}

func TestAgentStatsAndEscalations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/agents/stats":
			w.Write([]byte(`{"agents": [{"name": "causal", "queries_handled": 12, "avg_confidence": 0.8}]}`))
		case "/escalations":
			assert.Equal(t, "true", r.URL.Query().Get("pending_only"))
			w.Write([]byte(`{"escalations": [{"id": "e-1", "reason": "low confidence", "status": "pending"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)

	agents, err := client.AgentStats(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "causal", agents[0].Name)

	escalations, err := client.Escalations(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, escalations, 1)
	assert.Equal(t, "pending", escalations[0].Status)
}

func TestRecentLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/developer/logs", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"logs": [{"level": "info", "source": "router", "message": "classified"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	logs, err := client.RecentLogs(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "router", logs[0].Source)
}
