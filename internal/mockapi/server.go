// Package mockapi is the embedded demo backend. It serves the endpoint
// surface the cockpit consumes with canned scenario data, including a
// WebSocket log stream emitting synthetic entries. Used by `carf demo` and
// by integration tests.
package mockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"carf/internal/logging"
	"carf/internal/types"
)

// Server is the demo backend.
type Server struct {
	httpSrv  *http.Server
	listener net.Listener
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	escalations []types.Escalation
}

// New builds a server listening on addr ("127.0.0.1:0" picks a free port).
func New(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	s := &Server{
		listener: listener,
		log:      logging.Get(logging.CategoryMockAPI),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/scenario/", s.handleScenario)
	mux.HandleFunc("/agents/stats", s.handleAgentStats)
	mux.HandleFunc("/guardian/status", s.handleGuardianStatus)
	mux.HandleFunc("/escalations", s.handleEscalations)
	mux.HandleFunc("/experience/patterns", s.handleExperiencePatterns)
	mux.HandleFunc("/experience/similar", s.handleExperienceSimilar)
	mux.HandleFunc("/workflow/recent", s.handleWorkflowRecent)
	mux.HandleFunc("/workflow/trace/", s.handleWorkflowTrace)
	mux.HandleFunc("/config/visualization", s.handleVisualizationConfig)
	mux.HandleFunc("/insights/generate", s.handleInsights)
	mux.HandleFunc("/agent/suggest-improvements", s.handleSuggestImprovements)
	mux.HandleFunc("/explain", s.handleExplain)
	mux.HandleFunc("/developer/logs", s.handleRecentLogs)
	mux.HandleFunc("/developer/logs/stream", s.handleLogStream)

	s.httpSrv = &http.Server{Handler: mux}
	return s, nil
}

// Start serves in a background goroutine until Shutdown.
func (s *Server) Start() {
	go func() {
		if err := s.httpSrv.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("demo server stopped", zap.Error(err))
		}
	}()
	s.log.Info("demo backend listening", zap.String("addr", s.Addr()))
}

// Addr returns the base URL of the running server.
func (s *Server) Addr() string {
	return "http://" + s.listener.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Query    string `json:"query"`
		Scenario string `json:"scenario"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.log.Info("query received",
		zap.String("scenario", req.Scenario),
		zap.String("query", req.Query))

	// A short artificial delay keeps the processing spinner visible in demos.
	time.Sleep(150 * time.Millisecond)
	writeJSON(w, http.StatusOK, queryResponse(req.Scenario, req.Query))
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/scenario/")
	info, ok := ScenarioByID(id)
	if !ok {
		http.Error(w, "unknown scenario", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleAgentStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, agentStats())
}

func (s *Server) handleGuardianStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.GuardianStatus{
		OverallStatus:  "healthy",
		ActivePolicies: 7,
		RecentBlocks:   1,
	})
}

func (s *Server) handleEscalations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		pending := r.URL.Query().Get("pending_only") == "true"
		out := make([]types.Escalation, 0, len(s.escalations))
		for _, e := range s.escalations {
			if pending && e.Status != "pending" {
				continue
			}
			out = append(out, e)
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"escalations": out})

	case http.MethodPost:
		var req struct {
			SessionID string `json:"session_id"`
			Reason    string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		escalation := types.Escalation{
			ID:        uuid.NewString(),
			SessionID: req.SessionID,
			Reason:    req.Reason,
			Status:    "pending",
			CreatedAt: time.Now().UTC(),
		}
		s.mu.Lock()
		s.escalations = append(s.escalations, escalation)
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, escalation)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleExperiencePatterns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, experiencePatterns())
}

func (s *Server) handleExperienceSimilar(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, similarExperiences(r.URL.Query().Get("query")))
}

func (s *Server) handleWorkflowRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, workflowRuns(limit))
}

func (s *Server) handleWorkflowTrace(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/workflow/trace/")
	trace, ok := workflowTrace(id)
	if !ok {
		http.Error(w, "unknown workflow", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, trace)
}

func (s *Server) handleVisualizationConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, visualizationConfig(r.URL.Query().Get("context")))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, insights())
}

func (s *Server) handleSuggestImprovements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, improvementSuggestions())
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"explanation": methodologyMarkdown,
	})
}

func (s *Server) handleRecentLogs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}
	logs := make([]types.LogEntry, 0, limit)
	for i := 0; i < limit; i++ {
		logs = append(logs, syntheticLog(i))
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// handleLogStream upgrades to a WebSocket and emits a synthetic entry every
// second until the client disconnects.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; ; i++ {
		<-ticker.C
		data, _ := json.Marshal(syntheticLog(i))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

const methodologyMarkdown = `# Methodology

## Cynefin routing

Each query is first classified into one of five Cynefin domains. The router
reports its confidence, the per-domain score distribution, and the key
indicators behind the classification.

## Causal inference

For *complicated* questions with historical data, the backend estimates a
treatment effect with backdoor adjustment and stress-tests it with
refutation checks (placebo treatment, random common cause, data subset).
The robustness count shown in the cockpit is the number of refutation tests
the estimate survived.

## Bayesian updating

For *complex* situations the backend maintains a belief state and
recommends the probe expected to reduce epistemic uncertainty the most.

## Guardian policies

Every proposed action passes through policy checks. Actions can pass, fail,
or require human approval; the Guardian panel shows each decision.
`
