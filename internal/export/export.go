// Package export writes the client-side JSON bundles: a full debug snapshot,
// the execution trace alone, and the chat transcript. Files land in the
// working directory (or a caller-supplied directory) with timestamped names
// matching the carf-<kind>-<ts>.json convention.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"carf/internal/logging"
	"carf/internal/types"
)

// DeveloperState is the cockpit state snapshot included in debug bundles.
type DeveloperState struct {
	Scenario    string `json:"scenario"`
	ViewMode    string `json:"view_mode"`
	StreamState string `json:"stream_state"`
	APIBaseURL  string `json:"api_base_url"`
}

// DebugBundle is the full diagnostic export.
type DebugBundle struct {
	ExportedAt     time.Time             `json:"exported_at"`
	Response       *types.QueryResponse  `json:"response"`
	ExecutionTrace []types.ReasoningStep `json:"execution_trace"`
	DeveloperState DeveloperState        `json:"developer_state"`
}

// TraceBundle is the execution trace alone.
type TraceBundle struct {
	ExportedAt time.Time             `json:"exported_at"`
	SessionID  string                `json:"session_id"`
	Trace      []types.ReasoningStep `json:"trace"`
}

// ChatBundle is the conversation transcript.
type ChatBundle struct {
	ExportedAt time.Time           `json:"exported_at"`
	Scenario   string              `json:"scenario"`
	Messages   []types.ChatMessage `json:"messages"`
}

// WriteDebug writes a debug bundle and returns the file path.
func WriteDebug(dir string, response *types.QueryResponse, state DeveloperState) (string, error) {
	bundle := DebugBundle{
		ExportedAt:     time.Now().UTC(),
		Response:       response,
		DeveloperState: state,
	}
	if response != nil {
		bundle.ExecutionTrace = response.ReasoningChain
	}
	return write(dir, "debug", bundle)
}

// WriteTrace writes the execution trace of a response.
func WriteTrace(dir string, response *types.QueryResponse) (string, error) {
	bundle := TraceBundle{ExportedAt: time.Now().UTC()}
	if response != nil {
		bundle.SessionID = response.SessionID
		bundle.Trace = response.ReasoningChain
	}
	return write(dir, "trace", bundle)
}

// WriteChat writes the chat transcript.
func WriteChat(dir, scenario string, messages []types.ChatMessage) (string, error) {
	return write(dir, "chat", ChatBundle{
		ExportedAt: time.Now().UTC(),
		Scenario:   scenario,
		Messages:   messages,
	})
}

func write(dir, kind string, payload any) (string, error) {
	if dir == "" {
		dir = "."
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling %s bundle: %w", kind, err)
	}

	name := fmt.Sprintf("carf-%s-%s.json", kind, time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s bundle: %w", kind, err)
	}

	logging.Get(logging.CategoryExport).Info("bundle written",
		zap.String("kind", kind), zap.String("path", path))
	return path, nil
}
