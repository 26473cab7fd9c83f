package cockpit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carf/internal/api"
	"carf/internal/config"
)

func newModelAgainst(t *testing.T, baseURL string) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Display.Theme = "dark"
	return New(cfg, api.NewClient(baseURL, time.Second), nil, nil)
}

// A backend that serves scenarios but lacks the guardian and escalation
// endpoints must still deliver the scenario metadata.
func TestScenarioLoadSurvivesPartialBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/scenario/") {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"discount-churn","name":"Discount vs Churn"}`))
			return
		}
		http.Error(w, "not implemented", http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := newModelAgainst(t, srv.URL)
	msg := m.loadScenarioCmd(m.epoch, "discount-churn")()
	loaded, ok := msg.(scenarioLoadedMsg)
	require.True(t, ok)

	assert.NoError(t, loaded.err)
	require.NotNil(t, loaded.info)
	assert.Equal(t, "discount-churn", loaded.info.ID)
	assert.Nil(t, loaded.guardian)
	assert.Equal(t, -1, loaded.pendingCount)
}

func TestScenarioLoadFullFanOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/scenario/"):
			_, _ = w.Write([]byte(`{"id":"discount-churn","name":"Discount vs Churn"}`))
		case r.URL.Path == "/guardian/status":
			_, _ = w.Write([]byte(`{"overall_status":"degraded","active_policies":5,"recent_blocks":2}`))
		case r.URL.Path == "/escalations":
			_, _ = w.Write([]byte(`{"escalations":[{"id":"e1","status":"pending"},{"id":"e2","status":"pending"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	m := newModelAgainst(t, srv.URL)
	msg := m.loadScenarioCmd(m.epoch, "discount-churn")()
	loaded, ok := msg.(scenarioLoadedMsg)
	require.True(t, ok)

	assert.NoError(t, loaded.err)
	require.NotNil(t, loaded.guardian)
	assert.Equal(t, "degraded", loaded.guardian.OverallStatus)
	assert.Equal(t, 2, loaded.pendingCount)
}

func TestScenarioLoadFailureIsAuthoritative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := newModelAgainst(t, srv.URL)
	msg := m.loadScenarioCmd(m.epoch, "discount-churn")()
	loaded, ok := msg.(scenarioLoadedMsg)
	require.True(t, ok)
	assert.Error(t, loaded.err)
}
