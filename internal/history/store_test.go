package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carf/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "carf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSession(id string, ts time.Time) types.AnalysisSession {
	return types.AnalysisSession{
		ID:         id,
		Timestamp:  ts,
		Scenario:   "discount-churn",
		Query:      "does discount reduce churn",
		DurationMS: 512,
		Response: &types.QueryResponse{
			SessionID:        id,
			Domain:           types.DomainComplicated,
			DomainConfidence: 0.87,
			Response:         "negative effect",
			Causal: &types.CausalResult{
				Treatment:         "discount",
				Outcome:           "churn",
				Effect:            -0.42,
				RefutationsPassed: 4,
				RefutationsTotal:  5,
			},
		},
	}
}

func TestRecordAndGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	want := sampleSession("s-1", time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC))
	require.NoError(t, s.Record(want))

	got, err := s.Get("s-1")
	require.NoError(t, err)

	ignore := cmpopts.IgnoreFields(types.QueryResponse{}, "ReceivedAt")
	if diff := cmp.Diff(&want, got, ignore); diff != "" {
		t.Fatalf("session round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGetUnknownID(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(sampleSession("old", base)))
	require.NoError(t, s.Record(sampleSession("mid", base.Add(time.Minute))))
	require.NoError(t, s.Record(sampleSession("new", base.Add(2*time.Minute))))

	sessions, err := s.List(2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "mid", sessions[1].ID)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Record(sampleSession("s-1", time.Now())))
	require.NoError(t, s.Delete("s-1"))
	_, err := s.Get("s-1")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting again is fine.
	require.NoError(t, s.Delete("s-1"))
}

func TestVisitedFlag(t *testing.T) {
	s := openTestStore(t)

	visited, err := s.Visited()
	require.NoError(t, err)
	assert.False(t, visited)

	require.NoError(t, s.MarkVisited())

	visited, err = s.Visited()
	require.NoError(t, err)
	assert.True(t, visited)
}

func TestRecordNilResponse(t *testing.T) {
	s := openTestStore(t)

	session := types.AnalysisSession{
		ID:        "bare",
		Timestamp: time.Now().UTC(),
		Query:     "q",
	}
	require.NoError(t, s.Record(session))

	got, err := s.Get("bare")
	require.NoError(t, err)
	assert.Nil(t, got.Response)
}
